package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/score-leaderboard/internal/middleware"
	"github.com/iliyamo/score-leaderboard/internal/model"
	"github.com/iliyamo/score-leaderboard/internal/repository"
	"github.com/iliyamo/score-leaderboard/internal/utils"
)

// requestTimeout bounds the storage work of a single request.
const requestTimeout = 5 * time.Second

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users  *repository.UserRepo
	Tokens *utils.TokenIssuer
	Log    *slog.Logger
}

func NewAuthHandler(u *repository.UserRepo, t *utils.TokenIssuer, log *slog.Logger) *AuthHandler {
	return &AuthHandler{Users: u, Tokens: t, Log: log}
}

// ----- DTOs -----

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResp struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type loginResp struct {
	Token     string    `json:"token"`
	Success   bool      `json:"success"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toUserResp(u model.User) userResp {
	return userResp{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}

// Register: POST /register.  Creates a user; validation failures and taken
// usernames are both 400.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid_body", "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "validation_failed", "Username and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.Register(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrValidation):
			return fail(c, http.StatusBadRequest, "validation_failed", validationDetail(err, repository.ErrValidation))
		case errors.Is(err, repository.ErrConflict):
			return fail(c, http.StatusBadRequest, "username_taken", "Username already exists")
		}
		return internalError(c, h.Log, "register user failed", err)
	}
	h.Log.Info("user registered", "user_id", u.ID, "username", u.Username)
	return c.JSON(http.StatusOK, toUserResp(u))
}

// Login: POST /login.  Verifies credentials and returns a session token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid_body", "invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrAuth) {
			return fail(c, http.StatusUnauthorized, "invalid_credentials", "Incorrect username or password")
		}
		return internalError(c, h.Log, "authenticate failed", err)
	}

	access, err := h.Tokens.Issue(u.ID)
	if err != nil {
		return internalError(c, h.Log, "issue token failed", err)
	}
	return c.JSON(http.StatusOK, loginResp{Token: access.Token, Success: true, ExpiresAt: access.Exp})
}

// Me: GET /me.  Returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.Get(ctx, uid)
	if err != nil {
		return userLookupFailed(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}
