package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/score-leaderboard/internal/repository"
)

// errorBody is the JSON shape of every failure.  Error is a stable machine
// readable reason; Detail is a human message.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func fail(c echo.Context, status int, reason, detail string) error {
	return c.JSON(status, errorBody{Error: reason, Detail: detail})
}

// internalError logs err with the request id and answers with a generic
// 500 so storage details never reach the client.
func internalError(c echo.Context, log *slog.Logger, msg string, err error) error {
	log.Error(msg,
		"error", err,
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"path", c.Path())
	return fail(c, http.StatusInternalServerError, "internal_error", "internal server error")
}

// validationDetail strips the sentinel prefix from a wrapped validation or
// conflict error so only the reason is shown.
func validationDetail(err error, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return rest
	}
	return msg
}

// userLookupFailed maps a failed lookup of the authenticated user: a user
// that no longer resolves is an authentication failure.
func userLookupFailed(c echo.Context, log *slog.Logger, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusUnauthorized, "user_not_found", "User not found")
	}
	return internalError(c, log, "load user failed", err)
}
