package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/score-leaderboard/internal/middleware"
	"github.com/iliyamo/score-leaderboard/internal/queue"
	"github.com/iliyamo/score-leaderboard/internal/repository"
)

// RecordNotifier is told about new personal bests.  It is optional.
type RecordNotifier interface {
	PublishRecordSet(ctx context.Context, event queue.RecordSetEvent) error
}

// ScoreHandler serves score submission and the leaderboard.
type ScoreHandler struct {
	Users   *repository.UserRepo
	Scores  *repository.ScoreRepo
	Board   *repository.LeaderboardRepo
	Records RecordNotifier // nil disables new-record events
	Log     *slog.Logger

	publishing sync.WaitGroup
}

func NewScoreHandler(u *repository.UserRepo, s *repository.ScoreRepo, b *repository.LeaderboardRepo, records RecordNotifier, log *slog.Logger) *ScoreHandler {
	if u == nil || s == nil || b == nil {
		panic("nil repository passed to NewScoreHandler")
	}
	return &ScoreHandler{Users: u, Scores: s, Board: b, Records: records, Log: log}
}

// Drain waits for in-flight record events to be published, or for ctx to
// end.  Call it after the HTTP server has stopped accepting requests.
func (h *ScoreHandler) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.publishing.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type submitScoreReq struct {
	Score *int64 `json:"score"`
}

type bestScoreResp struct {
	Score *int64 `json:"score"`
}

type leaderboardItem struct {
	Position int    `json:"position"`
	Username string `json:"username"`
	Score    int64  `json:"score"`
}

// SubmitScore: POST /scores.  Always answers {success: true} for an
// accepted submission, whether or not it beat the stored best.
func (h *ScoreHandler) SubmitScore(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
	}
	var req submitScoreReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid_body", "score must be an integer")
	}
	if req.Score == nil {
		return fail(c, http.StatusBadRequest, "validation_failed", "score is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.Get(ctx, uid)
	if err != nil {
		return userLookupFailed(c, h.Log, err)
	}
	res, err := h.Scores.Submit(ctx, uid, *req.Score)
	if err != nil {
		return internalError(c, h.Log, "submit score failed", err)
	}
	if res.Updated {
		h.Log.Info("new record saved", "user_id", uid, "score", *req.Score)
		if h.Records != nil {
			ev := queue.RecordSetEvent{
				UserID:     uid,
				Username:   u.Username,
				Score:      *req.Score,
				RecordedAt: time.Now().UTC().Format(time.RFC3339),
			}
			h.publishing.Add(1)
			go h.publish(ev)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *ScoreHandler) publish(ev queue.RecordSetEvent) {
	defer h.publishing.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.Records.PublishRecordSet(ctx, ev); err != nil {
		h.Log.Warn("publish record event failed", "user_id", ev.UserID, "error", err)
	}
}

// BestScore: GET /scores/me.  Returns the caller's best or null.
func (h *ScoreHandler) BestScore(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if _, err := h.Users.Get(ctx, uid); err != nil {
		return userLookupFailed(c, h.Log, err)
	}
	best, err := h.Scores.BestOf(ctx, uid)
	if err != nil {
		return internalError(c, h.Log, "load best score failed", err)
	}
	return c.JSON(http.StatusOK, bestScoreResp{Score: best})
}

// Leaderboard: GET /leaderboard.  Top players by best score, read fresh
// from the ledger on every request.
func (h *ScoreHandler) Leaderboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	entries, err := h.Board.Top(ctx, repository.DefaultTopN)
	if err != nil {
		return internalError(c, h.Log, "leaderboard query failed", err)
	}
	out := make([]leaderboardItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, leaderboardItem{Position: e.Rank, Username: e.Username, Score: e.Score})
	}
	return c.JSON(http.StatusOK, out)
}
