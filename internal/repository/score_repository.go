package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/score-leaderboard/internal/database"
)

// The update branch of each upsert fires only for a strictly greater score,
// so the compare and the replace happen inside one statement under the row
// lock of the unique user_id key.  created_at is assigned before score on
// MySQL because assignments there see earlier ones.
const (
	mysqlSubmitBest = `INSERT INTO scores (user_id, score, created_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			created_at = IF(VALUES(score) > score, VALUES(created_at), created_at),
			score = IF(VALUES(score) > score, VALUES(score), score)`

	sqliteSubmitBest = `INSERT INTO scores (user_id, score, created_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			score = excluded.score,
			created_at = excluded.created_at
		WHERE excluded.score > scores.score`
)

// scoreRecord mirrors the 'scores' table.
type scoreRecord struct {
	ID        uint64 `db:"id"`
	UserID    uint64 `db:"user_id"`
	Score     int64  `db:"score"`
	CreatedAt int64  `db:"created_at"`
}

// SubmitResult reports whether a submission became the user's new best.
type SubmitResult struct {
	Updated bool
}

// ScoreRepo is the score ledger: one row per user holding their best score.
type ScoreRepo struct {
	DB *sqlx.DB

	// Now returns the current time; nil means time.Now.
	Now func() time.Time
}

func NewScoreRepo(db *sqlx.DB) *ScoreRepo { return &ScoreRepo{DB: db} }

func (r *ScoreRepo) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

// Submit records score for userID if it beats the stored best or no best
// exists yet.  A score equal to or lower than the best leaves the row as is
// and reports Updated=false.  Concurrent submissions for the same user are
// serialized by the database; the highest one always survives.
func (r *ScoreRepo) Submit(ctx context.Context, userID uint64, score int64) (SubmitResult, error) {
	var q string
	switch r.DB.DriverName() {
	case database.DriverMySQL:
		q = mysqlSubmitBest
	case database.DriverSQLite:
		q = sqliteSubmitBest
	default:
		return SubmitResult{}, fmt.Errorf("submit score: unsupported driver %q", r.DB.DriverName())
	}
	res, err := r.DB.ExecContext(ctx, q, userID, score, toMicros(r.now()))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("submit score: %w", err)
	}
	// MySQL reports 1 for an insert, 2 for a changed row and 0 when the
	// update left the row untouched; SQLite reports 1 or 0.
	n, err := res.RowsAffected()
	if err != nil {
		return SubmitResult{}, fmt.Errorf("submit score: %w", err)
	}
	return SubmitResult{Updated: n > 0}, nil
}

// BestOf returns the stored best score of userID, or nil if the user has
// never submitted.
func (r *ScoreRepo) BestOf(ctx context.Context, userID uint64) (*int64, error) {
	rec, err := r.get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec.Score, nil
}

func (r *ScoreRepo) get(ctx context.Context, userID uint64) (scoreRecord, error) {
	var rec scoreRecord
	err := r.DB.GetContext(ctx, &rec,
		"SELECT id, user_id, score, created_at FROM scores WHERE user_id = ?", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return scoreRecord{}, ErrNotFound
		}
		return scoreRecord{}, fmt.Errorf("load score: %w", err)
	}
	return rec, nil
}
