package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/score-leaderboard/internal/model"
)

// DefaultTopN is the leaderboard size served by the API.
const DefaultTopN = 3

// LeaderboardRepo reads the ranked view of the score ledger.  Every call
// goes to the database; nothing is cached.
type LeaderboardRepo struct{ DB *sqlx.DB }

func NewLeaderboardRepo(db *sqlx.DB) *LeaderboardRepo { return &LeaderboardRepo{DB: db} }

type leaderboardRow struct {
	Username string `db:"username"`
	Score    int64  `db:"score"`
}

// Top returns the n best users ordered by score, highest first.  Equal
// scores keep the order in which they were recorded (created_at of the
// current best).  Bests recorded in the same microsecond fall back to the
// row id, which is fixed at a user's first submission; that order is stable
// across calls but otherwise arbitrary.  n <= 0 selects DefaultTopN.  The
// result is empty, not nil, when nobody has a score.
func (r *LeaderboardRepo) Top(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	if n <= 0 {
		n = DefaultTopN
	}
	var rows []leaderboardRow
	err := r.DB.SelectContext(ctx, &rows,
		`SELECT u.username, s.score
		 FROM scores s
		 JOIN users u ON u.id = s.user_id
		 ORDER BY s.score DESC, s.created_at ASC, s.id ASC
		 LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	out := make([]model.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		out = append(out, model.LeaderboardEntry{Rank: i + 1, Username: row.Username, Score: row.Score})
	}
	return out, nil
}
