package model

// LeaderboardEntry is one ranked line of the leaderboard.  Rank starts at 1.
type LeaderboardEntry struct {
	Rank     int
	Username string
	Score    int64
}
