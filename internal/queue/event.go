// Package queue defines message payloads exchanged over the message broker.
package queue

// RecordQueueName is the durable queue carrying RecordSetEvent messages.
const RecordQueueName = "score.record"

// RecordSetEvent is published when a submission becomes a player's new
// personal best.  It carries enough for consumers to log or notify without
// querying the primary database.
type RecordSetEvent struct {
	UserID     uint64 `json:"user_id"`
	Username   string `json:"username"`
	Score      int64  `json:"score"`
	RecordedAt string `json:"recorded_at"` // RFC 3339, UTC
}
