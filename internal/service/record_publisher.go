// Package service provides functions to publish domain events to RabbitMQ.
// Errors are logged and returned so callers can ignore failures without
// interrupting the request that produced the event.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/score-leaderboard/internal/queue"
)

// RecordPublisher sends RecordSetEvent messages to the score.record queue.
// Each publish dials its own connection, so a broker outage never leaves a
// dead connection behind in the server.
type RecordPublisher struct {
	URL string
	Log *slog.Logger
}

func NewRecordPublisher(url string, log *slog.Logger) *RecordPublisher {
	return &RecordPublisher{URL: url, Log: log}
}

// PublishRecordSet publishes event as a persistent JSON message.
func (p *RecordPublisher) PublishRecordSet(ctx context.Context, event q.RecordSetEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Warn("rabbitmq: dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn("rabbitmq: channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.RecordQueueName, true, false, false, false, nil); err != nil {
		p.Log.Warn("rabbitmq: queue declare failed", "error", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.RecordQueueName, false, false, pub); err != nil {
		p.Log.Warn("rabbitmq: publish failed", "error", err)
		return err
	}
	return nil
}
