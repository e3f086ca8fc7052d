package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// BackfillJob asks a worker to embed every detail that has no vector yet.
// The job carries no detail ids: the worker always picks up the current
// unembedded set, so duplicate jobs are harmless.
type BackfillJob struct {
	RequestID   string    `json:"request_id"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

type BackfillPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewBackfillPublisher(conn *amqp.Connection, queueName string) *BackfillPublisher {
	return &BackfillPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *BackfillPublisher) Publish(ctx context.Context, job BackfillJob) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if _, err := declareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal backfill job failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    job.RequestID,
			Timestamp:    job.RequestedAt,
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish backfill job failed: %w", err)
	}
	return nil
}
