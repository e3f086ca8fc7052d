package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"detail-library/internal/platform/rabbitmq"
)

// BackfillRunner is satisfied by app.BackfillService.
type BackfillRunner interface {
	Run(ctx context.Context) (int, error)
}

// BackfillWorker consumes backfill jobs one at a time. Jobs are processed
// serially so two backfill runs from this worker never overlap.
type BackfillWorker struct {
	conn      *amqp.Connection
	runner    BackfillRunner
	queueName string
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewBackfillWorker(conn *amqp.Connection, runner BackfillRunner, queueName string, logger *slog.Logger) *BackfillWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackfillWorker{
		conn:      conn,
		runner:    runner,
		queueName: queueName,
		logger:    logger.With("component", "backfill_worker", "queue", queueName),
	}
}

func (w *BackfillWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					w.logger.Error("backfill job failed", "err", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	w.logger.Info("backfill worker started")
	return nil
}

func (w *BackfillWorker) handle(ctx context.Context, body []byte) error {
	var job rabbitmq.BackfillJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("decode backfill job failed: %w", err)
	}

	updated, err := w.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("run backfill %s failed: %w", job.RequestID, err)
	}
	w.logger.Info("backfill job done", "request_id", job.RequestID, "updated", updated)
	return nil
}

func (w *BackfillWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
