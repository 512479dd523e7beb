package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phambaophuc/artwork-critic/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// StartWorker consumes analysis events and folds them into the tally until
// ctx is done.
func (q *QueueService) StartWorker(ctx context.Context, workerID int) error {
	msgs, err := q.channel.Consume(
		q.queueName,                        // queue
		fmt.Sprintf("worker-%d", workerID), // consumer
		false,                              // auto-ack
		false,                              // exclusive
		false,                              // no-local
		false,                              // no-wait
		nil,                                // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	q.logger.Info("Worker started", zap.Int("worker_id", workerID))

	go func() {
		for {
			select {
			case <-ctx.Done():
				q.logger.Info("Worker stopping", zap.Int("worker_id", workerID))
				return
			case msg, ok := <-msgs:
				if !ok {
					q.logger.Warn("Message channel closed", zap.Int("worker_id", workerID))
					return
				}
				q.processMessage(msg, workerID)
			}
		}
	}()

	return nil
}

func (q *QueueService) processMessage(msg amqp.Delivery, workerID int) {
	var event models.AnalysisEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		q.logger.Error("Failed to unmarshal event",
			zap.Error(err),
			zap.Int("worker_id", workerID))
		msg.Nack(false, false) // malformed messages are dropped
		return
	}

	q.mu.Lock()
	q.tally.add(event)
	q.mu.Unlock()

	if err := msg.Ack(false); err != nil {
		q.logger.Error("Failed to ack message",
			zap.String("request_id", event.RequestID),
			zap.Error(err))
	}
}
