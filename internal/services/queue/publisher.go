package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phambaophuc/artwork-critic/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// PublishAnalysisEvent records the outcome of one analysis on the events queue.
func (q *QueueService) PublishAnalysisEvent(ctx context.Context, event models.AnalysisEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = q.channel.Publish(
		"",          // exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.RequestID,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	q.logger.Debug("Analysis event published",
		zap.String("request_id", event.RequestID),
		zap.String("outcome", event.Outcome))
	return nil
}
