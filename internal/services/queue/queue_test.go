package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phambaophuc/artwork-critic/internal/models"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChannel struct {
	mu         sync.Mutex
	published  []amqp.Publishing
	keys       []string
	publishErr error
	deliveries chan amqp.Delivery
	closed     bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{deliveries: make(chan amqp.Delivery)}
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) QueueInspect(name string) (amqp.Queue, error) {
	return amqp.Queue{Name: name, Messages: 3, Consumers: 1}, nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

type fakeAcknowledger struct {
	mu     sync.Mutex
	acks   int
	nacks  int
	notify chan struct{}
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	a.acks++
	a.mu.Unlock()
	a.notify <- struct{}{}
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	a.nacks++
	a.mu.Unlock()
	a.notify <- struct{}{}
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error { return nil }

func TestPublishAnalysisEvent(t *testing.T) {
	ch := newFakeChannel()
	q := newQueueService(ch, "artwork_analysis_events", zap.NewNop())

	event := models.AnalysisEvent{
		RequestID: "req-1",
		Style:     "museum",
		Model:     "@cf/meta/llama-3.2-11b-vision-instruct",
		Mode:      models.ModeNative,
		Chunks:    12,
		Outcome:   models.OutcomeCompleted,
	}
	require.NoError(t, q.PublishAnalysisEvent(context.Background(), event))

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, "artwork_analysis_events", ch.keys[0])
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "req-1", msg.MessageId)

	var decoded models.AnalysisEvent
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, event, decoded)
}

func TestPublishAnalysisEvent_Errors(t *testing.T) {
	ch := newFakeChannel()
	ch.publishErr = errors.New("channel closed")
	q := newQueueService(ch, "events", nil)

	err := q.PublishAnalysisEvent(context.Background(), models.AnalysisEvent{})
	assert.ErrorContains(t, err, "failed to publish event")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, q.PublishAnalysisEvent(ctx, models.AnalysisEvent{}), context.Canceled)
}

func TestWorker_TalliesEvents(t *testing.T) {
	ch := newFakeChannel()
	q := newQueueService(ch, "events", zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, q.StartWorker(ctx, 1))

	ack := &fakeAcknowledger{notify: make(chan struct{}, 4)}
	send := func(body []byte) {
		ch.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body}
		select {
		case <-ack.notify:
		case <-time.After(time.Second):
			t.Fatal("delivery was not acknowledged")
		}
	}

	for _, ev := range []models.AnalysisEvent{
		{Style: "museum", Outcome: models.OutcomeCompleted, Chunks: 10, DurationMs: 100},
		{Style: "museum", Outcome: models.OutcomeFailed, Chunks: 2, DurationMs: 300},
		{Style: "humorous", Outcome: models.OutcomeCompleted, Chunks: 4, DurationMs: 200},
	} {
		body, err := json.Marshal(ev)
		require.NoError(t, err)
		send(body)
	}
	send([]byte("not json"))

	tally := q.Tally()
	assert.Equal(t, 3, tally.Total)
	assert.Equal(t, map[string]int{"completed": 2, "failed": 1}, tally.ByOutcome)
	assert.Equal(t, map[string]int{"museum": 2, "humorous": 1}, tally.ByStyle)
	assert.Equal(t, 16, tally.Chunks)
	assert.InDelta(t, 200.0, tally.AvgDurationMs, 0.001)

	ack.mu.Lock()
	assert.Equal(t, 3, ack.acks)
	assert.Equal(t, 1, ack.nacks)
	ack.mu.Unlock()
}

func TestTally_SnapshotIsIsolated(t *testing.T) {
	q := newQueueService(newFakeChannel(), "events", nil)
	snap := q.Tally()
	snap.ByOutcome["completed"] = 99
	assert.Empty(t, q.Tally().ByOutcome)
}

func TestGetQueueStatsAndHealth(t *testing.T) {
	ch := newFakeChannel()
	q := newQueueService(ch, "events", nil)

	stats, err := q.GetQueueStats()
	require.NoError(t, err)
	assert.Equal(t, "events", stats["name"])
	assert.Equal(t, 3, stats["messages"])
	assert.IsType(t, Tally{}, stats["analyses"])

	assert.Equal(t, "unhealthy: connection closed", q.HealthCheck())

	require.NoError(t, q.Close())
	assert.True(t, ch.closed)
}
