package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventStatus   EventType = "status"
	EventChunk    EventType = "chunk"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// TimestampLayout matches JavaScript's Date.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// RelayEvent is one unit of the client-facing stream. Only the fields of
// its Type are meaningful:
//
//	status   Message
//	chunk    Content
//	complete Model, Timestamp
//	error    Message
type RelayEvent struct {
	Type      EventType
	Message   string
	Content   string
	Model     string
	Timestamp time.Time
}

func StatusEvent(message string) RelayEvent {
	return RelayEvent{Type: EventStatus, Message: message}
}

func ChunkEvent(content string) RelayEvent {
	return RelayEvent{Type: EventChunk, Content: content}
}

func CompleteEvent(model string, ts time.Time) RelayEvent {
	return RelayEvent{Type: EventComplete, Model: model, Timestamp: ts.UTC().Truncate(time.Millisecond)}
}

func ErrorEvent(message string) RelayEvent {
	return RelayEvent{Type: EventError, Message: message}
}

// IsTerminal reports whether e ends a stream.
func (e RelayEvent) IsTerminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

type statusWire struct {
	Type    EventType `json:"type"`
	Message string    `json:"message"`
}

type chunkWire struct {
	Type    EventType `json:"type"`
	Content string    `json:"content"`
}

type completeWire struct {
	Type      EventType `json:"type"`
	Model     string    `json:"model"`
	Timestamp string    `json:"timestamp"`
}

type anyWire struct {
	Type      EventType `json:"type"`
	Message   *string   `json:"message"`
	Content   *string   `json:"content"`
	Model     *string   `json:"model"`
	Timestamp *string   `json:"timestamp"`
}

func (e RelayEvent) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventStatus, EventError:
		return json.Marshal(statusWire{Type: e.Type, Message: e.Message})
	case EventChunk:
		return json.Marshal(chunkWire{Type: e.Type, Content: e.Content})
	case EventComplete:
		return json.Marshal(completeWire{
			Type:      e.Type,
			Model:     e.Model,
			Timestamp: e.Timestamp.UTC().Format(TimestampLayout),
		})
	default:
		return nil, fmt.Errorf("unknown relay event type %q", e.Type)
	}
}

func (e *RelayEvent) UnmarshalJSON(data []byte) error {
	var w anyWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := RelayEvent{Type: w.Type}
	switch w.Type {
	case EventStatus, EventError:
		if w.Message == nil {
			return fmt.Errorf("%s event without message", w.Type)
		}
		out.Message = *w.Message
	case EventChunk:
		if w.Content == nil {
			return fmt.Errorf("chunk event without content")
		}
		out.Content = *w.Content
	case EventComplete:
		if w.Model == nil || w.Timestamp == nil {
			return fmt.Errorf("complete event without model or timestamp")
		}
		ts, err := time.Parse(time.RFC3339Nano, *w.Timestamp)
		if err != nil {
			return fmt.Errorf("invalid complete timestamp: %w", err)
		}
		out.Model = *w.Model
		out.Timestamp = ts.UTC()
	default:
		return fmt.Errorf("unknown relay event type %q", w.Type)
	}

	*e = out
	return nil
}
