package relay

import (
	"errors"

	"github.com/phambaophuc/artwork-critic/internal/models"
)

type State int

const (
	StateStarting State = iota
	StateStreaming
	StateCompleting
	StateErroring
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateStreaming:
		return "streaming"
	case StateCompleting:
		return "completing"
	case StateErroring:
		return "erroring"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Emitter delivers events to the client in call order.
type Emitter interface {
	Emit(event models.RelayEvent) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(event models.RelayEvent) error

func (f EmitterFunc) Emit(event models.RelayEvent) error {
	return f(event)
}

// ErrStreamClosed is returned for any event offered after the terminal one.
var ErrStreamClosed = errors.New("relay stream already terminated")

// sequence guards the one-terminal-event rule in front of an Emitter.
type sequence struct {
	out        Emitter
	terminated bool
	chunks     int
}

func (s *sequence) emit(event models.RelayEvent) error {
	if s.terminated {
		return ErrStreamClosed
	}
	if event.IsTerminal() {
		s.terminated = true
	}
	if err := s.out.Emit(event); err != nil {
		return err
	}
	if event.Type == models.EventChunk {
		s.chunks++
	}
	return nil
}
