package relay

import (
	"context"
	"strings"
	"time"
)

const wordsPerChunk = 2

// Chunks splits text on whitespace into groups of two words, each followed
// by a single space. Whitespace-only text yields no chunks.
func Chunks(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(words)+wordsPerChunk-1)/wordsPerChunk)
	for i := 0; i < len(words); i += wordsPerChunk {
		end := i + wordsPerChunk
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " ")+" ")
	}
	return chunks
}

// Pacer spaces out fallback chunks so a finished answer reads like a
// stream. Wait returns early with ctx's error when ctx is done.
type Pacer interface {
	Wait(ctx context.Context) error
}

type FixedPacer struct {
	Delay time.Duration
}

func (p FixedPacer) Wait(ctx context.Context) error {
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type noPacer struct{}

func (noPacer) Wait(ctx context.Context) error {
	return ctx.Err()
}

// NoPacer emits fallback chunks back to back.
var NoPacer Pacer = noPacer{}

// NewPacer returns NoPacer for non-positive delays.
func NewPacer(delay time.Duration) Pacer {
	if delay <= 0 {
		return NoPacer
	}
	return FixedPacer{Delay: delay}
}
