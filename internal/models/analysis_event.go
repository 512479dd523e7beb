package models

import "time"

const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeAborted   = "aborted"

	ModeNative   = "native"
	ModeFallback = "fallback"
)

// AnalysisEvent summarises one relayed stream for downstream consumers.
type AnalysisEvent struct {
	RequestID   string    `json:"request_id"`
	Style       string    `json:"style"`
	Model       string    `json:"model"`
	Mode        string    `json:"mode,omitempty"`
	Chunks      int       `json:"chunks"`
	Outcome     string    `json:"outcome"`
	Error       string    `json:"error,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
	CompletedAt time.Time `json:"completed_at"`
}
