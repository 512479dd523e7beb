package queue

import "github.com/phambaophuc/artwork-critic/internal/models"

// Tally aggregates consumed analysis events.
type Tally struct {
	Total         int            `json:"total"`
	ByOutcome     map[string]int `json:"by_outcome"`
	ByStyle       map[string]int `json:"by_style"`
	Chunks        int            `json:"chunks"`
	AvgDurationMs float64        `json:"avg_duration_ms"`
}

func newTally() Tally {
	return Tally{
		ByOutcome: map[string]int{},
		ByStyle:   map[string]int{},
	}
}

func (t *Tally) add(event models.AnalysisEvent) {
	t.AvgDurationMs = (t.AvgDurationMs*float64(t.Total) + float64(event.DurationMs)) / float64(t.Total+1)
	t.Total++
	t.ByOutcome[event.Outcome]++
	if event.Style != "" {
		t.ByStyle[event.Style]++
	}
	t.Chunks += event.Chunks
}

func (t Tally) clone() Tally {
	out := t
	out.ByOutcome = make(map[string]int, len(t.ByOutcome))
	for k, v := range t.ByOutcome {
		out.ByOutcome[k] = v
	}
	out.ByStyle = make(map[string]int, len(t.ByStyle))
	for k, v := range t.ByStyle {
		out.ByStyle[k] = v
	}
	return out
}
