package explore

import (
	"sync"
	"time"

	appaction "thorplan/internal/app/action"
	"thorplan/internal/domain/action"
)

type KindTally struct {
	Attempted int            `json:"attempted"`
	Succeeded int            `json:"succeeded"`
	ByOutcome map[string]int `json:"by_outcome"`
}

// Report summarizes one exploration run.
type Report struct {
	RunID     string                     `json:"run_id"`
	Mode      string                     `json:"mode"`
	Scenes    []int                      `json:"scenes"`
	Attempted int                        `json:"attempted"`
	Succeeded int                        `json:"succeeded"`
	ByKind    map[action.Kind]*KindTally `json:"by_kind"`
	StartedAt time.Time                  `json:"started_at"`
	Elapsed   time.Duration              `json:"elapsed_ns"`
	// Aborted carries the error that stopped the run early.
	Aborted string `json:"aborted,omitempty"`

	mu sync.Mutex
}

func newReport(runID, mode string, startedAt time.Time) *Report {
	return &Report{RunID: runID, Mode: mode, ByKind: map[action.Kind]*KindTally{}, StartedAt: startedAt}
}

func (r *Report) add(kind action.Kind, outcome appaction.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.ByKind[kind]
	if !ok {
		t = &KindTally{ByOutcome: map[string]int{}}
		r.ByKind[kind] = t
	}
	r.Attempted++
	t.Attempted++
	t.ByOutcome[string(outcome)]++
	if outcome == appaction.OutcomeOK {
		r.Succeeded++
		t.Succeeded++
	}
}
