package inmemory

import (
	"sort"
	"sync"

	"thorplan/internal/domain/action"
)

type KindCounts struct {
	Success   uint64            `json:"success"`
	Failure   uint64            `json:"failure"`
	ByOutcome map[string]uint64 `json:"by_outcome,omitempty"`
}

type Snapshot struct {
	ActionTotal   uint64                `json:"action_total"`
	ActionSuccess uint64                `json:"action_success"`
	ActionFailure uint64                `json:"action_failure"`
	ByOutcome     map[string]uint64     `json:"by_outcome"`
	ByKind        map[string]KindCounts `json:"by_kind"`
	// Kinds lists ByKind keys in menu order, unknown kinds last.
	Kinds []string `json:"kinds"`
}

type Recorder struct {
	mu        sync.Mutex
	success   uint64
	failure   uint64
	byOutcome map[string]uint64
	byKind    map[action.Kind]*KindCounts
}

func NewRecorder() *Recorder {
	return &Recorder{
		byOutcome: map[string]uint64{},
		byKind:    map[action.Kind]*KindCounts{},
	}
}

func (r *Recorder) kindLocked(kind action.Kind) *KindCounts {
	c, ok := r.byKind[kind]
	if !ok {
		c = &KindCounts{ByOutcome: map[string]uint64{}}
		r.byKind[kind] = c
	}
	return c
}

func (r *Recorder) RecordSuccess(kind action.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.success++
	r.byOutcome["ok"]++
	r.kindLocked(kind).Success++
}

func (r *Recorder) RecordFailure(kind action.Kind, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure++
	r.byOutcome[outcome]++
	c := r.kindLocked(kind)
	c.Failure++
	c.ByOutcome[outcome]++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		ActionSuccess: r.success,
		ActionFailure: r.failure,
		ActionTotal:   r.success + r.failure,
		ByOutcome:     make(map[string]uint64, len(r.byOutcome)),
		ByKind:        make(map[string]KindCounts, len(r.byKind)),
		Kinds:         make([]string, 0, len(r.byKind)),
	}
	for k, v := range r.byOutcome {
		out.ByOutcome[k] = v
	}
	for k, c := range r.byKind {
		cp := KindCounts{Success: c.Success, Failure: c.Failure, ByOutcome: make(map[string]uint64, len(c.ByOutcome))}
		for o, v := range c.ByOutcome {
			cp.ByOutcome[o] = v
		}
		out.ByKind[string(k)] = cp
		out.Kinds = append(out.Kinds, string(k))
	}
	sort.SliceStable(out.Kinds, func(i, j int) bool {
		return menuIndex(out.Kinds[i]) < menuIndex(out.Kinds[j]) ||
			(menuIndex(out.Kinds[i]) == menuIndex(out.Kinds[j]) && out.Kinds[i] < out.Kinds[j])
	})
	return out
}

func menuIndex(kind string) int {
	for i, k := range action.Kinds() {
		if string(k) == kind {
			return i
		}
	}
	return len(action.Kinds())
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
