package seed

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of a seeding run.
type Snapshot struct {
	RunID      string     `json:"run_id"`
	Table      string     `json:"table"`
	Target     int        `json:"target"`
	Inserted   int        `json:"inserted"`
	LastUserID string     `json:"last_user_id,omitempty"`
	LastClick  *time.Time `json:"last_click_ts,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	Finished   bool       `json:"finished"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Progress tracks a run so another goroutine can observe it.
type Progress struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewProgress creates an empty tracker.
func NewProgress() *Progress {
	return &Progress{}
}

func (p *Progress) start(runID, table string, target int, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap = Snapshot{RunID: runID, Table: table, Target: target, StartedAt: at}
}

func (p *Progress) record(userID string, clickTS time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.Inserted++
	p.snap.LastUserID = userID
	ts := clickTS
	p.snap.LastClick = &ts
}

func (p *Progress) finish(at time.Time, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.Finished = true
	p.snap.FinishedAt = &at
	if err != nil {
		p.snap.Error = err.Error()
	}
}

// Snapshot returns a copy of the current state.
func (p *Progress) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}
