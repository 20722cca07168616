package ecs

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// SystemTiming records one system execution within a tick.
type SystemTiming struct {
	System   string        `json:"system"`
	Duration time.Duration `json:"duration"`
}

// Fault records one isolated system failure within a tick.
type Fault struct {
	System string `json:"system"`
	Err    error  `json:"err"`
}

// TickReport summarizes one completed tick: when it ran, how long each system
// took, and which systems faulted.
type TickReport struct {
	Tick      uint64         `json:"tick"`
	StartedAt time.Time      `json:"startedAt"`
	Duration  time.Duration  `json:"duration"`
	Systems   []SystemTiming `json:"systems"`
	Faults    []Fault        `json:"faults,omitempty"`
}

// reportHistory retains the reports of recent ticks in a fixed ring. Reports
// older than the window are discarded.
type reportHistory struct {
	mu      sync.Mutex
	window  uint64
	reports []*TickReport
	// latest is the newest completed tick; meaningless until count > 0.
	latest uint64
	count  uint64
}

func newReportHistory(window int) *reportHistory {
	if window < 1 {
		window = 1
	}
	return &reportHistory{
		window:  uint64(window),
		reports: make([]*TickReport, window),
	}
}

func (h *reportHistory) push(r *TickReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reports[r.Tick%h.window] = r
	h.latest = r.Tick
	h.count++
}

// get returns the report for a tick. Ticks not yet completed return
// ErrTickNotProcessed; ticks older than the window return ErrTickDiscarded.
func (h *reportHistory) get(tick uint64) (*TickReport, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 || tick > h.latest {
		return nil, eris.Wrapf(ErrTickNotProcessed, "tick %d", tick)
	}
	r := h.reports[tick%h.window]
	if r == nil || r.Tick != tick {
		return nil, eris.Wrapf(ErrTickDiscarded, "tick %d", tick)
	}
	return r, nil
}
