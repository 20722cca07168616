// Package worldstage tracks the lifecycle stage of a world and lets callers
// wait for a stage to be reached.
package worldstage

import (
	"sync"
)

type Stage string

const (
	Idle         Stage = "Idle"         // The default stage; the world is between ticks and ready to run
	Running      Stage = "Running"      // A tick is executing right now
	ShuttingDown Stage = "ShuttingDown" // A stop was requested; the current tick is allowed to finish
	Stopped      Stage = "Stopped"      // No further ticks will run
)

type Manager struct {
	mu      sync.Mutex
	current Stage
	waiters map[Stage][]chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		current: Idle,
		waiters: map[Stage][]chan struct{}{},
	}
}

// Current returns the stage as of this instant.
func (m *Manager) Current() Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Store unconditionally moves to the given stage.
func (m *Manager) Store(s Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(s)
}

// CompareAndSwap moves to next only if the stage is currently old, reporting
// whether the swap happened.
func (m *Manager) CompareAndSwap(old, next Stage) (swapped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != old {
		return false
	}
	m.setLocked(next)
	return true
}

// RequestStop moves to ShuttingDown unless the world is already stopping or
// stopped, returning the stage the request found. The caller decides from the
// returned stage who finishes the stop: a tick in flight, a loop goroutine,
// or the caller itself.
func (m *Manager) RequestStop() Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	was := m.current
	if was == ShuttingDown || was == Stopped {
		return was
	}
	m.setLocked(ShuttingDown)
	return was
}

// NotifyOnStage returns a channel that closes when the given stage is
// entered. If the world is already in that stage the channel is closed
// already.
func (m *Manager) NotifyOnStage(s Stage) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{})
	if m.current == s {
		close(ch)
		return ch
	}
	m.waiters[s] = append(m.waiters[s], ch)
	return ch
}

func (m *Manager) setLocked(s Stage) {
	m.current = s
	for _, ch := range m.waiters[s] {
		close(ch)
	}
	m.waiters[s] = nil
}
