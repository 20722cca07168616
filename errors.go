package aether

import (
	"github.com/rotisserie/eris"

	"github.com/glasswing-games/aether/ecs"
)

// The error taxonomy of the runtime. Absence of an entity, component, or
// resource is an expected outcome and surfaces as a (zero, false) return, not
// an error; ErrNotFound appears only where the caller named a specific entity
// that must exist. Access conflicts are configuration mistakes and are caught
// while the world is being assembled, never during a tick. System faults are
// runtime failures isolated to one system for one tick.
var (
	ErrNotFound         = ecs.ErrNotFound
	ErrAccessConflict   = ecs.ErrAccessConflict
	ErrSystemFault      = ecs.ErrSystemFault
	ErrWorldSealed      = ecs.ErrWorldSealed
	ErrTickNotProcessed = ecs.ErrTickNotProcessed
	ErrTickDiscarded    = ecs.ErrTickDiscarded

	// ErrTickRejected reports a tick attempted in a stage that cannot run
	// one: another tick is in flight, or the world is shutting down or
	// already stopped.
	ErrTickRejected = eris.New("world stage does not allow a tick")

	// ErrLoopRunning reports a manual DoTick on a world whose tick loop is
	// already driving ticks, or a second StartTickLoop.
	ErrLoopRunning = eris.New("tick loop is already driving this world")
)

// AccessConflictError names the two systems whose declared access cannot
// share a tick and every overlapping component or resource type.
type AccessConflictError = ecs.AccessConflictError

// SystemFaultError records a system failure during a tick.
type SystemFaultError = ecs.SystemFaultError
