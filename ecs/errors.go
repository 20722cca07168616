package ecs

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	// ErrNotFound reports an absent entity, component, or resource. Absence
	// is an expected outcome that callers branch on, not a failure.
	ErrNotFound = eris.New("not found")

	// ErrAccessConflict reports an invalid registration: overlapping write
	// declarations, a dependency cycle, or a malformed declaration. It is
	// raised at registration or seal time, never during a tick.
	ErrAccessConflict = eris.New("access conflict")

	// ErrSystemFault reports a system callback that returned an error or
	// panicked during a tick.
	ErrSystemFault = eris.New("system fault")

	ErrEntityExhausted        = eris.New("max number of entities exceeded")
	ErrComponentNotRegistered = eris.New("component not registered")
	ErrResourceNotRegistered  = eris.New("resource not registered")
	ErrChannelNotRegistered   = eris.New("channel not registered")
	ErrWorldSealed            = eris.New("world already ticked; registration is closed")

	// ErrTickNotProcessed and ErrTickDiscarded report tick report lookups
	// outside the retained window.
	ErrTickNotProcessed = eris.New("tick has not been processed")
	ErrTickDiscarded    = eris.New("tick report has been discarded due to age")
)

// AccessOverlap names one collision between two access declarations.
type AccessOverlap struct {
	Kind  string // "component", "resource", or "channel"
	Name  string
	ModeA string
	ModeB string
}

func (o AccessOverlap) String() string {
	return fmt.Sprintf("%s %q (%s vs %s)", o.Kind, o.Name, o.ModeA, o.ModeB)
}

// AccessConflictError is returned when a system's declared access overlaps an
// already registered system's in a way that cannot share a tick.
type AccessConflictError struct {
	SystemA  string
	SystemB  string
	Overlaps []AccessOverlap
}

func (e *AccessConflictError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "systems %q and %q declare conflicting access:", e.SystemA, e.SystemB)
	for _, o := range e.Overlaps {
		sb.WriteString(" ")
		sb.WriteString(o.String())
	}
	return sb.String()
}

func (e *AccessConflictError) Is(target error) bool {
	return target == ErrAccessConflict
}

// SystemFaultError records a system failure during a tick. The world logs the
// fault and keeps ticking unless the system was registered with fatal faults.
type SystemFaultError struct {
	System string
	Tick   uint64
	Err    error
}

func (e *SystemFaultError) Error() string {
	return fmt.Sprintf("system %q faulted at tick %d: %v", e.System, e.Tick, e.Err)
}

func (e *SystemFaultError) Unwrap() error {
	return e.Err
}

func (e *SystemFaultError) Is(target error) bool {
	return target == ErrSystemFault
}
