package ecs

import (
	"github.com/rotisserie/eris"
)

// System is a tick callback. It runs with the access declared at registration
// and returns a non-nil error to raise a fault for this tick.
type System func(ctx *Context) error

type systemMeta struct {
	id     int
	name   string
	fn     System
	decl   Access
	access accessSet
	fatal  bool
}

// SystemOption configures a system at registration.
type SystemOption func(*systemMeta)

// WithFatalFaults stops the world after the current tick when this system
// faults, instead of isolating the fault and ticking on.
func WithFatalFaults() SystemOption {
	return func(sys *systemMeta) { sys.fatal = true }
}

// RegisterSystem adds a system to the tick schedule. Systems declare their
// full access up front; a declaration whose writes overlap another system's
// reads or writes is rejected with an AccessConflictError naming both
// systems. The scheduler runs non-overlapping systems in parallel and orders
// posters of a same-tick channel ahead of its drainer.
func (w *World) RegisterSystem(name string, access Access, fn System, opts ...SystemOption) error {
	return w.registerSystem(name, access, fn, false, opts...)
}

// RegisterInitSystem adds a system that runs exactly once, sequentially, at
// the start of the first tick before any regular system. Init systems may
// post to channels but cannot drain them.
func (w *World) RegisterInitSystem(name string, access Access, fn System, opts ...SystemOption) error {
	return w.registerSystem(name, access, fn, true, opts...)
}

func (w *World) registerSystem(name string, access Access, fn System, init bool, opts ...SystemOption) error {
	if err := w.mustBeOpen(); err != nil {
		return err
	}
	if fn == nil {
		return eris.Wrapf(ErrAccessConflict, "system %q has a nil callback", name)
	}
	if !validName.MatchString(name) {
		return eris.Wrapf(ErrAccessConflict, "system name %q must match %s", name, validName)
	}
	if w.systemByName(name) != nil {
		return eris.Wrapf(ErrAccessConflict, "system %q already registered", name)
	}

	set, err := w.compileAccess(access)
	if err != nil {
		return eris.Wrapf(ErrAccessConflict, "system %q: %s", name, err)
	}

	sys := &systemMeta{name: name, fn: fn, decl: access, access: set}
	for _, opt := range opts {
		opt(sys)
	}

	if init {
		if set.drains.Count() > 0 {
			return eris.Wrapf(ErrAccessConflict, "init system %q cannot drain channels", name)
		}
		sys.id = len(w.initSystems)
		w.initSystems = append(w.initSystems, sys)
	} else {
		// Init systems run alone before the schedule, so only regular systems
		// are checked against each other.
		for _, other := range w.systems {
			if overlaps := w.accessOverlaps(&other.access, &sys.access); len(overlaps) > 0 {
				return &AccessConflictError{SystemA: other.name, SystemB: name, Overlaps: overlaps}
			}
		}
		var drainConflict error
		set.drains.Range(func(id uint32) {
			ch := w.channels.at(id)
			if ch.drainer >= 0 && drainConflict == nil {
				drainConflict = &AccessConflictError{
					SystemA: w.systems[ch.drainer].name,
					SystemB: name,
					Overlaps: []AccessOverlap{
						{Kind: "channel", Name: ch.name, ModeA: "drain", ModeB: "drain"},
					},
				}
			}
		})
		if drainConflict != nil {
			return drainConflict
		}

		sys.id = len(w.systems)
		w.systems = append(w.systems, sys)
		set.posts.Range(func(id uint32) {
			ch := w.channels.at(id)
			ch.posters = append(ch.posters, sys.id)
		})
		set.drains.Range(func(id uint32) {
			w.channels.at(id).drainer = sys.id
		})
	}

	w.logger.Debug().
		Str("system", name).
		Bool("init", init).
		Bool("fatal_faults", sys.fatal).
		Msg("registered system")
	return nil
}

func (w *World) systemByName(name string) *systemMeta {
	for _, sys := range w.systems {
		if sys.name == name {
			return sys
		}
	}
	for _, sys := range w.initSystems {
		if sys.name == name {
			return sys
		}
	}
	return nil
}
