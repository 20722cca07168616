package ecs

import (
	"reflect"

	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"

	"github.com/glasswing-games/aether/types"
)

// Access declares everything a system touches during a tick: the component
// types it reads and writes, the resource types it reads and writes, and the
// channels it posts to and drains. Both planes of the declaration are
// enforced. Registration rejects a system whose writes overlap another
// system's reads or writes, and the Context accessors refuse undeclared
// access at runtime.
type Access struct {
	// Reads and Writes name component types by zero value, for example
	// []types.Component{Position{}, Velocity{}}. A type listed in Writes does
	// not need to repeat in Reads.
	Reads  []types.Component
	Writes []types.Component

	// ReadsResources and WritesResources name resource types by zero value.
	ReadsResources  []any
	WritesResources []any

	// Posts and Drains name channels. A channel accepts any number of posting
	// systems but at most one drainer.
	Posts  []ChannelRef
	Drains []ChannelRef
}

// accessSet is the compiled form of an Access declaration: dense catalog IDs
// as bit positions, one bitmap per kind.
type accessSet struct {
	compReads  bitmap.Bitmap
	compWrites bitmap.Bitmap
	resReads   bitmap.Bitmap
	resWrites  bitmap.Bitmap
	posts      bitmap.Bitmap
	drains     bitmap.Bitmap
}

// compileAccess resolves a declaration against the world's catalogs. Every
// named component, resource, and channel must already be registered.
func (w *World) compileAccess(a Access) (accessSet, error) {
	var set accessSet
	for _, c := range a.Reads {
		id, ok := w.state.components.idByName(c.Name())
		if !ok {
			return accessSet{}, eris.Wrapf(ErrComponentNotRegistered, "declared read of component %q", c.Name())
		}
		set.compReads.Set(id)
	}
	for _, c := range a.Writes {
		id, ok := w.state.components.idByName(c.Name())
		if !ok {
			return accessSet{}, eris.Wrapf(ErrComponentNotRegistered, "declared write of component %q", c.Name())
		}
		set.compWrites.Set(id)
	}
	for _, r := range a.ReadsResources {
		id, ok := w.state.resources.idByType(reflect.TypeOf(r))
		if !ok {
			return accessSet{}, eris.Wrapf(ErrResourceNotRegistered, "declared read of resource %T", r)
		}
		set.resReads.Set(id)
	}
	for _, r := range a.WritesResources {
		id, ok := w.state.resources.idByType(reflect.TypeOf(r))
		if !ok {
			return accessSet{}, eris.Wrapf(ErrResourceNotRegistered, "declared write of resource %T", r)
		}
		set.resWrites.Set(id)
	}
	for _, ref := range a.Posts {
		id, ok := w.channels.idByName(ref.Name())
		if !ok {
			return accessSet{}, eris.Wrapf(ErrChannelNotRegistered, "declared post to channel %q", ref.Name())
		}
		set.posts.Set(id)
	}
	for _, ref := range a.Drains {
		id, ok := w.channels.idByName(ref.Name())
		if !ok {
			return accessSet{}, eris.Wrapf(ErrChannelNotRegistered, "declared drain of channel %q", ref.Name())
		}
		set.drains.Set(id)
	}
	return set, nil
}

func (s *accessSet) canReadComponent(id componentID) bool {
	return s.compReads.Contains(id) || s.compWrites.Contains(id)
}

func (s *accessSet) canWriteComponent(id componentID) bool {
	return s.compWrites.Contains(id)
}

func (s *accessSet) canReadResource(id resourceID) bool {
	return s.resReads.Contains(id) || s.resWrites.Contains(id)
}

func (s *accessSet) canWriteResource(id resourceID) bool {
	return s.resWrites.Contains(id)
}

func (s *accessSet) canPost(id channelID) bool {
	return s.posts.Contains(id)
}

func (s *accessSet) canDrain(id channelID) bool {
	return s.drains.Contains(id)
}

// accessOverlaps lists every overlap between two compiled access sets that
// cannot share a tick: a write in one against a read or write in the other,
// per component and per resource type.
func (w *World) accessOverlaps(a, b *accessSet) []AccessOverlap {
	var overlaps []AccessOverlap
	componentName := w.state.components.nameAt
	resourceName := w.state.resources.nameAt

	forEachOverlap(a.compWrites, b.compWrites, func(id uint32) {
		overlaps = append(overlaps, AccessOverlap{Kind: "component", Name: componentName(id), ModeA: "write", ModeB: "write"})
	})
	forEachOverlap(a.compWrites, b.compReads, func(id uint32) {
		overlaps = append(overlaps, AccessOverlap{Kind: "component", Name: componentName(id), ModeA: "write", ModeB: "read"})
	})
	forEachOverlap(a.compReads, b.compWrites, func(id uint32) {
		overlaps = append(overlaps, AccessOverlap{Kind: "component", Name: componentName(id), ModeA: "read", ModeB: "write"})
	})
	forEachOverlap(a.resWrites, b.resWrites, func(id uint32) {
		overlaps = append(overlaps, AccessOverlap{Kind: "resource", Name: resourceName(id), ModeA: "write", ModeB: "write"})
	})
	forEachOverlap(a.resWrites, b.resReads, func(id uint32) {
		overlaps = append(overlaps, AccessOverlap{Kind: "resource", Name: resourceName(id), ModeA: "write", ModeB: "read"})
	})
	forEachOverlap(a.resReads, b.resWrites, func(id uint32) {
		overlaps = append(overlaps, AccessOverlap{Kind: "resource", Name: resourceName(id), ModeA: "read", ModeB: "write"})
	})
	return overlaps
}

// forEachOverlap visits the indices set in both bitmaps.
func forEachOverlap(a, b bitmap.Bitmap, fn func(id uint32)) {
	clone := a.Clone(nil)
	clone.And(b)
	clone.Range(fn)
}
