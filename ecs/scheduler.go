package ecs

import (
	"slices"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"

	"golang.org/x/sync/errgroup"
)

// tickSchedule runs systems in a dependency-aware concurrent manner. The only
// ordering edges are message edges: a system that posts to a same-tick
// channel runs before the system that drains it. Everything else is free to
// run in parallel, which the access declarations make safe.
type tickSchedule struct {
	n     int
	tier0 []int
	// graph maps a system ID to the systems that must wait for it.
	graph          map[int][]int
	activeIndegree uint8
	// indegree0 and indegree1 are double-buffered counters of remaining
	// dependencies per system. They alternate between ticks so neither needs
	// reinitialization.
	indegree0 []atomic.Int32
	indegree1 []atomic.Int32
}

// build derives the dependency graph from the registered channels and
// verifies it is acyclic. Called once, when the world seals.
func (s *tickSchedule) build(systems []*systemMeta, channels *channelRegistry) error {
	s.n = len(systems)
	graph, indegree, err := buildTickGraph(systems, channels)
	if err != nil {
		return err
	}
	s.graph = graph

	s.indegree0 = make([]atomic.Int32, s.n)
	s.indegree1 = make([]atomic.Int32, s.n)
	for id, deps := range indegree {
		s.indegree0[id].Store(int32(deps)) //nolint:gosec // bounded by system count
	}

	s.tier0 = s.tier0[:0]
	for id := range s.n {
		if indegree[id] == 0 {
			s.tier0 = append(s.tier0, id)
		}
	}

	return verifyAcyclic(systems, s.graph, indegree, s.tier0)
}

// run executes every system exactly once. exec returns a non-nil error only
// for faults that must stop the world; isolated faults are recorded by the
// caller and swallowed so the tick finishes.
func (s *tickSchedule) run(exec func(systemID int) error) error {
	if s.n == 0 {
		return nil
	}

	executionQueue := make(chan int, s.n)
	defer close(executionQueue)

	currentIndegree, nextIndegree := s.getCurrentAndNextIndegrees()
	g := new(errgroup.Group)

	for _, systemID := range s.tier0 {
		executionQueue <- systemID
	}

	for range s.n {
		systemID := <-executionQueue
		g.Go(func() error {
			// Do not return the error early here: dependents still need to be
			// scheduled so that every system runs exactly once per tick.
			err := exec(systemID)

			for _, dependent := range s.graph[systemID] {
				remainingDeps := currentIndegree[dependent].Add(-1)
				nextIndegree[dependent].Add(1)
				if remainingDeps == 0 {
					executionQueue <- dependent
				}
			}

			return err
		})
	}

	return g.Wait()
}

// getCurrentAndNextIndegrees returns the current and next indegree buffers
// and toggles which one is active.
func (s *tickSchedule) getCurrentAndNextIndegrees() ([]atomic.Int32, []atomic.Int32) {
	isFirstBuffer := s.activeIndegree == 0
	s.activeIndegree = 1 - s.activeIndegree
	if isFirstBuffer {
		return s.indegree0, s.indegree1
	}
	return s.indegree1, s.indegree0
}

// buildTickGraph creates the directed graph of message edges: one edge per
// (poster, drainer) pair of every same-tick channel. It returns the graph as
// an adjacency list plus each system's dependency count.
func buildTickGraph(systems []*systemMeta, channels *channelRegistry) (map[int][]int, map[int]int, error) {
	graph := make(map[int][]int, len(systems))
	indegree := make(map[int]int, len(systems))
	type edge struct{ from, to int }
	seen := map[edge]struct{}{}

	for _, ch := range channels.channels {
		if ch.delivery != DeliverySameTick || ch.drainer < 0 {
			continue
		}
		for _, poster := range ch.posters {
			if poster == ch.drainer {
				return nil, nil, eris.Wrapf(ErrAccessConflict,
					"system %q both posts to and drains same-tick channel %q",
					systems[poster].name, ch.name)
			}
			e := edge{from: poster, to: ch.drainer}
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			graph[poster] = append(graph[poster], ch.drainer)
			indegree[ch.drainer]++
		}
	}

	return graph, indegree, nil
}

// verifyAcyclic drains the graph once and reports the systems left stuck in a
// cycle, if any.
func verifyAcyclic(systems []*systemMeta, graph map[int][]int, indegree map[int]int, tier0 []int) error {
	remaining := make(map[int]int, len(indegree))
	for id, deps := range indegree {
		remaining[id] = deps
	}
	queue := slices.Clone(tier0)
	scheduled := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		scheduled++
		for _, dependent := range graph[id] {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}
	if scheduled == len(systems) {
		return nil
	}

	var stuck []string
	for id, sys := range systems {
		if deps, ok := remaining[id]; ok && deps > 0 {
			stuck = append(stuck, sys.name)
		}
	}
	return eris.Wrapf(ErrAccessConflict,
		"same-tick channels form a dependency cycle among systems: %s", strings.Join(stuck, ", "))
}
