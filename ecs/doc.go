// Package ecs is the runtime core: a generational entity registry, sparse-set
// component tables, a bitmap-backed query engine, world-global resources,
// message channels, and a tick scheduler that runs systems in parallel under
// declared access sets.
//
// The package exposes two planes. The direct plane (CreateEntity, Insert,
// Get, NewSearch, and friends) mutates storage synchronously and is meant for
// setup, tests, and tooling between ticks. The system plane goes through
// Context inside a tick: reads and in-place value writes are immediate, while
// structural changes are buffered per system and replayed at the tick
// boundary in system registration order, so every system observes the same
// snapshot for the whole tick.
package ecs
