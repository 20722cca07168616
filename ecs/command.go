package ecs

import (
	"github.com/glasswing-games/aether/types"
)

// commandBuffer queues the structural mutations a system issues during a
// tick. Buffers replay at the tick boundary in system registration order,
// each in issue order, so every tick produces one deterministic sequence of
// structural changes no matter how systems were parallelized.
type commandBuffer struct {
	cmds     []func(*state)
	reserved []types.Entity

	spawns   int
	despawns int
	inserts  int
	removes  int
}

func (b *commandBuffer) push(cmd func(*state)) {
	b.cmds = append(b.cmds, cmd)
}

func (b *commandBuffer) apply(s *state) {
	for _, cmd := range b.cmds {
		cmd(s)
	}
}

// discard drops buffered mutations and returns reserved entity handles to the
// registry's free queue. Used when the issuing system faults.
func (b *commandBuffer) discard(s *state) {
	for _, e := range b.reserved {
		s.entities.release(e)
	}
	b.reset()
}

func (b *commandBuffer) reset() {
	b.cmds = b.cmds[:0]
	b.reserved = b.reserved[:0]
	b.spawns, b.despawns, b.inserts, b.removes = 0, 0, 0, 0
}
