// Package aether is the public surface of the Aether runtime: a minimal
// Entity-Component-System core with a generational entity registry, per-type
// sparse-set component storage, a bitmap-backed query engine, world-global
// resources, typed message channels, and a tick scheduler that runs systems
// in parallel under declared access sets.
//
// A typical world is assembled once at startup and then driven by ticks:
//
//	w, err := aether.NewWorld()
//	aether.MustRegisterComponent[Position](w)
//	aether.MustRegisterComponent[Velocity](w)
//	err = aether.RegisterSystem(w, "movement",
//		aether.Access{Reads: []aether.Component{Velocity{}}, Writes: []aether.Component{Position{}}},
//		func(ctx *aether.Context) error {
//			return ctx.Search(filter.Contains(Position{}, Velocity{})).Each(func(e aether.Entity) bool {
//				pos, _ := aether.MutComponent[Position](ctx, e)
//				vel, _ := aether.GetComponent[Velocity](ctx, e)
//				pos.X += vel.X
//				pos.Y += vel.Y
//				return true
//			})
//		})
//	err = w.StartTickLoop(context.Background())
//
// Registration is open until the first tick; the first tick seals the world.
// Inside a tick, reads and in-place value writes are immediate while
// structural changes (entity creation and destruction, component insertion
// and removal) are buffered and applied at the tick boundary, so every system
// observes one consistent snapshot per tick. The heavy lifting lives in the
// ecs package; this package adds configuration, the tick loop driver,
// lifecycle stages, metrics, and the introspection catalog on top.
package aether
