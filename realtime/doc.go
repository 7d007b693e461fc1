// Package realtime drives an hfsm.Machine at a fixed tick rate.
//
// A Runner owns its machine: Initialize, Update, SetStateByName and Stop all
// run on the runner's tick goroutine, so the machine's single-threaded model
// holds even when other goroutines ask for state changes. Those requests are
// batched and applied, in submission order, at the start of the next tick,
// before the machine's own transitions are checked.
//
// # Example Usage
//
//	m, _ := hfsm.NewBuilder("Root").Build()
//	rt := realtime.NewRunner(m, realtime.Config{
//		TickRate: 16667 * time.Microsecond, // 60 FPS
//	})
//	_ = rt.Start(ctx)
//	_ = rt.Request("Flee")
//	defer rt.Stop()
//
// Every tick advances the machine by exactly TickRate, independent of wall
// clock jitter, so timer conditions behave the same in tests (driven with
// Step) and in production.
//
// # Use Cases
//
//   - Game engines (60 FPS game logic)
//   - Robotics (deterministic control loops)
//   - Testing/debugging (reproducible scenarios)
package realtime
