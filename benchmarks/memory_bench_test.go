// Package benchmarks provides memory footprint benchmarks.
package benchmarks

import (
	"fmt"
	"runtime"
	"testing"
	"time"
)

func BenchmarkMemoryFlat(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("states=%d", n), func(b *testing.B) {
			numMachines := 100
			var before runtime.MemStats
			runtime.ReadMemStats(&before)
			for i := 0; i < numMachines; i++ {
				_ = GenFlat(n, &Flip{})
			}
			runtime.GC()
			var after runtime.MemStats
			runtime.ReadMemStats(&after)
			bytesPerMachine := (after.TotalAlloc - before.TotalAlloc) / uint64(numMachines)
			bytesPerState := bytesPerMachine / uint64(n+1)
			b.ReportMetric(float64(bytesPerMachine)/1024, "KB/machine")
			b.ReportMetric(float64(bytesPerState), "B/state")
		})
	}
}

func BenchmarkMemoryDeep(b *testing.B) {
	for _, depth := range []int{1, 4, 16} {
		b.Run(fmt.Sprintf("depth=%d", depth), func(b *testing.B) {
			numStates := depth + 3 // root, compounds and two leaves
			numMachines := 100
			var before runtime.MemStats
			runtime.ReadMemStats(&before)
			for i := 0; i < numMachines; i++ {
				_ = GenDeep(depth, &Flip{})
			}
			runtime.GC()
			var after runtime.MemStats
			runtime.ReadMemStats(&after)
			bytesPerMachine := (after.TotalAlloc - before.TotalAlloc) / uint64(numMachines)
			b.ReportMetric(float64(bytesPerMachine)/1024, "KB/machine")
			b.ReportMetric(float64(bytesPerMachine/uint64(numStates)), "B/state")
		})
	}
}

// TestSteadyStateDoesNotAllocate checks that once the path buffer has seen
// the deepest path, ticks and switches allocate nothing.
func TestSteadyStateDoesNotAllocate(t *testing.T) {
	tests := []struct {
		name string
		tick func() func()
	}{
		{"flat switch", func() func() {
			m := GenFlat(8, &Flip{On: true})
			return func() { m.Update(time.Millisecond) }
		}},
		{"deep switch", func() func() {
			m := GenDeep(8, &Flip{On: true})
			return func() { m.Update(time.Millisecond) }
		}},
		{"deep update", func() func() {
			m := GenDeep(8, &Flip{})
			return func() { m.Update(time.Millisecond) }
		}},
		{"wide scan", func() func() {
			m := GenWideTransitions(32)
			return func() { m.Update(time.Millisecond) }
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tick := tt.tick()
			tick()
			if allocs := testing.AllocsPerRun(100, tick); allocs != 0 {
				t.Errorf("allocated %.1f times per tick", allocs)
			}
		})
	}
}
