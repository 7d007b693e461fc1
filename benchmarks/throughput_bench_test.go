// Package benchmarks provides update throughput benchmarks.
package benchmarks

import (
	"fmt"
	"testing"
	"time"

	"github.com/comalice/hfsm"
	"github.com/comalice/hfsm/predicate"
)

// BenchmarkUpdateNoTransition measures a tick that checks and updates the
// whole active path without switching.
func BenchmarkUpdateNoTransition(b *testing.B) {
	for _, depth := range []int{1, 4, 16} {
		b.Run(fmt.Sprintf("depth=%d", depth), func(b *testing.B) {
			m := GenDeep(depth, &Flip{})
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				m.Update(time.Millisecond)
			}
		})
	}
}

func BenchmarkBlackboardConditions(b *testing.B) {
	bb := predicate.NewBlackboard()
	bb.Set("health", 80.0)
	bb.Set("alerted", false)

	hb := hfsm.NewBuilder("root")
	idle := hb.State("idle", nil)
	idle.On("flee", predicate.MustExpr(bb, "health < 30"))
	idle.On("chase", predicate.All(predicate.Flag(bb, "alerted"), predicate.MustExpr(bb, "health >= 30")))
	hb.State("flee", nil)
	hb.State("chase", nil)
	m := mustBuild(hb)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		m.Update(time.Millisecond)
	}
}
