package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/comalice/hfsm"
	"github.com/comalice/hfsm/internal/logging"
	"github.com/comalice/hfsm/observe"
	"github.com/comalice/hfsm/predicate"
	"github.com/comalice/hfsm/realtime"
)

func main() {
	logger := logging.NewConsole(os.Stderr, zerolog.InfoLevel)

	reg := prometheus.NewRegistry()
	metrics, err := observe.NewMetrics(reg, "hfsm")
	if err != nil {
		panic(err)
	}

	b := hfsm.NewBuilder("traffic",
		hfsm.WithName("traffic-light"),
		hfsm.WithLogger(logger),
		hfsm.WithErrorReporter(metrics.Reporter("traffic-light", observe.NewZerologReporter(logger))),
	)
	red := b.State("red", nil)
	red.On("green", predicate.After(red.State(), 2*time.Second))
	green := b.State("green", nil)
	green.On("yellow", predicate.After(green.State(), 2*time.Second))
	yellow := b.State("yellow", nil)
	yellow.On("red", predicate.After(yellow.State(), time.Second))

	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	defer metrics.Attach(m)()

	publishChan := make(chan observe.PublishedChange, 100)
	publisher := observe.NewChannelPublisher(publishChan)
	defer publisher.Attach(m)()

	rt := realtime.NewRunner(m, realtime.Config{TickRate: 100 * time.Millisecond},
		realtime.WithLogger(logger),
		realtime.WithTickObserver(metrics),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rt.Start(ctx); err != nil {
		panic(err)
	}

	cycles := 0
	for cycles < 12 {
		select {
		case change := <-publishChan:
			cycles++
			fmt.Printf("--- Change %d (seq %d) ---\n", cycles, change.Seq)
			fmt.Printf("%s -> %s at tick %d\n", change.From, change.To, rt.Ticks())
		case <-ctx.Done():
			fmt.Println("\nShutting down gracefully...")
			cycles = 12
		}
	}

	if err := rt.Stop(); err != nil {
		logger.Error().Err(err).Msg("stop runner")
	}
	fmt.Printf("Demo complete after %d ticks, %d dropped changes.\n", rt.Ticks(), publisher.Dropped())

	families, err := reg.Gather()
	if err != nil {
		panic(err)
	}
	for _, mf := range families {
		fmt.Printf("%s: %d series\n", mf.GetName(), len(mf.GetMetric()))
	}
}
