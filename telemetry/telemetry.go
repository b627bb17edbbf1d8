// Package telemetry records how long the stages of a run take, as a tree of
// timers carried through the context.
//
// Instrumented code never checks whether telemetry is enabled: without a
// collector on the context every timer is a no-op.
//
//	collector := telemetry.NewTimingCollector()
//	ctx := telemetry.WithCollector(context.Background(), collector)
//
//	timer := telemetry.StartTimer(ctx, "generate 2024-1")
//	ctx = telemetry.WithTimer(ctx, timer)
//	// ... stages call telemetry.StartTimer(ctx, ...) and nest below ...
//	timer.End()
//
//	collector.Report(os.Stderr, output.NewStyles(os.Stderr))
package telemetry

import (
	"context"
	"io"

	"github.com/haskoe/ledger/output"
)

type collectorKey struct{}

type timerKey struct{}

// Collector gathers timers and reports them.
type Collector interface {
	// Start begins a top-level timer.
	Start(name string) Timer

	// Report writes the collected timings to w. styles may be nil.
	Report(w io.Writer, styles *output.Styles)
}

// Timer measures one stage.
type Timer interface {
	// End stops the timer.
	End()

	// Child starts a timer nested below this one.
	Child(name string) Timer
}

// WithCollector returns a context carrying collector.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, collectorKey{}, collector)
}

// FromContext returns the collector of ctx, or a no-op collector.
func FromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(collectorKey{}).(Collector); ok {
		return collector
	}
	return noOpCollector{}
}

// WithTimer returns a context whose StartTimer calls nest below timer.
func WithTimer(ctx context.Context, timer Timer) context.Context {
	return context.WithValue(ctx, timerKey{}, timer)
}

// StartTimer starts a timer nested below the timer of ctx, or a top-level
// timer on the context's collector when there is none.
func StartTimer(ctx context.Context, name string) Timer {
	if parent, ok := ctx.Value(timerKey{}).(Timer); ok {
		return parent.Child(name)
	}
	return FromContext(ctx).Start(name)
}
