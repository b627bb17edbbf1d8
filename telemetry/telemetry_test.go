package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

// steppingClock advances by step on every reading.
func steppingClock(step time.Duration) func() time.Time {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestFromContextWithoutCollector(t *testing.T) {
	collector := FromContext(context.Background())
	_, ok := collector.(noOpCollector)
	assert.True(t, ok)

	timer := StartTimer(context.Background(), "ignored")
	timer.Child("child").End()
	timer.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	assert.Equal(t, "", buf.String())
}

func TestWithCollector(t *testing.T) {
	collector := NewTimingCollector()
	ctx := WithCollector(context.Background(), collector)

	got, ok := FromContext(ctx).(*TimingCollector)
	assert.True(t, ok)
	assert.True(t, got == collector)
}

func TestStartTimerNestsBelowContextTimer(t *testing.T) {
	collector := NewTimingCollector()
	ctx := WithCollector(context.Background(), collector)

	root := StartTimer(ctx, "generate")
	ctx = WithTimer(ctx, root)

	StartTimer(ctx, "tables").End()
	bank := StartTimer(ctx, "ledger.bank")
	StartTimer(WithTimer(ctx, bank), "render").End()
	bank.End()
	root.End()

	assert.Equal(t, []string{"generate", "tables", "ledger.bank", "render"}, collector.Stages())
}

func TestReport(t *testing.T) {
	collector := NewTimingCollector()
	collector.now = steppingClock(5 * time.Millisecond)

	root := collector.Start("generate")
	a := root.Child("tables")
	a.End()
	b := root.Child("write outputs")
	c := b.Child("kontoplan.beancount")
	c.End()
	b.End()
	root.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)

	want := strings.Join([]string{
		"generate: 35ms",
		"├─ tables: 5ms",
		"└─ write outputs: 15ms",
		"   └─ kontoplan.beancount: 5ms",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestTopLevelTimersNestBelowRunningTimer(t *testing.T) {
	collector := NewTimingCollector()

	outer := collector.Start("outer")
	inner := collector.Start("inner")
	inner.End()
	sibling := collector.Start("sibling")
	sibling.End()
	outer.End()

	assert.Equal(t, []string{"outer", "inner", "sibling"}, collector.Stages())
}

func TestEndIsIdempotent(t *testing.T) {
	collector := NewTimingCollector()
	collector.now = steppingClock(time.Millisecond)

	timer := collector.Start("once")
	timer.End()
	timer.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	assert.Equal(t, "once: 1ms\n", buf.String())
}

func TestEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	NewTimingCollector().Report(&buf, nil)
	assert.Equal(t, "", buf.String())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{time.Millisecond, "1ms"},
		{999 * time.Millisecond, "999ms"},
		{time.Second, "1.00s"},
		{1500 * time.Millisecond, "1.50s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDuration(tt.duration))
		})
	}
}
