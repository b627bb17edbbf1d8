package telemetry

import (
	"io"
	"sync"
	"time"

	"github.com/haskoe/ledger/output"
)

// TimingCollector keeps every timer of a run in a tree. The first timer
// started becomes the root; later top-level timers nest below the innermost
// running one.
type TimingCollector struct {
	mu      sync.Mutex
	root    *stage
	current *stage
	now     func() time.Time
}

type stage struct {
	name     string
	start    time.Time
	end      time.Time
	parent   *stage
	children []*stage
}

func (s *stage) duration() time.Duration {
	if s.end.IsZero() {
		return 0
	}
	return s.end.Sub(s.start)
}

// NewTimingCollector creates an empty TimingCollector.
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{now: time.Now}
}

// Start begins a timer below the innermost running timer.
func (c *TimingCollector) Start(name string) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &stage{name: name, start: c.now()}
	if c.root == nil {
		c.root = s
	} else {
		s.parent = c.current
		c.current.children = append(c.current.children, s)
	}
	c.current = s

	return &stageTimer{collector: c, stage: s}
}

// Stages returns the names of all recorded stages, depth first.
func (c *TimingCollector) Stages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var names []string
	var walk func(s *stage)
	walk = func(s *stage) {
		names = append(names, s.name)
		for _, child := range s.children {
			walk(child)
		}
	}
	if c.root != nil {
		walk(c.root)
	}
	return names
}

// Report writes the timing tree to w.
func (c *TimingCollector) Report(w io.Writer, styles *output.Styles) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.root == nil {
		return
	}
	writeTree(w, c.root, styles)
}

type stageTimer struct {
	collector *TimingCollector
	stage     *stage
}

func (t *stageTimer) End() {
	c := t.collector
	c.mu.Lock()
	defer c.mu.Unlock()

	if !t.stage.end.IsZero() {
		return
	}
	t.stage.end = c.now()
	if c.current == t.stage && t.stage.parent != nil {
		c.current = t.stage.parent
	}
}

func (t *stageTimer) Child(name string) Timer {
	c := t.collector
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &stage{name: name, start: c.now(), parent: t.stage}
	t.stage.children = append(t.stage.children, s)

	return &stageTimer{collector: c, stage: s}
}
