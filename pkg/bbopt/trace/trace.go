// Package trace provides bbopt.Tracer implementations for progress
// logging, metrics and test inspection. All values they report are in
// minimization form.
package trace

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/operator-framework/bbopt/pkg/bbopt"
)

// LoggingTracer logs a progress line every so many iterations, every
// incumbent improvement at Info, and each node at Debug.
type LoggingTracer struct {
	logger    *slog.Logger
	progress  rate.Sometimes
	incumbent float64
}

// NewLoggingTracer logs progress on the first iteration and then every
// `every` iterations. A non-zero interval also logs whenever that much
// time passed since the last progress line.
func NewLoggingTracer(logger *slog.Logger, every int, interval time.Duration) *LoggingTracer {
	if every < 1 {
		every = 1
	}
	return &LoggingTracer{
		logger:    logger,
		progress:  rate.Sometimes{First: 1, Every: every, Interval: interval},
		incumbent: math.Inf(1),
	}
}

func (t *LoggingTracer) Trace(p bbopt.SearchPosition) {
	n, st := p.Node(), p.State()
	if t.logger.Enabled(context.Background(), slog.LevelDebug) {
		t.logger.Debug("node",
			"iteration", st.Iteration,
			"id", n.ID,
			"depth", n.Depth,
			"fate", p.Fate(),
			"lower", n.LowerObjective,
			"upper", n.UpperObjective,
			"width", n.Box.MaxWidth(),
		)
	}
	if st.Incumbent < t.incumbent {
		t.incumbent = st.Incumbent
		t.logger.Info("incumbent improved", "iteration", st.Iteration, "node", n.ID, "value", st.Incumbent)
	}
	t.progress.Do(func() {
		t.logger.Info("progress",
			"iteration", st.Iteration,
			"nodes", st.NodeCount,
			"open", st.StoreSize,
			"lower", st.GlobalLower,
			"incumbent", st.Incumbent,
			"gap", st.Gap(),
			"elapsed", st.Elapsed().Round(time.Millisecond),
		)
	})
}

// LineWriter writes one fixed-width line per iteration.
type LineWriter struct {
	W io.Writer
}

func (t LineWriter) Trace(p bbopt.SearchPosition) {
	n, st := p.Node(), p.State()
	fmt.Fprintf(t.W, "%6d  node %-6d depth %-3d %-22s lower %-12.6g incumbent %-12.6g gap %.3g\n",
		st.Iteration, n.ID, n.Depth, p.Fate(), st.GlobalLower, st.Incumbent, st.Gap())
}

// Step is what Recorder keeps of one iteration.
type Step struct {
	Iteration int
	Node      uint64
	Parent    uint64
	Depth     int
	Fate      bbopt.Fate
	Lower     float64
	Incumbent float64
	// GlobalLower is the certified bound after the iteration.
	GlobalLower float64
}

// Recorder keeps every step in memory. It is safe to read from another
// goroutine while a search runs.
type Recorder struct {
	mu    sync.Mutex
	steps []Step
}

func (r *Recorder) Trace(p bbopt.SearchPosition) {
	n, st := p.Node(), p.State()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, Step{
		Iteration:   st.Iteration,
		Node:        n.ID,
		Parent:      n.ParentID,
		Depth:       n.Depth,
		Fate:        p.Fate(),
		Lower:       n.LowerObjective,
		Incumbent:   st.Incumbent,
		GlobalLower: st.GlobalLower,
	})
}

// Steps returns a copy of the recorded steps.
func (r *Recorder) Steps() []Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Step(nil), r.steps...)
}

// Count returns how many steps ended with each fate.
func (r *Recorder) Count() map[bbopt.Fate]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[bbopt.Fate]int{}
	for _, s := range r.steps {
		counts[s.Fate]++
	}
	return counts
}
