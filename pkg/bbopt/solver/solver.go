package solver

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/operator-framework/bbopt/internal/solver"
	"github.com/operator-framework/bbopt/pkg/bbopt"
)

// Solution is returned by the Optimizer when the search ran to a defined
// end state. A search that stops on a limit still returns a Solution; it
// carries the best point found so far but is not Optimal.
type Solution struct {
	RunID    uuid.UUID
	EndState bbopt.EndState
	// Objective is the incumbent value in the problem's own sense.
	Objective float64
	// Bound is the certified bound on the optimum in the problem's own
	// sense: a lower bound when minimizing, an upper bound when maximizing.
	Bound float64
	// Point holds the user variables of the incumbent, nil when none was found.
	Point []float64

	Iterations     int
	Nodes          int
	Pruned         int
	Infeasible     int
	SolverFailures int
	MaxDepth       int
	Elapsed        time.Duration
}

// Optimal reports whether the search proved Objective optimal within the
// tolerances.
func (s *Solution) Optimal() bool {
	return s.EndState == bbopt.Optimal
}

// Feasible reports whether a feasible point was found.
func (s *Solution) Feasible() bool {
	return s.Point != nil
}

// Gap is |Objective - Bound|, +Inf when either is missing.
func (s *Solution) Gap() float64 {
	if math.IsInf(s.Objective, 0) || math.IsInf(s.Bound, 0) {
		return math.Inf(1)
	}
	return math.Abs(s.Objective - s.Bound)
}

func (s *Solution) String() string {
	return fmt.Sprintf("%s: objective %g, bound %g, point %v (%d iterations, %d nodes, %s)",
		s.EndState, s.Objective, s.Bound, s.Point, s.Iterations, s.Nodes, s.Elapsed.Round(time.Microsecond))
}

type optimizerOptions struct {
	settings bbopt.Settings
	layout   *bbopt.Layout
	sense    *bbopt.Sense
	tracer   bbopt.Tracer
	logger   *slog.Logger
	validate bool
}

func (o *optimizerOptions) apply(options ...Option) *optimizerOptions {
	for _, applyOption := range options {
		applyOption(o)
	}
	return o
}

func defaultOptimizerOptions() *optimizerOptions {
	return &optimizerOptions{
		settings: bbopt.DefaultSettings(),
		logger:   slog.New(slog.DiscardHandler),
	}
}

type Option func(o *optimizerOptions)

func WithSettings(s bbopt.Settings) Option {
	return func(o *optimizerOptions) {
		o.settings = s
	}
}

// WithLayout declares how the root box maps to user variables, e.g. with
// an epigraph variable appended.
func WithLayout(l bbopt.Layout) Option {
	return func(o *optimizerOptions) {
		o.layout = &l
	}
}

// WithSense tells the optimizer how to report values for extension sets
// that do not declare a sense themselves. Extensions always work in
// minimization form.
func WithSense(s bbopt.Sense) Option {
	return func(o *optimizerOptions) {
		o.sense = &s
	}
}

func WithTracer(t bbopt.Tracer) Option {
	return func(o *optimizerOptions) {
		o.tracer = t
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *optimizerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNodeValidation aborts the search on the first broken node invariant.
func WithNodeValidation() Option {
	return func(o *optimizerOptions) {
		o.validate = true
	}
}

// layoutValidator is implemented by extension sets with layout requirements.
type layoutValidator interface {
	Validate(bbopt.Layout) error
}

// senseDeclarer is implemented by extension sets that know the sense of
// the objective they bound, such as those built on extension.Problem.
type senseDeclarer interface {
	Sense() bbopt.Sense
}

// Optimizer searches a root box with a fixed extension set. It may be
// reused; every Solve starts from scratch.
type Optimizer struct {
	root bbopt.Box
	ext  bbopt.Extensions
	opts *optimizerOptions
}

// NewOptimizer validates the configuration up front so that Solve only
// fails on context or invariant errors.
func NewOptimizer(root bbopt.Box, ext bbopt.Extensions, options ...Option) (*Optimizer, error) {
	opts := defaultOptimizerOptions().apply(options...)
	root, err := bbopt.NewBox(root.Lower, root.Upper)
	if err != nil {
		return nil, fmt.Errorf("root box: %w", err)
	}
	if ext == nil {
		return nil, bbopt.ErrNoExtensions
	}
	layout := bbopt.Layout{UserDim: root.Dim()}
	if opts.layout != nil {
		layout = *opts.layout
	}
	if layout.Dim() != root.Dim() {
		return nil, fmt.Errorf("layout has %d coordinates, root box has %d: %w", layout.Dim(), root.Dim(), bbopt.ErrDimensionMismatch)
	}
	if v, ok := ext.(layoutValidator); ok {
		if err := v.Validate(layout); err != nil {
			return nil, err
		}
	}
	if err := opts.settings.Validate(root.Dim()); err != nil {
		return nil, err
	}
	sense, err := objectiveSense(ext, opts.sense)
	if err != nil {
		return nil, err
	}
	opts.layout, opts.sense = &layout, &sense
	return &Optimizer{root: root, ext: ext, opts: opts}, nil
}

// objectiveSense prefers the sense the extensions declare. An explicit
// WithSense must agree with it.
func objectiveSense(ext bbopt.Extensions, explicit *bbopt.Sense) (bbopt.Sense, error) {
	d, ok := ext.(senseDeclarer)
	switch {
	case ok && explicit != nil && *explicit != d.Sense():
		return 0, fmt.Errorf("sense %s conflicts with the extensions' %s: %w", *explicit, d.Sense(), bbopt.ErrInvalidOption)
	case ok:
		return d.Sense(), nil
	case explicit != nil:
		return *explicit, nil
	}
	return bbopt.Minimize, nil
}

func (o *Optimizer) Solve(ctx context.Context) (*Solution, error) {
	runID := uuid.New()
	logger := o.opts.logger.With("run", runID.String())

	options := []solver.Option{
		solver.WithSettings(o.opts.settings),
		solver.WithLayout(*o.opts.layout),
		solver.WithExtensions(o.ext),
		solver.WithLogger(logger),
	}
	if o.opts.tracer != nil {
		options = append(options, solver.WithTracer(o.opts.tracer))
	}
	if o.opts.validate {
		options = append(options, solver.WithNodeValidation())
	}
	opt, err := solver.NewOptimizer(options...)
	if err != nil {
		return nil, err
	}

	st, err := opt.Solve(ctx, o.root)
	if err != nil {
		return nil, err
	}

	sign := o.opts.sense.Sign()
	solution := &Solution{
		RunID:          runID,
		EndState:       st.EndState,
		Objective:      sign * st.Incumbent,
		Bound:          sign * st.GlobalLower,
		Iterations:     st.Iteration,
		Nodes:          st.NodeCount,
		Pruned:         st.Pruned,
		Infeasible:     st.Infeasible,
		SolverFailures: st.SolverFailures,
		MaxDepth:       st.MaxDepth,
		Elapsed:        st.Elapsed(),
	}
	if st.HasIncumbent() {
		solution.Point = append([]float64(nil), st.Layout.UserPoint(st.IncumbentPoint)...)
	}
	logger.Info("search finished",
		"state", st.EndState,
		"objective", solution.Objective,
		"bound", solution.Bound,
		"iterations", st.Iteration,
		"nodes", st.NodeCount,
		"elapsed", solution.Elapsed,
	)
	return solution, nil
}
