package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/operator-framework/bbopt/internal/cli"
	"github.com/operator-framework/bbopt/pkg/bbopt"
	"github.com/operator-framework/bbopt/pkg/bbopt/catalog"
	"github.com/operator-framework/bbopt/pkg/bbopt/config"
	"github.com/operator-framework/bbopt/pkg/bbopt/solver"
	"github.com/operator-framework/bbopt/pkg/bbopt/trace"
)

type options struct {
	configPath       string
	absTol           float64
	relTol           float64
	iterationLimit   int
	nodeLimit        int
	timeLimit        time.Duration
	depthFirst       bool
	progressInterval time.Duration
	metricsAddr      string
	validate         bool
	trace            bool
}

func NewRunCommand(logging *cli.Logging) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "run <problem>",
		Short: "Solves a built-in problem to global optimality",
		Long: `Solves a built-in problem to global optimality. Settings come from the
--config file (yaml or toml) when given, the problem's defaults otherwise,
and flags override either.
Interrupting the search reports the best point found so far.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, logging, args[0])
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&opts.configPath, "config", "c", "", "settings file, .yaml or .toml")
	fs.Float64Var(&opts.absTol, "abs-tol", 0, "absolute optimality tolerance")
	fs.Float64Var(&opts.relTol, "rel-tol", 0, "relative optimality tolerance")
	fs.IntVar(&opts.iterationLimit, "iteration-limit", 0, "stop after this many iterations, 0 for none")
	fs.IntVar(&opts.nodeLimit, "node-limit", 0, "stop after creating this many nodes, 0 for none")
	fs.DurationVar(&opts.timeLimit, "time-limit", 0, "stop after this long, 0 for none")
	fs.BoolVar(&opts.depthFirst, "depth-first", false, "explore the deepest node first")
	fs.DurationVar(&opts.progressInterval, "progress-interval", 0, "also log progress this often")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while solving")
	fs.BoolVar(&opts.validate, "validate", false, "check node invariants after every iteration")
	fs.BoolVar(&opts.trace, "trace", false, "print one line per iteration before the solution")
	return cmd
}

// settings applies the flags that were set over the config file or the
// problem's defaults.
func (o *options) settings(cmd *cobra.Command, e catalog.Entry) (bbopt.Settings, slog.Level, error) {
	settings, level := e.Settings(), slog.LevelInfo
	if o.configPath != "" {
		c, err := config.Load(o.configPath)
		if err != nil {
			return settings, level, err
		}
		settings, level = c.Settings(), c.Level()
	}
	fs := cmd.Flags()
	if fs.Changed("abs-tol") {
		settings.AbsoluteTolerance = o.absTol
	}
	if fs.Changed("rel-tol") {
		settings.RelativeTolerance = o.relTol
	}
	if fs.Changed("iteration-limit") {
		settings.IterationLimit = o.iterationLimit
	}
	if fs.Changed("node-limit") {
		settings.NodeLimit = o.nodeLimit
	}
	if fs.Changed("time-limit") {
		settings.TimeLimit = o.timeLimit
	}
	if o.depthFirst {
		settings.NodeSelection = bbopt.DepthFirst
	}
	return settings, level, nil
}

func (o *options) run(cmd *cobra.Command, logging *cli.Logging, name string) error {
	if err := logging.Validate(); err != nil {
		return err
	}
	e, err := catalog.Lookup(name)
	if err != nil {
		return err
	}
	settings, level, err := o.settings(cmd, e)
	if err != nil {
		return err
	}
	logger := logging.Logger(cmd.ErrOrStderr(), level).With("problem", e.Name)

	tracers := bbopt.Tracers{trace.NewLoggingTracer(logger, settings.OutputIterations, o.progressInterval)}
	if o.trace {
		tracers = append(tracers, trace.LineWriter{W: cmd.OutOrStdout()})
	}
	if o.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		tracers = append(tracers, trace.NewMetrics(reg))
		stop, err := serveMetrics(o.metricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	options := []solver.Option{
		solver.WithSettings(settings),
		solver.WithLayout(e.Layout),
		solver.WithTracer(tracers),
		solver.WithLogger(logger),
	}
	if o.validate {
		options = append(options, solver.WithNodeValidation())
	}
	optimizer, err := solver.NewOptimizer(e.Root, e.Extensions, options...)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()
	solution, err := optimizer.Solve(ctx)
	if err != nil {
		return err
	}
	printSolution(cmd.OutOrStdout(), e, solution)
	return nil
}

func printSolution(w io.Writer, e catalog.Entry, s *solver.Solution) {
	fmt.Fprintf(w, "problem:    %s\n", e.Name)
	fmt.Fprintf(w, "state:      %s\n", s.EndState)
	if !s.Feasible() {
		fmt.Fprintln(w, "no feasible point found")
		return
	}
	fmt.Fprintf(w, "objective:  %.10g\n", s.Objective)
	fmt.Fprintf(w, "bound:      %.10g\n", s.Bound)
	fmt.Fprintf(w, "point:      %v\n", s.Point)
	fmt.Fprintf(w, "known best: %.10g\n", e.Optimum)
	fmt.Fprintf(w, "iterations: %d, nodes: %d, pruned: %d, max depth: %d, elapsed: %s\n",
		s.Iterations, s.Nodes, s.Pruned, s.MaxDepth, s.Elapsed.Round(time.Millisecond))
}

// serveMetrics exposes reg until the returned stop function is called.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", listener.Addr().String())
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
