package bench

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/operator-framework/bbopt/internal/cli"
	"github.com/operator-framework/bbopt/pkg/bbopt/catalog"
	"github.com/operator-framework/bbopt/pkg/bbopt/solver"
)

type result struct {
	entry    catalog.Entry
	solution *solver.Solution
}

// ok reports whether the search proved optimality and agrees with the
// known optimum within its absolute tolerance.
func (r result) ok() bool {
	s := r.solution
	if !s.Optimal() {
		return false
	}
	settings := r.entry.Settings()
	margin := math.Max(settings.AbsoluteTolerance, settings.RelativeTolerance*math.Abs(r.entry.Optimum))
	return math.Abs(s.Objective-r.entry.Optimum) <= margin+1e-9
}

func NewBenchCommand(logging *cli.Logging) *cobra.Command {
	var (
		parallel  int
		timeLimit time.Duration
		strict    bool
	)
	cmd := &cobra.Command{
		Use:   "bench [problems...]",
		Short: "Solves built-in problems and compares them with their known optima",
		Long: `Solves built-in problems, all of them when none are named, and compares
each result with its known optimum. Problems run concurrently; each search
is single-threaded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.Validate(); err != nil {
				return err
			}
			entries, err := lookup(args)
			if err != nil {
				return err
			}
			logger := logging.Logger(cmd.ErrOrStderr(), slog.LevelWarn)
			results, err := solveAll(cmd.Context(), entries, parallel, timeLimit, logger)
			if err != nil {
				return err
			}
			if err := report(cmd.OutOrStdout(), results); err != nil {
				return err
			}
			if strict {
				for _, r := range results {
					if !r.ok() {
						return fmt.Errorf("%s: %s with objective %g, known optimum %g", r.entry.Name, r.solution.EndState, r.solution.Objective, r.entry.Optimum)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&parallel, "parallel", "p", runtime.GOMAXPROCS(0), "number of problems solved at once")
	cmd.Flags().DurationVar(&timeLimit, "time-limit", 0, "per-problem time limit, 0 for the problem's default")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail unless every problem reaches its known optimum")
	return cmd
}

func lookup(names []string) ([]catalog.Entry, error) {
	if len(names) == 0 {
		return catalog.All(), nil
	}
	entries := make([]catalog.Entry, 0, len(names))
	for _, name := range names {
		e, err := catalog.Lookup(name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func solveAll(ctx context.Context, entries []catalog.Entry, parallel int, timeLimit time.Duration, logger *slog.Logger) ([]result, error) {
	results := make([]result, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, e := range entries {
		g.Go(func() error {
			settings := e.Settings()
			if timeLimit > 0 {
				settings.TimeLimit = timeLimit
			}
			o, err := solver.NewOptimizer(e.Root, e.Extensions,
				solver.WithSettings(settings),
				solver.WithLayout(e.Layout),
				solver.WithLogger(logger.With("problem", e.Name)),
			)
			if err != nil {
				return fmt.Errorf("%s: %w", e.Name, err)
			}
			s, err := o.Solve(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", e.Name, err)
			}
			results[i] = result{entry: e, solution: s}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func report(out io.Writer, results []result) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROBLEM\tSTATE\tOBJECTIVE\tOPTIMUM\tGAP\tITERATIONS\tNODES\tELAPSED\tOK")
	for _, r := range results {
		s := r.solution
		fmt.Fprintf(w, "%s\t%s\t%.8g\t%g\t%.3g\t%d\t%d\t%s\t%t\n",
			r.entry.Name, s.EndState, s.Objective, r.entry.Optimum, s.Gap(), s.Iterations, s.Nodes, s.Elapsed.Round(time.Millisecond), r.ok())
	}
	return w.Flush()
}
