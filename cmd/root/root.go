package root

import (
	"github.com/spf13/cobra"

	"github.com/operator-framework/bbopt/cmd/bench"
	"github.com/operator-framework/bbopt/cmd/list"
	"github.com/operator-framework/bbopt/cmd/run"
	"github.com/operator-framework/bbopt/internal/cli"
)

func NewRootCmd() *cobra.Command {
	logging := &cli.Logging{}
	rootCmd := &cobra.Command{
		Use:   "bbopt",
		Short: "bbopt is a spatial branch-and-bound global optimizer",
		Long: `A spatial branch-and-bound framework for global optimization of
nonconvex problems over boxes, with pluggable bounding strategies.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	logging.AddFlags(rootCmd.PersistentFlags())

	// add sub-commands
	rootCmd.AddCommand(run.NewRunCommand(logging))
	rootCmd.AddCommand(list.NewListCommand())
	rootCmd.AddCommand(bench.NewBenchCommand(logging))

	return rootCmd
}
