package list

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/operator-framework/bbopt/pkg/bbopt/catalog"
)

func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lists the built-in problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSENSE\tDIM\tOPTIMUM\tDESCRIPTION")
			for _, e := range catalog.All() {
				fmt.Fprintf(w, "%s\t%s\t%d\t%g\t%s\n", e.Name, e.Sense(), e.Layout.UserDim, e.Optimum, e.Description)
			}
			return w.Flush()
		},
	}
}
