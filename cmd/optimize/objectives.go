package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/annealhive/internal/objective"
)

var objectivesCmd = &cobra.Command{
	Use:   "objectives",
	Short: "List the built-in objective functions",
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tBOUNDS\tMINIMUM\tDESCRIPTION")
		for _, fn := range objective.All() {
			fmt.Fprintf(tw, "%s\t%v\t%.9g\t%s\n", fn.Name, fn.Bounds, fn.Minimum, fn.Description)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(objectivesCmd)
}
