package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cardlens/statement-converter/internal/rules"
)

func newBanksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "banks",
		Short: "List supported issuers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTIER\tLOCALE\tCURRENCY")
			for _, b := range rules.Banks() {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", b.ID, b.Name, b.Tier, b.Locale, b.Currency)
			}
			return tw.Flush()
		},
	}
}
