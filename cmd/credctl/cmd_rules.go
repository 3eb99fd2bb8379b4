package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/fixture"
	"github.com/spf13/cobra"
)

var rulesJSON bool

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the violation rule table in evaluation order",
	RunE: func(cmd *cobra.Command, _ []string) error {
		table := domain.RuleTableV1
		out := cmd.OutOrStdout()
		if rulesJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(domain.RuleTable{Version: table.Version, Rules: table.Ordered()})
		}

		fmt.Fprintf(out, "Rule table %s\n\n", table.Version)
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tPRIORITY\tTAG\tEVIDENCE\tDESCRIPTION")
		for _, r := range table.Ordered() {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%t\t%s\n", r.ID, r.Priority, r.Tag, r.RequiresEvidence, r.Description)
		}
		return tw.Flush()
	},
}

var corporaCmd = &cobra.Command{
	Use:   "corpora",
	Short: "List the builtin corpora",
	Run: func(cmd *cobra.Command, _ []string) {
		for _, name := range fixture.List() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

func init() {
	rulesCmd.Flags().BoolVar(&rulesJSON, "json", false, "print as JSON")
}
