package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/wcagscan/internal/audit"
	"github.com/ppiankov/wcagscan/internal/criteria"
)

var showMatrix bool

var criteriaCmd = &cobra.Command{
	Use:   "criteria",
	Short: "List the registered checks and their evaluation capabilities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine := audit.NewEngine(criteria.DefaultRegistry(), audit.Options{})
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

		if showMatrix {
			fmt.Fprintln(tw, "KEY\tRAW\tNEEDS RENDERED\tRENDERED BETTER\tAI")
			for _, e := range engine.Matrix().Entries() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Code,
					mark(e.RawOK), mark(e.NeedsRendered), mark(e.RenderedBetter), mark(e.AIHelpful))
			}
			return tw.Flush()
		}

		fmt.Fprintln(tw, "CODE\tLEVEL\tTITLE\tPASSES")
		for _, c := range engine.Criteria() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Code, c.Level, c.Title, passes(c.Capability))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(criteriaCmd)
	criteriaCmd.Flags().BoolVar(&showMatrix, "matrix", false, "print the full capability matrix, wildcards included")
}

func mark(b bool) string {
	if b {
		return "✓"
	}
	return "·"
}

// passes summarises which passes auto mode runs for a capability
func passes(c audit.Capability) string {
	s := "raw"
	if c.WantsRendered() {
		s += "+rendered"
	}
	if c.AIHelpful {
		s += " (ai with --ai)"
	}
	return s
}
