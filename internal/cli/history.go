package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/wcagscan/internal/pipeline"
	"github.com/ppiankov/wcagscan/internal/store"
)

var (
	historyLimit int
	showMarkdown bool
	exportPath   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse stored audits",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent audits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openHistory()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		audits, err := st.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tSCORE\tMODE\tURL")
		for _, a := range audits {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.CreatedAt.Format("2006-01-02 15:04"),
				pipeline.FormatScore(a.Score), a.ModeEffective, a.URL)
		}
		return tw.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openHistory()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		report, err := st.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		w := pipeline.NewReportWriter(false)
		if showMarkdown {
			return w.Markdown(cmd.OutOrStdout(), report)
		}
		return w.JSON(cmd.OutOrStdout(), report)
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every stored criterion result as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		st, err := openHistory()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		out := cmd.OutOrStdout()
		if exportPath != "" {
			f, err := os.Create(exportPath)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()
			out = f
		}
		return st.ExportCSV(cmd.Context(), out)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Verdict counts per criterion across stored audits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openHistory()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		stats, err := st.CriterionStats(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CODE\tLEVEL\tTOTAL\tPASS\tPARTIAL\tFAIL\tN/A\tMANUAL")
		for _, s := range stats {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
				s.Code, s.Level, s.Total, s.Pass, s.Partial, s.Fail, s.NA, s.Manual)
		}
		return tw.Flush()
	},
}

func openHistory() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return st, nil
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyExportCmd, statsCmd)

	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of audits to list")
	historyShowCmd.Flags().BoolVar(&showMarkdown, "md", false, "print Markdown instead of JSON")
	historyExportCmd.Flags().StringVarP(&exportPath, "out", "o", "", "write CSV to this file instead of stdout")
}
