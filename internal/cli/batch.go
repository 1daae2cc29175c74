package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/wcagscan/internal/model"
	"github.com/ppiankov/wcagscan/internal/pipeline"
	"github.com/ppiankov/wcagscan/internal/store"
	"github.com/ppiankov/wcagscan/internal/worker"
)

var (
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Audit every URL listed in a file",
	Long: `Batch audits URLs from a file (one per line, # comments allowed).

URLs are audited one after another: they share one headless browser and
requests to each host are rate limited. Each audit writes a JSON and a
Markdown report to the output directory.

Example:
  wcagscan batch urls.txt
  wcagscan batch urls.txt --mode raw --output-dir ./reports --save`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addAuditFlags(batchCmd)

	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./wcagscan-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "batch-timeout", time.Hour, "total timeout for the batch")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := auditConfig(cmd)
	if err != nil {
		return err
	}
	urls, err := worker.ReadURLsFromFile(args[0])
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	auditor, err := pipeline.New(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = auditor.Close() }()

	var history *store.Store
	if saveReport {
		if history, err = store.Open(cfg.Store.Path); err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer func() { _ = history.Close() }()
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	stderr := cmd.ErrOrStderr()
	fmt.Fprintln(stderr)
	fmt.Fprintln(stderr, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(stderr, "  wcagscan batch")
	fmt.Fprintln(stderr, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(stderr, "  Input file:   %s (%d URLs)\n", args[0], len(urls))
	fmt.Fprintf(stderr, "  Mode:         %s\n", auditMode)
	fmt.Fprintf(stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintln(stderr)

	writer := pipeline.NewReportWriter(includeFooter)
	audit := func(ctx context.Context, url string) (*model.Report, error) {
		actx, acancel := context.WithTimeout(ctx, auditTimeout)
		defer acancel()
		return auditor.Audit(actx, pipeline.Request{URL: url, Mode: model.Mode(auditMode), UseAI: auditAI})
	}

	runner := worker.NewBatchRunner(audit).OnProgress(func(done, total int, r *worker.AuditResult) {
		if r.Error != nil {
			fmt.Fprintf(stderr, "[%d/%d] ✗ %s: %v\n", done, total, r.URL, r.Error)
			return
		}
		base := filepath.Join(outputDir, reportSlug(r.URL))
		if err := writer.WriteFiles(r.Report, base+".json", base+".md"); err != nil {
			fmt.Fprintf(stderr, "[%d/%d] ✗ %s: %v\n", done, total, r.URL, err)
			return
		}
		if history != nil {
			if err := history.Save(ctx, r.Report); err != nil {
				slog.Warn("saving audit failed", "url", r.URL, "error", err)
			}
		}
		fmt.Fprintf(stderr, "[%d/%d] ✓ %s (score %s, %s)\n", done, total, r.URL,
			pipeline.FormatScore(r.Report.Score), r.Elapsed.Round(time.Millisecond))
	})

	results := runner.ProcessURLs(ctx, urls)
	ok, failed := worker.Summarize(results)

	fmt.Fprintln(stderr)
	fmt.Fprintln(stderr, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(stderr, "  Total: %d   Success: %d   Failures: %d\n", len(results), ok, failed)
	fmt.Fprintln(stderr, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(stderr)

	if ok == 0 && failed > 0 {
		return fmt.Errorf("all %d audits failed", failed)
	}
	return nil
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// reportSlug turns a URL into a file name stem
func reportSlug(rawURL string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "http://")
	s = strings.Trim(unsafeFilename.ReplaceAllString(s, "_"), "_.")
	if s == "" {
		s = "report"
	}
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
