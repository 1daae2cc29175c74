package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/wcagscan/internal/model"
	"github.com/ppiankov/wcagscan/internal/pipeline"
	"github.com/ppiankov/wcagscan/internal/store"
)

var (
	auditMode     string
	auditAI       bool
	auditCodes    []string
	outJSON       string
	outMD         string
	saveReport    bool
	workers       int
	noRender      bool
	noCache       bool
	auditTimeout  time.Duration
	userAgent     string
	insecureTLS   bool
	ignoreRobots  bool
	llmProvider   string
	llmModel      string
	includeFooter bool
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit <url>",
	Short: "Audit a single page against WCAG 2.1",
	Long: `Audit fetches a page and evaluates each registered WCAG criterion.

Modes:
  raw       static markup only
  rendered  static, then a headless-browser rendering for every criterion
  ai        rendered, then advisory suggestions for every criterion
  auto      per-criterion choice from the capability matrix (default)

Example:
  wcagscan audit https://example.com
  wcagscan audit https://example.com --mode raw --codes 1.1.1,2.4.2
  wcagscan audit https://example.com --ai --llm-provider openai --json report.json --md report.md`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	addAuditFlags(auditCmd)

	auditCmd.Flags().StringSliceVar(&auditCodes, "codes", nil, "only evaluate these criteria (comma-separated)")
	auditCmd.Flags().StringVar(&outJSON, "json", "", "write the JSON report to this path")
	auditCmd.Flags().StringVar(&outMD, "md", "", "write the Markdown report to this path")
	auditCmd.Flags().IntVar(&workers, "workers", 0, "criteria evaluated concurrently (default from config)")
}

// addAuditFlags registers the flags shared by audit and batch
func addAuditFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&auditMode, "mode", "auto", "evaluation mode: raw, rendered, ai, auto")
	cmd.Flags().BoolVar(&auditAI, "ai", false, "allow advisory passes for AI-helpful criteria in auto mode")
	cmd.Flags().BoolVar(&saveReport, "save", false, "store the report in the audit history")
	cmd.Flags().BoolVar(&noRender, "no-render", false, "disable the headless browser")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the page cache (force fresh fetch)")
	cmd.Flags().DurationVar(&auditTimeout, "timeout", 3*time.Minute, "timeout per audit")
	cmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (default from config)")
	cmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")
	cmd.Flags().BoolVar(&ignoreRobots, "ignore-robots", false, "do not consult robots.txt")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "advisory provider: openai, anthropic, ollama")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "advisory model name")
	cmd.Flags().BoolVar(&includeFooter, "footer", true, "add the disclaimer footer to Markdown reports")
}

// auditConfig merges command flags over the loaded configuration
func auditConfig(cmd *cobra.Command) (model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("no-render") {
		cfg.Render.Enabled = !noRender
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("ua") {
		cfg.HTTP.UserAgent = userAgent
	}
	if flags.Changed("insecure") {
		cfg.HTTP.InsecureTLS = insecureTLS
	}
	if flags.Changed("ignore-robots") {
		cfg.HTTP.RespectRobots = !ignoreRobots
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if flags.Lookup("workers") != nil && flags.Changed("workers") {
		cfg.Concurrency.Workers = workers
	}
	fillCredentials(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	mode, err := model.ParseMode(auditMode)
	if err != nil {
		return cfg, err
	}
	if (mode == model.ModeAI || auditAI) && cfg.LLM.Provider == "" {
		slog.Warn("no advisory provider configured; AI passes will be recorded as errors")
	}
	return cfg, nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := auditConfig(cmd)
	if err != nil {
		return err
	}

	auditor, err := pipeline.New(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = auditor.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), auditTimeout)
	defer cancel()

	report, err := auditor.Audit(ctx, pipeline.Request{
		URL:   args[0],
		Codes: auditCodes,
		Mode:  model.Mode(auditMode),
		UseAI: auditAI,
	})
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	writer := pipeline.NewReportWriter(includeFooter)
	if err := writer.WriteFiles(report, outJSON, outMD); err != nil {
		return err
	}
	if outJSON == "" && outMD == "" && !cmd.Flags().Changed("json") {
		// Nothing written to disk: stdout gets the JSON report
		if err := writer.JSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	}
	writer.Summary(cmd.ErrOrStderr(), report)

	if saveReport {
		if err := saveToHistory(cmd.Context(), cfg, report); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Saved audit %s\n", report.ID)
	}
	return nil
}

func saveToHistory(ctx context.Context, cfg model.Config, report *model.Report) error {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = st.Close() }()
	if err := st.Save(ctx, report); err != nil {
		return fmt.Errorf("save audit: %w", err)
	}
	return nil
}
