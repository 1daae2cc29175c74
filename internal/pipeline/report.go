package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/wcagscan/internal/model"
)

// ReportWriter renders audit reports as JSON, Markdown and a terminal summary
type ReportWriter struct {
	includeFooter bool
}

// NewReportWriter creates a report writer
func NewReportWriter(includeFooter bool) *ReportWriter {
	return &ReportWriter{includeFooter: includeFooter}
}

// WriteFiles writes the JSON and Markdown reports; empty paths are skipped
func (w *ReportWriter) WriteFiles(report *model.Report, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := writeFile(jsonPath, func(out io.Writer) error { return w.JSON(out, report) }); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}
	if mdPath != "" {
		if err := writeFile(mdPath, func(out io.Writer) error { return w.Markdown(out, report) }); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
	}
	return nil
}

func writeFile(path string, render func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// JSON writes the report as indented JSON
func (w *ReportWriter) JSON(out io.Writer, report *model.Report) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// Markdown writes a human-readable report
func (w *ReportWriter) Markdown(out io.Writer, r *model.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Accessibility audit: %s\n\n", mdEscape(r.PageTitle))
	fmt.Fprintf(&b, "- **URL:** %s\n", r.URL)
	if r.FinalURL != "" && r.FinalURL != r.URL {
		fmt.Fprintf(&b, "- **Final URL:** %s\n", r.FinalURL)
	}
	fmt.Fprintf(&b, "- **Audit ID:** `%s`\n", r.ID)
	fmt.Fprintf(&b, "- **Started:** %s\n", r.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Mode:** %s (effective: %s)\n", r.Mode, r.ModeEffective)
	fmt.Fprintf(&b, "- **Score:** %s\n", FormatScore(r.Score))
	if r.ScoreBreakdown.Coverage != nil {
		fmt.Fprintf(&b, "- **Coverage:** %.1f%%\n", *r.ScoreBreakdown.Coverage*100)
	}
	if r.RenderError != "" {
		fmt.Fprintf(&b, "- **Render error:** %s\n", mdEscape(r.RenderError))
	}
	b.WriteString("\n")

	b.WriteString("## Levels\n\n| Level | Passed | Scored |\n|---|---|---|\n")
	for _, lvl := range model.Levels {
		c := r.ScoreBreakdown.Level(lvl)
		fmt.Fprintf(&b, "| %s | %d | %d |\n", lvl, c.Passed, c.Total)
	}
	b.WriteString("\n")

	b.WriteString("## Criteria\n\n| Code | Level | Title | Verdict | Source | Note |\n|---|---|---|---|---|---|\n")
	for _, o := range r.Results {
		note := o.Details.Text(model.KeyNote)
		if o.ManualRequired {
			note = strings.TrimSpace("manual review. " + note)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			o.Code, o.Level, mdEscape(o.Title), verdictBadge(o.Verdict), o.Source, mdEscape(note))
	}
	b.WriteString("\n")

	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, "Skipped (no registered check): %s\n\n", strings.Join(r.Skipped, ", "))
	}

	rec := r.Recommendations
	if len(rec.ConsiderRenderedFor) > 0 || len(rec.ConsiderAIFor) > 0 {
		b.WriteString("## Recommendations\n\n")
		if len(rec.ConsiderRenderedFor) > 0 {
			fmt.Fprintf(&b, "- Re-run in rendered mode for: %s\n", strings.Join(rec.ConsiderRenderedFor, ", "))
		}
		if len(rec.ConsiderAIFor) > 0 {
			fmt.Fprintf(&b, "- AI suggestions available for: %s\n", strings.Join(rec.ConsiderAIFor, ", "))
		}
		b.WriteString("\n")
	}

	if w.includeFooter {
		b.WriteString("---\n\n_Automated checks cover a subset of WCAG 2.1. A passing score is not a conformance claim._\n")
	}

	_, err := io.WriteString(out, b.String())
	return err
}

// Summary prints a short terminal summary
func (w *ReportWriter) Summary(out io.Writer, r *model.Report) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(out, "  %s\n", r.PageTitle)
	fmt.Fprintln(out, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(out, "  URL:        %s\n", r.URL)
	fmt.Fprintf(out, "  Score:      %s\n", FormatScore(r.Score))
	fmt.Fprintf(out, "  Mode:       %s → %s\n", r.Mode, r.ModeEffective)
	fmt.Fprintf(out, "  Verdicts:   %d pass, %d partial, %d fail, %d n/a\n",
		r.VerdictCounts[model.VerdictPass], r.VerdictCounts[model.VerdictPartial],
		r.VerdictCounts[model.VerdictFail], r.VerdictCounts[model.VerdictNA])
	for _, o := range r.Results {
		if o.Verdict == model.VerdictFail || o.Verdict == model.VerdictPartial {
			fmt.Fprintf(out, "  %s %-7s %s\n", verdictBadge(o.Verdict), o.Code, o.Title)
		}
	}
	if r.RenderError != "" {
		fmt.Fprintf(out, "  ⚠ render:   %s\n", r.RenderError)
	}
	fmt.Fprintln(out)
}

// FormatScore renders a nullable score as a percentage
func FormatScore(s *float64) string {
	if s == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *s*100)
}

func verdictBadge(v model.Verdict) string {
	switch v {
	case model.VerdictPass:
		return "✓ pass"
	case model.VerdictFail:
		return "✗ fail"
	case model.VerdictPartial:
		return "~ partial"
	default:
		return "- n/a"
	}
}

var mdReplacer = strings.NewReplacer("|", "\\|", "\n", " ", "\r", "")

func mdEscape(s string) string {
	return mdReplacer.Replace(s)
}
