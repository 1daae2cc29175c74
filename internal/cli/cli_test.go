package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/ppiankov/wcagscan/internal/audit"
	"github.com/ppiankov/wcagscan/internal/model"
)

func TestReportSlug(t *testing.T) {
	tests := map[string]string{
		"https://example.com/a/b?x=1": "example.com_a_b_x_1",
		"http://example.com/":         "example.com",
		"https://":                    "report",
	}
	for in, want := range tests {
		if got := reportSlug(in); got != want {
			t.Errorf("reportSlug(%q) = %q, want %q", in, got, want)
		}
	}
	if got := reportSlug("https://example.com/" + strings.Repeat("a", 300)); len(got) != 100 {
		t.Errorf("expected slug capped at 100, got %d", len(got))
	}
}

func withConfigFile(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	viper.Reset()
	prev := cfgFile
	cfgFile = path
	t.Cleanup(func() {
		cfgFile = prev
		viper.Reset()
	})
	initConfig()
}

func TestLoadConfig_DefaultFileRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := renderDefaultConfig(&buf); err != nil {
		t.Fatalf("renderDefaultConfig failed: %v", err)
	}
	withConfigFile(t, buf.String())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	def := model.DefaultConfig()
	if cfg.HTTP.Timeout != def.HTTP.Timeout || cfg.Render.PreloadTimeout != def.Render.PreloadTimeout {
		t.Errorf("durations did not round-trip: %v %v", cfg.HTTP.Timeout, cfg.Render.PreloadTimeout)
	}
	if w, ok := cfg.Scoring.LevelWeights[model.LevelAA]; !ok || w != 1.0 {
		t.Errorf("level weights lost their keys: %v", cfg.Scoring.LevelWeights)
	}
}

func TestLoadConfig_FileAndEnvOverride(t *testing.T) {
	t.Setenv("WCAGSCAN_RENDER_LAZY_TIMEOUT", "5s")
	withConfigFile(t, "render:\n  enabled: false\nscoring:\n  include_aaa: true\n")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Render.Enabled {
		t.Error("config file should disable rendering")
	}
	if !cfg.Scoring.IncludeAAA {
		t.Error("config file should enable AAA scoring")
	}
	if cfg.Render.LazyTimeout != 5*time.Second {
		t.Errorf("env should override lazy timeout, got %v", cfg.Render.LazyTimeout)
	}
	if cfg.HTTP.MaxAttempts != model.DefaultConfig().HTTP.MaxAttempts {
		t.Error("unset keys should keep defaults")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	withConfigFile(t, "llm:\n  provider: carrier-pigeon\n")
	if _, err := loadConfig(); err == nil {
		t.Error("expected validation error for unknown provider")
	}
}

func TestWriteDefaultConfig_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := writeDefaultConfig(path); err == nil {
		t.Error("expected error when config exists")
	}
}

func TestSetupLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, model.LogConfig{Level: "warn", Format: "json"})
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("expected JSON record, got %q", out)
	}
}

func TestPasses(t *testing.T) {
	if got := passes(audit.Capability{RawOK: true}); got != "raw" {
		t.Errorf("unexpected %q", got)
	}
	if got := passes(audit.Capability{NeedsRendered: true, AIHelpful: true}); got != "raw+rendered (ai with --ai)" {
		t.Errorf("unexpected %q", got)
	}
}
