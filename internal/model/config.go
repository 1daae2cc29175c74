package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all wcagscan configuration
type Config struct {
	HTTP         HTTPConfig         `mapstructure:"http" yaml:"http"`
	Render       RenderConfig       `mapstructure:"render" yaml:"render"`
	LLM          LLMConfig          `mapstructure:"llm" yaml:"llm"`
	Scoring      ScoringConfig      `mapstructure:"scoring" yaml:"scoring"`
	Cache        CacheConfig        `mapstructure:"cache" yaml:"cache"`
	Concurrency  ConcurrencyConfig  `mapstructure:"concurrency" yaml:"concurrency"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting" yaml:"rate_limiting"`
	Store        StoreConfig        `mapstructure:"store" yaml:"store"`
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Log          LogConfig          `mapstructure:"log" yaml:"log"`
}

// HTTPConfig controls page fetching
type HTTPConfig struct {
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout" validate:"gt=0"`
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent" validate:"required"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes" validate:"gt=0"`
	MaxAttempts    int           `mapstructure:"max_attempts" yaml:"max_attempts" validate:"gte=1,lte=10"`
	InsecureTLS    bool          `mapstructure:"insecure_tls" yaml:"insecure_tls"`
	RespectRobots  bool          `mapstructure:"respect_robots" yaml:"respect_robots"`
	HTTPProxy      string        `mapstructure:"http_proxy" yaml:"http_proxy,omitempty"`
	HTTPSProxy     string        `mapstructure:"https_proxy" yaml:"https_proxy,omitempty"`
	NoProxy        string        `mapstructure:"no_proxy" yaml:"no_proxy,omitempty"`
}

// RenderConfig controls the headless browser
type RenderConfig struct {
	Enabled        bool          `mapstructure:"enabled" yaml:"enabled"`
	RemoteURL      string        `mapstructure:"remote_url" yaml:"remote_url,omitempty"` // DevTools websocket of an existing browser
	BrowserBin     string        `mapstructure:"browser_bin" yaml:"browser_bin,omitempty"`
	Stealth        bool          `mapstructure:"stealth" yaml:"stealth"`
	PreloadTimeout time.Duration `mapstructure:"preload_timeout" yaml:"preload_timeout" validate:"gt=0"`
	LazyTimeout    time.Duration `mapstructure:"lazy_timeout" yaml:"lazy_timeout" validate:"gt=0"`
	MobileWidth    int           `mapstructure:"mobile_width" yaml:"mobile_width" validate:"gte=200"`
}

// LLMConfig controls the advisory text service
type LLMConfig struct {
	Provider     string        `mapstructure:"provider" yaml:"provider" validate:"omitempty,oneof=openai anthropic ollama"`
	Model        string        `mapstructure:"model" yaml:"model"`
	APIKey       string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	MaxTokens    int           `mapstructure:"max_tokens" yaml:"max_tokens" validate:"gt=0"`
	MaxRetries   int           `mapstructure:"max_retries" yaml:"max_retries" validate:"gte=0,lte=5"`
	ContextChars int           `mapstructure:"context_chars" yaml:"context_chars" validate:"gt=0"`
	ExcerptBytes int           `mapstructure:"excerpt_bytes" yaml:"excerpt_bytes" validate:"gt=0"`
}

// ScoringConfig controls aggregation
type ScoringConfig struct {
	IncludeAAA     bool              `mapstructure:"include_aaa" yaml:"include_aaa"`
	StrictCoverage bool              `mapstructure:"strict_coverage" yaml:"strict_coverage"`
	LevelWeights   map[Level]float64 `mapstructure:"level_weights" yaml:"level_weights" validate:"dive,gte=0"`
}

// CacheConfig controls the fetched-page cache
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	Dir       string        `mapstructure:"dir" yaml:"dir"`
	MemoryTTL time.Duration `mapstructure:"memory_ttl" yaml:"memory_ttl"`
	DiskTTL   time.Duration `mapstructure:"disk_ttl" yaml:"disk_ttl"`
}

// ConcurrencyConfig controls per-audit criterion fan-out
type ConcurrencyConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers" validate:"gte=1,lte=64"`
}

// RateLimitingConfig controls per-host request pacing
type RateLimitingConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"gt=0"`
	BurstSize         int     `mapstructure:"burst_size" yaml:"burst_size" validate:"gte=1"`
}

// StoreConfig controls audit persistence
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// ServerConfig controls the REST surface
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	AuditTimeout time.Duration `mapstructure:"audit_timeout" yaml:"audit_timeout" validate:"gt=0"`
}

// LogConfig controls slog output
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:        20 * time.Second,
			ConnectTimeout: 5 * time.Second,
			UserAgent:      "wcagscan/0.1 (+https://github.com/ppiankov/wcagscan)",
			MaxBodyBytes:   5 * 1024 * 1024,
			MaxAttempts:    3,
			RespectRobots:  true,
		},
		Render: RenderConfig{
			Enabled:        true,
			Stealth:        true,
			PreloadTimeout: 60 * time.Second,
			LazyTimeout:    15 * time.Second,
			MobileWidth:    320,
		},
		LLM: LLMConfig{
			Timeout:      60 * time.Second,
			MaxTokens:    800,
			MaxRetries:   2,
			ContextChars: 8000,
			ExcerptBytes: 20000,
		},
		Scoring: ScoringConfig{
			IncludeAAA:     false,
			StrictCoverage: true,
			LevelWeights: map[Level]float64{
				LevelA:   1.0,
				LevelAA:  1.0,
				LevelAAA: 1.0,
			},
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "~/.wcagscan/cache",
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   6 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 1,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 1.0,
			BurstSize:         2,
		},
		Store: StoreConfig{
			Path: "~/.wcagscan/audits.db",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			AuditTimeout: 3 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints after flags, env and file have been merged
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Render.LazyTimeout > c.Render.PreloadTimeout {
		return fmt.Errorf("invalid configuration: render.lazy_timeout (%s) exceeds render.preload_timeout (%s)",
			c.Render.LazyTimeout, c.Render.PreloadTimeout)
	}
	return nil
}
