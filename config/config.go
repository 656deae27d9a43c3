package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Validation errors.
var (
	// ErrMissingToken indicates CLICKUP_API_TOKEN is not set.
	ErrMissingToken = errors.New("config: CLICKUP_API_TOKEN is required")

	// ErrMissingTeamID indicates CLICKUP_TEAM_ID is not set.
	ErrMissingTeamID = errors.New("config: CLICKUP_TEAM_ID is required")
)

// Config is the immutable process configuration, loaded once at startup
// from the environment.
type Config struct {
	// Upstream credentials and tuning.
	Token          string        // CLICKUP_API_TOKEN (required)
	TeamID         string        // CLICKUP_TEAM_ID (required)
	BaseURL        string        // CLICKUP_BASE_URL (optional override)
	RequestSpacing time.Duration // CLICKUP_REQUEST_SPACING, default 700ms
	RequestTimeout time.Duration // CLICKUP_REQUEST_TIMEOUT, default 30s
	MaxRetries     int           // CLICKUP_MAX_RETRIES, default 3

	// Tool surface.
	EnabledTools  []string // ENABLED_TOOLS: comma list; empty means all
	DisabledTools []string // DISABLED_TOOLS: comma list; wins over enabled
	EnableDocs    bool     // ENABLE_DOCS: docs tool is opt-in

	// Cache TTLs. Zero values use the cache package defaults.
	HierarchyTTL    time.Duration // CACHE_HIERARCHY_TTL
	MembersTTL      time.Duration // CACHE_MEMBERS_TTL
	TagsTTL         time.Duration // CACHE_TAGS_TTL
	CustomFieldsTTL time.Duration // CACHE_CUSTOM_FIELDS_TTL
	SearchTTL       time.Duration // CACHE_SEARCH_TTL, default 1m
	SweepInterval   time.Duration // CACHE_SWEEP_INTERVAL

	// Formatter thresholds. Zero values use the format package defaults.
	UniformThreshold    float64 // FORMAT_UNIFORM_THRESHOLD
	CommonFieldMinRatio float64 // FORMAT_COMMON_MIN_RATIO
	MinNormalizeItems   int     // FORMAT_MIN_NORMALIZE_ITEMS
	DetailedMaxItems    int     // FORMAT_DETAILED_MAX_ITEMS

	// Observability.
	LogLevel         string  // LOG_LEVEL, default "info"
	MetricsAddr      string  // METRICS_ADDR: optional host:port for /healthz and /metrics
	TracingExporter  string  // TRACING_EXPORTER: otlp|stderr|none
	MetricsExporter  string  // METRICS_EXPORTER: otlp|prometheus|stderr|none
	TracingSamplePct float64 // TRACING_SAMPLE_PCT, default 1.0
}

// Load reads the configuration from the environment. Every value goes
// through strict ${VAR} expansion, so indirection through injected
// secrets fails loudly at startup.
func Load() (*Config, error) {
	cfg := &Config{
		RequestSpacing:   700 * time.Millisecond,
		RequestTimeout:   30 * time.Second,
		MaxRetries:       3,
		SearchTTL:        time.Minute,
		LogLevel:         "info",
		TracingExporter:  "none",
		MetricsExporter:  "none",
		TracingSamplePct: 1.0,
	}

	var err error
	if cfg.Token, err = getenv("CLICKUP_API_TOKEN"); err != nil {
		return nil, err
	}
	if cfg.TeamID, err = getenv("CLICKUP_TEAM_ID"); err != nil {
		return nil, err
	}
	if cfg.BaseURL, err = getenv("CLICKUP_BASE_URL"); err != nil {
		return nil, err
	}

	if err := durationVar(&cfg.RequestSpacing, "CLICKUP_REQUEST_SPACING"); err != nil {
		return nil, err
	}
	if err := durationVar(&cfg.RequestTimeout, "CLICKUP_REQUEST_TIMEOUT"); err != nil {
		return nil, err
	}
	if err := intVar(&cfg.MaxRetries, "CLICKUP_MAX_RETRIES"); err != nil {
		return nil, err
	}

	enabled, err := getenv("ENABLED_TOOLS")
	if err != nil {
		return nil, err
	}
	cfg.EnabledTools = splitList(enabled)
	disabled, err := getenv("DISABLED_TOOLS")
	if err != nil {
		return nil, err
	}
	cfg.DisabledTools = splitList(disabled)
	if err := boolVar(&cfg.EnableDocs, "ENABLE_DOCS"); err != nil {
		return nil, err
	}

	for _, v := range []struct {
		dst *time.Duration
		key string
	}{
		{&cfg.HierarchyTTL, "CACHE_HIERARCHY_TTL"},
		{&cfg.MembersTTL, "CACHE_MEMBERS_TTL"},
		{&cfg.TagsTTL, "CACHE_TAGS_TTL"},
		{&cfg.CustomFieldsTTL, "CACHE_CUSTOM_FIELDS_TTL"},
		{&cfg.SearchTTL, "CACHE_SEARCH_TTL"},
		{&cfg.SweepInterval, "CACHE_SWEEP_INTERVAL"},
	} {
		if err := durationVar(v.dst, v.key); err != nil {
			return nil, err
		}
	}

	if err := floatVar(&cfg.UniformThreshold, "FORMAT_UNIFORM_THRESHOLD"); err != nil {
		return nil, err
	}
	if err := floatVar(&cfg.CommonFieldMinRatio, "FORMAT_COMMON_MIN_RATIO"); err != nil {
		return nil, err
	}
	if err := intVar(&cfg.MinNormalizeItems, "FORMAT_MIN_NORMALIZE_ITEMS"); err != nil {
		return nil, err
	}
	if err := intVar(&cfg.DetailedMaxItems, "FORMAT_DETAILED_MAX_ITEMS"); err != nil {
		return nil, err
	}

	if level, err := getenv("LOG_LEVEL"); err != nil {
		return nil, err
	} else if level != "" {
		cfg.LogLevel = level
	}
	if cfg.MetricsAddr, err = getenv("METRICS_ADDR"); err != nil {
		return nil, err
	}
	if exp, err := getenv("TRACING_EXPORTER"); err != nil {
		return nil, err
	} else if exp != "" {
		cfg.TracingExporter = exp
	}
	if exp, err := getenv("METRICS_EXPORTER"); err != nil {
		return nil, err
	} else if exp != "" {
		cfg.MetricsExporter = exp
	}
	if err := floatVar(&cfg.TracingSamplePct, "TRACING_SAMPLE_PCT"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the required fields and cross-field constraints.
func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	if c.TeamID == "" {
		return ErrMissingTeamID
	}
	if c.TracingSamplePct < 0 || c.TracingSamplePct > 1.0 {
		return fmt.Errorf("config: TRACING_SAMPLE_PCT must be in [0.0, 1.0], got %f", c.TracingSamplePct)
	}
	for _, tool := range append(append([]string(nil), c.EnabledTools...), c.DisabledTools...) {
		if !knownTools[tool] {
			return fmt.Errorf("config: unknown tool %q in ENABLED_TOOLS/DISABLED_TOOLS (valid: %s)",
				tool, strings.Join(ToolNames, ", "))
		}
	}
	return nil
}

// getenv reads one variable with strict expansion applied to its value.
func getenv(key string) (string, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return "", nil
	}
	expanded, err := ExpandStrict(raw)
	if err != nil {
		return "", fmt.Errorf("%w (while expanding %s)", err, key)
	}
	return strings.TrimSpace(expanded), nil
}

func durationVar(dst *time.Duration, key string) error {
	s, err := getenv(key)
	if err != nil || s == "" {
		return err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = d
	return nil
}

func intVar(dst *int, key string) error {
	s, err := getenv(key)
	if err != nil || s == "" {
		return err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func floatVar(dst *float64, key string) error {
	s, err := getenv(key)
	if err != nil || s == "" {
		return err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = f
	return nil
}

func boolVar(dst *bool, key string) error {
	s, err := getenv(key)
	if err != nil || s == "" {
		return err
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = b
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
