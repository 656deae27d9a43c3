package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("CLICKUP_API_TOKEN", "pk_test_token")
	t.Setenv("CLICKUP_TEAM_ID", "9001")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Token != "pk_test_token" || cfg.TeamID != "9001" {
		t.Errorf("credentials = %q/%q", cfg.Token, cfg.TeamID)
	}
	if cfg.RequestSpacing != 700*time.Millisecond {
		t.Errorf("RequestSpacing = %v, want 700ms", cfg.RequestSpacing)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.SearchTTL != time.Minute {
		t.Errorf("SearchTTL = %v, want 1m", cfg.SearchTTL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("CLICKUP_API_TOKEN", "")
	t.Setenv("CLICKUP_TEAM_ID", "9001")
	if _, err := Load(); !errors.Is(err, ErrMissingToken) {
		t.Errorf("error = %v, want ErrMissingToken", err)
	}

	t.Setenv("CLICKUP_API_TOKEN", "pk_x")
	t.Setenv("CLICKUP_TEAM_ID", "")
	if _, err := Load(); !errors.Is(err, ErrMissingTeamID) {
		t.Errorf("error = %v, want ErrMissingTeamID", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CLICKUP_REQUEST_SPACING", "100ms")
	t.Setenv("CACHE_HIERARCHY_TTL", "2m")
	t.Setenv("FORMAT_UNIFORM_THRESHOLD", "0.5")
	t.Setenv("FORMAT_DETAILED_MAX_ITEMS", "25")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RequestSpacing != 100*time.Millisecond {
		t.Errorf("RequestSpacing = %v", cfg.RequestSpacing)
	}
	if cfg.HierarchyTTL != 2*time.Minute {
		t.Errorf("HierarchyTTL = %v", cfg.HierarchyTTL)
	}
	if cfg.UniformThreshold != 0.5 {
		t.Errorf("UniformThreshold = %v", cfg.UniformThreshold)
	}
	if cfg.DetailedMaxItems != 25 {
		t.Errorf("DetailedMaxItems = %v", cfg.DetailedMaxItems)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("CACHE_TAGS_TTL", "fifteen minutes")
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_UnknownToolRejected(t *testing.T) {
	setRequired(t)
	t.Setenv("ENABLED_TOOLS", "tasks,telepathy")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "telepathy") {
		t.Fatalf("error = %v, want unknown tool", err)
	}
}

func TestLoad_TokenIndirection(t *testing.T) {
	t.Setenv("VAULT_TOKEN", "pk_from_vault")
	t.Setenv("CLICKUP_API_TOKEN", "${VAULT_TOKEN}")
	t.Setenv("CLICKUP_TEAM_ID", "9001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Token != "pk_from_vault" {
		t.Errorf("Token = %q, want the expanded value", cfg.Token)
	}
}

func TestExpandStrict(t *testing.T) {
	t.Setenv("PRESENT", "value")

	got, err := ExpandStrict("x-${PRESENT}-y")
	if err != nil {
		t.Fatalf("ExpandStrict: %v", err)
	}
	if got != "x-value-y" {
		t.Errorf("got %q", got)
	}

	if _, err := ExpandStrict("${DEFINITELY_NOT_SET_ANYWHERE}"); err == nil {
		t.Fatal("missing variable must error")
	}

	got, err = ExpandStrict("cost: $$5")
	if err != nil {
		t.Fatalf("ExpandStrict: %v", err)
	}
	if got != "cost: $5" {
		t.Errorf("escape hatch: got %q", got)
	}
}

func TestActiveTools(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want []string
	}{
		{
			name: "default set excludes docs",
			cfg:  Config{},
			want: []string{"tasks", "containers", "tags", "members", "workspace"},
		},
		{
			name: "docs opt-in",
			cfg:  Config{EnableDocs: true},
			want: []string{"tasks", "containers", "tags", "members", "docs", "workspace"},
		},
		{
			name: "explicit enable list",
			cfg:  Config{EnabledTools: []string{"tasks", "workspace"}},
			want: []string{"tasks", "workspace"},
		},
		{
			name: "disable wins over enable",
			cfg: Config{
				EnabledTools:  []string{"tasks", "tags"},
				DisabledTools: []string{"tags"},
			},
			want: []string{"tasks"},
		},
		{
			name: "enable docs without flag stays off",
			cfg:  Config{EnabledTools: []string{"docs", "tasks"}},
			want: []string{"tasks"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.cfg.ActiveTools()
			if len(got) != len(tc.want) {
				t.Fatalf("ActiveTools = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("ActiveTools = %v, want %v", got, tc.want)
				}
			}
		})
	}
}
