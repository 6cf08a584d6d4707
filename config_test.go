package portalauth

import (
	"errors"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "custom keys valid",
			mutate:    func(c *Config) { c.Keys = KeysConfig{Token: "t", Role: "r", Name: "n"} },
			wantValid: true,
		},
		{
			name:   "blank token key",
			mutate: func(c *Config) { c.Keys.Token = "  " },
		},
		{
			name:   "blank role key",
			mutate: func(c *Config) { c.Keys.Role = "" },
		},
		{
			name:   "blank name key",
			mutate: func(c *Config) { c.Keys.Name = "" },
		},
		{
			name:   "duplicate keys",
			mutate: func(c *Config) { c.Keys.Name = c.Keys.Role },
		},
		{
			name:   "relative login route",
			mutate: func(c *Config) { c.Routes.Login = "login" },
		},
		{
			name:   "relative dashboard route",
			mutate: func(c *Config) { c.Routes.Dashboard = "dashboard" },
		},
		{
			name:   "same routes",
			mutate: func(c *Config) { c.Routes.Dashboard = c.Routes.Login },
		},
		{
			name: "audit without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
		},
		{
			name:      "audit disabled ignores buffer",
			mutate:    func(c *Config) { c.Audit.BufferSize = 0 },
			wantValid: true,
		},
		{
			name:   "histograms without metrics",
			mutate: func(c *Config) { c.Metrics.EnableLatencyHistograms = true },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.wantValid {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("expected ErrInvalidConfig, got %v", err)
				}
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PORTAL_KEYS_TOKEN", "authToken")
	t.Setenv("PORTAL_ROUTES_LOGIN", "/signin")
	t.Setenv("PORTAL_METRICS_ENABLED", "true")
	t.Setenv("PORTAL_AUDIT_BUFFER_SIZE", "8")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}
	if cfg.Keys.Token != "authToken" {
		t.Fatalf("expected token key override, got %q", cfg.Keys.Token)
	}
	if cfg.Keys.Role != "role" {
		t.Fatalf("expected default role key, got %q", cfg.Keys.Role)
	}
	if cfg.Routes.Login != "/signin" || cfg.Routes.Dashboard != "/dashboard" {
		t.Fatalf("unexpected routes %+v", cfg.Routes)
	}
	if !cfg.Metrics.Enabled || cfg.Audit.BufferSize != 8 {
		t.Fatalf("unexpected overrides %+v %+v", cfg.Metrics, cfg.Audit)
	}
}

func TestConfigFromEnvInvalid(t *testing.T) {
	t.Setenv("PORTAL_ROUTES_DASHBOARD", "/login")

	if _, err := ConfigFromEnv(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestConfigFromEnvBadValue(t *testing.T) {
	t.Setenv("PORTAL_WATCH_ENABLED", "sometimes")

	if _, err := ConfigFromEnv(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
