package portalauth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of a SessionStore.
//
// Config values are copied at Build time and treated as immutable afterwards.
type Config struct {
	Keys    KeysConfig    `envPrefix:"KEYS_"`
	Routes  RoutesConfig  `envPrefix:"ROUTES_"`
	Watch   WatchConfig   `envPrefix:"WATCH_"`
	Audit   AuditConfig   `envPrefix:"AUDIT_"`
	Metrics MetricsConfig `envPrefix:"METRICS_"`
}

/*
====================================
STORAGE KEYS
====================================
*/

// KeysConfig names the three persisted session keys.
type KeysConfig struct {
	Token string `env:"TOKEN"`
	Role  string `env:"ROLE"`
	Name  string `env:"NAME"`
}

/*
====================================
ROUTES
====================================
*/

// RoutesConfig holds the navigation targets used by the guard and by
// OnAuthenticated / Logout.
type RoutesConfig struct {
	Login     string `env:"LOGIN"`
	Dashboard string `env:"DASHBOARD"`
}

// WatchConfig controls cross-view change listening.
type WatchConfig struct {
	Enabled bool `env:"ENABLED"`
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `env:"ENABLED"`
	BufferSize int  `env:"BUFFER_SIZE"`
	DropIfFull bool `env:"DROP_IF_FULL"`
}

// MetricsConfig controls in-process counters and the guard latency histogram.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED"`
	EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration matching the portal's browser
// layout: keys "token", "role", "userName"; login at /login; landing area at
// /dashboard.
func DefaultConfig() Config {
	return Config{
		Keys: KeysConfig{
			Token: "token",
			Role:  "role",
			Name:  "userName",
		},
		Routes: RoutesConfig{
			Login:     "/login",
			Dashboard: "/dashboard",
		},
		Watch: WatchConfig{
			Enabled: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// ConfigFromEnv returns DefaultConfig overlaid with PORTAL_* environment
// variables, e.g. PORTAL_KEYS_TOKEN or PORTAL_ROUTES_LOGIN. Unset variables
// keep their default. The result is validated.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "PORTAL_"}); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) validate() error {
	// Keys
	if strings.TrimSpace(c.Keys.Token) == "" {
		return errors.New("Keys Token must not be empty")
	}
	if strings.TrimSpace(c.Keys.Role) == "" {
		return errors.New("Keys Role must not be empty")
	}
	if strings.TrimSpace(c.Keys.Name) == "" {
		return errors.New("Keys Name must not be empty")
	}
	if c.Keys.Token == c.Keys.Role || c.Keys.Token == c.Keys.Name || c.Keys.Role == c.Keys.Name {
		return errors.New("Keys must be distinct")
	}

	// Routes
	if !strings.HasPrefix(c.Routes.Login, "/") {
		return errors.New("Routes Login must be an absolute path")
	}
	if !strings.HasPrefix(c.Routes.Dashboard, "/") {
		return errors.New("Routes Dashboard must be an absolute path")
	}
	if c.Routes.Login == c.Routes.Dashboard {
		return errors.New("Routes Login and Dashboard must differ")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
