package portalauth

import (
	"github.com/MrEthical07/portalauth/storage"
	"go.uber.org/zap"
)

// Builder assembles a [SessionStore].
//
// Builder instances are configured during initialization and used once.
type Builder struct {
	config    Config
	storage   storage.Storage
	navigator Navigator
	logger    *zap.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStorage sets the durable key-value storage. A nil storage is treated
// as [storage.Null].
func (b *Builder) WithStorage(s storage.Storage) *Builder {
	b.storage = s
	return b
}

// WithNavigator sets the router used by OnAuthenticated, Logout and
// [AccessGuard.CanActivate].
func (b *Builder) WithNavigator(nav Navigator) *Builder {
	b.navigator = nav
	return b
}

// WithLogger sets the structured logger. Nil means no logging.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the sink used when Audit is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the guard latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, reads the persisted token and, when the
// storage supports it, starts listening for changes made by other views.
//
// Build may be called once per Builder.
func (b *Builder) Build() (*SessionStore, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st := b.storage
	if st == nil {
		st = storage.Null{}
	}
	nav := b.navigator
	if nav == nil {
		nav = NopNavigator{}
	}
	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := newSessionStore(cfg, st, nav, logger)
	s.audit = newAuditDispatcher(cfg.Audit, b.auditSink, s.viewID)
	s.metrics = NewMetrics(cfg.Metrics)
	s.start()

	b.built = true

	return s, nil
}
