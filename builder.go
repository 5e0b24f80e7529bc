package authgate

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/averell07/authgate/internal/attempt"
	internalaudit "github.com/averell07/authgate/internal/audit"
	"github.com/averell07/authgate/internal/captcha"
	internalmetrics "github.com/averell07/authgate/internal/metrics"
	"github.com/averell07/authgate/password"
	"github.com/averell07/authgate/remember"
	"github.com/averell07/authgate/session"
)

// Builder assembles a [Gateway]. Configure it during initialization, call
// Build once, and discard it; a Builder is not safe for concurrent use.
type Builder struct {
	config Config
	redis  *redis.Client

	credentials CredentialStore
	auditSink   AuditSink

	built bool
}

// New returns a Builder preloaded with the default configuration:
// 3 failures trigger a 60-minute lockout, CAPTCHA challenges live 5
// minutes, sessions 24 hours, remember tokens 30 days.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis switches every store from the default in-process maps to
// Redis. Records expire through native TTLs and mutations run as
// optimistic WATCH transactions.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithCredentialStore sets the account lookup collaborator. Required.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.credentials = store
	return b
}

// WithAuditSink sets the sink receiving audit events. Events are only
// emitted when Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the identity-resolution latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires the stores, and starts the
// gateway's background goroutines. A Builder can build at most once.
func (b *Builder) Build() (*Gateway, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.credentials == nil {
		return nil, errors.New("credential store required")
	}

	hasher, err := password.New(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	g := &Gateway{
		config:      cfg,
		credentials: b.credentials,
		hasher:      hasher,
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: internalmetrics.New(internalmetrics.Config{
			Enabled:                 cfg.Metrics.Enabled,
			EnableLatencyHistograms: cfg.Metrics.EnableLatencyHistograms,
		}),
	}

	attemptCfg := attempt.Config{
		Threshold:       cfg.Lockout.Threshold,
		LockoutDuration: cfg.Lockout.Duration,
	}

	if b.redis != nil {
		g.backend = backendRedis
		g.attempts = attempt.NewRedisTracker(b.redis, cfg.Lockout.RedisPrefix, attemptCfg)
		g.captcha = captcha.NewIssuer(
			captcha.NewRedisStore(b.redis, cfg.Captcha.RedisPrefix),
			cfg.Captcha.ChallengeTTL,
		)
		g.sessions = session.NewManager(
			session.NewRedisStore(b.redis, cfg.Session.RedisPrefix),
			cfg.Session.TTL,
		)
		g.remember = remember.NewManager(
			remember.NewRedisStore(b.redis, cfg.Remember.RedisPrefix),
			cfg.Remember.TTL,
		)
	} else {
		g.backend = backendMemory

		attempts := attempt.NewMemoryTracker(attemptCfg)
		captchas := captcha.NewMemoryStore()
		sessions := session.NewMemoryStore()
		remembers := remember.NewMemoryStore()

		g.attempts = attempts
		g.captcha = captcha.NewIssuer(captchas, cfg.Captcha.ChallengeTTL)
		g.sessions = session.NewManager(sessions, cfg.Session.TTL)
		g.remember = remember.NewManager(remembers, cfg.Remember.TTL)

		if cfg.Reaper.Enabled {
			g.reaper = newReaper(cfg.Reaper.Interval,
				attempts.Sweep,
				captchas.Sweep,
				sessions.Sweep,
				remembers.Sweep,
			)
		}
	}

	b.built = true

	return g, nil
}
