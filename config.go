package authgate

import (
	"errors"
	"time"
)

// Config defines every tunable of the gateway. Zero values are invalid;
// start from the defaults via [New] and override fields through
// [Builder.WithConfig].
type Config struct {
	Lockout  LockoutConfig
	Captcha  CaptchaConfig
	Session  SessionConfig
	Remember RememberConfig
	Password PasswordConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Reaper   ReaperConfig
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig tunes failed-attempt tracking. Once Threshold failures
// accumulate, the identifier is rejected outright for Duration; the
// window's expiry clears the failure history entirely.
type LockoutConfig struct {
	Threshold   int
	Duration    time.Duration
	RedisPrefix string
}

/*
====================================
CAPTCHA CONFIG
====================================
*/

// CaptchaConfig tunes one-time arithmetic challenges.
type CaptchaConfig struct {
	ChallengeTTL time.Duration
	RedisPrefix  string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig tunes short-lived sessions. TTL is absolute; validation
// never renews it.
type SessionConfig struct {
	TTL         time.Duration
	RedisPrefix string
}

// RememberConfig tunes long-lived remember-me tokens.
type RememberConfig struct {
	TTL         time.Duration
	RedisPrefix string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig carries Argon2id cost parameters. The gateway uses them
// for its anti-enumeration placeholder hash; CredentialStore
// implementations should hash with the same parameters via the password
// package.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// AuditConfig tunes the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig tunes in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// ReaperConfig tunes the background sweep of expired records in the
// memory backend. Expiry is evaluated lazily on read either way; the
// reaper only bounds memory. It is ignored when Redis backs the stores.
type ReaperConfig struct {
	Enabled  bool
	Interval time.Duration
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Lockout: LockoutConfig{
			Threshold:   3,
			Duration:    60 * time.Minute,
			RedisPrefix: "ag:att",
		},
		Captcha: CaptchaConfig{
			ChallengeTTL: 5 * time.Minute,
			RedisPrefix:  "ag:cap",
		},
		Session: SessionConfig{
			TTL:         24 * time.Hour,
			RedisPrefix: "ag:sess",
		},
		Remember: RememberConfig{
			TTL:         30 * 24 * time.Hour,
			RedisPrefix: "ag:rem",
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Reaper: ReaperConfig{
			Enabled:  true,
			Interval: 5 * time.Minute,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// No reference fields today; the copy keeps later additions honest.
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects configurations the gateway cannot run safely with.
func (c *Config) Validate() error {
	if c.Lockout.Threshold <= 0 {
		return errors.New("Lockout Threshold must be > 0")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("Lockout Duration must be > 0")
	}

	if c.Captcha.ChallengeTTL <= 0 {
		return errors.New("Captcha ChallengeTTL must be > 0")
	}

	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Remember.TTL <= 0 {
		return errors.New("Remember TTL must be > 0")
	}
	if c.Remember.TTL < c.Session.TTL {
		return errors.New("Remember TTL must be >= Session TTL")
	}

	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.Reaper.Enabled && c.Reaper.Interval <= 0 {
		return errors.New("Reaper Interval must be > 0 when reaper is enabled")
	}

	return nil
}
