package authgate

import "time"

// SecurityReport is a read-only snapshot of the gateway's security
// posture, intended for startup logging and operator dashboards.
type SecurityReport struct {
	LockoutThreshold int
	LockoutDuration  time.Duration
	CaptchaTTL       time.Duration
	SessionTTL       time.Duration
	RememberTTL      time.Duration
	Argon2           PasswordConfigReport
	Backend          string
	AuditEnabled     bool
	MetricsEnabled   bool
	ReaperActive     bool
	ReaperEvicted    uint64
}

// PasswordConfigReport mirrors the active Argon2id cost parameters.
type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Report returns the gateway's security posture. Safe on a nil gateway.
func (g *Gateway) Report() SecurityReport {
	if g == nil {
		return SecurityReport{}
	}

	return SecurityReport{
		LockoutThreshold: g.config.Lockout.Threshold,
		LockoutDuration:  g.config.Lockout.Duration,
		CaptchaTTL:       g.config.Captcha.ChallengeTTL,
		SessionTTL:       g.config.Session.TTL,
		RememberTTL:      g.config.Remember.TTL,
		Argon2: PasswordConfigReport{
			Memory:      g.config.Password.Memory,
			Time:        g.config.Password.Time,
			Parallelism: g.config.Password.Parallelism,
			SaltLength:  g.config.Password.SaltLength,
			KeyLength:   g.config.Password.KeyLength,
		},
		Backend:        g.backend.String(),
		AuditEnabled:   g.config.Audit.Enabled,
		MetricsEnabled: g.config.Metrics.Enabled,
		ReaperActive:   g.reaper != nil,
		ReaperEvicted:  g.reaper.evictedTotal(),
	}
}
