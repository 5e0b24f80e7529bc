package authgate

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/averell07/authgate/internal/audit"
	internalcaptcha "github.com/averell07/authgate/internal/captcha"
	internalmetrics "github.com/averell07/authgate/internal/metrics"
)

// UserAccount is the read-only account record supplied by a
// [CredentialStore]. This library never creates or mutates accounts.
type UserAccount struct {
	ID         string
	Email      string
	Username   string
	SecretHash string
	CreatedAt  time.Time
}

// CredentialStore is the interface callers implement to integrate authgate
// with their user database. FindByIdentifier returns [ErrUserNotFound]
// when no account matches; the gateway collapses that case into the same
// observable result as a wrong secret.
//
// VerifySecret should be cost-uniform with the gateway's own placeholder
// verification; hashing secrets with the [password] package guarantees
// that.
type CredentialStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (UserAccount, error)
	VerifySecret(ctx context.Context, account UserAccount, secret string) (bool, error)
}

// Outcome is the terminal state of one sign-in attempt.
type Outcome uint8

const (
	OutcomeSuccess Outcome = iota
	OutcomeInvalidCredentials
	OutcomeCaptchaRequired
	OutcomeLockedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeInvalidCredentials:
		return "invalid_credentials"
	case OutcomeCaptchaRequired:
		return "captcha_required"
	case OutcomeLockedOut:
		return "locked_out"
	default:
		return "unknown"
	}
}

// AuthRequest is one sign-in submission. CaptchaID and CaptchaAnswer are
// required once the identifier has any recorded failure; CaptchaAnswer is
// passed through as submitted and parsed by the gateway.
type AuthRequest struct {
	Identifier    string
	Secret        string
	CaptchaID     string
	CaptchaAnswer string
	RememberMe    bool
}

// AuthResult is returned by [Gateway.Authenticate] alongside a matching
// sentinel error on failure paths.
type AuthResult struct {
	Outcome       Outcome
	SessionID     string
	RememberToken string
	// Challenge carries a fresh CAPTCHA on failure paths so the caller can
	// render the next attempt without a second round trip.
	Challenge         *Challenge
	RemainingAttempts int
	LockoutMinutes    int
}

// Status is a read-only projection of the attempt tracker's state for one
// identifier, used to pre-render warnings.
type Status struct {
	RemainingAttempts int
	RequiresCaptcha   bool
	LockedOut         bool
	LockoutMinutes    int
}

// Identity is the result of resolving client-side credentials. A zero
// Identity means anonymous; resolution failures degrade to anonymous and
// never escalate to hard errors.
type Identity struct {
	Authenticated bool
	UserID        string
	SessionID     string
	// Renewed is true when the session was re-established from a remember
	// token during this resolution.
	Renewed bool
}

// Challenge is the caller-visible half of a CAPTCHA puzzle.
type Challenge = internalcaptcha.Challenge

// AuditEvent is a structured audit record emitted by the gateway.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the gateway's async
// dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink returns a [ChannelSink] with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a [JSONWriterSink] writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// Audit event types emitted by the gateway.
const (
	AuditLoginSuccess    = internalaudit.EventLoginSuccess
	AuditLoginFailure    = internalaudit.EventLoginFailure
	AuditLoginLockedOut  = internalaudit.EventLoginLockedOut
	AuditCaptchaIssued   = internalaudit.EventCaptchaIssued
	AuditCaptchaFailed   = internalaudit.EventCaptchaFailed
	AuditSessionCreated  = internalaudit.EventSessionCreated
	AuditSessionResolved = internalaudit.EventSessionResolved
	AuditRememberUsed    = internalaudit.EventRememberUsed
	AuditLogout          = internalaudit.EventLogout
)

// MetricID indexes one gateway counter.
type MetricID = internalmetrics.MetricID

// MetricsSnapshot is a deep copy of the gateway's counters at one instant.
type MetricsSnapshot = internalmetrics.Snapshot

// Metric identifiers exposed through [Gateway.Metrics].
const (
	MetricLoginSuccess     = internalmetrics.MetricLoginSuccess
	MetricLoginFailure     = internalmetrics.MetricLoginFailure
	MetricLoginLockedOut   = internalmetrics.MetricLoginLockedOut
	MetricCaptchaIssued    = internalmetrics.MetricCaptchaIssued
	MetricCaptchaFailed    = internalmetrics.MetricCaptchaFailed
	MetricSessionCreated   = internalmetrics.MetricSessionCreated
	MetricSessionDestroyed = internalmetrics.MetricSessionDestroyed
	MetricSessionResolved  = internalmetrics.MetricSessionResolved
	MetricRememberIssued   = internalmetrics.MetricRememberIssued
	MetricRememberUsed     = internalmetrics.MetricRememberUsed
	MetricLogout           = internalmetrics.MetricLogout
	MetricResolveLatency   = internalmetrics.MetricResolveLatency
)
