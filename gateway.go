package authgate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/averell07/authgate/internal/attempt"
	internalaudit "github.com/averell07/authgate/internal/audit"
	"github.com/averell07/authgate/internal/captcha"
	internalmetrics "github.com/averell07/authgate/internal/metrics"
	"github.com/averell07/authgate/password"
	"github.com/averell07/authgate/remember"
	"github.com/averell07/authgate/session"
)

type storeBackend uint8

const (
	backendMemory storeBackend = iota
	backendRedis
)

func (b storeBackend) String() string {
	if b == backendRedis {
		return "redis"
	}
	return "memory"
}

// Gateway orchestrates the sign-in flow: lockout checks, CAPTCHA gating,
// uniform-cost credential verification, and session/remember-token
// issuance. It is the only surface route handlers call directly. Safe for
// concurrent use.
type Gateway struct {
	config      Config
	credentials CredentialStore

	attempts attempt.Tracker
	captcha  *captcha.Issuer
	sessions *session.Manager
	remember *remember.Manager
	hasher   *password.Hasher

	audit   *internalaudit.Dispatcher
	metrics *internalmetrics.Metrics
	reaper  *reaper
	backend storeBackend
}

// Authenticate runs one sign-in attempt through the state machine.
//
// Failure paths return both a populated *AuthResult (outcome, fresh
// CAPTCHA, remaining attempts) and the matching sentinel error, so
// callers can branch with errors.Is while still rendering the result.
// An active lockout short-circuits before any credential work and is
// never itself recorded as a failure.
func (g *Gateway) Authenticate(ctx context.Context, req AuthRequest) (*AuthResult, error) {
	if g == nil {
		return nil, ErrGatewayNotReady
	}

	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		return nil, fmt.Errorf("%w: identifier is required", ErrValidation)
	}
	if req.Secret == "" {
		return nil, fmt.Errorf("%w: secret is required", ErrValidation)
	}

	status, err := g.attempts.Check(ctx, identifier)
	if err != nil {
		return nil, g.wrapBackend(err)
	}
	if status.LockedOut {
		return g.lockedOut(ctx, identifier, status.LockoutRemaining)
	}

	// Any prior failure gates the attempt behind a CAPTCHA. A missing,
	// wrong, or replayed answer is a recorded failure like a bad secret.
	if status.RemainingAttempts < g.config.Lockout.Threshold {
		if err := g.verifyCaptcha(ctx, req); err != nil {
			if errors.Is(err, captcha.ErrChallengeNotFound) || errors.Is(err, captcha.ErrWrongAnswer) {
				return g.captchaFailure(ctx, identifier)
			}
			return nil, g.wrapBackend(err)
		}
	}

	account, found, err := g.lookup(ctx, identifier)
	if err != nil {
		return nil, g.wrapBackend(err)
	}

	var match bool
	if found {
		match, err = g.credentials.VerifySecret(ctx, account, req.Secret)
		if err != nil {
			return nil, g.wrapBackend(err)
		}
	} else {
		// Burn the same argon2 work against the placeholder hash so an
		// absent account is indistinguishable from a wrong secret.
		match = g.hasher.DummyVerify(req.Secret)
	}
	if !match {
		return g.credentialFailure(ctx, identifier)
	}

	return g.success(ctx, identifier, account, req.RememberMe)
}

func (g *Gateway) lookup(ctx context.Context, identifier string) (UserAccount, bool, error) {
	account, err := g.credentials.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return UserAccount{}, false, nil
		}
		return UserAccount{}, false, err
	}
	return account, true, nil
}

func (g *Gateway) verifyCaptcha(ctx context.Context, req AuthRequest) error {
	if req.CaptchaID == "" {
		return captcha.ErrChallengeNotFound
	}

	answer, err := strconv.ParseInt(strings.TrimSpace(req.CaptchaAnswer), 10, 64)
	if err != nil {
		// Still consume the pending challenge: stored answers are always
		// non-negative, so -1 can never match.
		answer = -1
	}

	return g.captcha.Verify(ctx, req.CaptchaID, answer)
}

func (g *Gateway) lockedOut(ctx context.Context, identifier string, remaining time.Duration) (*AuthResult, error) {
	minutes := ceilMinutes(remaining)

	g.metrics.Inc(internalmetrics.MetricLoginLockedOut)
	g.emit(ctx, AuditEvent{
		EventType:  internalaudit.EventLoginLockedOut,
		Identifier: identifier,
		Error:      ErrLockedOut.Error(),
	})

	return &AuthResult{
		Outcome:        OutcomeLockedOut,
		LockoutMinutes: minutes,
	}, ErrLockedOut
}

func (g *Gateway) captchaFailure(ctx context.Context, identifier string) (*AuthResult, error) {
	result, err := g.recordFailure(ctx, identifier)
	if err != nil {
		return result, err
	}

	result.Outcome = OutcomeCaptchaRequired

	g.metrics.Inc(internalmetrics.MetricCaptchaFailed)
	g.emit(ctx, AuditEvent{
		EventType:  internalaudit.EventCaptchaFailed,
		Identifier: identifier,
		Error:      ErrCaptchaRequired.Error(),
	})

	return result, ErrCaptchaRequired
}

func (g *Gateway) credentialFailure(ctx context.Context, identifier string) (*AuthResult, error) {
	result, err := g.recordFailure(ctx, identifier)
	if err != nil {
		return result, err
	}

	result.Outcome = OutcomeInvalidCredentials

	g.metrics.Inc(internalmetrics.MetricLoginFailure)
	g.emit(ctx, AuditEvent{
		EventType:  internalaudit.EventLoginFailure,
		Identifier: identifier,
		Error:      ErrInvalidCredentials.Error(),
	})

	return result, ErrInvalidCredentials
}

// recordFailure counts one failure and prepares the shared part of a
// failure result. When this failure crosses the threshold the attempt
// terminates as locked out instead, with no fresh challenge.
func (g *Gateway) recordFailure(ctx context.Context, identifier string) (*AuthResult, error) {
	count, locked, err := g.attempts.Record(ctx, identifier)
	if err != nil {
		return nil, g.wrapBackend(err)
	}
	if locked {
		return g.lockedOut(ctx, identifier, g.config.Lockout.Duration)
	}

	remaining := g.config.Lockout.Threshold - count
	if remaining < 0 {
		remaining = 0
	}

	result := &AuthResult{RemainingAttempts: remaining}

	// Pre-issue the challenge for the next attempt. Losing it is not
	// fatal; the caller can fall back to IssueCaptcha.
	if ch, err := g.issueChallenge(ctx); err == nil {
		result.Challenge = &ch
	}

	return result, nil
}

func (g *Gateway) success(ctx context.Context, identifier string, account UserAccount, rememberMe bool) (*AuthResult, error) {
	if err := g.attempts.Clear(ctx, identifier); err != nil {
		return nil, g.wrapBackend(err)
	}

	sessionID, err := g.sessions.Create(ctx, account.ID)
	if err != nil {
		return nil, g.wrapBackend(err)
	}
	g.metrics.Inc(internalmetrics.MetricSessionCreated)

	result := &AuthResult{
		Outcome:           OutcomeSuccess,
		SessionID:         sessionID,
		RemainingAttempts: g.config.Lockout.Threshold,
	}

	if rememberMe {
		token, err := g.remember.Issue(ctx, account.ID)
		if err != nil {
			return nil, g.wrapBackend(err)
		}
		result.RememberToken = token
		g.metrics.Inc(internalmetrics.MetricRememberIssued)
	}

	g.metrics.Inc(internalmetrics.MetricLoginSuccess)
	g.emit(ctx, AuditEvent{
		EventType:  internalaudit.EventLoginSuccess,
		Identifier: identifier,
		UserID:     account.ID,
		SessionID:  sessionID,
		Success:    true,
	})

	return result, nil
}

// IssueCaptcha creates a fresh arithmetic challenge. The answer never
// leaves the store.
func (g *Gateway) IssueCaptcha(ctx context.Context) (Challenge, error) {
	if g == nil {
		return Challenge{}, ErrGatewayNotReady
	}
	return g.issueChallenge(ctx)
}

func (g *Gateway) issueChallenge(ctx context.Context) (Challenge, error) {
	ch, err := g.captcha.Issue(ctx)
	if err != nil {
		return Challenge{}, g.wrapBackend(err)
	}

	g.metrics.Inc(internalmetrics.MetricCaptchaIssued)
	g.emit(ctx, AuditEvent{
		EventType: internalaudit.EventCaptchaIssued,
		Success:   true,
		Metadata:  map[string]string{"challenge_id": ch.ID},
	})

	return ch, nil
}

// Status reports the attempt tracker's view of one identifier without
// mutating anything beyond an elapsed-lockout reset.
func (g *Gateway) Status(ctx context.Context, identifier string) (Status, error) {
	if g == nil {
		return Status{}, ErrGatewayNotReady
	}

	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return Status{}, fmt.Errorf("%w: identifier is required", ErrValidation)
	}

	st, err := g.attempts.Check(ctx, identifier)
	if err != nil {
		return Status{}, g.wrapBackend(err)
	}

	return Status{
		RemainingAttempts: st.RemainingAttempts,
		RequiresCaptcha:   !st.LockedOut && st.RemainingAttempts < g.config.Lockout.Threshold,
		LockedOut:         st.LockedOut,
		LockoutMinutes:    ceilMinutes(st.LockoutRemaining),
	}, nil
}

// Resolve turns client-side credentials into an Identity: the session
// cookie first, then the remember token, which transparently mints a new
// session. Both failing yields an anonymous Identity, never a hard error;
// only backend failures surface.
func (g *Gateway) Resolve(ctx context.Context, sessionID, rememberToken string) (*Identity, error) {
	if g == nil {
		return nil, ErrGatewayNotReady
	}

	start := time.Now()
	defer func() {
		g.metrics.Observe(internalmetrics.MetricResolveLatency, time.Since(start))
	}()

	if sessionID != "" {
		userID, err := g.sessions.Validate(ctx, sessionID)
		switch {
		case err == nil:
			g.metrics.Inc(internalmetrics.MetricSessionResolved)
			g.emit(ctx, AuditEvent{
				EventType: internalaudit.EventSessionResolved,
				UserID:    userID,
				SessionID: sessionID,
				Success:   true,
			})
			return &Identity{
				Authenticated: true,
				UserID:        userID,
				SessionID:     sessionID,
			}, nil
		case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired):
			// fall through to the remember token
		default:
			return nil, g.wrapBackend(err)
		}
	}

	if rememberToken != "" {
		userID, err := g.remember.Validate(ctx, rememberToken)
		switch {
		case err == nil:
			newID, err := g.sessions.Create(ctx, userID)
			if err != nil {
				return nil, g.wrapBackend(err)
			}
			g.metrics.Inc(internalmetrics.MetricRememberUsed)
			g.metrics.Inc(internalmetrics.MetricSessionCreated)
			g.emit(ctx, AuditEvent{
				EventType: internalaudit.EventRememberUsed,
				UserID:    userID,
				SessionID: newID,
				Success:   true,
			})
			return &Identity{
				Authenticated: true,
				UserID:        userID,
				SessionID:     newID,
				Renewed:       true,
			}, nil
		case errors.Is(err, remember.ErrNotFound):
			// anonymous
		default:
			return nil, g.wrapBackend(err)
		}
	}

	return &Identity{}, nil
}

// Logout destroys the session and revokes the remember token. Unknown or
// empty credentials are ignored; Logout is idempotent.
func (g *Gateway) Logout(ctx context.Context, sessionID, rememberToken string) error {
	if g == nil {
		return ErrGatewayNotReady
	}

	if sessionID != "" {
		if err := g.sessions.Destroy(ctx, sessionID); err != nil {
			return g.wrapBackend(err)
		}
		g.metrics.Inc(internalmetrics.MetricSessionDestroyed)
	}
	if rememberToken != "" {
		if err := g.remember.Revoke(ctx, rememberToken); err != nil {
			return g.wrapBackend(err)
		}
	}

	g.metrics.Inc(internalmetrics.MetricLogout)
	g.emit(ctx, AuditEvent{
		EventType: internalaudit.EventLogout,
		SessionID: sessionID,
		Success:   true,
	})

	return nil
}

// Metrics returns a deep copy of the gateway's counters.
func (g *Gateway) Metrics() MetricsSnapshot {
	if g == nil {
		return internalmetrics.Snapshot{}
	}
	return g.metrics.Snapshot()
}

// Close stops the audit dispatcher (draining buffered events) and the
// memory-store reaper. The gateway must not be used afterwards.
func (g *Gateway) Close() {
	if g == nil {
		return
	}
	g.reaper.stop()
	g.audit.Close()
}

func (g *Gateway) emit(ctx context.Context, event AuditEvent) {
	if g.audit == nil {
		return
	}
	event.Timestamp = time.Now()
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
	}
	g.audit.Emit(ctx, event)
}

// wrapBackend folds the per-store backend sentinels into the public one.
func (g *Gateway) wrapBackend(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, attempt.ErrBackendUnavailable) ||
		errors.Is(err, captcha.ErrBackendUnavailable) ||
		errors.Is(err, session.ErrBackendUnavailable) ||
		errors.Is(err, remember.ErrBackendUnavailable) {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return err
}

func ceilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Minute - 1) / time.Minute)
}
