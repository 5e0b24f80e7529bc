package authgate

import (
	"context"
	"testing"
	"time"
)

func newObservedGateway(t *testing.T) (*Gateway, *ChannelSink) {
	t.Helper()

	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true

	sink := NewChannelSink(64)

	gw, err := New().
		WithConfig(cfg).
		WithCredentialStore(newFakeCredentialStore(t)).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(gw.Close)

	return gw, sink
}

func waitForEvent(t *testing.T, sink *ChannelSink, eventType string) AuditEvent {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-sink.Events():
			if event.EventType == eventType {
				return event
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", eventType)
		}
	}
}

func TestAuditEventsEmitted(t *testing.T) {
	gw, sink := newObservedGateway(t)
	ctx := WithClientIP(context.Background(), "203.0.113.9")

	result, err := gw.Authenticate(ctx, AuthRequest{
		Identifier: testEmail,
		Secret:     testSecret,
	})
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	event := waitForEvent(t, sink, AuditLoginSuccess)
	if event.Identifier != testEmail || event.UserID != testUserID {
		t.Fatalf("unexpected event fields: %+v", event)
	}
	if event.SessionID != result.SessionID {
		t.Fatalf("expected session id %q, got %q", result.SessionID, event.SessionID)
	}
	if event.IP != "203.0.113.9" {
		t.Fatalf("expected client IP from context, got %q", event.IP)
	}
	if !event.Success {
		t.Fatal("login success event must be marked successful")
	}
}

func TestAuditFailureEvent(t *testing.T) {
	gw, sink := newObservedGateway(t)

	failOnce(t, gw, nil)

	event := waitForEvent(t, sink, AuditLoginFailure)
	if event.Identifier != testEmail || event.Success {
		t.Fatalf("unexpected failure event: %+v", event)
	}
}

func TestMetricsCounters(t *testing.T) {
	gw, _ := newObservedGateway(t)
	ctx := context.Background()

	failOnce(t, gw, nil)

	if _, err := gw.Authenticate(ctx, AuthRequest{
		Identifier: "other@example.com",
		Secret:     "nope",
	}); err == nil {
		t.Fatal("expected failure")
	}

	if _, err := gw.IssueCaptcha(ctx); err != nil {
		t.Fatalf("IssueCaptcha failed: %v", err)
	}

	snap := gw.Metrics()
	if snap.Counters[MetricLoginFailure] != 2 {
		t.Fatalf("expected 2 login failures, got %d", snap.Counters[MetricLoginFailure])
	}
	// Each failure pre-issues a challenge, plus the explicit issue.
	if snap.Counters[MetricCaptchaIssued] != 3 {
		t.Fatalf("expected 3 captchas issued, got %d", snap.Counters[MetricCaptchaIssued])
	}
	if snap.Counters[MetricLoginSuccess] != 0 {
		t.Fatalf("expected no successes, got %d", snap.Counters[MetricLoginSuccess])
	}
}

func TestMetricsDisabledSnapshotEmpty(t *testing.T) {
	gw := newTestGateway(t)

	failOnce(t, gw, nil)

	snap := gw.Metrics()
	if len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot with metrics disabled, got %+v", snap.Counters)
	}
}
