package audit

import (
	"context"
	"testing"
	"time"
)

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)
	defer d.Close()

	ctx := context.Background()
	d.Emit(ctx, Event{EventType: EventLoginFailure})
	d.Emit(ctx, Event{EventType: EventLoginSuccess})

	for _, want := range []string{EventLoginFailure, EventLoginSuccess} {
		select {
		case got := <-sink.Events():
			if got.EventType != want {
				t.Fatalf("expected %s, got %s", want, got.EventType)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	// A sink that never consumes; buffer of 1 forces drops.
	block := make(chan struct{})
	sink := blockedSink{ch: block}

	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		d.Emit(ctx, Event{EventType: EventLoginFailure})
	}

	if d.Dropped() == 0 {
		t.Fatal("expected dropped events with a blocked sink")
	}

	close(block)
	d.Close()
}

func TestNilDispatcherIsSafe(t *testing.T) {
	var d *Dispatcher
	d.Emit(context.Background(), Event{EventType: EventLogout})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher should report zero drops")
	}
}

type blockedSink struct {
	ch chan struct{}
}

func (s blockedSink) Emit(ctx context.Context, _ Event) {
	select {
	case <-s.ch:
	case <-ctx.Done():
	}
}
