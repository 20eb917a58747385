package app

import (
	"testing"
	"time"
)

func TestNotificationHubReplayFromCursor(t *testing.T) {
	hub := NewNotificationHub(16)
	hub.Publish("notify.a", 1)
	second := hub.Publish("notify.b", 2)
	hub.Publish("notify.c", 3)

	replay, ch, cancel := hub.Subscribe(second.Seq)
	defer cancel()
	if len(replay) != 1 || replay[0].Method != "notify.c" {
		t.Fatalf("unexpected replay: %+v", replay)
	}

	hub.Publish("notify.d", 4)
	select {
	case event := <-ch:
		if event.Method != "notify.d" {
			t.Fatalf("unexpected live event %q", event.Method)
		}
	case <-time.After(time.Second):
		t.Fatal("live event not delivered")
	}
}

func TestNotificationHubBoundsHistory(t *testing.T) {
	hub := NewNotificationHub(4)
	for i := 0; i < 10; i++ {
		hub.Publish("notify.x", i)
	}
	if hub.BacklogSize() != 4 {
		t.Fatalf("history should be bounded at 4, got %d", hub.BacklogSize())
	}
	replay, _, cancel := hub.Subscribe(0)
	defer cancel()
	if len(replay) != 4 || replay[0].Seq != 7 {
		t.Fatalf("unexpected bounded replay: %+v", replay)
	}
}

func TestActionGuardPerActionAndKey(t *testing.T) {
	guard := NewActionGuard()
	if !guard.TryBegin("payRent", "12 Main St") {
		t.Fatal("first begin should succeed")
	}
	if guard.TryBegin("payRent", "12 Main St") {
		t.Fatal("second begin for same action and key must fail")
	}
	// Different key or action is independent.
	if !guard.TryBegin("payRent", "7 Oak Ave") {
		t.Fatal("different key should be independent")
	}
	if !guard.TryBegin("apply", "12 Main St") {
		t.Fatal("different action should be independent")
	}
	guard.End("payRent", "12 Main St")
	if !guard.TryBegin("payRent", "12 Main St") {
		t.Fatal("begin after end should succeed")
	}
}

func TestServiceMetricsState(t *testing.T) {
	metrics := NewServiceMetricsState()
	metrics.RecordError(KindNetwork)
	metrics.RecordError(KindNetwork)
	metrics.RecordOp("lease.pay", time.Now().Add(-5*time.Millisecond))
	metrics.RecordOpError("lease.pay")

	counters, opStats, lastAt := metrics.Snapshot()
	if counters[string(KindNetwork)] != 2 {
		t.Fatalf("unexpected counters: %+v", counters)
	}
	stat := opStats["lease.pay"]
	if stat.Count != 1 || stat.Errors != 1 {
		t.Fatalf("unexpected op stats: %+v", stat)
	}
	if lastAt.IsZero() {
		t.Fatal("last update timestamp not set")
	}
}
