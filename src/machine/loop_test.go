package machine

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/dnaclient/dnaclient/src/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type ping struct{ n int }

type spawn struct {
	scope string
	fn    Activity
}

type retain struct{ scopes []string }

func TestScopes(t *testing.T) {
	cases := []struct {
		path string
		exp  []string
	}{
		{"", nil},
		{"idle", []string{"idle"}},
		{"connected.synced.ready", []string{"connected", "connected.synced", "connected.synced.ready"}},
	}

	for _, c := range cases {
		if got := Scopes(c.path); !reflect.DeepEqual(got, c.exp) {
			t.Fatalf("Scopes(%q) should be %v, not %v", c.path, c.exp, got)
		}
	}
}

// runLoop starts a Loop whose handler interprets spawn and retain commands
// and forwards everything else to the returned channel.
func runLoop(t *testing.T, metrics *Metrics) (*Loop, chan Event) {
	l := NewLoop("test", 0, metrics, common.NewTestEntry(t))
	out := make(chan Event, 16)
	go l.Run(func(ev Event) {
		switch e := ev.(type) {
		case spawn:
			l.Spawn(e.scope, "job", e.fn)
		case retain:
			l.Retain(e.scopes...)
		default:
			out <- ev
		}
	})
	return l, out
}

func recv(t *testing.T, ch chan Event) Event {
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return nil
}

func TestLoopDeliversActivityEvents(t *testing.T) {
	l, out := runLoop(t, nil)
	defer l.Stop()

	l.Send(spawn{scope: "a", fn: func(ctx context.Context, emit func(Event)) {
		emit(ping{1})
	}})

	if ev := recv(t, out); ev != (ping{1}) {
		t.Fatalf("expected ping 1, got %#v", ev)
	}
}

func TestLoopDropsStaleEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	l, out := runLoop(t, metrics)
	defer l.Stop()

	release := make(chan struct{})
	cancelled := make(chan struct{})

	// The first activity ignores cancellation long enough to emit after its
	// scope has been left.
	l.Send(spawn{scope: "a.b", fn: func(ctx context.Context, emit func(Event)) {
		<-ctx.Done()
		close(cancelled)
		<-release
		emit(ping{1})
	}})
	l.Send(retain{scopes: []string{"a"}})

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("leaving the scope should cancel the activity")
	}

	// emit unblocks on the cancelled context, so the stale event is either
	// never queued or dropped by the guard.
	close(release)
	l.Send(ping{2})

	if ev := recv(t, out); ev != (ping{2}) {
		t.Fatalf("expected ping 2 only, got %#v", ev)
	}
}

func TestLoopReplacesActivity(t *testing.T) {
	l, out := runLoop(t, nil)
	defer l.Stop()

	firstCancelled := make(chan struct{})
	l.Send(spawn{scope: "a", fn: func(ctx context.Context, emit func(Event)) {
		<-ctx.Done()
		close(firstCancelled)
	}})
	l.Send(spawn{scope: "a", fn: func(ctx context.Context, emit func(Event)) {
		emit(ping{3})
	}})

	select {
	case <-firstCancelled:
	case <-time.After(time.Second):
		t.Fatal("spawning in the same scope should cancel the previous activity")
	}
	if ev := recv(t, out); ev != (ping{3}) {
		t.Fatalf("expected ping 3, got %#v", ev)
	}
}

func TestLoopStop(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	l, _ := runLoop(t, metrics)

	started := make(chan struct{})
	l.Send(spawn{scope: "a", fn: func(ctx context.Context, emit func(Event)) {
		close(started)
		<-ctx.Done()
	}})
	<-started

	l.Stop()

	if l.Send(ping{4}) {
		t.Fatal("Send should fail after Stop")
	}
	if n := testutil.ToFloat64(metrics.activities.WithLabelValues("test")); n != 0 {
		t.Fatalf("no activity should be running after Stop, got %v", n)
	}
}

func TestEventName(t *testing.T) {
	if n := EventName(ping{}); n != "ping" {
		t.Fatalf("EventName should be ping, not %s", n)
	}
	if n := EventName(&ping{}); n != "ping" {
		t.Fatalf("EventName should be ping, not %s", n)
	}
}
