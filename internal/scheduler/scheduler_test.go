package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/comalice/scxmlcore/internal/primitives"
)

func TestScheduleDelivers(t *testing.T) {
	var mu sync.Mutex
	var got []string
	done := make(chan struct{})

	s := New(func(sessionID string, e primitives.Event) {
		mu.Lock()
		got = append(got, sessionID+":"+e.Name)
		mu.Unlock()
		close(done)
	})

	s.Schedule("send1", "sess1", primitives.NewEvent("timeout", nil), 10*time.Millisecond)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "sess1:timeout" {
		t.Fatalf("got %v", got)
	}
}

func TestCancelPreventsDelivery(t *testing.T) {
	delivered := false
	s := New(func(sessionID string, e primitives.Event) {
		delivered = true
	})
	s.Schedule("send2", "sess1", primitives.NewEvent("timeout", nil), 30*time.Millisecond)
	if !s.Cancel("send2") {
		t.Fatal("expected cancel to succeed")
	}
	time.Sleep(60 * time.Millisecond)
	if delivered {
		t.Fatal("event should not have been delivered")
	}
	if s.Cancel("send2") {
		t.Fatal("second cancel of same id should report false")
	}
}

func TestCancelUnknownIsNoop(t *testing.T) {
	s := New(func(string, primitives.Event) {})
	if s.Cancel("nope") {
		t.Fatal("expected false for unknown id")
	}
}

func TestCancelSession(t *testing.T) {
	s := New(func(string, primitives.Event) {})
	s.Schedule("a", "sess1", primitives.NewEvent("x", nil), time.Hour)
	s.Schedule("b", "sess1", primitives.NewEvent("y", nil), time.Hour)
	if s.Pending() != 2 {
		t.Fatalf("got %d pending, want 2", s.Pending())
	}
	s.CancelSession([]string{"a", "b"})
	if s.Pending() != 0 {
		t.Fatalf("got %d pending, want 0", s.Pending())
	}
}
