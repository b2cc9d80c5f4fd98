package events

import (
	"testing"
	"time"
)

func TestPublish_ReachesAllSubscribers(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	a := hub.Subscribe(4)
	b := hub.Subscribe(4)

	hub.Publish(WindowOpened, "w1")

	for _, sub := range []*Subscription{a, b} {
		select {
		case evt := <-sub.C:
			if evt.Name != WindowOpened || evt.Data != "w1" {
				t.Fatalf("unexpected event %+v", evt)
			}
		case <-time.After(time.Second):
			t.Fatalf("expected event delivery")
		}
	}
}

func TestSubscribe_TopicFilter(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	onlyClosed := hub.Subscribe(4, WindowClosed)
	windowsOnly := hub.Subscribe(4, "window.*")

	hub.Publish(SettingsChanged, nil)
	hub.Publish(WindowClosed, "w1")

	select {
	case evt := <-onlyClosed.C:
		if evt.Name != WindowClosed {
			t.Fatalf("expected window.closed first, got %s", evt.Name)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a matching event")
	}

	select {
	case evt := <-windowsOnly.C:
		if evt.Name != WindowClosed {
			t.Fatalf("expected the prefix filter to pass window.closed, got %s", evt.Name)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a matching event")
	}
}

func TestPublish_DoesNotBlockOnFullBuffer(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe(1)
	hub.Publish(WindowOpened, 1)

	done := make(chan struct{})
	go func() {
		hub.Publish(WindowOpened, 2)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected Publish to return immediately on a full buffer")
	}

	if sub.Dropped() != 1 {
		t.Fatalf("expected 1 dropped event, got %d", sub.Dropped())
	}
}

func TestCancel_ClosesChannel(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe(1)
	sub.Cancel()

	if _, open := <-sub.C; open {
		t.Fatalf("expected closed channel after cancel")
	}

	// Publishing after cancel must not panic.
	hub.Publish(WindowOpened, nil)
}

func TestClose_StopsEverything(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(1)

	hub.Close()
	if _, open := <-sub.C; open {
		t.Fatalf("expected closed channel after hub close")
	}

	// Late subscribers get an already-closed channel.
	late := hub.Subscribe(1)
	if _, open := <-late.C; open {
		t.Fatalf("expected closed channel for late subscriber")
	}
}
