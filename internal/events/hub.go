package events

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Event names published by the manager.
const (
	WindowOpened    = "window.opened"
	WindowClosed    = "window.closed"
	WindowMoved     = "window.moved"
	SettingsChanged = "settings.changed"
)

// Event is one published occurrence. Data stays untyped in-process;
// consumers that cross a wire marshal it themselves.
type Event struct {
	Name string
	Time time.Time
	Data any
}

// Subscription is one hub listener. Receive from C until it closes.
type Subscription struct {
	C <-chan Event

	hub     *Hub
	id      int
	topics  []string
	ch      chan Event
	dropped atomic.Uint64
}

// Dropped returns how many events this subscriber lost to a full buffer.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Cancel removes the subscription and closes its channel.
func (s *Subscription) Cancel() {
	s.hub.cancel(s.id)
}

func (s *Subscription) matches(name string) bool {
	if len(s.topics) == 0 {
		return true
	}
	for _, topic := range s.topics {
		if topic == "*" || topic == name {
			return true
		}
		if strings.HasSuffix(topic, "*") && strings.HasPrefix(name, strings.TrimSuffix(topic, "*")) {
			return true
		}
	}
	return false
}

// Hub fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full loses the event and its drop counter moves instead.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]*Subscription
	nextID int
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]*Subscription)}
}

// Subscribe registers interest in the named topics. No topics, or "*",
// means everything; a topic ending in "*" matches by prefix. buffer sets
// the channel capacity (minimum 1).
func (h *Hub) Subscribe(buffer int, topics ...string) *Subscription {
	if buffer < 1 {
		buffer = 1
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, buffer)
	sub := &Subscription{
		C:      ch,
		hub:    h,
		id:     h.nextID,
		topics: topics,
		ch:     ch,
	}
	h.nextID++

	if h.closed {
		close(ch)
		return sub
	}
	h.subs[sub.id] = sub
	return sub
}

// Publish delivers the event to every matching subscriber without
// blocking.
func (h *Hub) Publish(name string, data any) {
	evt := Event{Name: name, Time: time.Now(), Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}
	for _, sub := range h.subs {
		if !sub.matches(name) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			sub.dropped.Add(1)
		}
	}
}

// Close cancels every subscription. Publish becomes a no-op afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		close(sub.ch)
		delete(h.subs, id)
	}
}

func (h *Hub) cancel(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.subs[id]; ok {
		close(sub.ch)
		delete(h.subs, id)
	}
}
