package notify

import (
	"context"
	"sync"
)

// Hub fans out changes to subscribers within one process. A subscriber
// never receives its own writes, matching how a browser tab does not see
// storage events for writes it made itself.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*hubSubscription
}

type hubSubscription struct {
	id  int
	hub *Hub
	ch  chan Change

	closeOnce sync.Once
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]*hubSubscription)}
}

// Subscribe registers a new listener and returns both its subscription and
// a Publisher whose writes are excluded from that listener.
func (h *Hub) Subscribe() (Subscription, Publisher) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &hubSubscription{
		id:  h.nextID,
		hub: h,
		ch:  make(chan Change, 16),
	}
	h.subs[sub.id] = sub
	return sub, &hubPublisher{hub: h, origin: sub.id}
}

// broadcast delivers c to every subscriber except origin. Slow subscribers
// are skipped rather than blocked on; the channel is best-effort.
func (h *Hub) broadcast(origin int, c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, sub := range h.subs {
		if id == origin {
			continue
		}
		select {
		case sub.ch <- c:
		default:
		}
	}
}

func (s *hubSubscription) Changes() <-chan Change {
	return s.ch
}

func (s *hubSubscription) Close() {
	s.closeOnce.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}

type hubPublisher struct {
	hub    *Hub
	origin int
}

func (p *hubPublisher) Publish(ctx context.Context, c Change) error {
	p.hub.broadcast(p.origin, c)
	return nil
}
