package cart

import (
	"context"
	"log"
	"sync"

	"github.com/example/storefront/internal/identity"
	"github.com/example/storefront/internal/infrastructure/notify"
)

// Session holds one shopper's in-memory cart and mediates every read and
// write through the Store. It mirrors changes to other sessions through a
// notification publisher and adopts changes they committed, the way
// browser tabs converge through storage events. Consistency is weak by
// design: concurrent writers race and the last write observed wins.
type Session struct {
	mu         sync.Mutex
	store      *Store
	reconciler *Reconciler
	publisher  notify.Publisher // nil when the session runs alone

	id          identity.Identity
	items       []Item
	initialized bool
}

// NewSession creates a session that is not yet bound to an identity. No
// persistence happens until SetIdentity has loaded the first cart; the
// gate prevents an early mutation from clobbering not-yet-loaded durable
// data with an empty array.
func NewSession(store *Store, publisher notify.Publisher) *Session {
	return &Session{
		store:      store,
		reconciler: NewReconciler(store),
		publisher:  publisher,
		items:      []Item{},
	}
}

// SetIdentity moves the session through its identity transitions:
//
//   - first call: plain load of whatever identity is current, no merge
//   - guest -> user: reconcile the guest cart into the user's cart
//   - any other change (logout, user switch): plain reload
//   - same identity: no-op
func (s *Session) SetIdentity(ctx context.Context, next identity.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.items = s.store.Load(ctx, next)
		s.id = next
		s.initialized = true
		return
	}

	if s.id == next {
		return
	}

	if s.id.IsGuest() && !next.IsGuest() {
		s.items = s.reconciler.MergeGuestIntoUser(ctx, next.UserID)
	} else {
		s.items = s.store.Load(ctx, next)
	}
	s.id = next
}

// Identity returns the identity whose cart is active.
func (s *Session) Identity() identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Initialized reports whether the first load has completed.
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Add upserts a line by identity key. On a match the line's quantities and
// total are replaced outright: re-adding from a product page overwrites
// the previous entry. Only the login merge adds quantities together.
func (s *Session) Add(ctx context.Context, p Product, colorIndex int, quantities map[string]int, totalQty int) {
	if sum := QuantitySum(quantities); sum != totalQty {
		log.Printf("[CartSession] Correcting stale total %d to %d for product %s", totalQty, sum, p.ID)
		totalQty = sum
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	q := make(map[string]int, len(quantities))
	for size, n := range quantities {
		q[size] = n
	}

	for i := range s.items {
		if s.items[i].Product.ID == p.ID && s.items[i].ColorIndex == colorIndex {
			s.items[i].Quantities = q
			s.items[i].TotalQty = totalQty
			s.persist(ctx)
			return
		}
	}

	s.items = append(s.items, Item{
		ID:         NewLineID(),
		Product:    p,
		ColorIndex: colorIndex,
		Quantities: q,
		TotalQty:   totalQty,
	})
	s.persist(ctx)
}

// Remove deletes the line with itemID. Missing IDs are a no-op.
func (s *Session) Remove(ctx context.Context, itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	removed := false
	for _, it := range s.items {
		if it.ID == itemID {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept

	if removed {
		s.persist(ctx)
	}
}

// UpdateQuantity replaces the quantities and total of the line with
// itemID. Missing IDs are a no-op.
func (s *Session) UpdateQuantity(ctx context.Context, itemID string, quantities map[string]int, totalQty int) {
	if sum := QuantitySum(quantities); sum != totalQty {
		totalQty = sum
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID != itemID {
			continue
		}
		q := make(map[string]int, len(quantities))
		for size, n := range quantities {
			q[size] = n
		}
		s.items[i].Quantities = q
		s.items[i].TotalQty = totalQty
		s.persist(ctx)
		return
	}
}

// Clear empties the active identity's cart.
func (s *Session) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []Item{}
	s.persist(ctx)
}

// Items returns a copy of the cart lines in insertion order.
func (s *Session) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Total returns the cart total using the per-line unit price snapshots.
func (s *Session) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, it := range s.items {
		total += it.TotalQty * it.Product.Price
	}
	return total
}

// ItemCount returns the total number of pieces across all lines.
func (s *Session) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, it := range s.items {
		count += it.TotalQty
	}
	return count
}

// persist writes through to the store and announces the commit. Callers
// hold s.mu. Writes are suppressed until the first load has completed.
func (s *Session) persist(ctx context.Context) {
	if !s.initialized {
		return
	}

	raw := s.store.Save(ctx, s.items, s.id)
	if s.publisher == nil || raw == "" {
		return
	}
	if err := s.publisher.Publish(ctx, notify.Change{Key: s.store.Key(s.id), Value: raw}); err != nil {
		log.Printf("[CartSession] Failed to announce cart change for %s: %v", s.id, err)
	}
}

// Watch adopts changes committed by other sessions until ctx is cancelled
// or the subscription closes. Only changes for the active identity's key
// are applied; the payload replaces in-memory state without re-persisting,
// since the writer already updated durable storage.
func (s *Session) Watch(ctx context.Context, sub notify.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-sub.Changes():
			if !ok {
				return
			}
			s.adopt(c)
		}
	}
}

func (s *Session) adopt(c notify.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized || c.Key != s.store.Key(s.id) {
		return
	}

	items, err := DecodeItems(c.Value)
	if err != nil {
		log.Printf("[CartSession] Ignoring malformed change for %s: %v", s.id, err)
		return
	}
	s.items = items
}
