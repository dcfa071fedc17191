package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/identity"
	"github.com/example/storefront/internal/infrastructure/kv"
	"github.com/example/storefront/internal/infrastructure/notify"
)

func TestSessionManager_GuestCartsIsolatedPerClient(t *testing.T) {
	m := NewSessionManager(cart.NewStore(kv.NewMemory()), notify.NewHub())
	defer m.Close()
	ctx := context.Background()

	a := m.Session(ctx, "client-a", identity.Guest)
	b := m.Session(ctx, "client-b", identity.Guest)

	a.Add(ctx, cart.Product{ID: "p1", Price: 100}, 0, map[string]int{"S": 2}, 2)

	assert.Equal(t, 2, a.ItemCount())
	assert.Equal(t, 0, b.ItemCount())
}

func TestSessionManager_SameUserConvergesAcrossClients(t *testing.T) {
	m := NewSessionManager(cart.NewStore(kv.NewMemory()), notify.NewHub())
	defer m.Close()
	ctx := context.Background()

	a := m.Session(ctx, "client-a", identity.User("u-1"))
	b := m.Session(ctx, "client-b", identity.User("u-1"))

	a.Add(ctx, cart.Product{ID: "p1", Price: 100}, 0, map[string]int{"S": 3}, 3)

	require.Eventually(t, func() bool {
		return b.ItemCount() == 3
	}, time.Second, 5*time.Millisecond)
}

func TestSessionManager_ReusesSessionPerClient(t *testing.T) {
	m := NewSessionManager(cart.NewStore(kv.NewMemory()), notify.NewHub())
	defer m.Close()
	ctx := context.Background()

	first := m.Session(ctx, "client-a", identity.Guest)
	second := m.Session(ctx, "client-a", identity.Guest)

	assert.Same(t, first, second)
}

func TestSessionManager_LoginTransitionMerges(t *testing.T) {
	store := cart.NewStore(kv.NewMemory())
	m := NewSessionManager(store, notify.NewHub())
	defer m.Close()
	ctx := context.Background()

	s := m.Session(ctx, "client-a", identity.Guest)
	s.Add(ctx, cart.Product{ID: "p1", Price: 100}, 0, map[string]int{"S": 2}, 2)

	logged := m.Session(ctx, "client-a", identity.User("u-1"))
	assert.Equal(t, 2, logged.ItemCount())

	// The guest slot was consumed by the merge.
	guestAgain := m.Session(ctx, "client-a", identity.Guest)
	assert.Equal(t, 0, guestAgain.ItemCount())
}
