package cart

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/storefront/internal/identity"
	"github.com/example/storefront/internal/infrastructure/kv"
)

const (
	guestCartKey      = "storefront_guest_cart"
	userCartKeyPrefix = "storefront_cart_"
)

// StorageKey returns the durable key for an identity's cart. The guest
// slot is a fixed key; each user gets an isolated key, so carts persist
// independently per account on a shared device.
func StorageKey(id identity.Identity) string {
	if id.IsGuest() {
		return guestCartKey
	}
	return userCartKeyPrefix + id.UserID
}

// Store persists cart line arrays in a key-value store, namespaced by
// identity. Load and Save fail soft: corrupt data reads as an empty cart
// and write failures are logged, never returned. In-memory state stays
// authoritative for the session even when persistence fails.
type Store struct {
	kv      kv.Store
	guestNS string
}

func NewStore(kvStore kv.Store) *Store {
	return &Store{kv: kvStore}
}

// ForClient returns a store whose guest cart lives in a client-scoped
// slot, the way each browser has its own local guest cart. User carts
// stay shared: the same account sees one cart from every client.
func (s *Store) ForClient(clientID string) *Store {
	return &Store{kv: s.kv, guestNS: clientID}
}

// Key returns the durable key this store uses for an identity's cart.
func (s *Store) Key(id identity.Identity) string {
	if id.IsGuest() && s.guestNS != "" {
		return guestCartKey + "_" + s.guestNS
	}
	return StorageKey(id)
}

// Load reads the cart for id. Absent key or corrupt payload yields an
// empty cart.
func (s *Store) Load(ctx context.Context, id identity.Identity) []Item {
	raw, ok, err := s.kv.Get(ctx, s.Key(id))
	if err != nil {
		log.Printf("[CartStore] Failed to load cart for %s: %v", id, err)
		return []Item{}
	}
	if !ok {
		return []Item{}
	}

	items, err := DecodeItems(raw)
	if err != nil {
		log.Printf("[CartStore] Corrupt cart data for %s, starting empty: %v", id, err)
		return []Item{}
	}
	return items
}

// Save writes items under id's key and returns the encoded payload so the
// caller can announce the change. Write failures are logged and the
// payload is still returned.
func (s *Store) Save(ctx context.Context, items []Item, id identity.Identity) string {
	raw, err := EncodeItems(items)
	if err != nil {
		log.Printf("[CartStore] Failed to encode cart for %s: %v", id, err)
		return ""
	}

	if err := s.kv.Set(ctx, s.Key(id), raw); err != nil {
		log.Printf("[CartStore] Failed to save cart for %s: %v", id, err)
	}
	return raw
}

// Drop deletes id's durable cart entry.
func (s *Store) Drop(ctx context.Context, id identity.Identity) {
	if err := s.kv.Delete(ctx, s.Key(id)); err != nil {
		log.Printf("[CartStore] Failed to drop cart for %s: %v", id, err)
	}
}

// EncodeItems serializes a cart line array.
func EncodeItems(items []Item) (string, error) {
	if items == nil {
		items = []Item{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeItems parses a serialized cart line array.
func DecodeItems(raw string) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}
