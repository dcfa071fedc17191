package cart

import (
	"context"
	"log"

	"github.com/example/storefront/internal/identity"
)

// Merge folds guestItems into a copy of userItems. Lines sharing an
// identity key have their per-size quantities added together with TotalQty
// recomputed; unmatched guest lines are appended with fresh IDs so they
// cannot collide with existing line IDs. Neither input is modified.
func Merge(userItems, guestItems []Item) []Item {
	merged := cloneItems(userItems)

	for _, guest := range guestItems {
		idx := -1
		for i, existing := range merged {
			if existing.SameLine(guest) {
				idx = i
				break
			}
		}

		if idx == -1 {
			line := guest.clone()
			line.ID = NewLineID()
			merged = append(merged, line)
			continue
		}

		for size, q := range guest.Quantities {
			merged[idx].Quantities[size] += q
		}
		merged[idx].TotalQty = QuantitySum(merged[idx].Quantities)
	}

	return merged
}

// Reconciler merges the guest cart into a user's cart on the
// guest-to-user login transition. Each reconciliation fully consumes the
// guest slot: the durable guest entry is deleted, so a rerun finds an
// empty guest cart and is a no-op.
type Reconciler struct {
	store *Store
}

func NewReconciler(store *Store) *Reconciler {
	return &Reconciler{store: store}
}

// MergeGuestIntoUser loads both carts, merges, persists the result under
// the user's key and deletes the guest entry. With an empty guest cart the
// user's cart is returned unchanged and nothing is written.
func (r *Reconciler) MergeGuestIntoUser(ctx context.Context, userID string) []Item {
	user := identity.User(userID)
	guestItems := r.store.Load(ctx, identity.Guest)
	userItems := r.store.Load(ctx, user)

	if len(guestItems) == 0 {
		return userItems
	}

	merged := Merge(userItems, guestItems)
	r.store.Save(ctx, merged, user)
	r.store.Drop(ctx, identity.Guest)

	log.Printf("[CartReconciler] Merged guest cart into %s: guest=%d user=%d merged=%d",
		user, len(guestItems), len(userItems), len(merged))
	return merged
}
