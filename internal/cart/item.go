package cart

import (
	"fmt"
	"math/rand"
	"time"
)

// Color is one color variant of a product.
type Color struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Product is the snapshot embedded in a cart line at add time. It is not a
// live reference: later price or name changes do not update existing lines.
type Product struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Price  int        `json:"price"`
	Images [][]string `json:"images,omitempty"` // grouped per color
	Colors []Color    `json:"colors,omitempty"`
}

// Item is one cart line. Two lines are the same iff Product.ID and
// ColorIndex match; that pair is the sole identity key for upserts and the
// login merge. TotalQty caches the sum of Quantities and must equal it
// after every mutation.
type Item struct {
	ID         string         `json:"id"`
	Product    Product        `json:"product"`
	ColorIndex int            `json:"colorIndex"`
	Quantities map[string]int `json:"quantities"` // size label -> count, zero entries allowed
	TotalQty   int            `json:"totalQty"`
}

// SameLine reports whether other carries the same identity key.
func (it Item) SameLine(other Item) bool {
	return it.Product.ID == other.Product.ID && it.ColorIndex == other.ColorIndex
}

// QuantitySum returns the sum of all per-size counts.
func QuantitySum(quantities map[string]int) int {
	sum := 0
	for _, q := range quantities {
		sum += q
	}
	return sum
}

// clone returns a deep copy so callers cannot alias the session's state.
func (it Item) clone() Item {
	out := it
	out.Quantities = make(map[string]int, len(it.Quantities))
	for size, q := range it.Quantities {
		out.Quantities[size] = q
	}
	return out
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.clone()
	}
	return out
}

// NewLineID generates a time-based line ID with a random suffix. Collisions
// are tolerated in this domain; the suffix only makes them unlikely when
// two lines are created within the same millisecond.
func NewLineID() string {
	return fmt.Sprintf("%d-%04d", time.Now().UnixMilli(), rand.Intn(10000))
}
