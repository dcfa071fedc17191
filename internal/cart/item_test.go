package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantitySum(t *testing.T) {
	tests := []struct {
		name       string
		quantities map[string]int
		expected   int
	}{
		{"empty", map[string]int{}, 0},
		{"nil", nil, 0},
		{"single size", map[string]int{"S": 2}, 2},
		{"multiple sizes", map[string]int{"S": 2, "M": 1, "L": 4}, 7},
		{"zero entries allowed", map[string]int{"S": 0, "M": 3}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuantitySum(tt.quantities))
		})
	}
}

func TestItem_SameLine(t *testing.T) {
	base := Item{Product: Product{ID: "p1"}, ColorIndex: 0}

	tests := []struct {
		name     string
		other    Item
		expected bool
	}{
		{"same product and color", Item{Product: Product{ID: "p1"}, ColorIndex: 0}, true},
		{"different product", Item{Product: Product{ID: "p2"}, ColorIndex: 0}, false},
		{"different color", Item{Product: Product{ID: "p1"}, ColorIndex: 1}, false},
		{"both different", Item{Product: Product{ID: "p2"}, ColorIndex: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, base.SameLine(tt.other))
		})
	}
}

func TestItem_CloneIsDeep(t *testing.T) {
	orig := Item{
		ID:         "line-1",
		Product:    Product{ID: "p1", Price: 100},
		Quantities: map[string]int{"S": 2},
		TotalQty:   2,
	}

	copied := orig.clone()
	copied.Quantities["S"] = 99

	assert.Equal(t, 2, orig.Quantities["S"])
}

func TestNewLineID_NotEmpty(t *testing.T) {
	id := NewLineID()
	assert.NotEmpty(t, id)
}
