package order

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/example/storefront/internal/cart"
)

var (
	ErrEmptyOrder      = errors.New("order has no items")
	ErrMissingCustomer = errors.New("customer name and email are required")
	ErrOrderNotFound   = errors.New("order not found")
	ErrInvalidPayment  = errors.New("unknown payment method")
)

// Order lifecycle. Card orders start pending and move to paid or failed
// via the payment callback; bank-transfer orders await manual
// confirmation.
const (
	StatusPending          = "pending"
	StatusAwaitingTransfer = "awaiting-transfer"
	StatusPaid             = "paid"
	StatusFailed           = "failed"
	StatusCancelled        = "cancelled"
)

const (
	PaymentCreditCard   = "credit-card"
	PaymentBankTransfer = "bank-transfer"
)

// Customer is the checkout form data attached to an order. Company and
// tax fields are optional; wholesale buyers usually fill them.
type Customer struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CompanyName string `json:"company_name,omitempty"`
	TaxNumber   string `json:"tax_number,omitempty"`
	TaxOffice   string `json:"tax_office,omitempty"`
	Address     string `json:"address"`
	City        string `json:"city"`
	District    string `json:"district"`
	PostalCode  string `json:"postal_code,omitempty"`
}

// Item is one order line: a single size of a single color variant. Cart
// lines fan out into one Item per size with a positive count.
type Item struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	ColorName   string `json:"color_name"`
	Size        string `json:"size"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int    `json:"unit_price"`
}

type Order struct {
	ID            string    `json:"id"`
	Number        string    `json:"number"`
	UserID        string    `json:"user_id,omitempty"`
	Customer      Customer  `json:"customer"`
	Items         []Item    `json:"items"`
	Total         int       `json:"total"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FlattenCart expands cart lines into order items: one per (line, size)
// pair with a positive count, priced from the line's product snapshot.
// The color name falls back to "Standard" when the snapshot has no color
// at the selected index.
func FlattenCart(items []cart.Item) []Item {
	out := make([]Item, 0, len(items))
	for _, line := range items {
		colorName := "Standard"
		if line.ColorIndex >= 0 && line.ColorIndex < len(line.Product.Colors) {
			colorName = line.Product.Colors[line.ColorIndex].Name
		}
		for size, qty := range line.Quantities {
			if qty <= 0 {
				continue
			}
			out = append(out, Item{
				ProductID:   line.Product.ID,
				ProductName: line.Product.Name,
				ColorName:   colorName,
				Size:        size,
				Quantity:    qty,
				UnitPrice:   line.Product.Price,
			})
		}
	}
	return out
}

// Total sums quantity times unit price over items.
func Total(items []Item) int {
	total := 0
	for _, it := range items {
		total += it.Quantity * it.UnitPrice
	}
	return total
}

// NewOrderNumber generates a human-readable order number.
func NewOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%04d", time.Now().Unix(), rand.Intn(10000))
}
