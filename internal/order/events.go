package order

import "time"

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderPaymentResult = "OrderPaymentResult"
)

// Event is the message published to Kafka when an order changes. The
// notifier consumes OrderPlaced to send confirmation email.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Order      Order     `json:"order"`
}
