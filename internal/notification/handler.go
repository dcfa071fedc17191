// Package notification turns order events into outbound email.
package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/storefront/internal/email"
	"github.com/example/storefront/internal/order"
)

// Sender is the email surface the handler needs. *email.Service
// satisfies it; tests substitute a recorder.
type Sender interface {
	SendOrderConfirmation(to, orderNumber string, total int, lines []email.OrderLine) error
	SendPaymentResult(to, orderNumber string, succeeded bool) error
}

// Handler processes order events from Kafka and sends notifications.
type Handler struct {
	sender Sender
}

func NewHandler(sender Sender) *Handler {
	return &Handler{sender: sender}
}

// HandleEvent processes one event from Kafka.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event order.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	switch event.Type {
	case order.EventOrderPlaced:
		return h.handleOrderPlaced(event.Order)
	case order.EventOrderPaymentResult:
		return h.handlePaymentResult(event.Order)
	default:
		return nil
	}
}

func (h *Handler) handleOrderPlaced(o order.Order) error {
	log.Printf("[Notifier] Processing OrderPlaced for order %s", o.Number)

	lines := make([]email.OrderLine, len(o.Items))
	for i, item := range o.Items {
		lines[i] = email.OrderLine{
			ProductName: item.ProductName,
			ColorName:   item.ColorName,
			Size:        item.Size,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}

	if err := h.sender.SendOrderConfirmation(o.Customer.Email, o.Number, o.Total, lines); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", o.Customer.Email, err)
		return err
	}

	log.Printf("[Notifier] Order confirmation email sent to %s for order %s", o.Customer.Email, o.Number)
	return nil
}

func (h *Handler) handlePaymentResult(o order.Order) error {
	succeeded := o.Status == order.StatusPaid
	if err := h.sender.SendPaymentResult(o.Customer.Email, o.Number, succeeded); err != nil {
		log.Printf("[Notifier] Failed to send payment result to %s: %v", o.Customer.Email, err)
		return err
	}
	log.Printf("[Notifier] Payment result email sent to %s for order %s", o.Customer.Email, o.Number)
	return nil
}
