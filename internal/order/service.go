package order

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/cart"
)

// EventPublisher announces order events. Satisfied by the Kafka producer.
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

// Service creates orders from cart lines and tracks their payment state.
type Service struct {
	repo      Repository
	publisher EventPublisher // nil disables event publishing
}

func NewService(repo Repository, publisher EventPublisher) *Service {
	return &Service{repo: repo, publisher: publisher}
}

// Place creates an order from the given cart lines. The caller is
// responsible for clearing the cart, and only after this returns
// successfully (bank transfer) or after the payment callback confirms
// (card); a failure here must leave the shopper's selection intact.
func (s *Service) Place(ctx context.Context, userID string, customer Customer, cartItems []cart.Item, paymentMethod string) (*Order, error) {
	if paymentMethod != PaymentCreditCard && paymentMethod != PaymentBankTransfer {
		return nil, ErrInvalidPayment
	}
	if customer.FirstName == "" || customer.LastName == "" || customer.Email == "" {
		return nil, ErrMissingCustomer
	}

	items := FlattenCart(cartItems)
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	status := StatusPending
	if paymentMethod == PaymentBankTransfer {
		status = StatusAwaitingTransfer
	}

	now := time.Now()
	o := &Order{
		ID:            uuid.New().String(),
		Number:        NewOrderNumber(),
		UserID:        userID,
		Customer:      customer,
		Items:         items,
		Total:         Total(items),
		Status:        status,
		PaymentMethod: paymentMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	s.publish(ctx, EventOrderPlaced, o)
	return o, nil
}

// Get returns an order by ID.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByNumber returns an order by its public order number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return s.repo.GetByNumber(ctx, number)
}

// ListByUser returns a user's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// SettlePayment records the provider's verdict for a card order,
// identified by order number as the provider echoes it back.
func (s *Service) SettlePayment(ctx context.Context, orderNumber string, succeeded bool) (*Order, error) {
	o, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	status := StatusFailed
	if succeeded {
		status = StatusPaid
	}
	if err := s.repo.UpdateStatus(ctx, o.ID, status); err != nil {
		return nil, err
	}
	o.Status = status

	s.publish(ctx, EventOrderPaymentResult, o)
	return o, nil
}

// Cancel marks an order cancelled.
func (s *Service) Cancel(ctx context.Context, id string) error {
	return s.repo.UpdateStatus(ctx, id, StatusCancelled)
}

func (s *Service) publish(ctx context.Context, eventType string, o *Order) {
	if s.publisher == nil {
		return
	}
	event := Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now(),
		Order:      *o,
	}
	if err := s.publisher.Publish(ctx, o.ID, event); err != nil {
		// Orders must not fail because the event bus is down.
		log.Printf("[Order] Failed to publish %s for order %s: %v", eventType, o.Number, err)
	}
}
