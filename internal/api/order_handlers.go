package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/order"
	"github.com/example/storefront/internal/payment"
)

// PlaceOrder creates an order from the shopper's current cart. Bank
// transfer orders clear the cart immediately; card orders keep it until
// the payment callback confirms, so a failed payment loses nothing.
func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Customer      order.Customer `json:"customer"`
		PaymentMethod string         `json:"paymentMethod"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s := h.cartSession(w, r)
	userID := middleware.GetUserID(r.Context())

	o, err := h.orders.Place(r.Context(), userID, req.Customer, s.Items(), req.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyOrder),
			errors.Is(err, order.ErrMissingCustomer),
			errors.Is(err, order.ErrInvalidPayment):
			respondJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			respondJSONError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	if req.PaymentMethod == order.PaymentBankTransfer {
		s.Clear(r.Context())
	}

	respondJSON(w, http.StatusCreated, o)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/orders/")

	o, err := h.orders.Get(r.Context(), id)
	if errors.Is(err, order.ErrOrderNotFound) {
		respondJSONError(w, "Order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Shoppers see only their own orders; guests see only guest orders.
	userID := middleware.GetUserID(r.Context())
	if o.UserID != "" && o.UserID != userID {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), userID)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

// Payment Handlers

// PaymentCheckout requests a hosted-checkout token for a pending card
// order and returns the iframe URL the client embeds.
func (h *Handlers) PaymentCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderNumber string `json:"orderNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.orders.GetByNumber(r.Context(), req.OrderNumber)
	if errors.Is(err, order.ErrOrderNotFound) {
		respondJSONError(w, "Order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if o.PaymentMethod != order.PaymentCreditCard || o.Status != order.StatusPending {
		respondJSONError(w, "Order is not awaiting card payment", http.StatusConflict)
		return
	}

	basket := make([]payment.BasketLine, len(o.Items))
	for i, item := range o.Items {
		basket[i] = payment.BasketLine{
			Name:      item.ProductName + " (" + item.ColorName + " / " + item.Size + ")",
			PriceText: payment.FormatPrice(item.UnitPrice),
			Quantity:  item.Quantity,
		}
	}

	token, err := h.payments.IframeToken(r.Context(), payment.CheckoutRequest{
		OrderNumber: o.Number,
		Email:       o.Customer.Email,
		AmountMinor: o.Total,
		UserName:    o.Customer.FirstName + " " + o.Customer.LastName,
		UserAddress: o.Customer.Address + ", " + o.Customer.City,
		UserPhone:   o.Customer.Phone,
		UserIP:      clientIP(r),
		Basket:      basket,
	})
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadGateway)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"token":     token,
		"iframeUrl": payment.IframeURL(token),
	})
}

// PaymentCallback is the provider's server-to-server result webhook. The
// provider retries until it reads a plain "OK" body.
func (h *Handlers) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	cb := payment.Callback{
		MerchantOID: r.PostFormValue("merchant_oid"),
		Status:      r.PostFormValue("status"),
		TotalAmount: r.PostFormValue("total_amount"),
		Hash:        r.PostFormValue("hash"),
	}

	succeeded, err := h.payments.VerifyCallback(cb)
	if err != nil {
		http.Error(w, "bad signature", http.StatusBadRequest)
		return
	}

	if _, err := h.orders.SettlePayment(r.Context(), cb.MerchantOID, succeeded); err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			http.Error(w, "unknown order", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Write([]byte("OK"))
}

// PaymentStatus lets the client poll the outcome of a card payment while
// the callback settles the order.
func (h *Handlers) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	number := extractPathParam(r.URL.Path, "/payment/status/")

	o, err := h.orders.GetByNumber(r.Context(), number)
	if errors.Is(err, order.ErrOrderNotFound) {
		respondJSONError(w, "Order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"orderNumber": o.Number,
		"status":      o.Status,
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
