package api

import (
	"encoding/json"
	"net/http"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/identity"
)

// requestIdentity derives whose cart a request operates on: the
// authenticated user when a valid token is present, the guest slot
// otherwise.
func requestIdentity(r *http.Request) identity.Identity {
	if userID := middleware.GetUserID(r.Context()); userID != "" {
		return identity.User(userID)
	}
	return identity.Guest
}

// cartSession resolves the request's cart session. Routing every request
// through SetIdentity means the first authenticated request after guest
// shopping performs the login merge without a dedicated call.
func (h *Handlers) cartSession(w http.ResponseWriter, r *http.Request) *cart.Session {
	return h.sessions.Session(r.Context(), clientID(w, r), requestIdentity(r))
}

func cartResponse(s *cart.Session) map[string]any {
	return map[string]any{
		"items":     s.Items(),
		"total":     s.Total(),
		"itemCount": s.ItemCount(),
	}
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	s := h.cartSession(w, r)
	respondJSON(w, http.StatusOK, cartResponse(s))
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Product    cart.Product   `json:"product"`
		ColorIndex int            `json:"colorIndex"`
		Quantities map[string]int `json:"quantities"`
		TotalQty   int            `json:"totalQty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Product.ID == "" {
		respondJSONError(w, "product.id is required", http.StatusBadRequest)
		return
	}

	s := h.cartSession(w, r)
	s.Add(r.Context(), req.Product, req.ColorIndex, req.Quantities, req.TotalQty)
	respondJSON(w, http.StatusOK, cartResponse(s))
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	itemID := extractPathParam(r.URL.Path, "/cart/items/")

	var req struct {
		Quantities map[string]int `json:"quantities"`
		TotalQty   int            `json:"totalQty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s := h.cartSession(w, r)
	s.UpdateQuantity(r.Context(), itemID, req.Quantities, req.TotalQty)
	respondJSON(w, http.StatusOK, cartResponse(s))
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	itemID := extractPathParam(r.URL.Path, "/cart/items/")

	s := h.cartSession(w, r)
	s.Remove(r.Context(), itemID)
	respondJSON(w, http.StatusOK, cartResponse(s))
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	s := h.cartSession(w, r)
	s.Clear(r.Context())
	respondJSON(w, http.StatusOK, cartResponse(s))
}

// MergeCart is the explicit login transition hook. The client calls it
// right after authenticating; the guest cart folds into the user's cart
// and the merged cart comes back. Requires a valid token.
func (h *Handlers) MergeCart(w http.ResponseWriter, r *http.Request) {
	id := requestIdentity(r)
	if id.IsGuest() {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	s := h.sessions.Session(r.Context(), clientID(w, r), id)
	respondJSON(w, http.StatusOK, cartResponse(s))
}
