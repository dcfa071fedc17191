package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/chat"
	"github.com/example/storefront/internal/content"
	"github.com/example/storefront/internal/order"
	"github.com/example/storefront/internal/payment"
)

// Handlers bundles the storefront's HTTP endpoints.
type Handlers struct {
	catalog  catalog.Repository
	orders   *order.Service
	payments *payment.Client
	content  content.Repository
	chat     *chat.Service // nil when no API key is configured
	sessions *SessionManager
}

func NewHandlers(
	catalogRepo catalog.Repository,
	orderService *order.Service,
	paymentClient *payment.Client,
	contentRepo content.Repository,
	chatService *chat.Service,
	sessions *SessionManager,
) *Handlers {
	return &Handlers{
		catalog:  catalogRepo,
		orders:   orderService,
		payments: paymentClient,
		content:  contentRepo,
		chat:     chatService,
		sessions: sessions,
	}
}

// Product Handlers

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := catalog.ProductFilter{
		CategorySlug: q.Get("category"),
		Sort:         q.Get("sort"),
	}
	if v := q.Get("inStock"); v != "" {
		inStock := v == "true"
		filter.InStock = &inStock
	}
	filter.MinPrice, _ = strconv.Atoi(q.Get("minPrice"))
	filter.MaxPrice, _ = strconv.Atoi(q.Get("maxPrice"))
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	products, total, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"products": products,
		"total":    total,
	})
}

func (h *Handlers) GetNewProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 8
	}

	products, err := h.catalog.ListNewProducts(r.Context(), limit)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")

	product, err := h.catalog.GetProduct(r.Context(), id)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h *Handlers) GetCategoryBySlug(w http.ResponseWriter, r *http.Request) {
	slug := extractPathParam(r.URL.Path, "/categories/")

	category, err := h.catalog.GetCategoryBySlug(r.Context(), slug)
	if errors.Is(err, catalog.ErrCategoryNotFound) {
		respondJSONError(w, "Category not found", http.StatusNotFound)
		return
	}
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

// Content Handlers

func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.content.Settings(r.Context())
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (h *Handlers) GetContent(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.content.ActiveBlocks(r.Context())
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if blocks == nil {
		blocks = []content.Block{}
	}
	respondJSON(w, http.StatusOK, blocks)
}

func (h *Handlers) GetFAQs(w http.ResponseWriter, r *http.Request) {
	faqs, err := h.content.ActiveFAQs(r.Context())
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if faqs == nil {
		faqs = []content.FAQ{}
	}
	respondJSON(w, http.StatusOK, faqs)
}

func (h *Handlers) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var msg content.ContactMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	saved, err := h.content.SaveContactMessage(r.Context(), msg)
	if errors.Is(err, content.ErrInvalidMessage) {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

// Chat Handlers

func (h *Handlers) ChatAsk(w http.ResponseWriter, r *http.Request) {
	if h.chat == nil {
		respondJSONError(w, "Support chat is not available", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		SessionID string `json:"sessionId"`
		Question  string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = chat.NewSessionID()
	}

	reply, err := h.chat.Ask(r.Context(), req.SessionID, req.Question)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadGateway)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"sessionId": req.SessionID,
		"reply":     reply,
	})
}

func (h *Handlers) ChatHistory(w http.ResponseWriter, r *http.Request) {
	if h.chat == nil {
		respondJSONError(w, "Support chat is not available", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		respondJSONError(w, "sessionId is required", http.StatusBadRequest)
		return
	}

	history, err := h.chat.History(r.Context(), sessionID)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []chat.Message{}
	}
	respondJSON(w, http.StatusOK, history)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}
