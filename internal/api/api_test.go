package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/content"
	"github.com/example/storefront/internal/infrastructure/kv"
	"github.com/example/storefront/internal/infrastructure/notify"
	"github.com/example/storefront/internal/order"
	"github.com/example/storefront/internal/payment"
)

type testEnv struct {
	server *httptest.Server
	client *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	catalogRepo := catalog.NewMemoryRepository()
	catalogRepo.AddProduct(catalog.Product{
		ID:      "p1",
		Name:    "Linen Shirt",
		Price:   150,
		InStock: true,
	})

	orderRepo := order.NewMemoryRepository()
	orderService := order.NewService(orderRepo, nil)

	payClient := payment.NewClient(payment.Config{
		MerchantID:   "123456",
		MerchantKey:  "test-key",
		MerchantSalt: "test-salt",
	})

	contentRepo := content.NewMemoryRepository()
	contentRepo.SetSetting("store_phone", "+90 555 111 22 33")
	contentRepo.AddFAQ(content.FAQ{Question: "Minimum order?", Answer: "One series.", Active: true})

	cartStore := cart.NewStore(kv.NewMemory())
	sessions := NewSessionManager(cartStore, notify.NewHub())
	t.Cleanup(sessions.Close)

	jwtService := auth.NewJWTService("test-secret", 15*time.Minute, 24*time.Hour)
	users := auth.NewService(auth.NewMemoryUserRepository())

	handlers := NewHandlers(catalogRepo, orderService, payClient, contentRepo, nil, sessions)
	authHandlers := NewAuthHandlers(users, jwtService)

	server := httptest.NewServer(NewRouter(handlers, authHandlers, jwtService))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		server: server,
		client: &http.Client{Jar: jar},
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func addLine(t *testing.T, e *testEnv, productID string, quantities map[string]int) {
	t.Helper()
	total := 0
	for _, q := range quantities {
		total += q
	}
	resp, _ := e.do(t, http.MethodPost, "/cart/items", map[string]any{
		"product":    map[string]any{"id": productID, "name": "Linen Shirt", "price": 150},
		"colorIndex": 0,
		"quantities": quantities,
		"totalQty":   total,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func cartOf(t *testing.T, e *testEnv) map[string]any {
	t.Helper()
	resp, body := e.do(t, http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

// ============================================================
// Cart flow
// ============================================================

func TestCart_GuestAddAndRead(t *testing.T) {
	e := newTestEnv(t)

	addLine(t, e, "p1", map[string]int{"S": 2, "M": 1})

	c := cartOf(t, e)
	assert.Equal(t, float64(3), c["itemCount"])
	assert.Equal(t, float64(450), c["total"])
}

func TestCart_RepeatAddReplaces(t *testing.T) {
	e := newTestEnv(t)

	addLine(t, e, "p1", map[string]int{"S": 5})
	addLine(t, e, "p1", map[string]int{"S": 2})

	c := cartOf(t, e)
	items := c["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(2), c["itemCount"])
}

func TestCart_LoginMergesGuestCart(t *testing.T) {
	e := newTestEnv(t)

	// Shop as guest.
	addLine(t, e, "p1", map[string]int{"S": 2})

	// Register; the auth cookie rides along on later requests.
	resp, _ := e.do(t, http.MethodPost, "/auth/register", map[string]any{
		"email":     "buyer@example.com",
		"password":  "secret-password",
		"firstName": "Ada",
		"lastName":  "Lovelace",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Explicit login transition hook.
	resp, body := e.do(t, http.MethodPost, "/cart/merge", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var merged map[string]any
	require.NoError(t, json.Unmarshal(body, &merged))
	assert.Equal(t, float64(2), merged["itemCount"])

	// The guest slot was consumed: logging out shows an empty guest cart.
	resp, _ = e.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c := cartOf(t, e)
	assert.Equal(t, float64(0), c["itemCount"])
}

func TestCart_MergeRequiresAuth(t *testing.T) {
	e := newTestEnv(t)

	resp, _ := e.do(t, http.MethodPost, "/cart/merge", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCart_RemoveAndClear(t *testing.T) {
	e := newTestEnv(t)

	addLine(t, e, "p1", map[string]int{"S": 2})
	c := cartOf(t, e)
	items := c["items"].([]any)
	require.Len(t, items, 1)
	lineID := items[0].(map[string]any)["id"].(string)

	resp, _ := e.do(t, http.MethodDelete, "/cart/items/"+lineID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), cartOf(t, e)["itemCount"])

	addLine(t, e, "p1", map[string]int{"S": 1})
	resp, _ = e.do(t, http.MethodDelete, "/cart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), cartOf(t, e)["itemCount"])
}

// ============================================================
// Orders and payment
// ============================================================

func placeOrder(t *testing.T, e *testEnv, method string) order.Order {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/orders", map[string]any{
		"customer": map[string]any{
			"first_name": "Ada",
			"last_name":  "Lovelace",
			"email":      "buyer@example.com",
			"address":    "1 Analytical Way",
			"city":       "Istanbul",
		},
		"paymentMethod": method,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var o order.Order
	require.NoError(t, json.Unmarshal(body, &o))
	return o
}

func TestOrders_BankTransferClearsCart(t *testing.T) {
	e := newTestEnv(t)
	addLine(t, e, "p1", map[string]int{"S": 2, "M": 1})

	o := placeOrder(t, e, order.PaymentBankTransfer)
	assert.Equal(t, order.StatusAwaitingTransfer, o.Status)
	assert.Equal(t, 450, o.Total)
	assert.True(t, strings.HasPrefix(o.Number, "ORD-"))

	assert.Equal(t, float64(0), cartOf(t, e)["itemCount"])
}

func TestOrders_CardKeepsCartUntilPayment(t *testing.T) {
	e := newTestEnv(t)
	addLine(t, e, "p1", map[string]int{"S": 2})

	o := placeOrder(t, e, order.PaymentCreditCard)
	assert.Equal(t, order.StatusPending, o.Status)

	// A failed or abandoned payment must leave the selection intact.
	assert.Equal(t, float64(2), cartOf(t, e)["itemCount"])
}

func TestOrders_EmptyCartRejected(t *testing.T) {
	e := newTestEnv(t)

	resp, _ := e.do(t, http.MethodPost, "/orders", map[string]any{
		"customer": map[string]any{
			"first_name": "Ada", "last_name": "Lovelace", "email": "buyer@example.com",
		},
		"paymentMethod": order.PaymentBankTransfer,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPayment_CallbackSettlesOrder(t *testing.T) {
	e := newTestEnv(t)
	addLine(t, e, "p1", map[string]int{"S": 2})
	o := placeOrder(t, e, order.PaymentCreditCard)

	totalText := fmt.Sprintf("%d", o.Total)
	mac := hmac.New(sha256.New, []byte("test-key"))
	mac.Write([]byte(o.Number + "test-salt" + "success" + totalText))
	hash := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	form := url.Values{}
	form.Set("merchant_oid", o.Number)
	form.Set("status", "success")
	form.Set("total_amount", totalText)
	form.Set("hash", hash)

	resp, err := e.client.PostForm(e.server.URL+"/payment/callback", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.Equal(t, "OK", buf.String())

	respStatus, body := e.do(t, http.MethodGet, "/payment/status/"+o.Number, nil)
	require.Equal(t, http.StatusOK, respStatus.StatusCode)
	var status map[string]string
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, order.StatusPaid, status["status"])
}

func TestPayment_CallbackRejectsBadSignature(t *testing.T) {
	e := newTestEnv(t)

	form := url.Values{}
	form.Set("merchant_oid", "ORD-1")
	form.Set("status", "success")
	form.Set("total_amount", "100")
	form.Set("hash", "forged")

	resp, err := e.client.PostForm(e.server.URL+"/payment/callback", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ============================================================
// Catalog and content endpoints
// ============================================================

func TestCatalogEndpoints(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.do(t, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing map[string]any
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Equal(t, float64(1), listing["total"])

	resp, _ = e.do(t, http.MethodGet, "/products/p1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/products/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestContentEndpoints(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.do(t, http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var settings map[string]string
	require.NoError(t, json.Unmarshal(body, &settings))
	assert.Equal(t, "+90 555 111 22 33", settings["store_phone"])

	resp, _ = e.do(t, http.MethodGet, "/faqs", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/contact", map[string]any{
		"name": "Ada", "email": "ada@example.com", "body": "Price list please",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/contact", map[string]any{"name": "Ada"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChat_UnavailableWithoutService(t *testing.T) {
	e := newTestEnv(t)

	resp, _ := e.do(t, http.MethodPost, "/chat/ask", map[string]any{"question": "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

// ============================================================
// Auth endpoints
// ============================================================

func TestAuth_RegisterLoginMe(t *testing.T) {
	e := newTestEnv(t)

	resp, _ := e.do(t, http.MethodPost, "/auth/register", map[string]any{
		"email": "buyer@example.com", "password": "secret-password",
		"firstName": "Ada", "lastName": "Lovelace",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := e.do(t, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me auth.User
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, "buyer@example.com", me.Email)

	resp, _ = e.do(t, http.MethodPost, "/auth/login", map[string]any{
		"email": "buyer@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_DuplicateRegistration(t *testing.T) {
	e := newTestEnv(t)

	body := map[string]any{
		"email": "buyer@example.com", "password": "secret-password",
		"firstName": "Ada", "lastName": "Lovelace",
	}
	resp, _ := e.do(t, http.MethodPost, "/auth/register", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/auth/register", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
