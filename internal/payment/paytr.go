// Package payment integrates the hosted-iframe card payment provider.
// The shop never sees card data: it requests an iframe token, embeds the
// provider's checkout page, and learns the outcome through a signed
// server-to-server callback.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTokenURL = "https://www.paytr.com/odeme/api/get-token"
	iframeBaseURL   = "https://www.paytr.com/odeme/guvenli/"
)

var (
	ErrTokenRejected = errors.New("payment provider rejected token request")
	ErrBadSignature  = errors.New("payment callback signature mismatch")
)

// Config carries the merchant credentials and result URLs.
type Config struct {
	MerchantID   string
	MerchantKey  string
	MerchantSalt string
	OKURL        string
	FailURL      string
	TestMode     bool
}

// BasketLine is one display row on the provider's checkout page.
type BasketLine struct {
	Name      string
	PriceText string // formatted unit price, e.g. "150.00"
	Quantity  int
}

// CheckoutRequest asks the provider for an iframe token for one order.
type CheckoutRequest struct {
	OrderNumber string // echoed back in the callback as merchant_oid
	Email       string
	AmountMinor int // total in minor units (kuruş)
	UserName    string
	UserAddress string
	UserPhone   string
	UserIP      string
	Basket      []BasketLine
}

// Callback is the provider's server-to-server payment result.
type Callback struct {
	MerchantOID string
	Status      string // "success" or "failed"
	TotalAmount string
	Hash        string
}

// Client talks to the payment provider.
type Client struct {
	cfg        Config
	tokenURL   string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		tokenURL:   defaultTokenURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// IframeToken requests a checkout token. The returned token is embedded
// by the client as IframeURL(token).
func (c *Client) IframeToken(ctx context.Context, req CheckoutRequest) (string, error) {
	basket, err := encodeBasket(req.Basket)
	if err != nil {
		return "", err
	}

	testMode := "0"
	if c.cfg.TestMode {
		testMode = "1"
	}

	form := url.Values{}
	form.Set("merchant_id", c.cfg.MerchantID)
	form.Set("user_ip", req.UserIP)
	form.Set("merchant_oid", req.OrderNumber)
	form.Set("email", req.Email)
	form.Set("payment_amount", strconv.Itoa(req.AmountMinor))
	form.Set("user_basket", basket)
	form.Set("no_installment", "0")
	form.Set("max_installment", "0")
	form.Set("currency", "TL")
	form.Set("test_mode", testMode)
	form.Set("user_name", req.UserName)
	form.Set("user_address", req.UserAddress)
	form.Set("user_phone", req.UserPhone)
	form.Set("merchant_ok_url", c.cfg.OKURL)
	form.Set("merchant_fail_url", c.cfg.FailURL)
	form.Set("timeout_limit", "30")
	form.Set("paytr_token", c.tokenRequestHash(req, basket, testMode))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
		Token  string `json:"token"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if body.Status != "success" {
		return "", fmt.Errorf("%w: %s", ErrTokenRejected, body.Reason)
	}
	return body.Token, nil
}

// IframeURL returns the hosted checkout page URL for a token.
func IframeURL(token string) string {
	return iframeBaseURL + token
}

// VerifyCallback validates the callback signature and reports whether the
// payment succeeded. The HTTP handler must answer the provider with a
// plain "OK" body once this returns without error, or the provider keeps
// retrying.
func (c *Client) VerifyCallback(cb Callback) (bool, error) {
	expected := c.sign(cb.MerchantOID + c.cfg.MerchantSalt + cb.Status + cb.TotalAmount)
	if !hmac.Equal([]byte(expected), []byte(cb.Hash)) {
		return false, ErrBadSignature
	}
	return cb.Status == "success", nil
}

// tokenRequestHash signs the token request per the provider's scheme.
func (c *Client) tokenRequestHash(req CheckoutRequest, basket, testMode string) string {
	payload := c.cfg.MerchantID + req.UserIP + req.OrderNumber + req.Email +
		strconv.Itoa(req.AmountMinor) + basket + "0" + "0" + "TL" + testMode
	return c.sign(payload + c.cfg.MerchantSalt)
}

func (c *Client) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.MerchantKey))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func encodeBasket(lines []BasketLine) (string, error) {
	rows := make([][3]any, len(lines))
	for i, l := range lines {
		rows[i] = [3]any{l.Name, l.PriceText, l.Quantity}
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("failed to encode basket: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// FormatPrice renders minor units as the "123.45" text the provider
// expects in basket rows.
func FormatPrice(minor int) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}
