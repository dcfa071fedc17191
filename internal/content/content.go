// Package content holds the editorial side of the storefront: site
// settings, page content blocks, FAQs and contact-form messages.
package content

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrBlockNotFound   = errors.New("content block not found")
	ErrInvalidMessage  = errors.New("contact message is missing required fields")
	ErrSettingNotFound = errors.New("setting not found")
)

// Setting is one site-wide key/value pair (store phone, banner text, ...).
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Block is a piece of editorial page content addressed by section.
type Block struct {
	ID        string    `json:"id"`
	Section   string    `json:"section"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FAQ is one question/answer pair shown on the help page.
type FAQ struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	SortOrder int    `json:"sortOrder"`
	Active    bool   `json:"active"`
}

// ContactMessage is a submitted contact-form entry.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks the fields a shopper must fill in.
func (m ContactMessage) Validate() error {
	if strings.TrimSpace(m.Name) == "" ||
		strings.TrimSpace(m.Email) == "" ||
		strings.TrimSpace(m.Body) == "" {
		return ErrInvalidMessage
	}
	return nil
}

// Repository is the storage port for editorial content.
type Repository interface {
	Settings(ctx context.Context) (map[string]string, error)
	Setting(ctx context.Context, key string) (string, error)
	ActiveBlocks(ctx context.Context) ([]Block, error)
	BlockBySection(ctx context.Context, section string) (Block, error)
	ActiveFAQs(ctx context.Context) ([]FAQ, error)
	SaveContactMessage(ctx context.Context, msg ContactMessage) (ContactMessage, error)
}
