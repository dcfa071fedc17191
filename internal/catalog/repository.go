package catalog

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// Sort orders accepted by product listings.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
)

// ProductFilter narrows and pages a product listing. Zero values mean
// "no constraint"; InStock is a tri-state pointer for that reason.
type ProductFilter struct {
	CategorySlug string
	InStock      *bool
	MinPrice     int
	MaxPrice     int
	Sort         string
	Page         int
	Limit        int
}

// Repository provides read access to the catalog.
type Repository interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, int, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListNewProducts(ctx context.Context, limit int) ([]Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*Category, error)
}
