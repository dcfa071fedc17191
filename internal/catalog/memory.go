package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// MemoryRepository is an in-memory catalog for tests and local
// development seeding.
type MemoryRepository struct {
	mu         sync.RWMutex
	products   []Product
	categories []Category
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// AddProduct stores a product, assigning an ID when absent.
func (r *MemoryRepository) AddProduct(p Product) Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	r.products = append(r.products, p)
	return p
}

// AddCategory stores a category, deriving the slug from the name when
// absent.
func (r *MemoryRepository) AddCategory(c Category) Category {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Slug == "" {
		c.Slug = slug.Make(c.Name)
	}
	r.categories = append(r.categories, c)
	return c
}

func (r *MemoryRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var categoryID string
	if filter.CategorySlug != "" {
		for _, c := range r.categories {
			if c.Slug == filter.CategorySlug {
				categoryID = c.ID
				break
			}
		}
		if categoryID == "" {
			return nil, 0, ErrCategoryNotFound
		}
	}

	matched := make([]Product, 0)
	for _, p := range r.products {
		if categoryID != "" && p.CategoryID != categoryID {
			continue
		}
		if filter.InStock != nil && p.InStock != *filter.InStock {
			continue
		}
		if filter.MinPrice > 0 && p.Price < filter.MinPrice {
			continue
		}
		if filter.MaxPrice > 0 && p.Price > filter.MaxPrice {
			continue
		}
		matched = append(matched, p)
	}

	sortProducts(matched, filter.Sort)
	total := len(matched)

	page, limit := filter.Page, filter.Limit
	if limit > 0 {
		if page < 1 {
			page = 1
		}
		start := (page - 1) * limit
		if start >= total {
			return []Product{}, total, nil
		}
		end := start + limit
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}

	return matched, total, nil
}

func sortProducts(products []Product, order string) {
	switch strings.ToLower(order) {
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price < products[j].Price })
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price > products[j].Price })
	case SortNewest:
		sort.SliceStable(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	}
}

func (r *MemoryRepository) GetProduct(ctx context.Context, id string) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, ErrProductNotFound
}

func (r *MemoryRepository) ListNewProducts(ctx context.Context, limit int) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fresh := make([]Product, 0)
	for _, p := range r.products {
		if p.IsNew {
			fresh = append(fresh, p)
		}
	}
	sortProducts(fresh, SortNewest)
	if limit > 0 && len(fresh) > limit {
		fresh = fresh[:limit]
	}
	return fresh, nil
}

func (r *MemoryRepository) ListCategories(ctx context.Context) ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]Category, 0)
	for _, c := range r.categories {
		if c.IsActive {
			active = append(active, c)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].SortOrder < active[j].SortOrder })
	return active, nil
}

func (r *MemoryRepository) GetCategoryBySlug(ctx context.Context, s string) (*Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		if c.Slug == s {
			out := c
			return &out, nil
		}
	}
	return nil, ErrCategoryNotFound
}
