package catalog

import (
	"time"

	"github.com/example/storefront/internal/cart"
)

const placeholderImage = "/images/placeholder.png"

// Image is a raw product image as stored, tagged with the color variant it
// belongs to.
type Image struct {
	URL          string `json:"url"`
	ColorCode    string `json:"color_code"`
	DisplayOrder int    `json:"display_order"`
}

// Color is a sellable color variant of a product.
type Color struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Product is a wholesale catalog entry. Price is in minor currency units.
// Sizes lists the labels a size matrix offers; SeriesCount is the number
// of pieces in one wholesale series.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int       `json:"price"`
	InStock     bool      `json:"in_stock"`
	IsNew       bool      `json:"is_new"`
	CategoryID  string    `json:"category_id"`
	Images      []Image   `json:"images,omitempty"`
	Colors      []Color   `json:"colors,omitempty"`
	Sizes       []string  `json:"sizes,omitempty"`
	SeriesCount int       `json:"series_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Category groups products; Slug is the URL-facing identifier.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	SortOrder   int       `json:"sort_order"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GroupImagesByColor buckets image URLs per color code, preserving first
// appearance order of the codes. Products without images get a single
// placeholder group so the index arithmetic downstream never sees an
// empty slice.
func GroupImagesByColor(images []Image) [][]string {
	if len(images) == 0 {
		return [][]string{{placeholderImage}}
	}

	order := make([]string, 0)
	groups := make(map[string][]string)
	for _, img := range images {
		code := img.ColorCode
		if code == "" {
			code = "default"
		}
		if _, seen := groups[code]; !seen {
			order = append(order, code)
		}
		groups[code] = append(groups[code], img.URL)
	}

	result := make([][]string, 0, len(order))
	for _, code := range order {
		result = append(result, groups[code])
	}
	return result
}

// Snapshot freezes the product into the form embedded in cart lines:
// price and name at add time, images grouped per color.
func (p Product) Snapshot() cart.Product {
	colors := make([]cart.Color, len(p.Colors))
	for i, c := range p.Colors {
		colors[i] = cart.Color{Name: c.Name, Code: c.Code}
	}
	return cart.Product{
		ID:     p.ID,
		Name:   p.Name,
		Price:  p.Price,
		Images: GroupImagesByColor(p.Images),
		Colors: colors,
	}
}
