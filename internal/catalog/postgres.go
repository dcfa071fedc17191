package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

// PostgresRepository reads the catalog from PostgreSQL. Images, colors
// and sizes live in JSONB columns on the products table:
//
//	CREATE TABLE IF NOT EXISTS products (
//	    id           TEXT PRIMARY KEY,
//	    name         TEXT NOT NULL,
//	    description  TEXT NOT NULL DEFAULT '',
//	    price        INTEGER NOT NULL,
//	    in_stock     BOOLEAN NOT NULL DEFAULT TRUE,
//	    is_new       BOOLEAN NOT NULL DEFAULT FALSE,
//	    category_id  TEXT,
//	    images       JSONB NOT NULL DEFAULT '[]',
//	    colors       JSONB NOT NULL DEFAULT '[]',
//	    sizes        JSONB NOT NULL DEFAULT '[]',
//	    series_count INTEGER NOT NULL DEFAULT 0,
//	    created_at   TIMESTAMPTZ NOT NULL,
//	    updated_at   TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE IF NOT EXISTS categories (
//	    id          TEXT PRIMARY KEY,
//	    name        TEXT NOT NULL,
//	    slug        TEXT NOT NULL UNIQUE,
//	    description TEXT NOT NULL DEFAULT '',
//	    sort_order  INTEGER NOT NULL DEFAULT 0,
//	    is_active   BOOLEAN NOT NULL DEFAULT TRUE,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    updated_at  TIMESTAMPTZ NOT NULL
//	);
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const productColumns = `id, name, description, price, in_stock, is_new,
	COALESCE(category_id, ''), images, colors, sizes, series_count, created_at, updated_at`

func (r *PostgresRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.CategorySlug != "" {
		cat, err := r.GetCategoryBySlug(ctx, filter.CategorySlug)
		if err != nil {
			return nil, 0, err
		}
		where = append(where, "category_id = "+arg(cat.ID))
	}
	if filter.InStock != nil {
		where = append(where, "in_stock = "+arg(*filter.InStock))
	}
	if filter.MinPrice > 0 {
		where = append(where, "price >= "+arg(filter.MinPrice))
	}
	if filter.MaxPrice > 0 {
		where = append(where, "price <= "+arg(filter.MaxPrice))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM products WHERE " + strings.Join(where, " AND ")
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	orderBy := "created_at DESC"
	switch filter.Sort {
	case SortPriceAsc:
		orderBy = "price ASC"
	case SortPriceDesc:
		orderBy = "price DESC"
	}

	query := fmt.Sprintf("SELECT %s FROM products WHERE %s ORDER BY %s",
		productColumns, strings.Join(where, " AND "), orderBy)
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %s OFFSET %s", arg(filter.Limit), arg((page-1)*filter.Limit))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *PostgresRepository) GetProduct(ctx context.Context, id string) (*Product, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) ListNewProducts(ctx context.Context, limit int) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE is_new ORDER BY created_at DESC LIMIT $1",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list new products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *PostgresRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, slug, description, sort_order, is_active, created_at, updated_at
		 FROM categories WHERE is_active ORDER BY sort_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.SortOrder,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *PostgresRepository) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	var c Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, slug, description, sort_order, is_active, created_at, updated_at
		 FROM categories WHERE slug = $1`, slug,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.SortOrder,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p                      Product
		images, colors, sizes []byte
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.InStock, &p.IsNew,
		&p.CategoryID, &images, &colors, &sizes, &p.SeriesCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}

	if err := json.Unmarshal(images, &p.Images); err != nil {
		return Product{}, fmt.Errorf("failed to decode product images: %w", err)
	}
	if err := json.Unmarshal(colors, &p.Colors); err != nil {
		return Product{}, fmt.Errorf("failed to decode product colors: %w", err)
	}
	if err := json.Unmarshal(sizes, &p.Sizes); err != nil {
		return Product{}, fmt.Errorf("failed to decode product sizes: %w", err)
	}
	return p, nil
}
