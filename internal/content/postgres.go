package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresRepository stores editorial content in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE site_settings (
//	    key   TEXT PRIMARY KEY,
//	    value TEXT NOT NULL
//	);
//	CREATE TABLE content_blocks (
//	    id         TEXT PRIMARY KEY,
//	    section    TEXT NOT NULL,
//	    title      TEXT NOT NULL,
//	    body       TEXT NOT NULL,
//	    active     BOOLEAN NOT NULL DEFAULT TRUE,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE faqs (
//	    id         TEXT PRIMARY KEY,
//	    question   TEXT NOT NULL,
//	    answer     TEXT NOT NULL,
//	    sort_order INTEGER NOT NULL DEFAULT 0,
//	    active     BOOLEAN NOT NULL DEFAULT TRUE
//	);
//	CREATE TABLE contact_messages (
//	    id         TEXT PRIMARY KEY,
//	    name       TEXT NOT NULL,
//	    email      TEXT NOT NULL,
//	    phone      TEXT,
//	    subject    TEXT,
//	    body       TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Settings(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM site_settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Setting(ctx context.Context, key string) (string, error) {
	var v string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM site_settings WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSettingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query setting: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) ActiveBlocks(ctx context.Context) ([]Block, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, section, title, body, active, updated_at
		FROM content_blocks
		WHERE active
		ORDER BY section`)
	if err != nil {
		return nil, fmt.Errorf("failed to query content blocks: %w", err)
	}
	defer rows.Close()

	var out []Block
	for rows.Next() {
		var b Block
		if err := rows.Scan(&b.ID, &b.Section, &b.Title, &b.Body, &b.Active, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan content block: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) BlockBySection(ctx context.Context, section string) (Block, error) {
	var b Block
	err := r.db.QueryRowContext(ctx, `
		SELECT id, section, title, body, active, updated_at
		FROM content_blocks
		WHERE active AND section = $1
		LIMIT 1`, section).
		Scan(&b.ID, &b.Section, &b.Title, &b.Body, &b.Active, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Block{}, ErrBlockNotFound
	}
	if err != nil {
		return Block{}, fmt.Errorf("failed to query content block: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) ActiveFAQs(ctx context.Context) ([]FAQ, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, question, answer, sort_order, active
		FROM faqs
		WHERE active
		ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query faqs: %w", err)
	}
	defer rows.Close()

	var out []FAQ
	for rows.Next() {
		var f FAQ
		if err := rows.Scan(&f.ID, &f.Question, &f.Answer, &f.SortOrder, &f.Active); err != nil {
			return nil, fmt.Errorf("failed to scan faq: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) SaveContactMessage(ctx context.Context, msg ContactMessage) (ContactMessage, error) {
	if err := msg.Validate(); err != nil {
		return ContactMessage{}, err
	}
	msg.ID = uuid.New().String()
	msg.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contact_messages (id, name, email, phone, subject, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.Name, msg.Email, msg.Phone, msg.Subject, msg.Body, msg.CreatedAt)
	if err != nil {
		return ContactMessage{}, fmt.Errorf("failed to insert contact message: %w", err)
	}
	return msg, nil
}
