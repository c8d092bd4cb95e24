// Package keywords persists custom category match keywords. Keywords entered
// by pricebook admins survive restarts and feed the suggestion engine next to
// category names.
package keywords

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Keyword maps a text pattern to a category
type Keyword struct {
	ID         uuid.UUID `json:"id"`
	Pattern    string    `json:"pattern"`
	CategoryID uuid.UUID `json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DB is the subset of pgxpool.Pool the store needs; satisfied by pgxmock
// in tests
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store manages category keywords in the database
type Store struct {
	db DB
}

// NewStore creates a new keyword store
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Save creates or updates a keyword. Patterns are stored lowercased; saving
// an existing pattern repoints it at the new category.
func (s *Store) Save(ctx context.Context, pattern string, categoryID uuid.UUID) (*Keyword, error) {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return nil, fmt.Errorf("keyword pattern cannot be empty")
	}

	query := `
		INSERT INTO category_keywords (pattern, category_id)
		VALUES ($1, $2)
		ON CONFLICT (pattern) DO UPDATE SET
			category_id = EXCLUDED.category_id,
			updated_at = now()
		RETURNING id, pattern, category_id, created_at, updated_at
	`

	var kw Keyword
	err := s.db.QueryRow(ctx, query, pattern, categoryID).Scan(
		&kw.ID, &kw.Pattern, &kw.CategoryID, &kw.CreatedAt, &kw.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save keyword: %w", err)
	}
	return &kw, nil
}

// List returns every stored keyword ordered by pattern
func (s *Store) List(ctx context.Context) ([]Keyword, error) {
	query := `
		SELECT id, pattern, category_id, created_at, updated_at
		FROM category_keywords
		ORDER BY pattern
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list keywords: %w", err)
	}
	defer rows.Close()

	var keywords []Keyword
	for rows.Next() {
		var kw Keyword
		if err := rows.Scan(&kw.ID, &kw.Pattern, &kw.CategoryID, &kw.CreatedAt, &kw.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		keywords = append(keywords, kw)
	}
	return keywords, rows.Err()
}

// Delete removes a keyword
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.Exec(ctx, `DELETE FROM category_keywords WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete keyword: %w", err)
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
