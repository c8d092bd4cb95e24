package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrCategoryNotFound is returned when a category does not exist
var ErrCategoryNotFound = errors.New("category not found")

// PostgresCategoryRepository implements CategoryRepository using PostgreSQL
type PostgresCategoryRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCategoryRepository creates a new PostgreSQL category repository
func NewPostgresCategoryRepository(pool *pgxpool.Pool) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{pool: pool}
}

// Create inserts a new category
func (r *PostgresCategoryRepository) Create(ctx context.Context, category *Category) error {
	query := `
		INSERT INTO categories (id, name, parent_id, type, path, level, source_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		category.ID,
		category.Name,
		category.ParentID,
		category.Type,
		category.Path,
		category.Level,
		category.SourceKey,
	).Scan(&category.CreatedAt, &category.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// GetByID retrieves a category by ID
func (r *PostgresCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	query := `
		SELECT id, name, parent_id, type, path, level, source_key, created_at, updated_at
		FROM categories
		WHERE id = $1`

	category := &Category{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.ParentID,
		&category.Type,
		&category.Path,
		&category.Level,
		&category.SourceKey,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

// Update updates a category's name, parent, path, and level
func (r *PostgresCategoryRepository) Update(ctx context.Context, category *Category) error {
	query := `
		UPDATE categories
		SET name = $2, parent_id = $3, type = $4, path = $5, level = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		category.ID,
		category.Name,
		category.ParentID,
		category.Type,
		category.Path,
		category.Level,
	).Scan(&category.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

// Delete removes a category. Dependent catalog items are re-linked by the
// service layer before this is called.
func (r *PostgresCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// ListByType retrieves all categories of the given type ordered by path
func (r *PostgresCategoryRepository) ListByType(ctx context.Context, categoryType CategoryType) ([]*Category, error) {
	query := `
		SELECT id, name, parent_id, type, path, level, source_key, created_at, updated_at
		FROM categories
		WHERE type = $1
		ORDER BY path`

	rows, err := r.pool.Query(ctx, query, categoryType)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	return scanCategories(rows)
}

// ListAll retrieves every category ordered by type then path
func (r *PostgresCategoryRepository) ListAll(ctx context.Context) ([]*Category, error) {
	query := `
		SELECT id, name, parent_id, type, path, level, source_key, created_at, updated_at
		FROM categories
		ORDER BY type, path`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	return scanCategories(rows)
}

// BulkUpsert persists an imported tree, matching existing rows on source_key
func (r *PostgresCategoryRepository) BulkUpsert(ctx context.Context, categories []*Category) error {
	query := `
		INSERT INTO categories (id, name, parent_id, type, path, level, source_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (type, source_key) WHERE source_key <> ''
		DO UPDATE SET name = EXCLUDED.name, parent_id = EXCLUDED.parent_id,
			path = EXCLUDED.path, level = EXCLUDED.level, updated_at = NOW()`

	batch := &pgx.Batch{}
	for _, c := range categories {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		batch.Queue(query, c.ID, c.Name, c.ParentID, c.Type, c.Path, c.Level, c.SourceKey)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range categories {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert category: %w", err)
		}
	}
	return nil
}

func scanCategories(rows pgx.Rows) ([]*Category, error) {
	var categories []*Category
	for rows.Next() {
		category := &Category{}
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.ParentID,
			&category.Type,
			&category.Path,
			&category.Level,
			&category.SourceKey,
			&category.CreatedAt,
			&category.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	return categories, nil
}
