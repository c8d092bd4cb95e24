// Package repository provides database operations for pricebook categories.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CategoryType represents which side of the pricebook a category belongs to
type CategoryType string

const (
	CategoryTypeService   CategoryType = "service"
	CategoryTypeMaterial  CategoryType = "material"
	CategoryTypeEquipment CategoryType = "equipment"
)

// Category represents one node of the pricebook category tree.
// ParentID is nil for root categories. Path is the materialized list of
// ancestor names plus the node's own name, kept for display and search.
type Category struct {
	ID        uuid.UUID
	Name      string
	ParentID  *uuid.UUID
	Type      CategoryType
	Path      []string
	Level     int    // depth in the tree, root = 1
	SourceKey string // external spreadsheet id, empty when created interactively
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CategoryRepository defines the interface for category persistence operations
type CategoryRepository interface {
	Create(ctx context.Context, category *Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByType(ctx context.Context, categoryType CategoryType) ([]*Category, error)
	ListAll(ctx context.Context) ([]*Category, error)

	// BulkUpsert persists a freshly imported tree in one round trip per node,
	// matching on SourceKey so re-imports update rather than duplicate.
	BulkUpsert(ctx context.Context, categories []*Category) error
}
