// Package repository provides database operations for catalog items:
// services, materials, and equipment.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is a priced catalog service. StaticPrice is the fallback used when
// dynamic pricing is disabled or no rule applies.
type Service struct {
	ID                uuid.UUID
	Name              string
	Description       string
	Code              string
	Unit              string
	Categories        []uuid.UUID
	Hours             decimal.Decimal
	StaticPrice       decimal.Decimal
	UseDynamicPricing bool
	LinkedMaterials   []uuid.UUID
	Taxable           bool
	Active            bool
	SourceKey         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Material is a stocked part with a unit cost
type Material struct {
	ID         uuid.UUID
	Name       string
	Code       string
	Unit       string
	Categories []uuid.UUID
	Cost       decimal.Decimal
	Taxable    bool
	Active     bool
	SourceKey  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Equipment is a rentable or sellable unit with a cost and a sell price
type Equipment struct {
	ID         uuid.UUID
	Name       string
	Code       string
	Categories []uuid.UUID
	Cost       decimal.Decimal
	Price      decimal.Decimal
	Active     bool
	SourceKey  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CatalogRepository defines the interface for catalog persistence operations
type CatalogRepository interface {
	CreateService(ctx context.Context, svc *Service) error
	GetService(ctx context.Context, id uuid.UUID) (*Service, error)
	UpdateService(ctx context.Context, svc *Service) error
	DeleteService(ctx context.Context, id uuid.UUID) error
	ListServices(ctx context.Context) ([]*Service, error)

	CreateMaterial(ctx context.Context, m *Material) error
	GetMaterialsByIDs(ctx context.Context, ids []uuid.UUID) ([]*Material, error)
	ListMaterials(ctx context.Context) ([]*Material, error)

	CreateEquipment(ctx context.Context, e *Equipment) error
	ListEquipment(ctx context.Context) ([]*Equipment, error)

	// RemoveCategoryRefs strips a deleted category id from every catalog
	// item that references it. Items themselves are kept.
	RemoveCategoryRefs(ctx context.Context, categoryID uuid.UUID) error

	// BulkUpsertServices and BulkUpsertMaterials persist imported records,
	// matching on SourceKey so re-imports update in place.
	BulkUpsertServices(ctx context.Context, services []*Service) error
	BulkUpsertMaterials(ctx context.Context, materials []*Material) error
}
