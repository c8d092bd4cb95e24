// Package service provides business logic for the pricebook catalog.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pricebook-admin/internal/domain/catalog/repository"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/pricing"
)

// PricingService defines the interface for quoting a service price
type PricingService interface {
	QuoteService(ctx context.Context, svc pricing.ServiceSnapshot, priority pricing.Priority, mode pricing.MarkupMode) (pricing.Quote, error)
}

// Service handles catalog CRUD and price display
type Service struct {
	repo    repository.CatalogRepository
	pricing PricingService
	logger  *slog.Logger
}

// NewService creates a new catalog service
func NewService(repo repository.CatalogRepository, pricingSvc PricingService, logger *slog.Logger) *Service {
	return &Service{repo: repo, pricing: pricingSvc, logger: logger}
}

// CreateService persists a new catalog service. Negative hours and prices
// are clamped to zero on the way in.
func (s *Service) CreateService(ctx context.Context, svc *repository.Service) error {
	sanitizeService(svc)
	if err := s.repo.CreateService(ctx, svc); err != nil {
		return err
	}
	s.logger.Info("service created",
		slog.String("service_id", svc.ID.String()),
		slog.String("name", svc.Name),
	)
	return nil
}

// GetService retrieves one service
func (s *Service) GetService(ctx context.Context, id uuid.UUID) (*repository.Service, error) {
	return s.repo.GetService(ctx, id)
}

// UpdateService rewrites a service
func (s *Service) UpdateService(ctx context.Context, svc *repository.Service) error {
	sanitizeService(svc)
	return s.repo.UpdateService(ctx, svc)
}

// DeleteService removes a service
func (s *Service) DeleteService(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteService(ctx, id)
}

// ListServices retrieves the full service catalog
func (s *Service) ListServices(ctx context.Context) ([]*repository.Service, error) {
	return s.repo.ListServices(ctx)
}

// CreateMaterial persists a new material
func (s *Service) CreateMaterial(ctx context.Context, m *repository.Material) error {
	if m.Cost.IsNegative() {
		m.Cost = decimal.Zero
	}
	return s.repo.CreateMaterial(ctx, m)
}

// ListMaterials retrieves the full material catalog
func (s *Service) ListMaterials(ctx context.Context) ([]*repository.Material, error) {
	return s.repo.ListMaterials(ctx)
}

// CreateEquipment persists a new equipment item
func (s *Service) CreateEquipment(ctx context.Context, e *repository.Equipment) error {
	if e.Cost.IsNegative() {
		e.Cost = decimal.Zero
	}
	if e.Price.IsNegative() {
		e.Price = decimal.Zero
	}
	return s.repo.CreateEquipment(ctx, e)
}

// ListEquipment retrieves the full equipment catalog
func (s *Service) ListEquipment(ctx context.Context) ([]*repository.Equipment, error) {
	return s.repo.ListEquipment(ctx)
}

// LinkMaterial attaches a material to a service
func (s *Service) LinkMaterial(ctx context.Context, serviceID, materialID uuid.UUID) error {
	svc, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return err
	}
	for _, id := range svc.LinkedMaterials {
		if id == materialID {
			return nil // already linked
		}
	}
	svc.LinkedMaterials = append(svc.LinkedMaterials, materialID)
	return s.repo.UpdateService(ctx, svc)
}

// UnlinkMaterial detaches a material from a service
func (s *Service) UnlinkMaterial(ctx context.Context, serviceID, materialID uuid.UUID) error {
	svc, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return err
	}
	kept := svc.LinkedMaterials[:0]
	for _, id := range svc.LinkedMaterials {
		if id != materialID {
			kept = append(kept, id)
		}
	}
	svc.LinkedMaterials = kept
	return s.repo.UpdateService(ctx, svc)
}

// Snapshot builds the immutable pricing view of a service. Linked materials
// that no longer exist contribute nothing rather than failing the quote.
func (s *Service) Snapshot(ctx context.Context, serviceID uuid.UUID) (pricing.ServiceSnapshot, error) {
	svc, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return pricing.ServiceSnapshot{}, err
	}

	materials, err := s.repo.GetMaterialsByIDs(ctx, svc.LinkedMaterials)
	if err != nil {
		return pricing.ServiceSnapshot{}, fmt.Errorf("failed to load linked materials: %w", err)
	}

	costs := make([]decimal.Decimal, 0, len(materials))
	for _, m := range materials {
		costs = append(costs, m.Cost)
	}

	return pricing.ServiceSnapshot{
		ID:                svc.ID,
		Categories:        svc.Categories,
		Hours:             svc.Hours,
		StaticPrice:       svc.StaticPrice,
		UseDynamicPricing: svc.UseDynamicPricing,
		MaterialCosts:     costs,
	}, nil
}

// DisplayPrice quotes a service for display at the given priority level
func (s *Service) DisplayPrice(ctx context.Context, serviceID uuid.UUID, priority pricing.Priority, mode pricing.MarkupMode) (pricing.Quote, error) {
	snapshot, err := s.Snapshot(ctx, serviceID)
	if err != nil {
		return pricing.Quote{}, err
	}
	return s.pricing.QuoteService(ctx, snapshot, priority, mode)
}

// RemoveCategoryRefs strips a deleted category from every catalog item.
// Called by the category service during cascade deletion.
func (s *Service) RemoveCategoryRefs(ctx context.Context, categoryID uuid.UUID) error {
	return s.repo.RemoveCategoryRefs(ctx, categoryID)
}

func sanitizeService(svc *repository.Service) {
	if svc.Hours.IsNegative() {
		svc.Hours = decimal.Zero
	}
	if svc.StaticPrice.IsNegative() {
		svc.StaticPrice = decimal.Zero
	}
}
