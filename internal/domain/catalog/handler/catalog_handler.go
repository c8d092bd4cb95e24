// Package handler exposes the catalog (services, materials, equipment) and
// its full-text search over HTTP.
package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/FACorreiaa/pricebook-admin/internal/domain/catalog/repository"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/catalog/search"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/catalog/service"
)

// ErrorResponse is the error body all catalog endpoints return
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CatalogHandler handles catalog HTTP endpoints
type CatalogHandler struct {
	svc    *service.Service
	index  *search.Index
	logger *slog.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(svc *service.Service, index *search.Index, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, index: index, logger: logger}
}

// Register mounts the catalog routes
func (h *CatalogHandler) Register(router fiber.Router) {
	router.Get("/services", h.ListServices)
	router.Post("/services", h.CreateService)
	router.Get("/services/:id", h.GetService)
	router.Put("/services/:id", h.UpdateService)
	router.Delete("/services/:id", h.DeleteService)
	router.Post("/services/:id/materials/:materialID", h.LinkMaterial)
	router.Delete("/services/:id/materials/:materialID", h.UnlinkMaterial)

	router.Get("/materials", h.ListMaterials)
	router.Post("/materials", h.CreateMaterial)
	router.Get("/equipment", h.ListEquipment)
	router.Post("/equipment", h.CreateEquipment)

	router.Get("/search", h.Search)
	router.Post("/search/reindex", h.Reindex)
}

// ListServices returns all catalog services
func (h *CatalogHandler) ListServices(c *fiber.Ctx) error {
	services, err := h.svc.ListServices(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(services)
}

// CreateService adds a catalog service
func (h *CatalogHandler) CreateService(c *fiber.Ctx) error {
	var svc repository.Service
	if err := c.BodyParser(&svc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}
	if svc.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "name is required"})
	}

	if err := h.svc.CreateService(c.Context(), &svc); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(svc)
}

// GetService returns one catalog service
func (h *CatalogHandler) GetService(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_ID", Message: "invalid service id"})
	}

	svc, err := h.svc.GetService(c.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(svc)
}

// UpdateService rewrites a catalog service
func (h *CatalogHandler) UpdateService(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_ID", Message: "invalid service id"})
	}

	var svc repository.Service
	if err := c.BodyParser(&svc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}
	svc.ID = id

	if err := h.svc.UpdateService(c.Context(), &svc); err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(svc)
}

// DeleteService removes a catalog service
func (h *CatalogHandler) DeleteService(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_ID", Message: "invalid service id"})
	}

	if err := h.svc.DeleteService(c.Context(), id); err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LinkMaterial attaches a material to a service
func (h *CatalogHandler) LinkMaterial(c *fiber.Ctx) error {
	serviceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_ID", Message: "invalid service id"})
	}
	materialID, err := uuid.Parse(c.Params("materialID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_ID", Message: "invalid material id"})
	}

	if err := h.svc.LinkMaterial(c.Context(), serviceID, materialID); err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnlinkMaterial detaches a material from a service
func (h *CatalogHandler) UnlinkMaterial(c *fiber.Ctx) error {
	serviceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_ID", Message: "invalid service id"})
	}
	materialID, err := uuid.Parse(c.Params("materialID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_ID", Message: "invalid material id"})
	}

	if err := h.svc.UnlinkMaterial(c.Context(), serviceID, materialID); err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListMaterials returns all materials
func (h *CatalogHandler) ListMaterials(c *fiber.Ctx) error {
	materials, err := h.svc.ListMaterials(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(materials)
}

// CreateMaterial adds a material
func (h *CatalogHandler) CreateMaterial(c *fiber.Ctx) error {
	var m repository.Material
	if err := c.BodyParser(&m); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}
	if m.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "name is required"})
	}

	if err := h.svc.CreateMaterial(c.Context(), &m); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

// ListEquipment returns all equipment
func (h *CatalogHandler) ListEquipment(c *fiber.Ctx) error {
	equipment, err := h.svc.ListEquipment(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(equipment)
}

// CreateEquipment adds an equipment item
func (h *CatalogHandler) CreateEquipment(c *fiber.Ctx) error {
	var e repository.Equipment
	if err := c.BodyParser(&e); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}
	if e.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "name is required"})
	}

	if err := h.svc.CreateEquipment(c.Context(), &e); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(e)
}

// Search runs a catalog full-text query:
// GET /search?q=water+heater&kind=material&limit=10
func (h *CatalogHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "q is required"})
	}
	limit := c.QueryInt("limit", 10)

	var (
		results []search.Result
		err     error
	)
	if kind := c.Query("kind"); kind != "" {
		results, err = h.index.SearchByKind(query, kind, limit)
	} else {
		results, err = h.index.Search(query, limit)
	}
	if err != nil {
		h.logger.Error("search failed", slog.String("query", query), slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "SEARCH_FAILED", Message: err.Error()})
	}
	return c.JSON(results)
}

// Reindex rebuilds the search index from the current catalog
func (h *CatalogHandler) Reindex(c *fiber.Ctx) error {
	services, err := h.svc.ListServices(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	materials, err := h.svc.ListMaterials(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	equipment, err := h.svc.ListEquipment(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	if err := h.index.IndexCatalog(services, materials, equipment); err != nil {
		h.logger.Error("reindex failed", slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "REINDEX_FAILED", Message: err.Error()})
	}

	count, _ := h.index.DocumentCount()
	return c.JSON(fiber.Map{"indexed": count})
}
