// Package handler serves catalog exports as file downloads.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	catalogrepo "github.com/FACorreiaa/pricebook-admin/internal/domain/catalog/repository"
	categoryrepo "github.com/FACorreiaa/pricebook-admin/internal/domain/category/repository"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/export"
	"github.com/FACorreiaa/pricebook-admin/pkg/archive"
)

// ErrorResponse is the error body all export endpoints return
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ExportHandler handles export HTTP endpoints
type ExportHandler struct {
	exporter   *export.Exporter
	catalog    catalogrepo.CatalogRepository
	categories categoryrepo.CategoryRepository
	archive    *archive.Archive
	logger     *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(exporter *export.Exporter, catalog catalogrepo.CatalogRepository, categories categoryrepo.CategoryRepository, store *archive.Archive, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{exporter: exporter, catalog: catalog, categories: categories, archive: store, logger: logger}
}

// Register mounts the export routes
func (h *ExportHandler) Register(router fiber.Router) {
	router.Get("/pricebook.xlsx", h.Workbook)
	router.Get("/services.csv", h.ServicesCSV)
	router.Get("/materials.csv", h.MaterialsCSV)
	router.Get("/archive", h.ListArchive)
	router.Get("/archive/:name", h.DownloadArchived)
}

func (h *ExportHandler) loadSnapshot(ctx context.Context) (*export.Snapshot, error) {
	services, err := h.catalog.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	materials, err := h.catalog.ListMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	equipment, err := h.catalog.ListEquipment(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	categories, err := h.categories.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return &export.Snapshot{
		Services:   services,
		Materials:  materials,
		Equipment:  equipment,
		Categories: categories,
	}, nil
}

// Workbook streams the whole catalog as one xlsx file
func (h *ExportHandler) Workbook(c *fiber.Ctx) error {
	snapshot, err := h.loadSnapshot(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	data, err := h.exporter.WriteXLSX(snapshot)
	if err != nil {
		h.logger.Error("xlsx export failed", slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "EXPORT_FAILED", Message: err.Error()})
	}

	name := fmt.Sprintf("pricebook-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, name))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(data)
}

// ServicesCSV streams the services sheet as CSV
func (h *ExportHandler) ServicesCSV(c *fiber.Ctx) error {
	snapshot, err := h.loadSnapshot(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	data, err := h.exporter.WriteServicesCSV(snapshot)
	if err != nil {
		h.logger.Error("csv export failed", slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "EXPORT_FAILED", Message: err.Error()})
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="services.csv"`)
	c.Set(fiber.HeaderContentType, "text/csv")
	return c.Send(data)
}

// MaterialsCSV streams the materials sheet as CSV
func (h *ExportHandler) MaterialsCSV(c *fiber.Ctx) error {
	snapshot, err := h.loadSnapshot(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	data, err := h.exporter.WriteMaterialsCSV(snapshot)
	if err != nil {
		h.logger.Error("csv export failed", slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "EXPORT_FAILED", Message: err.Error()})
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="materials.csv"`)
	c.Set(fiber.HeaderContentType, "text/csv")
	return c.Send(data)
}

// ListArchive returns past nightly exports, newest first
func (h *ExportHandler) ListArchive(c *fiber.Ctx) error {
	entries, err := h.archive.List()
	if err != nil {
		h.logger.Error("archive list failed", slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(entries)
}

// DownloadArchived streams a previously archived export file
func (h *ExportHandler) DownloadArchived(c *fiber.Ctx) error {
	name := c.Params("name")

	r, err := h.archive.Open(name)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: "export not found"})
		}
		h.logger.Error("archive open failed", slog.String("file", name), slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, name))
	c.Set(fiber.HeaderContentType, "application/octet-stream")
	return c.SendStream(r)
}
