// Package handler exposes the import pipeline over HTTP.
package handler

import (
	"errors"
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/FACorreiaa/pricebook-admin/internal/domain/category/hierarchy"
	categoryrepo "github.com/FACorreiaa/pricebook-admin/internal/domain/category/repository"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/import/mapper"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/import/service"
)

// ErrorResponse is the error body all import endpoints return
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportHandler handles import HTTP endpoints
type ImportHandler struct {
	svc    *service.ImportService
	logger *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(svc *service.ImportService, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{svc: svc, logger: logger}
}

// Register mounts the import routes
func (h *ImportHandler) Register(router fiber.Router) {
	router.Post("/analyze", h.Analyze)
	router.Post("/items", h.ImportItems)
	router.Post("/hierarchy", h.ImportHierarchy)
}

func (h *ImportHandler) readUpload(c *fiber.Ctx) (string, []byte, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return "", nil, errors.New("file field is required")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, err
	}
	return fileHeader.Filename, data, nil
}

// Analyze inspects an upload and returns sheet and mapping suggestions
func (h *ImportHandler) Analyze(c *fiber.Ctx) error {
	name, data, err := h.readUpload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_UPLOAD", Message: err.Error()})
	}

	result, err := h.svc.Analyze(c.Context(), name, data)
	if err != nil {
		h.logger.Error("analyze failed", slog.String("file", name), slog.Any("error", err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Code: "PARSE_FAILED", Message: err.Error()})
	}
	return c.JSON(result)
}

// ImportItems imports a catalog item sheet. Field mapping overrides arrive as
// repeated "map[<header>]=<field>" form values.
func (h *ImportHandler) ImportItems(c *fiber.Ctx) error {
	name, data, err := h.readUpload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_UPLOAD", Message: err.Error()})
	}

	opts := service.ItemImportOptions{
		SheetName: c.FormValue("sheet"),
		Kind:      service.ImportKind(c.FormValue("kind", string(service.ImportKindService))),
		Mappings:  map[string]mapper.Field{},
	}
	if form, err := c.MultipartForm(); err == nil {
		for key, values := range form.Value {
			if header, ok := mappingKey(key); ok && len(values) > 0 {
				opts.Mappings[header] = mapper.Field(values[0])
			}
		}
	}

	result, err := h.svc.ImportItems(c.Context(), name, data, opts)
	if err != nil {
		if errors.Is(err, mapper.ErrFieldClaimed) || errors.Is(err, mapper.ErrUnknownHeader) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_MAPPING", Message: err.Error()})
		}
		h.logger.Error("item import failed", slog.String("file", name), slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "IMPORT_FAILED", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// ImportHierarchy imports a category sheet
func (h *ImportHandler) ImportHierarchy(c *fiber.Ctx) error {
	name, data, err := h.readUpload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_UPLOAD", Message: err.Error()})
	}

	mode := hierarchy.ModeFillDown
	if c.FormValue("mode") == string(hierarchy.ModeExplicitID) {
		mode = hierarchy.ModeExplicitID
	}

	opts := service.HierarchyImportOptions{
		SheetName:   c.FormValue("sheet"),
		Type:        categoryrepo.CategoryType(c.FormValue("type", string(categoryrepo.CategoryTypeService))),
		Mode:        mode,
		HasIDColumn: c.FormValue("has_id_column") == "true",
	}

	result, err := h.svc.ImportHierarchy(c.Context(), name, data, opts)
	if err != nil {
		h.logger.Error("hierarchy import failed", slog.String("file", name), slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "IMPORT_FAILED", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// mappingKey extracts the header from a "map[<header>]" form key
func mappingKey(key string) (string, bool) {
	const prefix = "map["
	if len(key) > len(prefix)+1 && key[:len(prefix)] == prefix && key[len(key)-1] == ']' {
		return key[len(prefix) : len(key)-1], true
	}
	return "", false
}
