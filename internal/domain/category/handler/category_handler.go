// Package handler exposes category tree management over HTTP.
package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/pricebook-admin/internal/domain/category/keywords"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/category/matcher"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/category/repository"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/category/service"
)

// ErrorResponse is the error body all category endpoints return
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CategoryResponse is the wire form of a category
type CategoryResponse struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	Type     string     `json:"type"`
	Path     []string   `json:"path"`
	Level    int        `json:"level"`
}

// CreateCategoryRequest creates a category under an optional parent
type CreateCategoryRequest struct {
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id"`
	Type     string     `json:"type"`
}

// UpdateCategoryRequest renames and/or reparents a category
type UpdateCategoryRequest struct {
	Name     *string    `json:"name"`
	ParentID *uuid.UUID `json:"parent_id"`
	// MoveToRoot distinguishes "reparent to root" from "leave parent alone"
	MoveToRoot bool `json:"move_to_root"`
}

// SelectionRequest computes display tags for a set of selected categories
type SelectionRequest struct {
	Type     string      `json:"type"`
	Selected []uuid.UUID `json:"selected"`
}

// SelectionTag is one compressed selection chip
type SelectionTag struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Path []string  `json:"path"`
}

// SelectionResponse carries the compressed tag set and the branches a UI
// should open to reveal every selection
type SelectionResponse struct {
	Tags     []SelectionTag `json:"tags"`
	Expanded []uuid.UUID    `json:"expanded"`
	Count    int            `json:"count"`
}

// KeywordRequest maps an extra match pattern onto a category
type KeywordRequest struct {
	Pattern    string    `json:"pattern"`
	CategoryID uuid.UUID `json:"category_id"`
}

// CategoryHandler handles category HTTP endpoints
type CategoryHandler struct {
	svc      *service.Service
	keywords *keywords.Store
	matcher  *matcher.Engine
	logger   *slog.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(svc *service.Service, kw *keywords.Store, m *matcher.Engine, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{svc: svc, keywords: kw, matcher: m, logger: logger}
}

// Register mounts the category routes
func (h *CategoryHandler) Register(router fiber.Router) {
	router.Get("/", h.Tree)
	router.Post("/", h.Create)
	router.Patch("/:id", h.Update)
	router.Delete("/:id", h.Delete)
	router.Post("/selection", h.Selection)
	router.Get("/keywords", h.ListKeywords)
	router.Post("/keywords", h.SaveKeyword)
	router.Delete("/keywords/:id", h.DeleteKeyword)
}

func toResponse(c *repository.Category) CategoryResponse {
	return CategoryResponse{
		ID:       c.ID,
		Name:     c.Name,
		ParentID: c.ParentID,
		Type:     string(c.Type),
		Path:     c.Path,
		Level:    c.Level,
	}
}

func categoryType(c *fiber.Ctx) repository.CategoryType {
	return repository.CategoryType(c.Query("type", string(repository.CategoryTypeService)))
}

// Tree lists all categories of a type
func (h *CategoryHandler) Tree(c *fiber.Ctx) error {
	categories, err := h.svc.Tree(c.Context(), categoryType(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	out := make([]CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		out = append(out, toResponse(cat))
	}
	return c.JSON(out)
}

// Create adds a category
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in CreateCategoryRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}
	if in.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "name is required"})
	}
	if in.Type == "" {
		in.Type = string(repository.CategoryTypeService)
	}

	category, err := h.svc.CreateCategory(c.Context(), in.Name, in.ParentID, repository.CategoryType(in.Type))
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "PARENT_NOT_FOUND", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(toResponse(category))
}

// Update renames and/or reparents a category
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_ID", Message: "invalid category id"})
	}

	var in UpdateCategoryRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}

	if in.Name != nil {
		if err := h.svc.RenameCategory(c.Context(), id, *in.Name); err != nil {
			return h.updateError(c, err)
		}
	}
	if in.ParentID != nil || in.MoveToRoot {
		if err := h.svc.ReparentCategory(c.Context(), id, in.ParentID); err != nil {
			return h.updateError(c, err)
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CategoryHandler) updateError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrCategoryNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, service.ErrReparentCycle):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Code: "CYCLE", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

// Delete removes a category, re-linking its catalog items and re-attaching
// child categories
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_ID", Message: "invalid category id"})
	}

	if err := h.svc.DeleteCategory(c.Context(), id); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
		}
		h.logger.Error("category delete failed", slog.String("category_id", id.String()), slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Selection applies a selected set to the tree and returns the compressed
// tags plus the auto-expanded branches
func (h *CategoryHandler) Selection(c *fiber.Ctx) error {
	var in SelectionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}
	if in.Type == "" {
		in.Type = string(repository.CategoryTypeService)
	}

	model, err := h.svc.LoadSelection(c.Context(), repository.CategoryType(in.Type))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	for _, id := range in.Selected {
		model.Select(id)
	}

	out := SelectionResponse{Count: model.Count()}
	for _, tag := range model.Tags() {
		out.Tags = append(out.Tags, SelectionTag{ID: tag.ID, Name: tag.Name, Path: tag.Path})
	}
	out.Expanded = model.Expanded()
	return c.JSON(out)
}

// ListKeywords returns the custom match patterns ordered by pattern
func (h *CategoryHandler) ListKeywords(c *fiber.Ctx) error {
	list, err := h.keywords.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(list)
}

// SaveKeyword upserts a match pattern and rebuilds the matcher so the next
// import sees it
func (h *CategoryHandler) SaveKeyword(c *fiber.Ctx) error {
	var in KeywordRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}
	if in.Pattern == "" || in.CategoryID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "pattern and category_id are required"})
	}

	kw, err := h.keywords.Save(c.Context(), in.Pattern, in.CategoryID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	if err := h.rebuildMatcher(c); err != nil {
		h.logger.Error("matcher rebuild failed", slog.Any("error", err))
	}
	return c.Status(fiber.StatusCreated).JSON(kw)
}

// DeleteKeyword removes a match pattern and rebuilds the matcher
func (h *CategoryHandler) DeleteKeyword(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_ID", Message: "invalid keyword id"})
	}

	if err := h.keywords.Delete(c.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: "keyword not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	if err := h.rebuildMatcher(c); err != nil {
		h.logger.Error("matcher rebuild failed", slog.Any("error", err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CategoryHandler) rebuildMatcher(c *fiber.Ctx) error {
	categories, err := h.svc.AllCategories(c.Context())
	if err != nil {
		return err
	}
	stored, err := h.keywords.List(c.Context())
	if err != nil {
		return err
	}
	kws := make([]matcher.Keyword, 0, len(stored))
	for _, k := range stored {
		kws = append(kws, matcher.Keyword{Pattern: k.Pattern, CategoryID: k.CategoryID})
	}
	h.matcher.Build(categories, kws)
	return nil
}
