// Package handler exposes price rule management and quoting over HTTP.
package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	catalogservice "github.com/FACorreiaa/pricebook-admin/internal/domain/catalog/service"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/pricing"
	"github.com/FACorreiaa/pricebook-admin/pkg/metrics"
	"github.com/FACorreiaa/pricebook-admin/pkg/money"
)

// QuoteBreakdown renders each quote line as a formatted currency amount
type QuoteBreakdown struct {
	Labor     string `json:"labor"`
	Materials string `json:"materials"`
	Markup    string `json:"markup"`
	Tax       string `json:"tax,omitempty"`
	Total     string `json:"total"`
}

// QuoteResponse carries a computed quote plus its formatted breakdown
type QuoteResponse struct {
	pricing.Quote
	Display QuoteBreakdown `json:"display"`
}

// renderBreakdown formats a quote through the money layer. A positive tax
// percent adds a tax line and folds it into the displayed total; the raw
// quote amounts stay pre-tax.
func renderBreakdown(q pricing.Quote, taxPercent float64) QuoteBreakdown {
	labor := money.NewFromDecimal(q.LaborCost, money.USD).
		MustAdd(money.NewFromDecimal(q.LaborMarkup, money.USD))
	total := money.NewFromDecimal(q.Total, money.USD)

	out := QuoteBreakdown{
		Labor:     labor.Display(),
		Materials: money.NewFromDecimal(q.MaterialsCost, money.USD).Display(),
		Markup:    money.NewFromDecimal(q.MarkupAmount, money.USD).Display(),
		Total:     total.Display(),
	}
	if taxPercent > 0 {
		out.Tax = total.Tax(taxPercent).Display()
		out.Total = total.WithTax(taxPercent).Display()
	}
	return out
}

// ErrorResponse is the error body all pricing endpoints return
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PricingHandler handles price rule HTTP endpoints
type PricingHandler struct {
	svc     *pricing.Service
	catalog *catalogservice.Service
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewPricingHandler creates a new pricing handler
func NewPricingHandler(svc *pricing.Service, catalog *catalogservice.Service, m *metrics.Metrics, logger *slog.Logger) *PricingHandler {
	return &PricingHandler{svc: svc, catalog: catalog, metrics: m, logger: logger}
}

// Register mounts the pricing routes
func (h *PricingHandler) Register(router fiber.Router) {
	router.Get("/rules", h.ListRules)
	router.Post("/rules", h.CreateRule)
	router.Get("/rules/:id", h.GetRule)
	router.Put("/rules/:id", h.UpdateRule)
	router.Delete("/rules/:id", h.DeleteRule)
	router.Get("/quote/:serviceID", h.Quote)
}

// ListRules returns every price rule
func (h *PricingHandler) ListRules(c *fiber.Ctx) error {
	rules, err := h.svc.ListRules(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(rules)
}

// CreateRule validates and stores a new price rule
func (h *PricingHandler) CreateRule(c *fiber.Ctx) error {
	var rule pricing.PriceRule
	if err := c.BodyParser(&rule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}

	if err := h.svc.CreateRule(c.Context(), &rule); err != nil {
		if isValidationError(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Code: "INVALID_RULE", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(rule)
}

// GetRule returns one price rule
func (h *PricingHandler) GetRule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_ID", Message: "invalid rule id"})
	}

	rule, err := h.svc.GetRule(c.Context(), id)
	if err != nil {
		if errors.Is(err, pricing.ErrRuleNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(rule)
}

// UpdateRule validates and rewrites a price rule
func (h *PricingHandler) UpdateRule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_ID", Message: "invalid rule id"})
	}

	var rule pricing.PriceRule
	if err := c.BodyParser(&rule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}
	rule.ID = id

	if err := h.svc.UpdateRule(c.Context(), &rule); err != nil {
		switch {
		case isValidationError(err):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Code: "INVALID_RULE", Message: err.Error()})
		case errors.Is(err, pricing.ErrRuleNotFound):
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	return c.JSON(rule)
}

// DeleteRule removes a price rule
func (h *PricingHandler) DeleteRule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_ID", Message: "invalid rule id"})
	}

	if err := h.svc.DeleteRule(c.Context(), id); err != nil {
		if errors.Is(err, pricing.ErrRuleNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Quote prices a service at the given priority:
// GET /quote/:serviceID?priority=after_hours&mode=flat&tax_percent=8.25
func (h *PricingHandler) Quote(c *fiber.Ctx) error {
	serviceID, err := uuid.Parse(c.Params("serviceID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_ID", Message: "invalid service id"})
	}

	priority := pricing.Priority(c.Query("priority", string(pricing.PriorityNormal)))
	mode := pricing.MarkupMode(c.Query("mode", string(pricing.MarkupModeTiered)))

	taxPercent := 0.0
	if raw := c.Query("tax_percent"); raw != "" {
		taxPercent, err = strconv.ParseFloat(raw, 64)
		if err != nil || taxPercent < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_TAX", Message: "invalid tax_percent"})
		}
	}

	quote, err := h.catalog.DisplayPrice(c.Context(), serviceID, priority, mode)
	if err != nil {
		h.logger.Error("quote failed", slog.String("service_id", serviceID.String()), slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "QUOTE_FAILED", Message: err.Error()})
	}

	if h.metrics != nil {
		h.metrics.QuotesTotal.WithLabelValues(string(quote.Source)).Inc()
	}
	return c.JSON(QuoteResponse{
		Quote:   quote,
		Display: renderBreakdown(quote, taxPercent),
	})
}

func isValidationError(err error) bool {
	return errors.Is(err, pricing.ErrTierOverlap) ||
		errors.Is(err, pricing.ErrTierOrder) ||
		errors.Is(err, pricing.ErrTierBounds) ||
		errors.Is(err, pricing.ErrMultiplierTooLow) ||
		errors.Is(err, pricing.ErrNegativeRate)
}
