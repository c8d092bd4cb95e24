package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Validation errors returned when saving a rule
var (
	ErrTierOverlap      = errors.New("markup tiers overlap")
	ErrTierOrder        = errors.New("markup tiers out of order")
	ErrTierBounds       = errors.New("markup tier max must exceed min")
	ErrMultiplierTooLow = errors.New("priority multiplier must be at least 1")
	ErrNegativeRate     = errors.New("base rate must not be negative")
)

// Service handles price rule management and quoting
type Service struct {
	repo   *Repository
	engine *Engine
	logger *slog.Logger
}

// NewService creates a new pricing service
func NewService(repo *Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		engine: NewEngine(),
		logger: logger,
	}
}

// CreateRule validates and persists a new price rule
func (s *Service) CreateRule(ctx context.Context, rule *PriceRule) error {
	if err := ValidateRule(rule); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return err
	}

	s.logger.Info("price rule created",
		slog.String("rule_id", rule.ID.String()),
		slog.String("name", rule.Name),
		slog.Int("tiers", len(rule.MarkupTiers)),
	)
	return nil
}

// UpdateRule validates and rewrites an existing rule
func (s *Service) UpdateRule(ctx context.Context, rule *PriceRule) error {
	if err := ValidateRule(rule); err != nil {
		return err
	}
	return s.repo.Update(ctx, rule)
}

// DeleteRule removes a rule
func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// GetRule retrieves a rule by id
func (s *Service) GetRule(ctx context.Context, id uuid.UUID) (*PriceRule, error) {
	return s.repo.GetByID(ctx, id)
}

// ListRules retrieves every rule
func (s *Service) ListRules(ctx context.Context) ([]*PriceRule, error) {
	return s.repo.ListAll(ctx)
}

// QuoteService prices a service snapshot against the active rule set
func (s *Service) QuoteService(ctx context.Context, svc ServiceSnapshot, priority Priority, mode MarkupMode) (Quote, error) {
	rules, err := s.repo.ListActive(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to load active rules: %w", err)
	}
	return s.engine.Price(svc, rules, priority, mode), nil
}

// ValidateRule rejects rules that would produce ill-defined prices. Tier
// evaluation at quote time stays first-match-wins, but overlapping or
// unsorted tiers are refused here so saved rules never depend on list order.
func ValidateRule(rule *PriceRule) error {
	if rule.BaseRate.IsNegative() {
		return ErrNegativeRate
	}

	one := decimal.NewFromInt(1)
	if rule.AfterHoursMultiplier.LessThan(one) || rule.EmergencyMultiplier.LessThan(one) {
		return ErrMultiplierTooLow
	}

	return validateTiers(rule.MarkupTiers)
}

func validateTiers(tiers []MarkupTier) error {
	for i, tier := range tiers {
		if tier.Max != nil && !tier.Max.GreaterThan(tier.Min) {
			return fmt.Errorf("%w: tier %d", ErrTierBounds, i+1)
		}
		if i == 0 {
			continue
		}

		prev := tiers[i-1]
		if prev.Max == nil {
			// An open-ended tier swallows everything above it
			return fmt.Errorf("%w: tier %d follows an open-ended tier", ErrTierOverlap, i+1)
		}
		if tier.Min.LessThan(prev.Min) {
			return fmt.Errorf("%w: tier %d", ErrTierOrder, i+1)
		}
		if tier.Min.LessThan(*prev.Max) {
			return fmt.Errorf("%w: tiers %d and %d", ErrTierOverlap, i, i+1)
		}
	}
	return nil
}
