package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MarkupMode selects which material markup path a quote uses. The business
// definition of material markup has two coexisting readings (banded by
// material cost vs a single flat percent); both are kept as named paths and
// the caller chooses.
type MarkupMode string

const (
	MarkupModeTiered MarkupMode = "tiered"
	MarkupModeFlat   MarkupMode = "flat"
)

// ServiceSnapshot is the immutable view of a catalog service the engine
// prices. Callers must not mutate it mid-computation; the engine only reads.
type ServiceSnapshot struct {
	ID                uuid.UUID
	Categories        []uuid.UUID
	Hours             decimal.Decimal
	StaticPrice       decimal.Decimal
	UseDynamicPricing bool
	MaterialCosts     []decimal.Decimal // costs of linked materials
}

// QuoteSource records which pricing path produced the total
type QuoteSource string

const (
	QuoteSourceRule   QuoteSource = "rule"
	QuoteSourceStatic QuoteSource = "static"
)

// Quote is a fully broken-down computed price
type Quote struct {
	Source        QuoteSource
	RuleID        *uuid.UUID
	Priority      Priority
	EffectiveRate decimal.Decimal
	LaborCost     decimal.Decimal
	LaborMarkup   decimal.Decimal
	MaterialsCost decimal.Decimal
	MarkupPercent decimal.Decimal
	MarkupAmount  decimal.Decimal
	Total         decimal.Decimal
}

// Engine resolves the applicable price rule for a service and computes its
// price. The engine is a pure function over the snapshot and rule set; it
// holds no state and never mutates its inputs.
type Engine struct{}

// NewEngine creates a price resolution engine
func NewEngine() *Engine {
	return &Engine{}
}

// Resolve picks the applicable rule for a service, first match wins:
// explicit service assignment beats category assignment, inactive rules are
// never consulted. Returns nil when no rule applies.
func (e *Engine) Resolve(svc ServiceSnapshot, rules []*PriceRule) *PriceRule {
	for _, rule := range rules {
		if rule.Active && rule.AppliesToService(svc.ID) {
			return rule
		}
	}
	for _, rule := range rules {
		if rule.Active && rule.AppliesToCategories(svc.Categories) {
			return rule
		}
	}
	return nil
}

// Price computes the displayed price of a service. Services with dynamic
// pricing disabled, and services no rule applies to, fall back to their
// static price.
func (e *Engine) Price(svc ServiceSnapshot, rules []*PriceRule, priority Priority, mode MarkupMode) Quote {
	if !svc.UseDynamicPricing {
		return staticQuote(svc, priority)
	}

	rule := e.Resolve(svc, rules)
	if rule == nil {
		return staticQuote(svc, priority)
	}
	return e.PriceWithRule(svc, rule, priority, mode)
}

// PriceWithRule computes the price of a service under an already-resolved rule
func (e *Engine) PriceWithRule(svc ServiceSnapshot, rule *PriceRule, priority Priority, mode MarkupMode) Quote {
	ruleID := rule.ID
	effectiveRate := nonNegative(rule.BaseRate).Mul(priorityMultiplier(rule, priority))
	laborCost := effectiveRate.Mul(nonNegative(svc.Hours))
	laborMarkup := percentOf(laborCost, rule.LaborMarkup)
	materials := materialsCost(svc)

	var markupPercent decimal.Decimal
	switch mode {
	case MarkupModeFlat:
		markupPercent = FlatMaterialMarkup(rule)
	default:
		markupPercent = TieredMaterialMarkup(rule.MarkupTiers, materials)
	}
	markupAmount := percentOf(materials, markupPercent)

	return Quote{
		Source:        QuoteSourceRule,
		RuleID:        &ruleID,
		Priority:      priority,
		EffectiveRate: effectiveRate,
		LaborCost:     laborCost,
		LaborMarkup:   laborMarkup,
		MaterialsCost: materials,
		MarkupPercent: markupPercent,
		MarkupAmount:  markupAmount,
		Total:         laborCost.Add(laborMarkup).Add(materials).Add(markupAmount),
	}
}

// TieredMaterialMarkup scans tiers in list order and returns the percent of
// the first tier whose [min, max) interval contains the cost; the open-ended
// top tier matches any cost at or above its min. Tiers are not required to be
// sorted or disjoint, so overlaps resolve in favor of the earlier tier.
// Returns zero when no tier matches.
func TieredMaterialMarkup(tiers []MarkupTier, cost decimal.Decimal) decimal.Decimal {
	for _, tier := range tiers {
		if tier.Contains(cost) {
			return nonNegative(tier.Percent)
		}
	}
	return decimal.Zero
}

// FlatMaterialMarkup returns the rule's single flat material markup percent
func FlatMaterialMarkup(rule *PriceRule) decimal.Decimal {
	return nonNegative(rule.MaterialMarkup)
}

func staticQuote(svc ServiceSnapshot, priority Priority) Quote {
	return Quote{
		Source:   QuoteSourceStatic,
		Priority: priority,
		Total:    nonNegative(svc.StaticPrice),
	}
}

func priorityMultiplier(rule *PriceRule, priority Priority) decimal.Decimal {
	var m decimal.Decimal
	switch priority {
	case PriorityAfterHours:
		m = rule.AfterHoursMultiplier
	case PriorityEmergency:
		m = rule.EmergencyMultiplier
	default:
		return decimal.NewFromInt(1)
	}
	// Multipliers below 1 are rejected at save time; an unset multiplier on a
	// legacy row still reads as 1 rather than zeroing the rate.
	if m.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(1)
	}
	return m
}

func materialsCost(svc ServiceSnapshot) decimal.Decimal {
	total := decimal.Zero
	for _, cost := range svc.MaterialCosts {
		total = total.Add(nonNegative(cost))
	}
	return total
}

func percentOf(base, percent decimal.Decimal) decimal.Decimal {
	return base.Mul(nonNegative(percent)).Div(decimal.NewFromInt(100))
}

// nonNegative clamps negative inputs to zero so computed totals stay
// well-defined when source data is malformed
func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
