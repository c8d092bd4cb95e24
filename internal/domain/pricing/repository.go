// Package pricing implements rule-based dynamic pricing for catalog services:
// rule resolution, priority multipliers, and tiered or flat material markups.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Priority is the pricing context a quote is requested under
type Priority string

const (
	PriorityNormal     Priority = "normal"
	PriorityAfterHours Priority = "after_hours"
	PriorityEmergency  Priority = "emergency"
)

// MarkupTier is one cost band of a tiered markup schedule. Max nil denotes
// the open-ended top tier. Tiers are evaluated in list order and the first
// tier whose [Min, Max) interval contains the queried cost wins.
type MarkupTier struct {
	Min     decimal.Decimal  `json:"min"`
	Max     *decimal.Decimal `json:"max"`
	Percent decimal.Decimal  `json:"percent"`
}

// Contains reports whether cost falls inside [Min, Max)
func (t MarkupTier) Contains(cost decimal.Decimal) bool {
	if cost.LessThan(t.Min) {
		return false
	}
	if t.Max == nil {
		return true
	}
	return cost.LessThan(*t.Max)
}

// PriceRule is one dynamic-pricing rule. Explicit service assignment takes
// precedence over category assignment during resolution.
type PriceRule struct {
	ID                   uuid.UUID
	Name                 string
	BaseRate             decimal.Decimal // currency per hour
	AfterHoursMultiplier decimal.Decimal // >= 1
	EmergencyMultiplier  decimal.Decimal // >= 1
	MaterialMarkup       decimal.Decimal // flat percent
	LaborMarkup          decimal.Decimal // flat percent
	MarkupTiers          []MarkupTier
	AssignedCategories   []uuid.UUID
	AssignedServices     []uuid.UUID
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// AppliesToService reports whether the rule explicitly assigns the service
func (r *PriceRule) AppliesToService(serviceID uuid.UUID) bool {
	for _, id := range r.AssignedServices {
		if id == serviceID {
			return true
		}
	}
	return false
}

// AppliesToCategories reports whether the rule's categories intersect the given set
func (r *PriceRule) AppliesToCategories(categories []uuid.UUID) bool {
	for _, assigned := range r.AssignedCategories {
		for _, c := range categories {
			if assigned == c {
				return true
			}
		}
	}
	return false
}

// ErrRuleNotFound is returned when a price rule does not exist
var ErrRuleNotFound = errors.New("price rule not found")

// DB is the subset of pgxpool.Pool the repository needs; satisfied by
// pgxmock in tests
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository handles database operations for price rules
type Repository struct {
	db DB
}

// NewRepository creates a new pricing repository
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new price rule
func (r *Repository) Create(ctx context.Context, rule *PriceRule) error {
	tiers, err := json.Marshal(rule.MarkupTiers)
	if err != nil {
		return fmt.Errorf("failed to encode markup tiers: %w", err)
	}

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}

	query := `
		INSERT INTO price_rules (id, name, base_rate, after_hours_multiplier, emergency_multiplier,
			material_markup, labor_markup, markup_tiers, assigned_categories, assigned_services, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	err = r.db.QueryRow(ctx, query,
		rule.ID, rule.Name, rule.BaseRate, rule.AfterHoursMultiplier, rule.EmergencyMultiplier,
		rule.MaterialMarkup, rule.LaborMarkup, tiers, rule.AssignedCategories, rule.AssignedServices, rule.Active,
	).Scan(&rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create price rule: %w", err)
	}
	return nil
}

// Update rewrites a price rule
func (r *Repository) Update(ctx context.Context, rule *PriceRule) error {
	tiers, err := json.Marshal(rule.MarkupTiers)
	if err != nil {
		return fmt.Errorf("failed to encode markup tiers: %w", err)
	}

	query := `
		UPDATE price_rules
		SET name = $2, base_rate = $3, after_hours_multiplier = $4, emergency_multiplier = $5,
			material_markup = $6, labor_markup = $7, markup_tiers = $8,
			assigned_categories = $9, assigned_services = $10, active = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err = r.db.QueryRow(ctx, query,
		rule.ID, rule.Name, rule.BaseRate, rule.AfterHoursMultiplier, rule.EmergencyMultiplier,
		rule.MaterialMarkup, rule.LaborMarkup, tiers, rule.AssignedCategories, rule.AssignedServices, rule.Active,
	).Scan(&rule.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRuleNotFound
		}
		return fmt.Errorf("failed to update price rule: %w", err)
	}
	return nil
}

// Delete removes a price rule
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM price_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete price rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// GetByID retrieves a single rule
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*PriceRule, error) {
	rows, err := r.db.Query(ctx, selectRules+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get price rule: %w", err)
	}
	defer rows.Close()

	rules, err := scanRules(rows)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, ErrRuleNotFound
	}
	return rules[0], nil
}

// ListActive retrieves all active rules in creation order. Resolution is
// first-match-wins, so the order returned here is the order consulted.
func (r *Repository) ListActive(ctx context.Context) ([]*PriceRule, error) {
	rows, err := r.db.Query(ctx, selectRules+` WHERE active ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list price rules: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

// ListAll retrieves every rule in creation order
func (r *Repository) ListAll(ctx context.Context) ([]*PriceRule, error) {
	rows, err := r.db.Query(ctx, selectRules+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list price rules: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

const selectRules = `
	SELECT id, name, base_rate, after_hours_multiplier, emergency_multiplier,
		material_markup, labor_markup, markup_tiers, assigned_categories, assigned_services,
		active, created_at, updated_at
	FROM price_rules`

func scanRules(rows pgx.Rows) ([]*PriceRule, error) {
	var rules []*PriceRule
	for rows.Next() {
		rule := &PriceRule{}
		var tiers []byte
		err := rows.Scan(
			&rule.ID, &rule.Name, &rule.BaseRate, &rule.AfterHoursMultiplier, &rule.EmergencyMultiplier,
			&rule.MaterialMarkup, &rule.LaborMarkup, &tiers, &rule.AssignedCategories, &rule.AssignedServices,
			&rule.Active, &rule.CreatedAt, &rule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price rule: %w", err)
		}
		if len(tiers) > 0 {
			if err := json.Unmarshal(tiers, &rule.MarkupTiers); err != nil {
				return nil, fmt.Errorf("failed to decode markup tiers: %w", err)
			}
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read price rules: %w", err)
	}
	return rules, nil
}
