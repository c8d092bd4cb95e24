package pricing

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func validRule() *PriceRule {
	return &PriceRule{
		Name:                 "Standard Plumbing",
		BaseRate:             dec(100),
		AfterHoursMultiplier: dec(1.5),
		EmergencyMultiplier:  dec(2),
		MarkupTiers: []MarkupTier{
			{Min: dec(0), Max: decPtr(100), Percent: dec(25)},
			{Min: dec(100), Max: decPtr(500), Percent: dec(15)},
			{Min: dec(500), Max: nil, Percent: dec(10)},
		},
		Active: true,
	}
}

func TestValidateRule(t *testing.T) {
	t.Run("valid rule passes", func(t *testing.T) {
		require.NoError(t, ValidateRule(validRule()))
	})

	t.Run("negative base rate rejected", func(t *testing.T) {
		rule := validRule()
		rule.BaseRate = dec(-1)
		assert.ErrorIs(t, ValidateRule(rule), ErrNegativeRate)
	})

	t.Run("multiplier below one rejected", func(t *testing.T) {
		rule := validRule()
		rule.AfterHoursMultiplier = dec(0.5)
		assert.ErrorIs(t, ValidateRule(rule), ErrMultiplierTooLow)
	})

	t.Run("overlapping tiers rejected at save time", func(t *testing.T) {
		rule := validRule()
		rule.MarkupTiers = []MarkupTier{
			{Min: dec(0), Max: decPtr(200), Percent: dec(25)},
			{Min: dec(100), Max: decPtr(500), Percent: dec(15)},
		}
		assert.ErrorIs(t, ValidateRule(rule), ErrTierOverlap)
	})

	t.Run("tier after open-ended tier rejected", func(t *testing.T) {
		rule := validRule()
		rule.MarkupTiers = []MarkupTier{
			{Min: dec(0), Max: nil, Percent: dec(25)},
			{Min: dec(100), Max: decPtr(500), Percent: dec(15)},
		}
		assert.ErrorIs(t, ValidateRule(rule), ErrTierOverlap)
	})

	t.Run("unsorted tiers rejected", func(t *testing.T) {
		rule := validRule()
		rule.MarkupTiers = []MarkupTier{
			{Min: dec(500), Max: nil, Percent: dec(10)},
			{Min: dec(0), Max: decPtr(100), Percent: dec(25)},
		}
		assert.Error(t, ValidateRule(rule))
	})

	t.Run("tier max below min rejected", func(t *testing.T) {
		rule := validRule()
		rule.MarkupTiers = []MarkupTier{
			{Min: dec(100), Max: decPtr(50), Percent: dec(25)},
		}
		assert.ErrorIs(t, ValidateRule(rule), ErrTierBounds)
	})

	t.Run("no tiers is valid", func(t *testing.T) {
		rule := validRule()
		rule.MarkupTiers = nil
		require.NoError(t, ValidateRule(rule))
	})
}

func TestService_CreateRule(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := NewService(NewRepository(mock), testLogger())

	t.Run("invalid rule never reaches the database", func(t *testing.T) {
		rule := validRule()
		rule.BaseRate = dec(-10)
		err := svc.CreateRule(context.Background(), rule)
		assert.ErrorIs(t, err, ErrNegativeRate)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("valid rule is persisted", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("INSERT INTO price_rules").
			WithArgs(
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		rule := validRule()
		require.NoError(t, svc.CreateRule(context.Background(), rule))
		assert.NotEqual(t, uuid.Nil, rule.ID)
		assert.Equal(t, now, rule.CreatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestService_DeleteRule(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := NewService(NewRepository(mock), testLogger())

	t.Run("missing rule yields not found", func(t *testing.T) {
		id := uuid.New()
		mock.ExpectExec("DELETE FROM price_rules").
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := svc.DeleteRule(context.Background(), id)
		assert.ErrorIs(t, err, ErrRuleNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_ListActive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)

	id := uuid.New()
	now := time.Now()
	columns := []string{
		"id", "name", "base_rate", "after_hours_multiplier", "emergency_multiplier",
		"material_markup", "labor_markup", "markup_tiers", "assigned_categories", "assigned_services",
		"active", "created_at", "updated_at",
	}
	mock.ExpectQuery("SELECT (.+) FROM price_rules").
		WillReturnRows(pgxmock.NewRows(columns).AddRow(
			id, "Standard", dec(100), dec(1.5), dec(2),
			decimal.Zero, decimal.Zero, []byte(`[{"min":"0","max":"100","percent":"25"}]`),
			[]uuid.UUID{}, []uuid.UUID{}, true, now, now,
		))

	rules, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "Standard", rules[0].Name)
	require.Len(t, rules[0].MarkupTiers, 1)
	assert.True(t, rules[0].MarkupTiers[0].Percent.Equal(dec(25)))
	require.NoError(t, mock.ExpectationsWereMet())
}
