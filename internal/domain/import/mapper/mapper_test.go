package mapper

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"lowercase and trim", "  Price  ", "price"},
		{"strips separators", "Unit_Of-Measure", "unitofmeasure"},
		{"strips service prefix", "Service Name", "name"},
		{"strips category prefix", "Category 2", "2"},
		{"strips embedded token", "servicecode", "code"},
		{"strips multiple tokens", "Service Category 1", "1"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.header))
		})
	}
}

func TestAutoMap(t *testing.T) {
	t.Run("exact match wins regardless of synonyms", func(t *testing.T) {
		// "Price" is also a synonym target; the exact rule must fire first
		result := AutoMap([]string{"PRICE"})
		assert.Equal(t, FieldPrice, result[0].Field)
	})

	t.Run("case-insensitive exact match", func(t *testing.T) {
		result := AutoMap([]string{"name", "NAME", "NaMe"})
		for _, m := range result {
			assert.Equal(t, FieldName, m.Field)
		}
	})

	t.Run("synonym table", func(t *testing.T) {
		tests := map[string]Field{
			"SKU":        FieldCode,
			"Item Code":  FieldCode,
			"Rate":       FieldPrice,
			"Unit Cost":  FieldCost,
			"UOM":        FieldUnit,
			"Enabled":    FieldActive,
			"LaborHours": FieldHours,
		}
		for header, want := range tests {
			result := AutoMap([]string{header})
			assert.Equal(t, want, result[0].Field, "header %q", header)
		}
	})

	t.Run("partial prefix match", func(t *testing.T) {
		result := AutoMap([]string{"Descr."})
		assert.Equal(t, FieldDescription, result[0].Field)
	})

	t.Run("category columns map by level", func(t *testing.T) {
		result := AutoMap([]string{"Category 1", "Category 2", "Category 3"})
		assert.Equal(t, FieldCategory1, result[0].Field)
		assert.Equal(t, FieldCategory2, result[1].Field)
		assert.Equal(t, FieldCategory3, result[2].Field)
	})

	t.Run("unmatched header maps to none", func(t *testing.T) {
		result := AutoMap([]string{"Warehouse Aisle"})
		assert.Equal(t, FieldNone, result[0].Field)
	})

	t.Run("headers are independent", func(t *testing.T) {
		// Two headers may legitimately propose the same destination;
		// conflict resolution belongs to the session
		result := AutoMap([]string{"SKU", "Item Code"})
		assert.Equal(t, FieldCode, result[0].Field)
		assert.Equal(t, FieldCode, result[1].Field)
	})
}

func TestSession_UniquenessConstraint(t *testing.T) {
	proposed := AutoMap([]string{"SKU", "Item Code", "Name"})
	s := NewSession(proposed)

	t.Run("first header keeps a contested field", func(t *testing.T) {
		assert.Equal(t, FieldCode, s.FieldFor("SKU"))
		assert.Equal(t, FieldNone, s.FieldFor("Item Code"))
	})

	t.Run("claimed field cannot be assigned elsewhere", func(t *testing.T) {
		err := s.Assign("Item Code", FieldCode)
		require.ErrorIs(t, err, ErrFieldClaimed)
	})

	t.Run("claimed field is excluded from other headers' options", func(t *testing.T) {
		assert.NotContains(t, s.Options("Item Code"), FieldCode)
		// The claiming header still sees its own field
		assert.Contains(t, s.Options("SKU"), FieldCode)
	})

	t.Run("clearing frees the field", func(t *testing.T) {
		s.Clear("SKU")
		require.NoError(t, s.Assign("Item Code", FieldCode))
		assert.Equal(t, FieldCode, s.FieldFor("Item Code"))
	})

	t.Run("reassignment frees the previous field", func(t *testing.T) {
		require.NoError(t, s.Assign("Item Code", FieldDescription))
		assert.Contains(t, s.Options("SKU"), FieldCode)
	})

	t.Run("unknown header errors", func(t *testing.T) {
		err := s.Assign("Nope", FieldPrice)
		require.ErrorIs(t, err, ErrUnknownHeader)
	})
}

func TestSession_Unmapped(t *testing.T) {
	s := NewSession(AutoMap([]string{"Name", "Warehouse Aisle", "Bin Location"}))
	assert.Equal(t, []string{"Warehouse Aisle", "Bin Location"}, s.Unmapped())
}

func TestSuggest(t *testing.T) {
	suggestions := Suggest("Pric", 3)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, FieldPrice, suggestions[0].Field)
}

func TestBuildRecord(t *testing.T) {
	s := NewSession(AutoMap([]string{"Name", "Price", "Cost", "Hours", "Taxable", "Category 1", "Category 2"}))
	columns := s.ColumnIndex()

	t.Run("typed conversion", func(t *testing.T) {
		rec := BuildRecord([]string{"Drain Cleaning", "$149.99", "32.50", "1.5", "yes", "Plumbing", "Drains"}, columns, 2)
		assert.Equal(t, "Drain Cleaning", rec.Name)
		assert.True(t, rec.Price.Equal(decimal.NewFromFloat(149.99)))
		assert.True(t, rec.Cost.Equal(decimal.NewFromFloat(32.5)))
		assert.True(t, rec.Hours.Equal(decimal.NewFromFloat(1.5)))
		assert.True(t, rec.Taxable)
		assert.True(t, rec.Active) // defaults to active when no column is mapped
		assert.Equal(t, []string{"Plumbing", "Drains"}, rec.Categories)
	})

	t.Run("negative and garbage amounts collapse to zero", func(t *testing.T) {
		rec := BuildRecord([]string{"Item", "-5.00", "n/a", "", "", "", ""}, columns, 3)
		assert.True(t, rec.Price.IsZero())
		assert.True(t, rec.Cost.IsZero())
	})

	t.Run("short rows are tolerated", func(t *testing.T) {
		rec := BuildRecord([]string{"Item"}, columns, 4)
		assert.Equal(t, "Item", rec.Name)
		assert.True(t, rec.Price.IsZero())
		assert.False(t, rec.IsBlank())
	})
}
