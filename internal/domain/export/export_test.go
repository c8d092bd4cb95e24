package export

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	catalogrepo "github.com/FACorreiaa/pricebook-admin/internal/domain/catalog/repository"
	categoryrepo "github.com/FACorreiaa/pricebook-admin/internal/domain/category/repository"
	"github.com/FACorreiaa/pricebook-admin/pkg/metrics"
)

func testSnapshot() *Snapshot {
	catID := uuid.New()
	return &Snapshot{
		Services: []*catalogrepo.Service{
			{
				ID:          uuid.New(),
				Name:        "Tankless Install",
				Code:        "PLB-100",
				Hours:       decimal.NewFromInt(4),
				StaticPrice: decimal.NewFromInt(1200),
				Categories:  []uuid.UUID{catID},
				Taxable:     true,
				Active:      true,
			},
		},
		Materials: []*catalogrepo.Material{
			{
				ID:     uuid.New(),
				Name:   "Anode Rod",
				Code:   "MAT-042",
				Cost:   decimal.NewFromFloat(35.5),
				Active: true,
			},
		},
		Equipment: []*catalogrepo.Equipment{
			{
				ID:     uuid.New(),
				Name:   "Pipe Camera",
				Code:   "EQ-007",
				Cost:   decimal.NewFromInt(600),
				Price:  decimal.NewFromInt(900),
				Active: true,
			},
		},
		Categories: []*categoryrepo.Category{
			{
				ID:    catID,
				Name:  "Water Heaters",
				Path:  []string{"Plumbing", "Water Heaters"},
				Level: 2,
			},
		},
	}
}

func newTestExporter() *Exporter {
	return NewExporter(metrics.New(prometheus.NewRegistry()), slog.New(slog.DiscardHandler))
}

func TestExporter_WriteXLSX(t *testing.T) {
	e := newTestExporter()

	data, err := e.WriteXLSX(testSnapshot())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Services", "Materials", "Equipment"}, f.GetSheetList())

	rows, err := f.GetRows("Services")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, "Tankless Install", rows[1][0])
	assert.Equal(t, "1200.00", rows[1][5])
	// category path round-trips into the level columns
	assert.Equal(t, "Plumbing", rows[1][8])
	assert.Equal(t, "Water Heaters", rows[1][9])

	matRows, err := f.GetRows("Materials")
	require.NoError(t, err)
	require.Len(t, matRows, 2)
	assert.Equal(t, "Anode Rod", matRows[1][0])
	assert.Equal(t, "35.50", matRows[1][3])
}

func TestExporter_WriteServicesCSV(t *testing.T) {
	e := newTestExporter()

	data, err := e.WriteServicesCSV(testSnapshot())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Category 1")
	assert.Contains(t, lines[1], "Tankless Install")
	assert.Contains(t, lines[1], "Plumbing")
}

func TestExporter_WriteMaterialsCSV(t *testing.T) {
	e := newTestExporter()

	data, err := e.WriteMaterialsCSV(testSnapshot())
	require.NoError(t, err)
	assert.Contains(t, string(data), "Anode Rod")
	assert.Contains(t, string(data), "35.50")
}

func TestExporter_EmptySnapshot(t *testing.T) {
	e := newTestExporter()

	data, err := e.WriteXLSX(&Snapshot{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Services")
	require.NoError(t, err)
	assert.Len(t, rows, 1) // header only
}
