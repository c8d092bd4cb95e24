// Package export writes the catalog back out as spreadsheet files. The
// column layout mirrors what the importer accepts so an exported file can be
// re-imported unchanged.
package export

import (
	"log/slog"

	"github.com/google/uuid"

	catalogrepo "github.com/FACorreiaa/pricebook-admin/internal/domain/catalog/repository"
	categoryrepo "github.com/FACorreiaa/pricebook-admin/internal/domain/category/repository"
	"github.com/FACorreiaa/pricebook-admin/pkg/metrics"
)

// ServiceRow is one exported service line
type ServiceRow struct {
	Name        string `csv:"Name"`
	Description string `csv:"Description"`
	Code        string `csv:"Code"`
	Unit        string `csv:"Unit"`
	Hours       string `csv:"Hours"`
	Price       string `csv:"Price"`
	Taxable     string `csv:"Taxable"`
	Active      string `csv:"Active"`
	Category1   string `csv:"Category 1"`
	Category2   string `csv:"Category 2"`
	Category3   string `csv:"Category 3"`
	Category4   string `csv:"Category 4"`
	Category5   string `csv:"Category 5"`
}

// MaterialRow is one exported material line
type MaterialRow struct {
	Name      string `csv:"Name"`
	Code      string `csv:"Code"`
	Unit      string `csv:"Unit"`
	Cost      string `csv:"Cost"`
	Taxable   string `csv:"Taxable"`
	Active    string `csv:"Active"`
	Category1 string `csv:"Category 1"`
	Category2 string `csv:"Category 2"`
	Category3 string `csv:"Category 3"`
	Category4 string `csv:"Category 4"`
	Category5 string `csv:"Category 5"`
}

// Snapshot is everything an export run needs, loaded up front
type Snapshot struct {
	Services   []*catalogrepo.Service
	Materials  []*catalogrepo.Material
	Equipment  []*catalogrepo.Equipment
	Categories []*categoryrepo.Category
}

// Exporter renders catalog snapshots into files
type Exporter struct {
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewExporter creates an exporter
func NewExporter(m *metrics.Metrics, logger *slog.Logger) *Exporter {
	return &Exporter{metrics: m, logger: logger}
}

func (e *Exporter) countJob(format, status string) {
	if e.metrics == nil {
		return
	}
	e.metrics.ExportJobsTotal.WithLabelValues(format, status).Inc()
}

// categoryPaths builds an id to path lookup for row rendering
func categoryPaths(categories []*categoryrepo.Category) map[uuid.UUID][]string {
	paths := make(map[uuid.UUID][]string, len(categories))
	for _, c := range categories {
		paths[c.ID] = c.Path
	}
	return paths
}

// firstPath returns the path of the item's first category, or nil
func firstPath(ids []uuid.UUID, paths map[uuid.UUID][]string) []string {
	if len(ids) == 0 {
		return nil
	}
	return paths[ids[0]]
}

func pathColumn(path []string, level int) string {
	if level < len(path) {
		return path[level]
	}
	return ""
}

func boolCell(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func serviceRow(svc *catalogrepo.Service, paths map[uuid.UUID][]string) ServiceRow {
	path := firstPath(svc.Categories, paths)
	return ServiceRow{
		Name:        svc.Name,
		Description: svc.Description,
		Code:        svc.Code,
		Unit:        svc.Unit,
		Hours:       svc.Hours.String(),
		Price:       svc.StaticPrice.StringFixed(2),
		Taxable:     boolCell(svc.Taxable),
		Active:      boolCell(svc.Active),
		Category1:   pathColumn(path, 0),
		Category2:   pathColumn(path, 1),
		Category3:   pathColumn(path, 2),
		Category4:   pathColumn(path, 3),
		Category5:   pathColumn(path, 4),
	}
}

func materialRow(mat *catalogrepo.Material, paths map[uuid.UUID][]string) MaterialRow {
	path := firstPath(mat.Categories, paths)
	return MaterialRow{
		Name:      mat.Name,
		Code:      mat.Code,
		Unit:      mat.Unit,
		Cost:      mat.Cost.StringFixed(2),
		Taxable:   boolCell(mat.Taxable),
		Active:    boolCell(mat.Active),
		Category1: pathColumn(path, 0),
		Category2: pathColumn(path, 1),
		Category3: pathColumn(path, 2),
		Category4: pathColumn(path, 3),
		Category5: pathColumn(path, 4),
	}
}
