// Package service provides the import orchestration logic: parsed workbooks
// flow through field mapping and hierarchy building into category and catalog
// upserts.
package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogrepo "github.com/FACorreiaa/pricebook-admin/internal/domain/catalog/repository"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/category/hierarchy"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/category/matcher"
	categoryrepo "github.com/FACorreiaa/pricebook-admin/internal/domain/category/repository"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/import/mapper"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/import/normalizer"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/import/parser"
	"github.com/FACorreiaa/pricebook-admin/pkg/metrics"
)

// xlsxMagic is the ZIP local file header every xlsx starts with
var xlsxMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// SheetSummary describes one sheet of an analyzed upload
type SheetSummary struct {
	Name      string
	Headers   []string
	RowCount  int
	Suggested []mapper.Mapping
}

// AnalyzeResult contains the result of analyzing an uploaded file
type AnalyzeResult struct {
	Sheets         []SheetSummary
	SuggestedSheet string
	Unmapped       []string // headers of the suggested sheet with no field match
	// Suggestions carries ranked fuzzy candidates per unmapped header so the
	// mapping UI can offer near-misses.
	Suggestions map[string][]mapper.Suggestion
}

// ImportKind selects which catalog table imported rows land in
type ImportKind string

const (
	ImportKindService  ImportKind = "service"
	ImportKindMaterial ImportKind = "material"
)

// ItemImportOptions configures a catalog item import
type ItemImportOptions struct {
	SheetName string
	Kind      ImportKind
	// Mappings overrides the automatic header assignment; keys are headers
	// as they appear in the sheet.
	Mappings map[string]mapper.Field
}

// HierarchyImportOptions configures a category sheet import
type HierarchyImportOptions struct {
	SheetName   string
	Type        categoryrepo.CategoryType
	Mode        hierarchy.Mode
	HasIDColumn bool
}

// Result contains the outcome of an import operation
type Result struct {
	RowsTotal         int
	RowsImported      int
	RowsSkipped       int
	RowsFailed        int
	CategoriesCreated int
	Errors            []hierarchy.RowError
}

// CategoryMatcher suggests categories for item names that carry no category
// columns of their own
type CategoryMatcher interface {
	Suggest(itemName string) *matcher.Suggestion
}

// ImportService orchestrates file analysis and import operations
type ImportService struct {
	categories categoryrepo.CategoryRepository
	catalog    catalogrepo.CatalogRepository
	matcher    CategoryMatcher // optional, nil disables keyword suggestions
	sanitizer  *normalizer.ItemSanitizer
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

const recordBatchSize = 500

type parseJob struct {
	rowNum int
	row    []string
}

type parseResult struct {
	rowNum int
	record mapper.Record
}

// NewImportService creates a new import service
func NewImportService(categories categoryrepo.CategoryRepository, catalog catalogrepo.CatalogRepository, m *metrics.Metrics, logger *slog.Logger) *ImportService {
	return &ImportService{
		categories: categories,
		catalog:    catalog,
		sanitizer:  normalizer.NewItemSanitizer(),
		metrics:    m,
		logger:     logger,
	}
}

// WithCategoryMatcher adds keyword-based category suggestions for rows whose
// sheet has no category columns
func (s *ImportService) WithCategoryMatcher(m CategoryMatcher) *ImportService {
	s.matcher = m
	return s
}

// Analyze parses an uploaded file and suggests a sheet and field mapping.
// Both xlsx workbooks and single-sheet CSV files are accepted.
func (s *ImportService) Analyze(_ context.Context, fileName string, data []byte) (*AnalyzeResult, error) {
	wb, err := s.parse(fileName, data)
	if err != nil {
		return nil, err
	}

	result := &AnalyzeResult{}
	if suggested := wb.SuggestedSheet(); suggested != nil {
		result.SuggestedSheet = suggested.Name
	}

	for _, sheet := range wb.Sheets {
		proposed := mapper.AutoMap(sheet.Headers)
		result.Sheets = append(result.Sheets, SheetSummary{
			Name:      sheet.Name,
			Headers:   sheet.Headers,
			RowCount:  len(sheet.Rows),
			Suggested: proposed,
		})

		if sheet.Name == result.SuggestedSheet {
			result.Unmapped = mapper.NewSession(proposed).Unmapped()
			for _, header := range result.Unmapped {
				if candidates := mapper.Suggest(header, 3); len(candidates) > 0 {
					if result.Suggestions == nil {
						result.Suggestions = make(map[string][]mapper.Suggestion)
					}
					result.Suggestions[header] = candidates
				}
			}
		}
	}
	return result, nil
}

// ImportItems imports one sheet of catalog items. Category columns become the
// category tree for the rows (created on the fly); rows without category data
// fall back to keyword suggestions when a matcher is configured.
func (s *ImportService) ImportItems(ctx context.Context, fileName string, data []byte, opts ItemImportOptions) (*Result, error) {
	start := time.Now()

	wb, err := s.parse(fileName, data)
	if err != nil {
		return nil, err
	}
	sheet, ok := wb.Sheet(opts.SheetName)
	if !ok {
		return nil, fmt.Errorf("sheet %q not found", opts.SheetName)
	}

	session := mapper.NewSession(mapper.AutoMap(sheet.Headers))
	for header, field := range opts.Mappings {
		if err := session.Assign(header, field); err != nil {
			return nil, fmt.Errorf("invalid mapping for %q: %w", header, err)
		}
	}
	columns := session.ColumnIndex()

	result := &Result{RowsTotal: len(sheet.Rows)}
	records := s.parseRecords(sheet.Rows, columns, result)

	categoryIDs, created, err := s.upsertRecordCategories(ctx, records, categoryrepo.CategoryType(opts.Kind))
	if err != nil {
		s.countJob("failed")
		return nil, fmt.Errorf("failed to upsert categories: %w", err)
	}
	result.CategoriesCreated = created

	switch opts.Kind {
	case ImportKindMaterial:
		err = s.upsertMaterials(ctx, records, categoryIDs)
	default:
		err = s.upsertServices(ctx, records, categoryIDs)
	}
	if err != nil {
		s.countJob("failed")
		return nil, fmt.Errorf("failed to persist items: %w", err)
	}
	result.RowsImported = len(records)

	s.observeImport(result, start)
	s.logger.Info("item import finished",
		slog.String("sheet", sheet.Name),
		slog.String("kind", string(opts.Kind)),
		slog.Int("rows_total", result.RowsTotal),
		slog.Int("rows_imported", result.RowsImported),
		slog.Int("rows_failed", result.RowsFailed),
		slog.Int("categories_created", result.CategoriesCreated),
	)
	return result, nil
}

// ImportHierarchy imports a category sheet through the hierarchy builder and
// persists the resulting tree
func (s *ImportService) ImportHierarchy(ctx context.Context, fileName string, data []byte, opts HierarchyImportOptions) (*Result, error) {
	start := time.Now()

	wb, err := s.parse(fileName, data)
	if err != nil {
		return nil, err
	}
	sheet, ok := wb.Sheet(opts.SheetName)
	if !ok {
		return nil, fmt.Errorf("sheet %q not found", opts.SheetName)
	}

	builder := hierarchy.NewBuilder(hierarchy.Config{
		Mode:        opts.Mode,
		Type:        opts.Type,
		HasIDColumn: opts.HasIDColumn,
	})
	built := builder.Build(sheet.Rows)

	result := &Result{
		RowsTotal:   len(sheet.Rows),
		RowsSkipped: built.SkippedRows,
		RowsFailed:  len(built.Errors),
		Errors:      built.Errors,
	}

	created, err := s.persistHierarchy(ctx, built.Nodes, opts.Type)
	if err != nil {
		s.countJob("failed")
		return nil, fmt.Errorf("failed to persist hierarchy: %w", err)
	}
	result.CategoriesCreated = created
	result.RowsImported = len(built.Nodes)

	s.observeImport(result, start)
	s.logger.Info("hierarchy import finished",
		slog.String("sheet", sheet.Name),
		slog.String("type", string(opts.Type)),
		slog.Int("nodes", len(built.Nodes)),
		slog.Int("rows_skipped", built.SkippedRows),
		slog.Int("rows_failed", len(built.Errors)),
	)
	return result, nil
}

func (s *ImportService) parse(fileName string, data []byte) (*parser.Workbook, error) {
	if bytes.HasPrefix(data, xlsxMagic) || strings.HasSuffix(strings.ToLower(fileName), ".xlsx") {
		return parser.ParseWorkbook(bytes.NewReader(data))
	}
	sheet, err := parser.ParseCSV(bytes.NewReader(data), 0)
	if err != nil {
		return nil, err
	}
	sheet.Name = sheetNameFromFile(fileName)
	return &parser.Workbook{Sheets: []parser.Sheet{*sheet}}, nil
}

// parseRecords fans row parsing out to a small worker pool and collects
// records in row order. Blank rows are skipped, broken rows recorded.
func (s *ImportService) parseRecords(rows [][]string, columns map[mapper.Field]int, result *Result) []mapper.Record {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}

	jobs := make(chan parseJob)
	results := make(chan parseResult)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- parseResult{
					rowNum: job.rowNum,
					record: mapper.BuildRecord(job.row, columns, job.rowNum),
				}
			}
		}()
	}

	go func() {
		for i, row := range rows {
			jobs <- parseJob{rowNum: i + 2, row: row} // +2: 1-based plus header
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var records []mapper.Record
	for res := range results {
		if res.record.IsBlank() {
			result.RowsSkipped++
			continue
		}
		if res.record.Name == "" {
			result.RowsFailed++
			result.Errors = append(result.Errors, hierarchy.RowError{
				Row:     res.rowNum,
				Message: "row has no name",
			})
			continue
		}
		res.record.Name = s.sanitizer.Sanitize(res.record.Name).CleanName
		records = append(records, res.record)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Row < records[j].Row })
	return records
}

// upsertRecordCategories creates every category path referenced by the
// records and returns a path-key to id lookup. SourceKey keeps re-imports
// idempotent.
func (s *ImportService) upsertRecordCategories(ctx context.Context, records []mapper.Record, categoryType categoryrepo.CategoryType) (map[string]uuid.UUID, int, error) {
	paths := make(map[string][]string)

	for i := range records {
		if len(records[i].Categories) == 0 && s.matcher != nil {
			if sg := s.matcher.Suggest(records[i].Name); sg != nil {
				records[i].Categories = append([]string{}, sg.Path...)
			}
		}
		path := records[i].Categories
		for depth := 1; depth <= len(path); depth++ {
			prefix := path[:depth]
			key := pathKey(prefix)
			if _, seen := paths[key]; !seen {
				paths[key] = append([]string{}, prefix...)
			}
		}
	}
	if len(paths) == 0 {
		return map[string]uuid.UUID{}, 0, nil
	}

	existing, err := s.categories.ListByType(ctx, categoryType)
	if err != nil {
		return nil, 0, err
	}
	ids := make(map[string]uuid.UUID, len(existing))
	for _, c := range existing {
		ids[pathKey(c.Path)] = c.ID
	}

	// Shallow paths first so parent ids exist before children reference them
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return len(paths[keys[i]]) < len(paths[keys[j]])
	})

	var toCreate []*categoryrepo.Category
	created := 0
	for _, key := range keys {
		if _, ok := ids[key]; ok {
			continue
		}
		path := paths[key]
		c := &categoryrepo.Category{
			ID:        uuid.New(),
			Name:      path[len(path)-1],
			Type:      categoryType,
			Path:      path,
			Level:     len(path),
			SourceKey: key,
		}
		if len(path) > 1 {
			if parentID, ok := ids[pathKey(path[:len(path)-1])]; ok {
				pid := parentID
				c.ParentID = &pid
			}
		}
		ids[key] = c.ID
		toCreate = append(toCreate, c)
		created++
	}

	if len(toCreate) > 0 {
		if err := s.categories.BulkUpsert(ctx, toCreate); err != nil {
			return nil, 0, err
		}
	}
	return ids, created, nil
}

// persistHierarchy stores built nodes, resolving sheet-scoped ids to
// database uuids by path
func (s *ImportService) persistHierarchy(ctx context.Context, nodes []hierarchy.Node, categoryType categoryrepo.CategoryType) (int, error) {
	existing, err := s.categories.ListByType(ctx, categoryType)
	if err != nil {
		return 0, err
	}
	ids := make(map[string]uuid.UUID, len(existing))
	for _, c := range existing {
		ids[pathKey(c.Path)] = c.ID
	}

	created := 0
	var batch []*categoryrepo.Category
	for _, node := range nodes {
		key := pathKey(node.Path)
		id, exists := ids[key]
		if !exists {
			id = uuid.New()
			ids[key] = id
			created++
		}
		c := &categoryrepo.Category{
			ID:        id,
			Name:      node.Name,
			Type:      categoryType,
			Path:      node.Path,
			Level:     node.Level,
			SourceKey: key,
		}
		if len(node.Path) > 1 {
			if parentID, ok := ids[pathKey(node.Path[:len(node.Path)-1])]; ok {
				pid := parentID
				c.ParentID = &pid
			}
		}
		batch = append(batch, c)

		if len(batch) >= recordBatchSize {
			if err := s.categories.BulkUpsert(ctx, batch); err != nil {
				return created, err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := s.categories.BulkUpsert(ctx, batch); err != nil {
			return created, err
		}
	}
	return created, nil
}

func (s *ImportService) upsertServices(ctx context.Context, records []mapper.Record, categoryIDs map[string]uuid.UUID) error {
	services := make([]*catalogrepo.Service, 0, len(records))
	for i := range records {
		r := &records[i]
		svc := &catalogrepo.Service{
			ID:          uuid.New(),
			Name:        r.Name,
			Description: r.Description,
			Code:        r.Code,
			Unit:        r.Unit,
			Hours:       nonNegative(r.Hours),
			StaticPrice: nonNegative(r.Price),
			Taxable:     r.Taxable,
			Active:      r.Active,
			SourceKey:   recordSourceKey(r),
		}
		if id, ok := deepestCategory(r, categoryIDs); ok {
			svc.Categories = []uuid.UUID{id}
		}
		services = append(services, svc)
	}

	for start := 0; start < len(services); start += recordBatchSize {
		end := min(start+recordBatchSize, len(services))
		if err := s.catalog.BulkUpsertServices(ctx, services[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *ImportService) upsertMaterials(ctx context.Context, records []mapper.Record, categoryIDs map[string]uuid.UUID) error {
	materials := make([]*catalogrepo.Material, 0, len(records))
	for i := range records {
		r := &records[i]
		m := &catalogrepo.Material{
			ID:        uuid.New(),
			Name:      r.Name,
			Code:      r.Code,
			Unit:      r.Unit,
			Cost:      nonNegative(r.Cost),
			Taxable:   r.Taxable,
			Active:    r.Active,
			SourceKey: recordSourceKey(r),
		}
		if id, ok := deepestCategory(r, categoryIDs); ok {
			m.Categories = []uuid.UUID{id}
		}
		materials = append(materials, m)
	}

	for start := 0; start < len(materials); start += recordBatchSize {
		end := min(start+recordBatchSize, len(materials))
		if err := s.catalog.BulkUpsertMaterials(ctx, materials[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *ImportService) observeImport(result *Result, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ImportRowsTotal.WithLabelValues("imported").Add(float64(result.RowsImported))
	s.metrics.ImportRowsTotal.WithLabelValues("skipped").Add(float64(result.RowsSkipped))
	s.metrics.ImportRowsTotal.WithLabelValues("failed").Add(float64(result.RowsFailed))
	s.metrics.ImportJobsTotal.WithLabelValues("completed").Inc()
	s.metrics.ImportDuration.Observe(time.Since(start).Seconds())
}

func (s *ImportService) countJob(status string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ImportJobsTotal.WithLabelValues(status).Inc()
}

func deepestCategory(r *mapper.Record, ids map[string]uuid.UUID) (uuid.UUID, bool) {
	if len(r.Categories) == 0 {
		return uuid.Nil, false
	}
	id, ok := ids[pathKey(r.Categories)]
	return id, ok
}

// recordSourceKey identifies a row across re-imports: the item code when
// present, the name otherwise
func recordSourceKey(r *mapper.Record) string {
	if r.Code != "" {
		return strings.ToLower(r.Code)
	}
	return strings.ToLower(strings.TrimSpace(r.Name))
}

func pathKey(path []string) string {
	return strings.Join(path, " > ")
}

func sheetNameFromFile(fileName string) string {
	base := fileName
	if idx := strings.LastIndexAny(base, "/\\"); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	if base == "" {
		return "Sheet1"
	}
	return base
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
