// Package search provides full-text search over the catalog using Bleve.
// Services, materials, and equipment are indexed as one document type so a
// single query covers the whole pricebook.
package search

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/google/uuid"

	"github.com/FACorreiaa/pricebook-admin/internal/domain/catalog/repository"
)

// Document is a searchable catalog item
type Document struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Code         string   `json:"code"`
	Kind         string   `json:"kind"` // "service", "material" or "equipment"
	CategoryIDs  []string `json:"category_ids"`
	CategoryPath string   `json:"category_path"`
	Price        float64  `json:"price"`
	Active       bool     `json:"active"`
}

// Result is a search hit with its relevance score
type Result struct {
	Document Document
	Score    float64
	ItemID   uuid.UUID
}

// Index wraps a Bleve index over the catalog
type Index struct {
	index   bleve.Index
	indexMu sync.RWMutex
	path    string
}

// NewIndex creates a catalog search index. An empty path builds an in-memory
// index; otherwise the index is persisted and reopened across restarts.
func NewIndex(path string) (*Index, error) {
	si := &Index{path: path}

	var index bleve.Index
	var err error

	indexMapping := buildIndexMapping()

	if path == "" {
		index, err = bleve.NewMemOnly(indexMapping)
	} else {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			if mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755); mkdirErr != nil {
				return nil, fmt.Errorf("failed to create index directory: %w", mkdirErr)
			}
			index, err = bleve.New(path, indexMapping)
		} else {
			index, err = bleve.Open(path)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}

	si.index = index
	return si, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = simple.Name

	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name

	numericFieldMapping := bleve.NewNumericFieldMapping()
	boolFieldMapping := bleve.NewBooleanFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("name", textFieldMapping)
	docMapping.AddFieldMappingsAt("description", textFieldMapping)
	docMapping.AddFieldMappingsAt("code", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("kind", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("category_ids", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("category_path", textFieldMapping)
	docMapping.AddFieldMappingsAt("price", numericFieldMapping)
	docMapping.AddFieldMappingsAt("active", boolFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name
	return indexMapping
}

// IndexCatalog (re)indexes the full catalog in one batch
func (si *Index) IndexCatalog(services []*repository.Service, materials []*repository.Material, equipment []*repository.Equipment) error {
	si.indexMu.Lock()
	defer si.indexMu.Unlock()

	batch := si.index.NewBatch()

	for _, svc := range services {
		price, _ := svc.StaticPrice.Float64()
		doc := Document{
			ID:          fmt.Sprintf("service_%s", svc.ID),
			Name:        svc.Name,
			Description: svc.Description,
			Code:        svc.Code,
			Kind:        "service",
			CategoryIDs: idStrings(svc.Categories),
			Price:       price,
			Active:      svc.Active,
		}
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("failed to index service %s: %w", svc.ID, err)
		}
	}

	for _, mat := range materials {
		cost, _ := mat.Cost.Float64()
		doc := Document{
			ID:          fmt.Sprintf("material_%s", mat.ID),
			Name:        mat.Name,
			Code:        mat.Code,
			Kind:        "material",
			CategoryIDs: idStrings(mat.Categories),
			Price:       cost,
			Active:      mat.Active,
		}
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("failed to index material %s: %w", mat.ID, err)
		}
	}

	for _, eq := range equipment {
		price, _ := eq.Price.Float64()
		doc := Document{
			ID:          fmt.Sprintf("equipment_%s", eq.ID),
			Name:        eq.Name,
			Code:        eq.Code,
			Kind:        "equipment",
			CategoryIDs: idStrings(eq.Categories),
			Price:       price,
			Active:      eq.Active,
		}
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("failed to index equipment %s: %w", eq.ID, err)
		}
	}

	if err := si.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch index: %w", err)
	}
	return nil
}

// Search runs a full-text query with typo tolerance
func (si *Index) Search(query string, limit int) ([]Result, error) {
	si.indexMu.RLock()
	defer si.indexMu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetFuzziness(1)

	searchRequest := bleve.NewSearchRequest(matchQuery)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"*"}

	searchResults, err := si.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return si.convertResults(searchResults)
}

// SearchWithPrefix runs an autocomplete-style prefix search
func (si *Index) SearchWithPrefix(prefix string, limit int) ([]Result, error) {
	si.indexMu.RLock()
	defer si.indexMu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	prefixQuery := bleve.NewPrefixQuery(prefix)
	searchRequest := bleve.NewSearchRequest(prefixQuery)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"*"}

	searchResults, err := si.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("prefix search failed: %w", err)
	}
	return si.convertResults(searchResults)
}

// SearchByCategory finds every indexed item tagged with a category
func (si *Index) SearchByCategory(categoryID uuid.UUID, limit int) ([]Result, error) {
	si.indexMu.RLock()
	defer si.indexMu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	termQuery := bleve.NewTermQuery(categoryID.String())
	termQuery.SetField("category_ids")

	searchRequest := bleve.NewSearchRequest(termQuery)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"*"}

	searchResults, err := si.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("category search failed: %w", err)
	}
	return si.convertResults(searchResults)
}

// SearchByKind restricts a text query to services, materials or equipment
func (si *Index) SearchByKind(query, kind string, limit int) ([]Result, error) {
	si.indexMu.RLock()
	defer si.indexMu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetFuzziness(1)

	kindQuery := bleve.NewTermQuery(kind)
	kindQuery.SetField("kind")

	conjunction := bleve.NewConjunctionQuery(matchQuery, kindQuery)

	searchRequest := bleve.NewSearchRequest(conjunction)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"*"}

	searchResults, err := si.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("kind search failed: %w", err)
	}
	return si.convertResults(searchResults)
}

func (si *Index) convertResults(searchResults *bleve.SearchResult) ([]Result, error) {
	results := make([]Result, 0, len(searchResults.Hits))

	for _, hit := range searchResults.Hits {
		doc := Document{ID: hit.ID}
		if name, ok := hit.Fields["name"].(string); ok {
			doc.Name = name
		}
		if description, ok := hit.Fields["description"].(string); ok {
			doc.Description = description
		}
		if code, ok := hit.Fields["code"].(string); ok {
			doc.Code = code
		}
		if kind, ok := hit.Fields["kind"].(string); ok {
			doc.Kind = kind
		}
		if price, ok := hit.Fields["price"].(float64); ok {
			doc.Price = price
		}
		if active, ok := hit.Fields["active"].(bool); ok {
			doc.Active = active
		}
		switch v := hit.Fields["category_ids"].(type) {
		case string:
			doc.CategoryIDs = []string{v}
		case []interface{}:
			for _, id := range v {
				if s, ok := id.(string); ok {
					doc.CategoryIDs = append(doc.CategoryIDs, s)
				}
			}
		}

		result := Result{Document: doc, Score: hit.Score}
		// Document IDs carry a kind prefix ahead of the UUID
		if idx := len(doc.Kind) + 1; len(hit.ID) > idx {
			if itemID, err := uuid.Parse(hit.ID[idx:]); err == nil {
				result.ItemID = itemID
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// RemoveItem deletes one item from the index
func (si *Index) RemoveItem(kind string, id uuid.UUID) error {
	si.indexMu.Lock()
	defer si.indexMu.Unlock()
	return si.index.Delete(fmt.Sprintf("%s_%s", kind, id))
}

// DocumentCount returns the number of indexed items
func (si *Index) DocumentCount() (uint64, error) {
	si.indexMu.RLock()
	defer si.indexMu.RUnlock()
	return si.index.DocCount()
}

// Close closes the underlying index
func (si *Index) Close() error {
	si.indexMu.Lock()
	defer si.indexMu.Unlock()

	if si.index != nil {
		return si.index.Close()
	}
	return nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
