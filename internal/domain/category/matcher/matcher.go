// Package matcher suggests categories for imported item names using
// Aho-Corasick multi-pattern matching. All category keywords are matched in a
// single pass through the text regardless of how many categories are loaded.
package matcher

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
	"github.com/google/uuid"

	"github.com/FACorreiaa/pricebook-admin/internal/domain/category/repository"
)

// Suggestion is a single keyword hit with its target category
type Suggestion struct {
	Keyword    string
	CategoryID uuid.UUID
	Path       []string
	Priority   int // deeper categories and explicit keywords outrank shallow name hits
	IsKeyword  bool
}

// Keyword is an operator-defined extra pattern mapped to a category
type Keyword struct {
	Pattern    string
	CategoryID uuid.UUID
}

// Engine matches item names against category names and custom keywords
type Engine struct {
	matcher  *ahocorasick.Matcher
	patterns []string
	metadata [][]Suggestion
	mu       sync.RWMutex
}

// NewEngine builds an engine from the category tree plus custom keywords
func NewEngine(categories []*repository.Category, keywords []Keyword) *Engine {
	e := &Engine{}
	e.Build(categories, keywords)
	return e
}

// Build constructs the matcher. Can be called again whenever the category
// tree or keyword set changes; matching stays safe during rebuilds.
func (e *Engine) Build(categories []*repository.Category, keywords []Keyword) {
	e.mu.Lock()
	defer e.mu.Unlock()

	patternToIndex := make(map[string]int)
	patterns := make([]string, 0, len(categories)+len(keywords))
	metadata := make([][]Suggestion, 0, len(categories)+len(keywords))

	addPattern := func(cleanPattern string, s Suggestion) {
		if idx, exists := patternToIndex[cleanPattern]; exists {
			metadata[idx] = append(metadata[idx], s)
		} else {
			patternToIndex[cleanPattern] = len(patterns)
			patterns = append(patterns, cleanPattern)
			metadata = append(metadata, []Suggestion{s})
		}
	}

	// Explicit keywords first, they always beat plain name hits
	for _, kw := range keywords {
		cleanPattern := strings.ToUpper(strings.TrimSpace(kw.Pattern))
		if cleanPattern == "" {
			continue
		}
		pathFor := findPath(categories, kw.CategoryID)
		addPattern(cleanPattern, Suggestion{
			Keyword:    kw.Pattern,
			CategoryID: kw.CategoryID,
			Path:       pathFor,
			Priority:   1000 + len(cleanPattern),
			IsKeyword:  true,
		})
	}

	// Category names themselves; deeper (more specific) categories outrank
	// their ancestors when both names appear in an item
	for _, c := range categories {
		cleanPattern := strings.ToUpper(strings.TrimSpace(c.Name))
		if cleanPattern == "" {
			continue
		}
		addPattern(cleanPattern, Suggestion{
			Keyword:    c.Name,
			CategoryID: c.ID,
			Path:       c.Path,
			Priority:   c.Level*10 + len(cleanPattern),
		})
	}

	e.patterns = patterns
	e.metadata = metadata

	if len(patterns) > 0 {
		bytePatterns := make([][]byte, len(patterns))
		for i, p := range patterns {
			bytePatterns[i] = []byte(p)
		}
		e.matcher = ahocorasick.NewMatcher(bytePatterns)
	} else {
		e.matcher = nil
	}
}

// Suggest returns the best category for an item name, or nil when nothing
// matches
func (e *Engine) Suggest(itemName string) *Suggestion {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.matcher == nil || len(e.patterns) == 0 {
		return nil
	}

	matches := e.matcher.Match([]byte(strings.ToUpper(itemName)))
	if len(matches) == 0 {
		return nil
	}

	var best *Suggestion
	for _, idx := range matches {
		if idx < 0 || idx >= len(e.metadata) {
			continue
		}
		for i := range e.metadata[idx] {
			s := &e.metadata[idx][i]
			if best == nil || s.Priority > best.Priority {
				copied := *s
				best = &copied
			}
		}
	}
	return best
}

// SuggestAll returns every hit sorted by priority, highest first
func (e *Engine) SuggestAll(itemName string) []Suggestion {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.matcher == nil || len(e.patterns) == 0 {
		return nil
	}

	matches := e.matcher.Match([]byte(strings.ToUpper(itemName)))
	if len(matches) == 0 {
		return nil
	}

	results := make([]Suggestion, 0, len(matches))
	for _, idx := range matches {
		if idx >= 0 && idx < len(e.metadata) {
			results = append(results, e.metadata[idx]...)
		}
	}

	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Priority > results[j-1].Priority; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
	return results
}

// SuggestBatch resolves a whole import's worth of names with a single lock
func (e *Engine) SuggestBatch(itemNames []string) []*Suggestion {
	e.mu.RLock()
	defer e.mu.RUnlock()

	results := make([]*Suggestion, len(itemNames))
	if e.matcher == nil || len(e.patterns) == 0 {
		return results
	}

	for i, name := range itemNames {
		matches := e.matcher.Match([]byte(strings.ToUpper(name)))
		var best *Suggestion
		for _, idx := range matches {
			if idx < 0 || idx >= len(e.metadata) {
				continue
			}
			for j := range e.metadata[idx] {
				s := &e.metadata[idx][j]
				if best == nil || s.Priority > best.Priority {
					copied := *s
					best = &copied
				}
			}
		}
		results[i] = best
	}
	return results
}

// PatternCount returns the number of loaded patterns
func (e *Engine) PatternCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.patterns)
}

// IsEmpty reports whether the engine has no patterns loaded
func (e *Engine) IsEmpty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.matcher == nil || len(e.patterns) == 0
}

func findPath(categories []*repository.Category, id uuid.UUID) []string {
	for _, c := range categories {
		if c.ID == id {
			return c.Path
		}
	}
	return nil
}
