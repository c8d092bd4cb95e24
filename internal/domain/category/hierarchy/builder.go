// Package hierarchy reconstructs the pricebook category tree from flat
// spreadsheet rows. Exported spreadsheets describe the tree in one of two
// conventions: fill-down sheets repeat a level only when it changes and leave
// shallower cells blank, explicit-id sheets carry a unique id per row and
// never inherit blanks from prior rows.
package hierarchy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FACorreiaa/pricebook-admin/internal/domain/category/repository"
)

// Mode selects which spreadsheet convention the builder expects
type Mode string

const (
	// ModeFillDown treats blank cells as "same as the last non-blank value
	// seen above in this column".
	ModeFillDown Mode = "fill_down"
	// ModeExplicitID requires every row to carry its own id in column 0 and
	// never inherits values from prior rows.
	ModeExplicitID Mode = "explicit_id"
)

// Node is one reconstructed category. IDs are spreadsheet-scoped strings,
// either taken from the sheet's id column or synthesized; the import service
// maps them onto persistent UUIDs via SourceKey.
type Node struct {
	ID       string
	Name     string
	ParentID *string
	Type     repository.CategoryType
	Path     []string
	Level    int // root = 1
}

// RowError records a row the builder rejected
type RowError struct {
	Row     int
	Message string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// Result contains the reconstructed tree and per-row diagnostics
type Result struct {
	Nodes       []Node
	SkippedRows int
	Errors      []RowError
}

// Config configures a Builder
type Config struct {
	Mode Mode
	Type repository.CategoryType
	// HasIDColumn marks column 0 as an id column in fill-down mode. It is
	// implied (and required) in explicit-id mode.
	HasIDColumn bool
}

// Builder turns flat category rows into a normalized tree. Both modes share
// one arena of emitted nodes and a "last seen node per depth" stack; the stack
// doubles as the ancestor chain for cycle detection.
type Builder struct {
	cfg Config

	nodes   []Node
	byID    map[string]int // id -> arena index
	stack   []int          // arena index of the last node seen at each depth
	nextSeq int

	// fill-down cursors: remembered name and id per category column
	cursorNames []string
	cursorIDs   []string

	// explicit-id mode keeps the raw category cells of every emitted row for
	// the backward parent scan
	rawCells [][]string
}

// NewBuilder creates a builder for one sheet
func NewBuilder(cfg Config) *Builder {
	if cfg.Mode == ModeExplicitID {
		cfg.HasIDColumn = true
	}
	return &Builder{
		cfg:     cfg,
		byID:    make(map[string]int),
		nextSeq: 1,
	}
}

// Build processes all rows and returns the reconstructed tree.
// Rows that are blank in every column are discarded before either pass.
func (b *Builder) Build(rows [][]string) *Result {
	result := &Result{}

	for i, raw := range rows {
		rowNum := i + 1
		cells := trimRow(raw)
		if isBlankRow(cells) {
			result.SkippedRows++
			continue
		}

		var err *RowError
		switch b.cfg.Mode {
		case ModeExplicitID:
			err = b.addExplicitRow(rowNum, cells)
		default:
			err = b.addFillDownRow(rowNum, cells)
		}
		if err != nil {
			result.Errors = append(result.Errors, *err)
		}
	}

	result.Nodes = b.nodes
	return result
}

// addFillDownRow processes one row in fill-down mode. The row's level is the
// rightmost non-blank category column; shallower columns resolve through the
// per-column cursor. Emitting a node at a level invalidates every deeper
// cursor, since a shallower row terminates any previously seen deeper branch.
func (b *Builder) addFillDownRow(rowNum int, cells []string) *RowError {
	catCells := cells
	explicitID := ""
	if b.cfg.HasIDColumn {
		if len(cells) == 0 {
			return nil
		}
		if isNumeric(cells[0]) {
			explicitID = cells[0]
		}
		catCells = cells[1:]
	}

	level := deepestNonBlank(catCells)
	if level < 0 {
		// id without any category value, nothing to build
		return nil
	}

	b.growCursors(len(catCells))

	// Resolve the path through the cursors for all shallower columns
	path := make([]string, 0, level+1)
	for col := 0; col < level; col++ {
		if b.cursorNames[col] == "" {
			return &RowError{Row: rowNum, Message: fmt.Sprintf("level %d has no remembered ancestor for column %d", level+1, col+1)}
		}
		path = append(path, b.cursorNames[col])
	}
	name := catCells[level]
	path = append(path, name)

	id := explicitID
	if id == "" {
		id = b.synthesizeID()
	}

	var parentID *string
	if level > 0 {
		pid := b.cursorIDs[level-1]
		parentID = &pid
	}

	if b.ancestorCycle(id, level) {
		return &RowError{Row: rowNum, Message: fmt.Sprintf("category %q is its own ancestor", id)}
	}

	idx := b.emit(Node{
		ID:       id,
		Name:     name,
		ParentID: parentID,
		Type:     b.cfg.Type,
		Path:     path,
		Level:    level + 1,
	})

	// Advance the cursor at this level and clear everything deeper
	b.cursorNames[level] = name
	b.cursorIDs[level] = id
	for col := level + 1; col < len(b.cursorNames); col++ {
		b.cursorNames[col] = ""
		b.cursorIDs[col] = ""
	}
	b.setStack(level, idx)
	return nil
}

// addExplicitRow processes one row in explicit-id mode. Column 0 is the id,
// columns 1..N are category levels. The parent is the nearest prior row whose
// non-blank cells in columns 1..level-1 match this row's and whose own
// deepest column is exactly level-1; scanning stops at the first hit.
func (b *Builder) addExplicitRow(rowNum int, cells []string) *RowError {
	if len(cells) < 2 || cells[0] == "" {
		return &RowError{Row: rowNum, Message: "missing id in column 0"}
	}
	id := cells[0]

	level := deepestNonBlank(cells[1:])
	if level < 0 {
		return &RowError{Row: rowNum, Message: "no category value"}
	}
	level++ // back to absolute column index

	var parentIdx = -1
	for i := len(b.rawCells) - 1; i >= 0; i-- {
		prior := b.rawCells[i]
		if deepestColumn(prior) != level-1 {
			continue
		}
		if prefixMatches(prior, cells, level) {
			parentIdx = i
			break
		}
	}

	name := cells[level]
	var parentID *string
	var path []string
	depth := 1
	if parentIdx >= 0 {
		parent := &b.nodes[parentIdx]
		pid := parent.ID
		parentID = &pid
		path = append(append(path, parent.Path...), name)
		depth = parent.Level + 1
		if b.idInAncestry(id, parentIdx) {
			return &RowError{Row: rowNum, Message: fmt.Sprintf("category %q is its own ancestor", id)}
		}
	} else {
		path = []string{name}
	}

	idx := b.emit(Node{
		ID:       id,
		Name:     name,
		ParentID: parentID,
		Type:     b.cfg.Type,
		Path:     path,
		Level:    depth,
	})
	b.rawCells = append(b.rawCells, cells)
	b.setStack(depth-1, idx)
	return nil
}

func (b *Builder) emit(n Node) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, n)
	b.byID[n.ID] = idx
	return idx
}

func (b *Builder) synthesizeID() string {
	for {
		id := "gen-" + strconv.Itoa(b.nextSeq)
		b.nextSeq++
		if _, taken := b.byID[id]; !taken {
			return id
		}
	}
}

func (b *Builder) growCursors(n int) {
	for len(b.cursorNames) < n {
		b.cursorNames = append(b.cursorNames, "")
		b.cursorIDs = append(b.cursorIDs, "")
	}
}

func (b *Builder) setStack(depth, idx int) {
	for len(b.stack) <= depth {
		b.stack = append(b.stack, -1)
	}
	b.stack[depth] = idx
	b.stack = b.stack[:depth+1]
}

// ancestorCycle reports whether id already appears in the current cursor
// stack, i.e. the row would become its own ancestor.
func (b *Builder) ancestorCycle(id string, level int) bool {
	for col := 0; col < level && col < len(b.cursorIDs); col++ {
		if b.cursorIDs[col] == id {
			return true
		}
	}
	return false
}

// idInAncestry walks parent links from the arena node at idx looking for id
func (b *Builder) idInAncestry(id string, idx int) bool {
	for idx >= 0 {
		n := &b.nodes[idx]
		if n.ID == id {
			return true
		}
		if n.ParentID == nil {
			return false
		}
		next, ok := b.byID[*n.ParentID]
		if !ok || next == idx {
			return false
		}
		idx = next
	}
	return false
}

// prefixMatches reports whether candidate's non-blank cells in columns
// 1..level-1 equal row's corresponding cells
func prefixMatches(candidate, row []string, level int) bool {
	for col := 1; col < level; col++ {
		c := cellAt(candidate, col)
		if c == "" {
			continue
		}
		if c != cellAt(row, col) {
			return false
		}
	}
	return true
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

// deepestColumn returns the absolute index of the deepest non-blank category
// column of an explicit-id row (columns >= 1), or 0 when only the id is set
func deepestColumn(cells []string) int {
	if len(cells) < 2 {
		return 0
	}
	return deepestNonBlank(cells[1:]) + 1
}

// deepestNonBlank returns the index of the rightmost non-blank cell, -1 if all blank
func deepestNonBlank(cells []string) int {
	for i := len(cells) - 1; i >= 0; i-- {
		if cells[i] != "" {
			return i
		}
	}
	return -1
}

func trimRow(raw []string) []string {
	cells := make([]string, len(raw))
	for i, c := range raw {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}
