// Package selection implements the cascading multi-select model over a
// category tree. Selecting a node selects its whole subtree; the tag view
// compresses the selection so only the topmost selected ancestors render.
package selection

import (
	"sort"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pricebook-admin/internal/domain/category/repository"
)

// Tag is one removable chip in the rendered selection
type Tag struct {
	ID   uuid.UUID
	Name string
	Path []string
}

// Model holds the selection and expansion state for one loaded tree.
// The tree is stored as an arena indexed by position plus a parent->children
// adjacency index computed once at load, so cascades cost O(descendants)
// instead of a full-tree scan per operation.
type Model struct {
	nodes    []*repository.Category
	byID     map[uuid.UUID]int
	children map[uuid.UUID][]int

	selected map[uuid.UUID]struct{}
	expanded map[uuid.UUID]struct{}
}

// NewModel builds a selection model for the given tree snapshot.
// The caller must not mutate the categories while the model is in use.
func NewModel(categories []*repository.Category) *Model {
	m := &Model{
		nodes:    categories,
		byID:     make(map[uuid.UUID]int, len(categories)),
		children: make(map[uuid.UUID][]int),
		selected: make(map[uuid.UUID]struct{}),
		expanded: make(map[uuid.UUID]struct{}),
	}
	for i, c := range categories {
		m.byID[c.ID] = i
	}
	for i, c := range categories {
		if c.ParentID != nil {
			m.children[*c.ParentID] = append(m.children[*c.ParentID], i)
		}
	}
	return m
}

// Select adds the node and every descendant to the selection set
func (m *Model) Select(id uuid.UUID) {
	if _, ok := m.byID[id]; !ok {
		return
	}
	m.walkSubtree(id, func(n *repository.Category) {
		m.selected[n.ID] = struct{}{}
	})
	m.autoExpand()
}

// Deselect removes the node and every descendant from the selection set.
// Removing a displayed tag routes through here, so descendants that were
// never individually shown are still cleared.
func (m *Model) Deselect(id uuid.UUID) {
	if _, ok := m.byID[id]; !ok {
		return
	}
	m.walkSubtree(id, func(n *repository.Category) {
		delete(m.selected, n.ID)
	})
	m.autoExpand()
}

// IsSelected reports whether the node is currently selected
func (m *Model) IsSelected(id uuid.UUID) bool {
	_, ok := m.selected[id]
	return ok
}

// IsExpanded reports whether the node is in the expanded display set
func (m *Model) IsExpanded(id uuid.UUID) bool {
	_, ok := m.expanded[id]
	return ok
}

// Expand manually adds a node to the expanded set
func (m *Model) Expand(id uuid.UUID) {
	m.expanded[id] = struct{}{}
}

// Collapse removes a node from the expanded set. Ancestors of selected nodes
// are re-expanded on the next selection change.
func (m *Model) Collapse(id uuid.UUID) {
	delete(m.expanded, id)
}

// Selected returns the full selection set as a sorted slice
func (m *Model) Selected() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m.selected))
	for id := range m.selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Expanded returns the expanded node set as a sorted slice
func (m *Model) Expanded() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m.expanded))
	for id := range m.expanded {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Count returns the number of selected nodes
func (m *Model) Count() int {
	return len(m.selected)
}

// Tags returns the compressed display view of the selection: a node is shown
// only if none of its ancestors is selected, since a selected ancestor
// already carries the whole subtree. Tags keep the arena's load order.
func (m *Model) Tags() []Tag {
	var tags []Tag
	for _, n := range m.nodes {
		if _, ok := m.selected[n.ID]; !ok {
			continue
		}
		if m.hasSelectedAncestor(n) {
			continue
		}
		tags = append(tags, Tag{ID: n.ID, Name: n.Name, Path: n.Path})
	}
	return tags
}

// walkSubtree applies fn to the node and all descendants via the adjacency index
func (m *Model) walkSubtree(id uuid.UUID, fn func(*repository.Category)) {
	idx := m.byID[id]
	queue := []int{idx}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		node := m.nodes[cur]
		fn(node)
		queue = append(queue, m.children[node.ID]...)
	}
}

func (m *Model) hasSelectedAncestor(n *repository.Category) bool {
	for n.ParentID != nil {
		idx, ok := m.byID[*n.ParentID]
		if !ok {
			return false
		}
		n = m.nodes[idx]
		if _, selected := m.selected[n.ID]; selected {
			return true
		}
	}
	return false
}

// autoExpand ensures every ancestor of every selected node is expanded, so
// selected leaves stay visible without manual navigation
func (m *Model) autoExpand() {
	for id := range m.selected {
		idx, ok := m.byID[id]
		if !ok {
			continue
		}
		n := m.nodes[idx]
		for n.ParentID != nil {
			pidx, ok := m.byID[*n.ParentID]
			if !ok {
				break
			}
			n = m.nodes[pidx]
			m.expanded[n.ID] = struct{}{}
		}
	}
}
