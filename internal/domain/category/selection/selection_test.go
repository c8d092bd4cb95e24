package selection

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/pricebook-admin/internal/domain/category/repository"
)

// buildTree creates:
//
//	Plumbing
//	├── Water Heaters
//	│   └── Tankless
//	└── Drains
//	Electrical
func buildTree() (map[string]uuid.UUID, []*repository.Category) {
	ids := map[string]uuid.UUID{
		"plumbing":     uuid.New(),
		"waterHeaters": uuid.New(),
		"tankless":     uuid.New(),
		"drains":       uuid.New(),
		"electrical":   uuid.New(),
	}

	parent := func(key string) *uuid.UUID {
		id := ids[key]
		return &id
	}

	cats := []*repository.Category{
		{ID: ids["plumbing"], Name: "Plumbing", Type: repository.CategoryTypeService, Path: []string{"Plumbing"}, Level: 1},
		{ID: ids["waterHeaters"], Name: "Water Heaters", ParentID: parent("plumbing"), Type: repository.CategoryTypeService, Path: []string{"Plumbing", "Water Heaters"}, Level: 2},
		{ID: ids["tankless"], Name: "Tankless", ParentID: parent("waterHeaters"), Type: repository.CategoryTypeService, Path: []string{"Plumbing", "Water Heaters", "Tankless"}, Level: 3},
		{ID: ids["drains"], Name: "Drains", ParentID: parent("plumbing"), Type: repository.CategoryTypeService, Path: []string{"Plumbing", "Drains"}, Level: 2},
		{ID: ids["electrical"], Name: "Electrical", Type: repository.CategoryTypeService, Path: []string{"Electrical"}, Level: 1},
	}
	return ids, cats
}

func TestModel_SelectCascades(t *testing.T) {
	ids, cats := buildTree()
	m := NewModel(cats)

	m.Select(ids["plumbing"])

	// Parent plus its 3 descendants
	assert.Equal(t, 4, m.Count())
	assert.True(t, m.IsSelected(ids["tankless"]))
	assert.False(t, m.IsSelected(ids["electrical"]))
}

func TestModel_TagsCompressToTopmostAncestor(t *testing.T) {
	ids, cats := buildTree()
	m := NewModel(cats)

	m.Select(ids["plumbing"])

	tags := m.Tags()
	require.Len(t, tags, 1)
	assert.Equal(t, "Plumbing", tags[0].Name)
}

func TestModel_DeselectTagClearsSubtree(t *testing.T) {
	ids, cats := buildTree()
	m := NewModel(cats)

	m.Select(ids["plumbing"])
	require.Equal(t, 4, m.Count())

	// Removing the displayed parent tag clears descendants that were never
	// individually displayed
	m.Deselect(ids["plumbing"])
	assert.Equal(t, 0, m.Count())
	assert.Empty(t, m.Tags())
}

func TestModel_PartialSelectionShowsSeparateTags(t *testing.T) {
	ids, cats := buildTree()
	m := NewModel(cats)

	m.Select(ids["waterHeaters"])
	m.Select(ids["electrical"])

	// Water Heaters carries Tankless; Electrical stands alone
	assert.Equal(t, 3, m.Count())
	tags := m.Tags()
	require.Len(t, tags, 2)
	names := []string{tags[0].Name, tags[1].Name}
	assert.Contains(t, names, "Water Heaters")
	assert.Contains(t, names, "Electrical")
}

func TestModel_DeselectChildKeepsSiblings(t *testing.T) {
	ids, cats := buildTree()
	m := NewModel(cats)

	m.Select(ids["plumbing"])
	m.Deselect(ids["waterHeaters"])

	assert.Equal(t, 2, m.Count())
	assert.True(t, m.IsSelected(ids["plumbing"]))
	assert.True(t, m.IsSelected(ids["drains"]))
	assert.False(t, m.IsSelected(ids["tankless"]))

	// Plumbing is still selected, so it remains the only tag
	tags := m.Tags()
	require.Len(t, tags, 1)
	assert.Equal(t, "Plumbing", tags[0].Name)
}

func TestModel_AutoExpandAncestorsOfSelection(t *testing.T) {
	ids, cats := buildTree()
	m := NewModel(cats)

	m.Select(ids["tankless"])

	assert.True(t, m.IsExpanded(ids["plumbing"]))
	assert.True(t, m.IsExpanded(ids["waterHeaters"]))
	assert.False(t, m.IsExpanded(ids["electrical"]))
}

func TestModel_UnknownIDIsIgnored(t *testing.T) {
	_, cats := buildTree()
	m := NewModel(cats)

	m.Select(uuid.New())
	assert.Equal(t, 0, m.Count())
}
