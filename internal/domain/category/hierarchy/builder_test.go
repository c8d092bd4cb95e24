package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/pricebook-admin/internal/domain/category/repository"
)

func TestBuilder_FillDown(t *testing.T) {
	t.Run("blank shallower cells inherit cursor values", func(t *testing.T) {
		b := NewBuilder(Config{Mode: ModeFillDown, Type: repository.CategoryTypeService})
		result := b.Build([][]string{
			{"Plumbing"},
			{"", "Water Heaters"},
			{"", "", "Tankless"},
			{"", "", "Tank Type"},
		})

		require.Empty(t, result.Errors)
		require.Len(t, result.Nodes, 4)

		tankless := result.Nodes[2]
		tankType := result.Nodes[3]
		assert.Equal(t, []string{"Plumbing", "Water Heaters", "Tankless"}, tankless.Path)
		// Row 4 left levels 1-2 blank; its path must equal row 3's path with
		// only the deepest level replaced
		assert.Equal(t, []string{"Plumbing", "Water Heaters", "Tank Type"}, tankType.Path)
		require.NotNil(t, tankType.ParentID)
		assert.Equal(t, result.Nodes[1].ID, *tankType.ParentID)
		assert.Equal(t, 3, tankType.Level)
	})

	t.Run("shallower row invalidates deeper cursors", func(t *testing.T) {
		b := NewBuilder(Config{Mode: ModeFillDown, Type: repository.CategoryTypeService})
		result := b.Build([][]string{
			{"Plumbing"},
			{"", "Water Heaters"},
			{"Electrical"},
			{"", "Panels"},
		})

		require.Empty(t, result.Errors)
		require.Len(t, result.Nodes, 4)

		panels := result.Nodes[3]
		assert.Equal(t, []string{"Electrical", "Panels"}, panels.Path)
		require.NotNil(t, panels.ParentID)
		assert.Equal(t, result.Nodes[2].ID, *panels.ParentID)
	})

	t.Run("explicit numeric id column is used when numeric", func(t *testing.T) {
		b := NewBuilder(Config{Mode: ModeFillDown, Type: repository.CategoryTypeService, HasIDColumn: true})
		result := b.Build([][]string{
			{"10", "Plumbing"},
			{"n/a", "", "Water Heaters"},
		})

		require.Empty(t, result.Errors)
		require.Len(t, result.Nodes, 2)
		assert.Equal(t, "10", result.Nodes[0].ID)
		// Non-numeric id cell falls back to a synthesized id
		assert.Equal(t, "gen-1", result.Nodes[1].ID)
		require.NotNil(t, result.Nodes[1].ParentID)
		assert.Equal(t, "10", *result.Nodes[1].ParentID)
	})

	t.Run("whitespace-only rows are discarded", func(t *testing.T) {
		b := NewBuilder(Config{Mode: ModeFillDown, Type: repository.CategoryTypeMaterial})
		result := b.Build([][]string{
			{"  ", "", "   "},
			{"Pipes"},
			{},
		})

		assert.Equal(t, 2, result.SkippedRows)
		require.Len(t, result.Nodes, 1)
		assert.Equal(t, "Pipes", result.Nodes[0].Name)
	})

	t.Run("root nodes have no parent and level one", func(t *testing.T) {
		b := NewBuilder(Config{Mode: ModeFillDown, Type: repository.CategoryTypeService})
		result := b.Build([][]string{{"HVAC"}})

		require.Len(t, result.Nodes, 1)
		assert.Nil(t, result.Nodes[0].ParentID)
		assert.Equal(t, 1, result.Nodes[0].Level)
	})
}

func TestBuilder_ExplicitID(t *testing.T) {
	t.Run("siblings do not cross-link", func(t *testing.T) {
		b := NewBuilder(Config{Mode: ModeExplicitID, Type: repository.CategoryTypeService})
		result := b.Build([][]string{
			{"1", "A"},
			{"2", "A", "B"},
			{"3", "A", "C"},
		})

		require.Empty(t, result.Errors)
		require.Len(t, result.Nodes, 3)

		// Node 3's parent must be node 1, not its sibling node 2
		nodeC := result.Nodes[2]
		require.NotNil(t, nodeC.ParentID)
		assert.Equal(t, "1", *nodeC.ParentID)
		assert.Equal(t, []string{"A", "C"}, nodeC.Path)
	})

	t.Run("no blank inheritance between rows", func(t *testing.T) {
		b := NewBuilder(Config{Mode: ModeExplicitID, Type: repository.CategoryTypeService})
		result := b.Build([][]string{
			{"1", "A", "B"},
			{"2", "", "C"},
		})

		require.Empty(t, result.Errors)
		require.Len(t, result.Nodes, 2)
		// Row 2 has no "A" at level 1, so no prior row qualifies as a direct
		// ancestor and the node becomes a root
		assert.Nil(t, result.Nodes[1].ParentID)
	})

	t.Run("nearest matching ancestor wins", func(t *testing.T) {
		b := NewBuilder(Config{Mode: ModeExplicitID, Type: repository.CategoryTypeService})
		result := b.Build([][]string{
			{"1", "A"},
			{"2", "A", "B"},
			{"3", "A"},
			{"4", "A", "D"},
		})

		require.Empty(t, result.Errors)
		nodeD := result.Nodes[3]
		require.NotNil(t, nodeD.ParentID)
		// Both rows 1 and 3 qualify; scanning backward finds row 3 first
		assert.Equal(t, "3", *nodeD.ParentID)
	})

	t.Run("missing id is an error", func(t *testing.T) {
		b := NewBuilder(Config{Mode: ModeExplicitID, Type: repository.CategoryTypeService})
		result := b.Build([][]string{
			{"", "A"},
		})

		require.Len(t, result.Errors, 1)
		assert.Empty(t, result.Nodes)
	})

	t.Run("cousins under different grandparents do not link", func(t *testing.T) {
		b := NewBuilder(Config{Mode: ModeExplicitID, Type: repository.CategoryTypeService})
		result := b.Build([][]string{
			{"1", "A"},
			{"2", "A", "B"},
			{"3", "X"},
			{"4", "X", "B"},
			{"5", "X", "B", "Leaf"},
		})

		require.Empty(t, result.Errors)
		leaf := result.Nodes[4]
		require.NotNil(t, leaf.ParentID)
		assert.Equal(t, "4", *leaf.ParentID)
		assert.Equal(t, []string{"X", "B", "Leaf"}, leaf.Path)
	})
}

func TestBuilder_CycleDetection(t *testing.T) {
	// A row whose own id already appears in its ancestor stack is rejected
	// instead of producing a self-referential tree.
	b := NewBuilder(Config{Mode: ModeFillDown, Type: repository.CategoryTypeService, HasIDColumn: true})
	result := b.Build([][]string{
		{"7", "Plumbing"},
		{"7", "", "Plumbing Again"},
	})

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "ancestor")
	assert.Len(t, result.Nodes, 1)
}
