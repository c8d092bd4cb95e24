package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/pricebook-admin/internal/domain/category/repository"
)

type fakeCategoryRepo struct {
	categories map[uuid.UUID]*repository.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[uuid.UUID]*repository.Category)}
}

func (f *fakeCategoryRepo) Create(_ context.Context, c *repository.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	stored := *c
	f.categories[c.ID] = &stored
	return nil
}

func (f *fakeCategoryRepo) GetByID(_ context.Context, id uuid.UUID) (*repository.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	copied := *c
	copied.Path = append([]string{}, c.Path...)
	return &copied, nil
}

func (f *fakeCategoryRepo) Update(_ context.Context, c *repository.Category) error {
	if _, ok := f.categories[c.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	stored := *c
	stored.Path = append([]string{}, c.Path...)
	f.categories[c.ID] = &stored
	return nil
}

func (f *fakeCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeCategoryRepo) ListByType(_ context.Context, t repository.CategoryType) ([]*repository.Category, error) {
	var out []*repository.Category
	for _, c := range f.categories {
		if c.Type == t {
			copied := *c
			copied.Path = append([]string{}, c.Path...)
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeCategoryRepo) ListAll(_ context.Context) ([]*repository.Category, error) {
	var out []*repository.Category
	for _, c := range f.categories {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeCategoryRepo) BulkUpsert(_ context.Context, categories []*repository.Category) error {
	for _, c := range categories {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		stored := *c
		f.categories[c.ID] = &stored
	}
	return nil
}

type fakeReLinker struct {
	removed []uuid.UUID
}

func (f *fakeReLinker) RemoveCategoryRefs(_ context.Context, id uuid.UUID) error {
	f.removed = append(f.removed, id)
	return nil
}

func newTestService() (*Service, *fakeCategoryRepo, *fakeReLinker) {
	repo := newFakeCategoryRepo()
	relinker := &fakeReLinker{}
	return NewService(repo, relinker, slog.New(slog.DiscardHandler)), repo, relinker
}

func mustCreate(t *testing.T, s *Service, name string, parent *uuid.UUID) *repository.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), name, parent, repository.CategoryTypeService)
	require.NoError(t, err)
	return c
}

func TestService_CreateCategory(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService()

	t.Run("root category gets level 1", func(t *testing.T) {
		root := mustCreate(t, s, "Plumbing", nil)
		assert.Equal(t, 1, root.Level)
		assert.Equal(t, []string{"Plumbing"}, root.Path)
	})

	t.Run("child inherits parent path", func(t *testing.T) {
		root := mustCreate(t, s, "Electrical", nil)
		child := mustCreate(t, s, "Panels", &root.ID)
		assert.Equal(t, 2, child.Level)
		assert.Equal(t, []string{"Electrical", "Panels"}, child.Path)
	})

	t.Run("unknown parent fails", func(t *testing.T) {
		bogus := uuid.New()
		_, err := s.CreateCategory(ctx, "Orphan", &bogus, repository.CategoryTypeService)
		require.Error(t, err)
		assert.ErrorIs(t, err, repository.ErrCategoryNotFound)
	})
}

func TestService_RenameCategory(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newTestService()

	root := mustCreate(t, s, "Plumbing", nil)
	mid := mustCreate(t, s, "Water Heaters", &root.ID)
	leaf := mustCreate(t, s, "Tankless", &mid.ID)

	require.NoError(t, s.RenameCategory(ctx, root.ID, "Plumbing Services"))

	got, err := repo.GetByID(ctx, leaf.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Plumbing Services", "Water Heaters", "Tankless"}, got.Path)
}

func TestService_ReparentCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("moves subtree and rewrites paths", func(t *testing.T) {
		s, repo, _ := newTestService()
		plumbing := mustCreate(t, s, "Plumbing", nil)
		electrical := mustCreate(t, s, "Electrical", nil)
		heaters := mustCreate(t, s, "Water Heaters", &plumbing.ID)
		tankless := mustCreate(t, s, "Tankless", &heaters.ID)

		require.NoError(t, s.ReparentCategory(ctx, heaters.ID, &electrical.ID))

		got, err := repo.GetByID(ctx, tankless.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Electrical", "Water Heaters", "Tankless"}, got.Path)
		assert.Equal(t, 3, got.Level)
	})

	t.Run("move to root", func(t *testing.T) {
		s, repo, _ := newTestService()
		plumbing := mustCreate(t, s, "Plumbing", nil)
		heaters := mustCreate(t, s, "Water Heaters", &plumbing.ID)

		require.NoError(t, s.ReparentCategory(ctx, heaters.ID, nil))

		got, err := repo.GetByID(ctx, heaters.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ParentID)
		assert.Equal(t, 1, got.Level)
	})

	t.Run("rejects moving under own descendant", func(t *testing.T) {
		s, _, _ := newTestService()
		root := mustCreate(t, s, "Plumbing", nil)
		child := mustCreate(t, s, "Water Heaters", &root.ID)
		grandchild := mustCreate(t, s, "Tankless", &child.ID)

		err := s.ReparentCategory(ctx, root.ID, &grandchild.ID)
		assert.ErrorIs(t, err, ErrReparentCycle)
	})

	t.Run("rejects moving under itself", func(t *testing.T) {
		s, _, _ := newTestService()
		root := mustCreate(t, s, "Plumbing", nil)
		err := s.ReparentCategory(ctx, root.ID, &root.ID)
		assert.ErrorIs(t, err, ErrReparentCycle)
	})
}

func TestService_DeleteCategory(t *testing.T) {
	ctx := context.Background()
	s, repo, relinker := newTestService()

	root := mustCreate(t, s, "Plumbing", nil)
	mid := mustCreate(t, s, "Water Heaters", &root.ID)
	leaf := mustCreate(t, s, "Tankless", &mid.ID)

	require.NoError(t, s.DeleteCategory(ctx, mid.ID))

	_, err := repo.GetByID(ctx, mid.ID)
	assert.ErrorIs(t, err, repository.ErrCategoryNotFound)

	// catalog items were re-linked, children re-attached to grandparent
	require.Len(t, relinker.removed, 1)
	assert.Equal(t, mid.ID, relinker.removed[0])

	got, err := repo.GetByID(ctx, leaf.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, root.ID, *got.ParentID)
	assert.Equal(t, []string{"Plumbing", "Tankless"}, got.Path)
}
