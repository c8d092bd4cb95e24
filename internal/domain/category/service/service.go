// Package service provides business logic for the category tree: interactive
// create/rename/reparent, deletion with catalog re-linking, and tree loading
// for the selection model.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pricebook-admin/internal/domain/category/repository"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/category/selection"
)

// ErrReparentCycle is returned when a reparent would make a category its own
// descendant
var ErrReparentCycle = errors.New("reparent would create a cycle")

// CatalogReLinker strips a deleted category from dependent catalog items
type CatalogReLinker interface {
	RemoveCategoryRefs(ctx context.Context, categoryID uuid.UUID) error
}

// Service handles category tree management
type Service struct {
	repo    repository.CategoryRepository
	catalog CatalogReLinker
	logger  *slog.Logger
}

// NewService creates a new category service
func NewService(repo repository.CategoryRepository, catalog CatalogReLinker, logger *slog.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, logger: logger}
}

// CreateCategory adds a category under the given parent (nil for a root)
func (s *Service) CreateCategory(ctx context.Context, name string, parentID *uuid.UUID, categoryType repository.CategoryType) (*repository.Category, error) {
	category := &repository.Category{
		Name:     name,
		ParentID: parentID,
		Type:     categoryType,
		Path:     []string{name},
		Level:    1,
	}

	if parentID != nil {
		parent, err := s.repo.GetByID(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent category: %w", err)
		}
		category.Path = append(append([]string{}, parent.Path...), name)
		category.Level = parent.Level + 1
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info("category created",
		slog.String("category_id", category.ID.String()),
		slog.String("name", name),
		slog.Int("level", category.Level),
	)
	return category, nil
}

// RenameCategory changes a category's name and refreshes the materialized
// paths of its whole subtree
func (s *Service) RenameCategory(ctx context.Context, id uuid.UUID, name string) error {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	category.Name = name
	category.Path[len(category.Path)-1] = name
	if err := s.repo.Update(ctx, category); err != nil {
		return err
	}
	return s.refreshSubtreePaths(ctx, category)
}

// ReparentCategory moves a category (and implicitly its subtree) under a new
// parent. Moving a category under one of its own descendants is refused.
func (s *Service) ReparentCategory(ctx context.Context, id uuid.UUID, newParentID *uuid.UUID) error {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if newParentID != nil {
		if *newParentID == id {
			return ErrReparentCycle
		}
		// Walk up from the new parent; hitting the moved node means the
		// parent lives inside its subtree
		cursor := *newParentID
		for {
			ancestor, err := s.repo.GetByID(ctx, cursor)
			if err != nil {
				return fmt.Errorf("failed to load ancestor: %w", err)
			}
			if ancestor.ID == id {
				return ErrReparentCycle
			}
			if ancestor.ParentID == nil {
				break
			}
			cursor = *ancestor.ParentID
		}

		parent, err := s.repo.GetByID(ctx, *newParentID)
		if err != nil {
			return err
		}
		category.ParentID = newParentID
		category.Path = append(append([]string{}, parent.Path...), category.Name)
		category.Level = parent.Level + 1
	} else {
		category.ParentID = nil
		category.Path = []string{category.Name}
		category.Level = 1
	}

	if err := s.repo.Update(ctx, category); err != nil {
		return err
	}
	return s.refreshSubtreePaths(ctx, category)
}

// DeleteCategory removes a category. Dependent catalog items lose the
// reference but are kept; child categories are re-attached to the deleted
// node's parent so the rest of the subtree survives.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.catalog.RemoveCategoryRefs(ctx, id); err != nil {
		return fmt.Errorf("failed to re-link catalog items: %w", err)
	}

	children, err := s.directChildren(ctx, category)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.ReparentCategory(ctx, child.ID, category.ParentID); err != nil {
			return fmt.Errorf("failed to re-attach child category: %w", err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("category deleted",
		slog.String("category_id", id.String()),
		slog.Int("reattached_children", len(children)),
	)
	return nil
}

// Tree loads all categories of a type
func (s *Service) Tree(ctx context.Context, categoryType repository.CategoryType) ([]*repository.Category, error) {
	return s.repo.ListByType(ctx, categoryType)
}

// AllCategories loads every category regardless of type, used to rebuild the
// auto-assignment matcher
func (s *Service) AllCategories(ctx context.Context) ([]*repository.Category, error) {
	return s.repo.ListAll(ctx)
}

// LoadSelection loads a type's tree into a fresh selection model
func (s *Service) LoadSelection(ctx context.Context, categoryType repository.CategoryType) (*selection.Model, error) {
	categories, err := s.repo.ListByType(ctx, categoryType)
	if err != nil {
		return nil, err
	}
	return selection.NewModel(categories), nil
}

// refreshSubtreePaths recomputes Path and Level for every descendant after a
// rename or reparent
func (s *Service) refreshSubtreePaths(ctx context.Context, root *repository.Category) error {
	all, err := s.repo.ListByType(ctx, root.Type)
	if err != nil {
		return err
	}

	childIndex := make(map[uuid.UUID][]*repository.Category)
	for _, c := range all {
		if c.ParentID != nil {
			childIndex[*c.ParentID] = append(childIndex[*c.ParentID], c)
		}
	}

	queue := []*repository.Category{root}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, child := range childIndex[parent.ID] {
			child.Path = append(append([]string{}, parent.Path...), child.Name)
			child.Level = parent.Level + 1
			if err := s.repo.Update(ctx, child); err != nil {
				return fmt.Errorf("failed to refresh path for %s: %w", child.ID, err)
			}
			queue = append(queue, child)
		}
	}
	return nil
}

func (s *Service) directChildren(ctx context.Context, category *repository.Category) ([]*repository.Category, error) {
	all, err := s.repo.ListByType(ctx, category.Type)
	if err != nil {
		return nil, err
	}
	var children []*repository.Category
	for _, c := range all {
		if c.ParentID != nil && *c.ParentID == category.ID {
			children = append(children, c)
		}
	}
	return children, nil
}
