// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	catalogrepo "github.com/FACorreiaa/pricebook-admin/internal/domain/catalog/repository"
	categoryrepo "github.com/FACorreiaa/pricebook-admin/internal/domain/category/repository"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/export"
	"github.com/FACorreiaa/pricebook-admin/pkg/archive"
)

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron       *cron.Cron
	catalog    catalogrepo.CatalogRepository
	categories categoryrepo.CategoryRepository
	exporter   *export.Exporter
	store      *archive.Archive
	schedule   string
	retain     int
	logger     *slog.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(catalog catalogrepo.CatalogRepository, categories categoryrepo.CategoryRepository, exporter *export.Exporter, store *archive.Archive, schedule string, retain int, logger *slog.Logger) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:       c,
		catalog:    catalog,
		categories: categories,
		exporter:   exporter,
		store:      store,
		schedule:   schedule,
		retain:     retain,
		logger:     logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("nightly export disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.schedule, s.exportCatalog)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.String("schedule", s.schedule),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the catalog export (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.exportCatalog()
}

// exportCatalog writes a full workbook snapshot of the catalog to disk.
func (s *Scheduler) exportCatalog() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	s.logger.Info("starting nightly catalog export")

	snapshot, err := s.loadSnapshot(ctx)
	if err != nil {
		s.logger.Error("failed to load catalog snapshot", slog.Any("error", err))
		return
	}

	data, err := s.exporter.WriteXLSX(snapshot)
	if err != nil {
		s.logger.Error("failed to render export workbook", slog.Any("error", err))
		return
	}

	name := fmt.Sprintf("pricebook-%s.xlsx", time.Now().Format("2006-01-02"))
	stored, err := s.store.Save(name, data)
	if err != nil {
		s.logger.Error("failed to archive export file", slog.Any("error", err))
		return
	}

	if pruned, err := s.store.Prune(s.retain); err != nil {
		s.logger.Warn("failed to prune old exports", slog.Any("error", err))
	} else if pruned > 0 {
		s.logger.Info("pruned old exports", slog.Int("removed", pruned))
	}

	s.logger.Info("nightly catalog export completed",
		slog.String("file", stored),
		slog.Int("services", len(snapshot.Services)),
		slog.Int("materials", len(snapshot.Materials)),
	)
}

func (s *Scheduler) loadSnapshot(ctx context.Context) (*export.Snapshot, error) {
	services, err := s.catalog.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	materials, err := s.catalog.ListMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	equipment, err := s.catalog.ListEquipment(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	categories, err := s.categories.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	return &export.Snapshot{
		Services:   services,
		Materials:  materials,
		Equipment:  equipment,
		Categories: categories,
	}, nil
}
