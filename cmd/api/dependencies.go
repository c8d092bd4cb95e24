package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cataloghandler "github.com/FACorreiaa/pricebook-admin/internal/domain/catalog/handler"
	catalogrepo "github.com/FACorreiaa/pricebook-admin/internal/domain/catalog/repository"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/catalog/search"
	catalogservice "github.com/FACorreiaa/pricebook-admin/internal/domain/catalog/service"
	categoryhandler "github.com/FACorreiaa/pricebook-admin/internal/domain/category/handler"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/category/keywords"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/category/matcher"
	categoryrepo "github.com/FACorreiaa/pricebook-admin/internal/domain/category/repository"
	categoryservice "github.com/FACorreiaa/pricebook-admin/internal/domain/category/service"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/export"
	exporthandler "github.com/FACorreiaa/pricebook-admin/internal/domain/export/handler"
	importhandler "github.com/FACorreiaa/pricebook-admin/internal/domain/import/handler"
	importservice "github.com/FACorreiaa/pricebook-admin/internal/domain/import/service"
	"github.com/FACorreiaa/pricebook-admin/internal/domain/pricing"
	pricinghandler "github.com/FACorreiaa/pricebook-admin/internal/domain/pricing/handler"

	"github.com/FACorreiaa/pricebook-admin/pkg/archive"
	"github.com/FACorreiaa/pricebook-admin/pkg/config"
	"github.com/FACorreiaa/pricebook-admin/pkg/cron"
	"github.com/FACorreiaa/pricebook-admin/pkg/db"
	"github.com/FACorreiaa/pricebook-admin/pkg/metrics"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	DB      *db.DB
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Repositories
	CategoryRepo categoryrepo.CategoryRepository
	CatalogRepo  catalogrepo.CatalogRepository
	PricingRepo  *pricing.Repository
	KeywordStore *keywords.Store

	// Services
	CategoryService *categoryservice.Service
	CatalogService  *catalogservice.Service
	PricingService  *pricing.Service
	ImportService   *importservice.ImportService
	Exporter        *export.Exporter
	ExportArchive   *archive.Archive
	Matcher         *matcher.Engine
	SearchIndex     *search.Index
	Scheduler       *cron.Scheduler

	// Handlers
	CategoryHandler *categoryhandler.CategoryHandler
	CatalogHandler  *cataloghandler.CatalogHandler
	PricingHandler  *pricinghandler.PricingHandler
	ImportHandler   *importhandler.ImportHandler
	ExportHandler   *exporthandler.ExportHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(prometheus.DefaultRegisterer),
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}
	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	d.CategoryRepo = categoryrepo.NewPostgresCategoryRepository(d.DB.Pool)
	d.CatalogRepo = catalogrepo.NewPostgresCatalogRepository(d.DB.Pool)
	d.PricingRepo = pricing.NewRepository(d.DB.Pool)
	d.KeywordStore = keywords.NewStore(d.DB.Pool)

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	d.PricingService = pricing.NewService(d.PricingRepo, d.Logger)
	d.CatalogService = catalogservice.NewService(d.CatalogRepo, d.PricingService, d.Logger)
	d.CategoryService = categoryservice.NewService(d.CategoryRepo, d.CatalogService, d.Logger)

	// Keyword matcher seeded from the persisted category tree plus any
	// operator-defined patterns
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	categories, err := d.CategoryRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categories for matcher: %w", err)
	}
	stored, err := d.KeywordStore.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load category keywords: %w", err)
	}
	kws := make([]matcher.Keyword, 0, len(stored))
	for _, k := range stored {
		kws = append(kws, matcher.Keyword{Pattern: k.Pattern, CategoryID: k.CategoryID})
	}
	d.Matcher = matcher.NewEngine(categories, kws)

	// Import pipeline with keyword suggestions wired in
	d.ImportService = importservice.NewImportService(d.CategoryRepo, d.CatalogRepo, d.Metrics, d.Logger).
		WithCategoryMatcher(d.Matcher)

	d.Exporter = export.NewExporter(d.Metrics, d.Logger)

	store, err := archive.New(d.Config.Exporting.Directory)
	if err != nil {
		return fmt.Errorf("failed to init export archive: %w", err)
	}
	d.ExportArchive = store

	// Full-text catalog search
	index, err := search.NewIndex(d.Config.Search.IndexPath)
	if err != nil {
		return fmt.Errorf("failed to init search index: %w", err)
	}
	d.SearchIndex = index

	// Nightly export job
	d.Scheduler = cron.NewScheduler(
		d.CatalogRepo, d.CategoryRepo, d.Exporter, d.ExportArchive,
		d.Config.Exporting.NightlySchedule, d.Config.Exporting.RetainCount,
		d.Logger,
	)

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.CategoryHandler = categoryhandler.NewCategoryHandler(d.CategoryService, d.KeywordStore, d.Matcher, d.Logger)
	d.CatalogHandler = cataloghandler.NewCatalogHandler(d.CatalogService, d.SearchIndex, d.Logger)
	d.PricingHandler = pricinghandler.NewPricingHandler(d.PricingService, d.CatalogService, d.Metrics, d.Logger)
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Logger)
	d.ExportHandler = exporthandler.NewExportHandler(d.Exporter, d.CatalogRepo, d.CategoryRepo, d.ExportArchive, d.Logger)

	d.Logger.Info("handlers initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	if d.SearchIndex != nil {
		if err := d.SearchIndex.Close(); err != nil {
			d.Logger.Warn("failed to close search index", slog.Any("error", err))
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
