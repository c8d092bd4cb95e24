package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors for missing catalog rows
var (
	ErrServiceNotFound = errors.New("service not found")
)

// PostgresCatalogRepository implements CatalogRepository using PostgreSQL
type PostgresCatalogRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCatalogRepository creates a new PostgreSQL catalog repository
func NewPostgresCatalogRepository(pool *pgxpool.Pool) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{pool: pool}
}

const selectServices = `
	SELECT id, name, description, code, unit, categories, hours, static_price,
		use_dynamic_pricing, linked_materials, taxable, active, source_key, created_at, updated_at
	FROM services`

// CreateService inserts a new service
func (r *PostgresCatalogRepository) CreateService(ctx context.Context, svc *Service) error {
	query := `
		INSERT INTO services (id, name, description, code, unit, categories, hours, static_price,
			use_dynamic_pricing, linked_materials, taxable, active, source_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		svc.ID, svc.Name, svc.Description, svc.Code, svc.Unit, svc.Categories, svc.Hours,
		svc.StaticPrice, svc.UseDynamicPricing, svc.LinkedMaterials, svc.Taxable, svc.Active, svc.SourceKey,
	).Scan(&svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

// GetService retrieves a service by id
func (r *PostgresCatalogRepository) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	rows, err := r.pool.Query(ctx, selectServices+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	defer rows.Close()

	services, err := scanServices(rows)
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		return nil, ErrServiceNotFound
	}
	return services[0], nil
}

// UpdateService rewrites a service
func (r *PostgresCatalogRepository) UpdateService(ctx context.Context, svc *Service) error {
	query := `
		UPDATE services
		SET name = $2, description = $3, code = $4, unit = $5, categories = $6, hours = $7,
			static_price = $8, use_dynamic_pricing = $9, linked_materials = $10,
			taxable = $11, active = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		svc.ID, svc.Name, svc.Description, svc.Code, svc.Unit, svc.Categories, svc.Hours,
		svc.StaticPrice, svc.UseDynamicPricing, svc.LinkedMaterials, svc.Taxable, svc.Active,
	).Scan(&svc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrServiceNotFound
		}
		return fmt.Errorf("failed to update service: %w", err)
	}
	return nil
}

// DeleteService removes a service
func (r *PostgresCatalogRepository) DeleteService(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

// ListServices retrieves every service ordered by name
func (r *PostgresCatalogRepository) ListServices(ctx context.Context) ([]*Service, error) {
	rows, err := r.pool.Query(ctx, selectServices+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()
	return scanServices(rows)
}

// CreateMaterial inserts a new material
func (r *PostgresCatalogRepository) CreateMaterial(ctx context.Context, m *Material) error {
	query := `
		INSERT INTO materials (id, name, code, unit, categories, cost, taxable, active, source_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		m.ID, m.Name, m.Code, m.Unit, m.Categories, m.Cost, m.Taxable, m.Active, m.SourceKey,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create material: %w", err)
	}
	return nil
}

// GetMaterialsByIDs fetches the given materials; unknown ids are skipped
func (r *PostgresCatalogRepository) GetMaterialsByIDs(ctx context.Context, ids []uuid.UUID) ([]*Material, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, name, code, unit, categories, cost, taxable, active, source_key, created_at, updated_at
		FROM materials
		WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get materials: %w", err)
	}
	defer rows.Close()
	return scanMaterials(rows)
}

// ListMaterials retrieves every material ordered by name
func (r *PostgresCatalogRepository) ListMaterials(ctx context.Context) ([]*Material, error) {
	query := `
		SELECT id, name, code, unit, categories, cost, taxable, active, source_key, created_at, updated_at
		FROM materials
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	defer rows.Close()
	return scanMaterials(rows)
}

// CreateEquipment inserts a new equipment item
func (r *PostgresCatalogRepository) CreateEquipment(ctx context.Context, e *Equipment) error {
	query := `
		INSERT INTO equipment (id, name, code, categories, cost, price, active, source_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		e.ID, e.Name, e.Code, e.Categories, e.Cost, e.Price, e.Active, e.SourceKey,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create equipment: %w", err)
	}
	return nil
}

// ListEquipment retrieves every equipment item ordered by name
func (r *PostgresCatalogRepository) ListEquipment(ctx context.Context) ([]*Equipment, error) {
	query := `
		SELECT id, name, code, categories, cost, price, active, source_key, created_at, updated_at
		FROM equipment
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	defer rows.Close()

	var items []*Equipment
	for rows.Next() {
		e := &Equipment{}
		err := rows.Scan(&e.ID, &e.Name, &e.Code, &e.Categories, &e.Cost, &e.Price,
			&e.Active, &e.SourceKey, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan equipment: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read equipment: %w", err)
	}
	return items, nil
}

// RemoveCategoryRefs strips a deleted category from all catalog tables
func (r *PostgresCatalogRepository) RemoveCategoryRefs(ctx context.Context, categoryID uuid.UUID) error {
	for _, table := range []string{"services", "materials", "equipment"} {
		query := fmt.Sprintf(
			`UPDATE %s SET categories = array_remove(categories, $1), updated_at = NOW()
			 WHERE $1 = ANY(categories)`, table)
		if _, err := r.pool.Exec(ctx, query, categoryID); err != nil {
			return fmt.Errorf("failed to remove category refs from %s: %w", table, err)
		}
	}
	return nil
}

// BulkUpsertServices persists imported services, matching on source_key
func (r *PostgresCatalogRepository) BulkUpsertServices(ctx context.Context, services []*Service) error {
	query := `
		INSERT INTO services (id, name, description, code, unit, categories, hours, static_price,
			use_dynamic_pricing, linked_materials, taxable, active, source_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (source_key) WHERE source_key <> ''
		DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description, code = EXCLUDED.code,
			unit = EXCLUDED.unit, categories = EXCLUDED.categories, hours = EXCLUDED.hours,
			static_price = EXCLUDED.static_price, taxable = EXCLUDED.taxable,
			active = EXCLUDED.active, updated_at = NOW()`

	batch := &pgx.Batch{}
	for _, svc := range services {
		if svc.ID == uuid.Nil {
			svc.ID = uuid.New()
		}
		batch.Queue(query, svc.ID, svc.Name, svc.Description, svc.Code, svc.Unit, svc.Categories,
			svc.Hours, svc.StaticPrice, svc.UseDynamicPricing, svc.LinkedMaterials,
			svc.Taxable, svc.Active, svc.SourceKey)
	}
	return r.flushBatch(ctx, batch, len(services))
}

// BulkUpsertMaterials persists imported materials, matching on source_key
func (r *PostgresCatalogRepository) BulkUpsertMaterials(ctx context.Context, materials []*Material) error {
	query := `
		INSERT INTO materials (id, name, code, unit, categories, cost, taxable, active, source_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source_key) WHERE source_key <> ''
		DO UPDATE SET name = EXCLUDED.name, code = EXCLUDED.code, unit = EXCLUDED.unit,
			categories = EXCLUDED.categories, cost = EXCLUDED.cost, taxable = EXCLUDED.taxable,
			active = EXCLUDED.active, updated_at = NOW()`

	batch := &pgx.Batch{}
	for _, m := range materials {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		batch.Queue(query, m.ID, m.Name, m.Code, m.Unit, m.Categories, m.Cost, m.Taxable, m.Active, m.SourceKey)
	}
	return r.flushBatch(ctx, batch, len(materials))
}

func (r *PostgresCatalogRepository) flushBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < n; i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert catalog item: %w", err)
		}
	}
	return nil
}

func scanServices(rows pgx.Rows) ([]*Service, error) {
	var services []*Service
	for rows.Next() {
		svc := &Service{}
		err := rows.Scan(
			&svc.ID, &svc.Name, &svc.Description, &svc.Code, &svc.Unit, &svc.Categories,
			&svc.Hours, &svc.StaticPrice, &svc.UseDynamicPricing, &svc.LinkedMaterials,
			&svc.Taxable, &svc.Active, &svc.SourceKey, &svc.CreatedAt, &svc.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read services: %w", err)
	}
	return services, nil
}

func scanMaterials(rows pgx.Rows) ([]*Material, error) {
	var materials []*Material
	for rows.Next() {
		m := &Material{}
		err := rows.Scan(&m.ID, &m.Name, &m.Code, &m.Unit, &m.Categories, &m.Cost,
			&m.Taxable, &m.Active, &m.SourceKey, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read materials: %w", err)
	}
	return materials, nil
}
