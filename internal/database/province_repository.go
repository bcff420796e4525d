package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/pkg/patch"
)

const provinceColumns = `id, name, country_id, created_at, updated_at`

// ProvinceRepository handles province database operations
type ProvinceRepository struct {
	db DB
}

// NewProvinceRepository creates a new province repository
func NewProvinceRepository(db DB) *ProvinceRepository {
	return &ProvinceRepository{db: db}
}

// Create inserts a province and fills its id
func (r *ProvinceRepository) Create(ctx context.Context, p *models.Province) error {
	query := `
		INSERT INTO provinces (name, country_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	if err := r.db.QueryRowxContext(ctx, query, p.Name, p.CountryID, p.CreatedAt, p.UpdatedAt).Scan(&p.ID); err != nil {
		return fmt.Errorf("failed to create province: %w", err)
	}
	return nil
}

// GetByID returns a province or nil when absent
func (r *ProvinceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Province, error) {
	return getOne[models.Province](ctx, r.db, "province",
		`SELECT `+provinceColumns+` FROM provinces WHERE id = $1`, id)
}

// List returns all provinces ordered by name
func (r *ProvinceRepository) List(ctx context.Context) ([]models.Province, error) {
	var provinces []models.Province
	if err := r.db.SelectContext(ctx, &provinces, `SELECT `+provinceColumns+` FROM provinces ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list provinces: %w", err)
	}
	return provinces, nil
}

// ListByCountry returns the provinces of a country
func (r *ProvinceRepository) ListByCountry(ctx context.Context, countryID uuid.UUID) ([]models.Province, error) {
	var provinces []models.Province
	err := r.db.SelectContext(ctx, &provinces,
		`SELECT `+provinceColumns+` FROM provinces WHERE country_id = $1 ORDER BY name`, countryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list provinces by country: %w", err)
	}
	return provinces, nil
}

// Search returns provinces whose name contains term
func (r *ProvinceRepository) Search(ctx context.Context, term string) ([]models.Province, error) {
	var provinces []models.Province
	err := r.db.SelectContext(ctx, &provinces,
		`SELECT `+provinceColumns+` FROM provinces WHERE name ILIKE $1 ORDER BY name`, likePattern(term))
	if err != nil {
		return nil, fmt.Errorf("failed to search provinces: %w", err)
	}
	return provinces, nil
}

// Exists reports whether a province exists
func (r *ProvinceRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return existsByID(ctx, r.db, "provinces", id)
}

// Update applies a patch set
func (r *ProvinceRepository) Update(ctx context.Context, id uuid.UUID, set *patch.Set) (int64, error) {
	return updateByID(ctx, r.db, "provinces", id, set)
}

// Delete removes a province
func (r *ProvinceRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return deleteByID(ctx, r.db, "provinces", id)
}
