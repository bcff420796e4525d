package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/pkg/patch"
)

const countryColumns = `id, name, iso2, iso3, phone_code, currency, created_at, updated_at`

// CountryRepository handles country database operations
type CountryRepository struct {
	db DB
}

// NewCountryRepository creates a new country repository
func NewCountryRepository(db DB) *CountryRepository {
	return &CountryRepository{db: db}
}

// Create inserts a country and fills its id and timestamps
func (r *CountryRepository) Create(ctx context.Context, c *models.Country) error {
	query := `
		INSERT INTO countries (name, iso2, iso3, phone_code, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		c.Name, c.ISO2, c.ISO3, c.PhoneCode, c.Currency, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to create country: %w", err)
	}
	return nil
}

// GetByID returns a country or nil when absent
func (r *CountryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Country, error) {
	return getOne[models.Country](ctx, r.db, "country",
		`SELECT `+countryColumns+` FROM countries WHERE id = $1`, id)
}

// GetByISO returns the country with a matching iso2 or iso3 code
func (r *CountryRepository) GetByISO(ctx context.Context, code string) (*models.Country, error) {
	column := "iso2"
	if len(code) == 3 {
		column = "iso3"
	}
	return getOne[models.Country](ctx, r.db, "country",
		`SELECT `+countryColumns+` FROM countries WHERE `+column+` = upper($1)`, code)
}

// List returns all countries ordered by name
func (r *CountryRepository) List(ctx context.Context) ([]models.Country, error) {
	var countries []models.Country
	err := r.db.SelectContext(ctx, &countries, `SELECT `+countryColumns+` FROM countries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	return countries, nil
}

// Search returns countries whose name contains term, case-insensitively
func (r *CountryRepository) Search(ctx context.Context, term string) ([]models.Country, error) {
	var countries []models.Country
	err := r.db.SelectContext(ctx, &countries,
		`SELECT `+countryColumns+` FROM countries WHERE name ILIKE $1 ORDER BY name`, likePattern(term))
	if err != nil {
		return nil, fmt.Errorf("failed to search countries: %w", err)
	}
	return countries, nil
}

// Exists reports whether a country exists
func (r *CountryRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return existsByID(ctx, r.db, "countries", id)
}

// Update applies a patch set
func (r *CountryRepository) Update(ctx context.Context, id uuid.UUID, set *patch.Set) (int64, error) {
	return updateByID(ctx, r.db, "countries", id, set)
}

// Delete removes a country
func (r *CountryRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return deleteByID(ctx, r.db, "countries", id)
}
