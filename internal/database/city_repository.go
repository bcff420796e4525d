package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/pkg/patch"
)

const cityColumns = `id, name, province_id, country_id, location, created_at, updated_at`

// CityRepository handles city database operations
type CityRepository struct {
	db DB
}

// NewCityRepository creates a new city repository
func NewCityRepository(db DB) *CityRepository {
	return &CityRepository{db: db}
}

// Create inserts a city and fills its id
func (r *CityRepository) Create(ctx context.Context, c *models.City) error {
	query := `
		INSERT INTO cities (name, province_id, country_id, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		c.Name, c.ProvinceID, c.CountryID, c.Location, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to create city: %w", err)
	}
	return nil
}

// GetByID returns a city or nil when absent
func (r *CityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.City, error) {
	return getOne[models.City](ctx, r.db, "city", `SELECT `+cityColumns+` FROM cities WHERE id = $1`, id)
}

// List returns all cities ordered by name
func (r *CityRepository) List(ctx context.Context) ([]models.City, error) {
	return r.selectCities(ctx, "list cities", `SELECT `+cityColumns+` FROM cities ORDER BY name`)
}

// ListByProvince returns the cities of a province
func (r *CityRepository) ListByProvince(ctx context.Context, provinceID uuid.UUID) ([]models.City, error) {
	return r.selectCities(ctx, "list cities by province",
		`SELECT `+cityColumns+` FROM cities WHERE province_id = $1 ORDER BY name`, provinceID)
}

// ListByCountry returns the cities of a country
func (r *CityRepository) ListByCountry(ctx context.Context, countryID uuid.UUID) ([]models.City, error) {
	return r.selectCities(ctx, "list cities by country",
		`SELECT `+cityColumns+` FROM cities WHERE country_id = $1 ORDER BY name`, countryID)
}

// Nearby returns cities within q.MaxDistance metres of the point, nearest first
func (r *CityRepository) Nearby(ctx context.Context, q models.NearbyQuery) ([]models.City, error) {
	query := `
		SELECT * FROM (
			SELECT ` + cityColumns + `, ` + haversineSQL + ` AS distance FROM cities
		) c
		WHERE distance <= $3
		ORDER BY distance`
	return r.selectCities(ctx, "find nearby cities", query, q.Lng, q.Lat, q.MaxDistance)
}

// Search returns cities whose name contains term
func (r *CityRepository) Search(ctx context.Context, term string) ([]models.City, error) {
	return r.selectCities(ctx, "search cities",
		`SELECT `+cityColumns+` FROM cities WHERE name ILIKE $1 ORDER BY name`, likePattern(term))
}

// Exists reports whether a city exists
func (r *CityRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return existsByID(ctx, r.db, "cities", id)
}

// Update applies a patch set
func (r *CityRepository) Update(ctx context.Context, id uuid.UUID, set *patch.Set) (int64, error) {
	return updateByID(ctx, r.db, "cities", id, set)
}

// Delete removes a city
func (r *CityRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return deleteByID(ctx, r.db, "cities", id)
}

func (r *CityRepository) selectCities(ctx context.Context, op, query string, args ...interface{}) ([]models.City, error) {
	var cities []models.City
	if err := r.db.SelectContext(ctx, &cities, query, args...); err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return cities, nil
}
