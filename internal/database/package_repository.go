package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/pkg/patch"
)

const packageColumns = `id, name, code, description, base_currency, duration_days, min_travelers,
	max_travelers, inclusions, exclusions, requirements, is_active, start_city_id, country_id,
	scheduled_departures, rating_avg, rating_count, created_at, updated_at`

// PackageRepository handles package database operations
type PackageRepository struct {
	db DB
}

// NewPackageRepository creates a new package repository
func NewPackageRepository(db DB) *PackageRepository {
	return &PackageRepository{db: db}
}

// Create inserts a package and fills its id
func (r *PackageRepository) Create(ctx context.Context, p *models.Package) error {
	query := `
		INSERT INTO packages (
			name, code, description, base_currency, duration_days, min_travelers,
			max_travelers, inclusions, exclusions, requirements, is_active,
			start_city_id, country_id, scheduled_departures, rating_avg, rating_count,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		p.Name, p.Code, p.Description, p.BaseCurrency, p.DurationDays, p.MinTravelers,
		p.MaxTravelers, p.Inclusions, p.Exclusions, p.Requirements, p.IsActive,
		p.StartCityID, p.CountryID, p.ScheduledDepartures, p.RatingAvg, p.RatingCount,
		p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create package: %w", err)
	}
	return nil
}

// GetByID returns a package or nil when absent
func (r *PackageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Package, error) {
	return getOne[models.Package](ctx, r.db, "package",
		`SELECT `+packageColumns+` FROM packages WHERE id = $1`, id)
}

// List returns all packages ordered by name
func (r *PackageRepository) List(ctx context.Context) ([]models.Package, error) {
	return r.selectPackages(ctx, "list packages", `SELECT `+packageColumns+` FROM packages ORDER BY name`)
}

// ListActive returns active packages
func (r *PackageRepository) ListActive(ctx context.Context) ([]models.Package, error) {
	return r.selectPackages(ctx, "list active packages",
		`SELECT `+packageColumns+` FROM packages WHERE is_active ORDER BY name`)
}

// ListByCountry returns the packages of a country
func (r *PackageRepository) ListByCountry(ctx context.Context, countryID uuid.UUID) ([]models.Package, error) {
	return r.selectPackages(ctx, "list packages by country",
		`SELECT `+packageColumns+` FROM packages WHERE country_id = $1 ORDER BY name`, countryID)
}

// ListByPopularity returns packages ordered by review count then rating,
// most reviewed first unless ascending is set
func (r *PackageRepository) ListByPopularity(ctx context.Context, limit int, ascending bool) ([]models.Package, error) {
	order := "DESC"
	if ascending {
		order = "ASC"
	}
	return r.selectPackages(ctx, "list packages by popularity",
		`SELECT `+packageColumns+` FROM packages
		ORDER BY rating_count `+order+`, rating_avg `+order+` LIMIT $1`, limit)
}

// ListByDepartureDate returns active packages with an available departure on
// the calendar day of date
func (r *PackageRepository) ListByDepartureDate(ctx context.Context, date time.Time) ([]models.Package, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	query := `
		SELECT ` + packageColumns + ` FROM packages p
		WHERE p.is_active AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(p.scheduled_departures) d
			WHERE (d->>'departureDate')::timestamptz >= $1
			  AND (d->>'departureDate')::timestamptz < $2
			  AND d->>'status' = 'available'
		)
		ORDER BY p.name`
	return r.selectPackages(ctx, "list packages by departure date", query, day, day.Add(24*time.Hour))
}

// Search returns packages whose name or code contains term
func (r *PackageRepository) Search(ctx context.Context, term string) ([]models.Package, error) {
	return r.selectPackages(ctx, "search packages",
		`SELECT `+packageColumns+` FROM packages WHERE name ILIKE $1 OR code ILIKE $1 ORDER BY name`,
		likePattern(term))
}

// SyncSoldOutDepartures marks every available departure whose booked slots
// reached its available slots as sold out and returns the packages touched
func (r *PackageRepository) SyncSoldOutDepartures(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE packages p SET
			scheduled_departures = (
				SELECT jsonb_agg(
					CASE WHEN d->>'status' = 'available'
					      AND (d->>'bookedSlots')::int >= (d->>'availableSlots')::int
					THEN jsonb_set(d, '{status}', '"soldout"')
					ELSE d END
					ORDER BY ord)
				FROM jsonb_array_elements(p.scheduled_departures) WITH ORDINALITY AS e(d, ord)
			),
			updated_at = $1
		WHERE EXISTS (
			SELECT 1 FROM jsonb_array_elements(p.scheduled_departures) d
			WHERE d->>'status' = 'available'
			  AND (d->>'bookedSlots')::int >= (d->>'availableSlots')::int
		)`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sync sold out departures: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// Exists reports whether a package exists
func (r *PackageRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return existsByID(ctx, r.db, "packages", id)
}

// Update applies a patch set
func (r *PackageRepository) Update(ctx context.Context, id uuid.UUID, set *patch.Set) (int64, error) {
	return updateByID(ctx, r.db, "packages", id, set)
}

// Delete removes a package
func (r *PackageRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return deleteByID(ctx, r.db, "packages", id)
}

func (r *PackageRepository) selectPackages(ctx context.Context, op, query string, args ...interface{}) ([]models.Package, error) {
	var packages []models.Package
	if err := r.db.SelectContext(ctx, &packages, query, args...); err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return packages, nil
}
