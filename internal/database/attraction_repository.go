package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/pkg/patch"
)

const attractionColumns = `id, name, description, city_id, province_id, country_id, location,
	categories, images, rating_avg, rating_count, is_active, created_at, updated_at`

// AttractionRepository handles attraction database operations
type AttractionRepository struct {
	db DB
}

// NewAttractionRepository creates a new attraction repository
func NewAttractionRepository(db DB) *AttractionRepository {
	return &AttractionRepository{db: db}
}

// Create inserts an attraction and fills its id
func (r *AttractionRepository) Create(ctx context.Context, a *models.Attraction) error {
	query := `
		INSERT INTO attractions (
			name, description, city_id, province_id, country_id, location,
			categories, images, rating_avg, rating_count, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		a.Name, a.Description, a.CityID, a.ProvinceID, a.CountryID, a.Location,
		a.Categories, a.Images, a.RatingAvg, a.RatingCount, a.IsActive, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create attraction: %w", err)
	}
	return nil
}

// GetByID returns an attraction or nil when absent
func (r *AttractionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Attraction, error) {
	return getOne[models.Attraction](ctx, r.db, "attraction",
		`SELECT `+attractionColumns+` FROM attractions WHERE id = $1`, id)
}

func attractionWhere(f models.AttractionFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if f.ActiveOnly {
		conds = append(conds, "is_active")
	}
	if f.Query != "" {
		args = append(args, likePattern(f.Query))
		conds = append(conds, fmt.Sprintf("(name ILIKE $%[1]d OR description ILIKE $%[1]d)", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("$%d = ANY(categories)", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of attractions matching f
func (r *AttractionRepository) List(ctx context.Context, f models.AttractionFilter) ([]models.Attraction, error) {
	where, args := attractionWhere(f)
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM attractions%s ORDER BY created_at, id LIMIT $%d OFFSET $%d`,
		attractionColumns, where, len(args)-1, len(args))
	return r.selectAttractions(ctx, "list attractions", query, args...)
}

// Count returns the number of attractions matching f, ignoring paging
func (r *AttractionRepository) Count(ctx context.Context, f models.AttractionFilter) (int, error) {
	where, args := attractionWhere(f)
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM attractions`+where, args...); err != nil {
		return 0, fmt.Errorf("failed to count attractions: %w", err)
	}
	return total, nil
}

// ListByParent returns the active attractions whose column (city_id, province_id or
// country_id) equals id
func (r *AttractionRepository) ListByParent(ctx context.Context, column string, id uuid.UUID) ([]models.Attraction, error) {
	switch column {
	case "city_id", "province_id", "country_id":
	default:
		return nil, fmt.Errorf("unsupported attraction parent column %q", column)
	}
	return r.selectAttractions(ctx, "list attractions by "+column,
		`SELECT `+attractionColumns+` FROM attractions WHERE `+column+` = $1 AND is_active ORDER BY name`, id)
}

// Nearby returns active attractions within q.MaxDistance metres, nearest first
func (r *AttractionRepository) Nearby(ctx context.Context, q models.NearbyQuery) ([]models.Attraction, error) {
	query := `
		SELECT * FROM (
			SELECT ` + attractionColumns + `, ` + haversineSQL + ` AS distance
			FROM attractions WHERE is_active
		) a
		WHERE distance <= $3
		ORDER BY distance
		LIMIT $4`
	return r.selectAttractions(ctx, "find nearby attractions", query, q.Lng, q.Lat, q.MaxDistance, q.Limit)
}

// UpdateRating stores a recomputed rating aggregate
func (r *AttractionRepository) UpdateRating(ctx context.Context, id uuid.UUID, avg float64, count int, at time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE attractions SET rating_avg = $1, rating_count = $2, updated_at = $3 WHERE id = $4`,
		avg, count, at, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update attraction rating: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// Exists reports whether an attraction exists
func (r *AttractionRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return existsByID(ctx, r.db, "attractions", id)
}

// Update applies a patch set
func (r *AttractionRepository) Update(ctx context.Context, id uuid.UUID, set *patch.Set) (int64, error) {
	return updateByID(ctx, r.db, "attractions", id, set)
}

// Delete removes an attraction
func (r *AttractionRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return deleteByID(ctx, r.db, "attractions", id)
}

func (r *AttractionRepository) selectAttractions(ctx context.Context, op, query string, args ...interface{}) ([]models.Attraction, error) {
	var attractions []models.Attraction
	if err := r.db.SelectContext(ctx, &attractions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return attractions, nil
}
