package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/pkg/patch"
)

const reviewColumns = `id, user_id, rating, comment, photos, target_type, target_id, created_at, updated_at`

// ReviewRepository handles review database operations
type ReviewRepository struct {
	db DB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review and fills its id
func (r *ReviewRepository) Create(ctx context.Context, rv *models.Review) error {
	query := `
		INSERT INTO reviews (user_id, rating, comment, photos, target_type, target_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		rv.UserID, rv.Rating, rv.Comment, rv.Photos, rv.TargetType, rv.TargetID, rv.CreatedAt, rv.UpdatedAt,
	).Scan(&rv.ID)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// GetByID returns a review or nil when absent
func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	return getOne[models.Review](ctx, r.db, "review", `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
}

func reviewWhere(f models.ReviewFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if f.TargetType != "" {
		args = append(args, f.TargetType)
		conds = append(conds, fmt.Sprintf("target_type = $%d", len(args)))
	}
	if f.TargetID != nil {
		args = append(args, *f.TargetID)
		conds = append(conds, fmt.Sprintf("target_id = $%d", len(args)))
	}
	if f.UserID != nil {
		args = append(args, *f.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of reviews matching f, newest first
func (r *ReviewRepository) List(ctx context.Context, f models.ReviewFilter) ([]models.Review, error) {
	where, args := reviewWhere(f)
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM reviews%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		reviewColumns, where, len(args)-1, len(args))

	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// Count returns the number of reviews matching f, ignoring paging
func (r *ReviewRepository) Count(ctx context.Context, f models.ReviewFilter) (int, error) {
	where, args := reviewWhere(f)
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reviews`+where, args...); err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return total, nil
}

type ratingBucket struct {
	Rating int `db:"rating"`
	Count  int `db:"count"`
}

// RatingStats aggregates the ratings of one target. The average is rounded
// to one decimal.
func (r *ReviewRepository) RatingStats(ctx context.Context, targetType string, targetID uuid.UUID) (*models.RatingStats, error) {
	var buckets []ratingBucket
	query := `
		SELECT rating, COUNT(*) AS count FROM reviews
		WHERE target_type = $1 AND target_id = $2
		GROUP BY rating`
	if err := r.db.SelectContext(ctx, &buckets, query, targetType, targetID); err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	stats := &models.RatingStats{Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	sum := 0
	for _, b := range buckets {
		stats.TotalReviews += b.Count
		sum += b.Rating * b.Count
		if _, ok := stats.Distribution[b.Rating]; ok {
			stats.Distribution[b.Rating] = b.Count
		}
	}
	if stats.TotalReviews > 0 {
		avg := float64(sum) / float64(stats.TotalReviews)
		stats.AverageRating = float64(int(avg*10+0.5)) / 10
	}
	return stats, nil
}

// Update applies a patch set
func (r *ReviewRepository) Update(ctx context.Context, id uuid.UUID, set *patch.Set) (int64, error) {
	return updateByID(ctx, r.db, "reviews", id, set)
}

// Delete removes a review
func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return deleteByID(ctx, r.db, "reviews", id)
}
