package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/travelbooking/catalog-api/internal/database"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/pkg/patch"
	"github.com/travelbooking/catalog-api/pkg/validator"
	"golang.org/x/sync/errgroup"
)

// ReviewService manages reviews of packages and attractions
type ReviewService struct {
	reviews     *database.ReviewRepository
	users       *database.UserRepository
	packages    *database.PackageRepository
	attractions *database.AttractionRepository
	logger      *logrus.Logger
	now         func() time.Time
}

// NewReviewService creates a new review service
func NewReviewService(
	reviews *database.ReviewRepository,
	users *database.UserRepository,
	packages *database.PackageRepository,
	attractions *database.AttractionRepository,
	logger *logrus.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:     reviews,
		users:       users,
		packages:    packages,
		attractions: attractions,
		logger:      logger,
		now:         time.Now,
	}
}

// ReviewQuery selects one page of reviews
type ReviewQuery struct {
	Page       int
	Limit      int
	TargetType string
	TargetID   string
	UserID     *uuid.UUID
}

// ReviewPage is one page of reviews
type ReviewPage struct {
	Reviews    []models.ReviewView `json:"reviews"`
	Pagination models.Pagination   `json:"pagination"`
}

var reviewTargets = []string{models.TargetPackage, models.TargetAttraction}

type reviewRefs struct {
	user       *uuid.UUID
	targetType *string
	targetID   *uuid.UUID
}

func validateReview(in *models.ReviewInput, create bool) (reviewRefs, error) {
	v := validationFor(in)
	var refs reviewRefs

	refs.user = checkRef(v, "user_id", in.UserID, create)
	if in.Rating == nil {
		if create {
			v.Add("rating is required")
		}
	} else if *in.Rating < 1 || *in.Rating > 5 {
		v.Add("rating must be between 1-5")
	}
	for i, photo := range in.Photos {
		if !validator.IsHTTPURL(photo) {
			v.Add("photos[%d] must be a valid URL", i)
		}
	}

	switch {
	case in.Target == nil:
		if create {
			v.Add("target is required")
		}
	default:
		if in.Target.Type == nil {
			if create {
				v.Add("target.type is required")
			}
		} else if !lo.Contains(reviewTargets, *in.Target.Type) {
			v.Add("target.type must be 'package' or 'attraction'")
		} else {
			refs.targetType = in.Target.Type
		}
		refs.targetID = checkRef(v, "target.id", in.Target.ID, create)
	}
	return refs, v.Err()
}

// checkTarget verifies the reviewed package or attraction exists
func (s *ReviewService) checkTarget(ctx context.Context, targetType string, id uuid.UUID) error {
	exists := s.packages.Exists
	if targetType == models.TargetAttraction {
		exists = s.attractions.Exists
	}
	ok, err := exists(ctx, id)
	if err != nil {
		return internal("check review target", err)
	}
	if !ok {
		return &NotFoundError{Entity: "target", Key: id.String()}
	}
	return nil
}

// Create validates a review and checks that its user and target exist
func (s *ReviewService) Create(ctx context.Context, in *models.ReviewInput) (*models.ReviewView, error) {
	refs, err := validateReview(in, true)
	if err != nil {
		return nil, err
	}
	if err := requireExists(ctx, "user", refs.user, s.users.Exists); err != nil {
		return nil, err
	}
	if err := s.checkTarget(ctx, *refs.targetType, *refs.targetID); err != nil {
		return nil, err
	}

	now := s.now()
	r := &models.Review{
		UserID:     *refs.user,
		Rating:     *in.Rating,
		Comment:    deref(in.Comment),
		Photos:     stringArray(in.Photos),
		TargetType: *refs.targetType,
		TargetID:   *refs.targetID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if r.Photos == nil {
		r.Photos = []string{}
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return nil, internal("create review", err)
	}
	if r.ID == uuid.Nil {
		return nil, &InsertError{Entity: "review"}
	}

	s.logger.WithFields(logrus.Fields{
		"review_id":   r.ID,
		"target_type": r.TargetType,
		"target_id":   r.TargetID,
		"rating":      r.Rating,
	}).Info("Review created")
	view := r.View()
	return &view, nil
}

// List returns one page of reviews, newest first, optionally for one target
func (s *ReviewService) List(ctx context.Context, q ReviewQuery) (*ReviewPage, error) {
	q.Page, q.Limit = pageDefaults(q.Page, q.Limit)
	filter := models.ReviewFilter{
		TargetType: strings.TrimSpace(q.TargetType),
		UserID:     q.UserID,
		Offset:     (q.Page - 1) * q.Limit,
		Limit:      q.Limit,
	}
	if q.TargetID != "" {
		id, err := models.ParseID("targetId", q.TargetID)
		if err != nil {
			return nil, NewValidationError(err.Error())
		}
		filter.TargetID = &id
	}

	var (
		reviews []models.Review
		total   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reviews, err = s.reviews.List(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.reviews.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, internal("list reviews", err)
	}
	if len(reviews) == 0 {
		if q.UserID != nil {
			return nil, &NotFoundError{Entity: "reviews for this user"}
		}
		return nil, &NotFoundError{Entity: "reviews"}
	}

	return &ReviewPage{
		Reviews:    lo.Map(reviews, func(r models.Review, _ int) models.ReviewView { return r.View() }),
		Pagination: models.NewPagination(q.Page, q.Limit, total),
	}, nil
}

// ListByUser returns one page of the reviews a user wrote
func (s *ReviewService) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) (*ReviewPage, error) {
	return s.List(ctx, ReviewQuery{Page: page, Limit: limit, UserID: &userID})
}

func (s *ReviewService) load(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	r, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, internal("get review", err)
	}
	if r == nil {
		return nil, &NotFoundError{Entity: "review", Key: id.String()}
	}
	return r, nil
}

// Get returns one review
func (s *ReviewService) Get(ctx context.Context, id uuid.UUID) (*models.ReviewView, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	view := r.View()
	return &view, nil
}

// RatingStats returns the average, count and 1-5 distribution of a target's ratings
func (s *ReviewService) RatingStats(ctx context.Context, targetType, targetID string) (*models.RatingStats, error) {
	if targetType == "" || targetID == "" {
		return nil, NewValidationError("targetType and valid targetId are required")
	}
	id, err := uuid.Parse(targetID)
	if err != nil {
		return nil, NewValidationError("targetType and valid targetId are required")
	}
	stats, err := s.reviews.RatingStats(ctx, targetType, id)
	if err != nil {
		return nil, internal("compute rating stats", err)
	}
	return stats, nil
}

// Update applies the changed fields, re-checking the user and target when they change
func (s *ReviewService) Update(ctx context.Context, id uuid.UUID, in *models.ReviewInput) (*models.ReviewView, error) {
	refs, err := validateReview(in, false)
	if err != nil {
		return nil, err
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if refs.user != nil && *refs.user != current.UserID {
		if err := requireExists(ctx, "user", refs.user, s.users.Exists); err != nil {
			return nil, err
		}
	}
	targetType := lo.FromPtrOr(refs.targetType, current.TargetType)
	targetID := lo.FromPtrOr(refs.targetID, current.TargetID)
	if targetType != current.TargetType || targetID != current.TargetID {
		if err := s.checkTarget(ctx, targetType, targetID); err != nil {
			return nil, err
		}
	}

	set, err := patch.Diff(
		patch.Field{Column: "rating", Kind: patch.Number, Next: in.Rating, Current: current.Rating},
		patch.Field{Column: "comment", Kind: patch.String, Next: in.Comment, Current: current.Comment},
		patch.Field{Column: "photos", Kind: patch.Array, Next: stringArray(in.Photos), Current: current.Photos},
		patch.Field{Column: "user_id", Kind: patch.Object, Next: refs.user, Current: current.UserID},
		patch.Field{Column: "target_type", Kind: patch.String, Next: refs.targetType, Current: current.TargetType},
		patch.Field{Column: "target_id", Kind: patch.Object, Next: refs.targetID, Current: current.TargetID},
	)
	if err != nil {
		return nil, internal("diff review", err)
	}
	if err := finishUpdate("review", set, s.now(), func(set *patch.Set) (int64, error) {
		return s.reviews.Update(ctx, id, set)
	}); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"review_id": id, "columns": set.Columns()}).Info("Review updated")
	return s.Get(ctx, id)
}

// Delete removes a review
func (s *ReviewService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if _, err := s.reviews.Delete(ctx, id); err != nil {
		return internal("delete review", err)
	}
	s.logger.WithField("review_id", id).Info("Review deleted")
	return nil
}
