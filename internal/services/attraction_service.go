package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/travelbooking/catalog-api/internal/database"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/pkg/patch"
	"github.com/travelbooking/catalog-api/pkg/validator"
	"golang.org/x/sync/errgroup"
)

// AttractionService manages attractions and their ratings
type AttractionService struct {
	attractions *database.AttractionRepository
	cities      *database.CityRepository
	provinces   *database.ProvinceRepository
	countries   *database.CountryRepository
	logger      *logrus.Logger
	now         func() time.Time
}

// NewAttractionService creates a new attraction service
func NewAttractionService(
	attractions *database.AttractionRepository,
	cities *database.CityRepository,
	provinces *database.ProvinceRepository,
	countries *database.CountryRepository,
	logger *logrus.Logger,
) *AttractionService {
	return &AttractionService{
		attractions: attractions,
		cities:      cities,
		provinces:   provinces,
		countries:   countries,
		logger:      logger,
		now:         time.Now,
	}
}

// AttractionQuery selects one page of attractions
type AttractionQuery struct {
	Page       int
	Limit      int
	ActiveOnly bool
	Query      string
	Category   string
}

// AttractionPage is one page of attractions
type AttractionPage struct {
	Attractions []models.Attraction `json:"attractions"`
	Pagination  models.PageInfo     `json:"pagination"`
}

type attractionRefs struct {
	city, province, country *uuid.UUID
}

func validateAttraction(in *models.AttractionInput, create bool) (attractionRefs, *models.GeoPoint, error) {
	v := validationFor(in)
	checkName(v, "name", in.Name, 200, create)
	if in.Description != nil && len([]rune(*in.Description)) > 2000 {
		v.Add("description must be less than 2000 characters")
	}
	refs := attractionRefs{
		city:     checkRef(v, "city_id", in.CityID, create),
		province: checkRef(v, "province_id", in.ProvinceID, create),
		country:  checkRef(v, "country_id", in.CountryID, create),
	}
	location := checkLocation(v, in.Location, false)
	for i, c := range in.Categories {
		if strings.TrimSpace(c) == "" {
			v.Add("categories[%d] cannot be empty", i)
		}
	}
	for i, img := range in.Images {
		if !validator.IsHTTPURL(img) {
			v.Add("images[%d] must be a valid URL", i)
		}
	}
	if in.RatingAvg != nil && (*in.RatingAvg < 0 || *in.RatingAvg > 5) {
		v.Add("ratingAvg must be between 0 and 5")
	}
	if in.RatingCount != nil && *in.RatingCount < 0 {
		v.Add("ratingCount cannot be negative")
	}
	return refs, location, v.Err()
}

// checkParents verifies the referenced city, province and country exist
func (s *AttractionService) checkParents(ctx context.Context, refs attractionRefs) error {
	if err := requireExists(ctx, "city", refs.city, s.cities.Exists); err != nil {
		return err
	}
	if err := requireExists(ctx, "province", refs.province, s.provinces.Exists); err != nil {
		return err
	}
	return requireExists(ctx, "country", refs.country, s.countries.Exists)
}

func stringArray(values []string) pq.StringArray {
	if values == nil {
		return nil
	}
	return pq.StringArray(values)
}

// ============================================================================
// CREATE
// ============================================================================

// Create validates an attraction, checks its parents and stores it
func (s *AttractionService) Create(ctx context.Context, in *models.AttractionInput) (*models.Attraction, error) {
	refs, location, err := validateAttraction(in, true)
	if err != nil {
		return nil, err
	}
	if err := s.checkParents(ctx, refs); err != nil {
		return nil, err
	}

	now := s.now()
	a := &models.Attraction{
		Name:        strings.TrimSpace(*in.Name),
		Description: deref(in.Description),
		CityID:      *refs.city,
		ProvinceID:  *refs.province,
		CountryID:   *refs.country,
		Categories:  pq.StringArray{},
		Images:      pq.StringArray{},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if location != nil {
		a.Location = *location
	}
	if in.Categories != nil {
		a.Categories = stringArray(in.Categories)
	}
	if in.Images != nil {
		a.Images = stringArray(in.Images)
	}
	if in.RatingAvg != nil {
		a.RatingAvg = *in.RatingAvg
	}
	if in.RatingCount != nil {
		a.RatingCount = *in.RatingCount
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}

	if err := s.attractions.Create(ctx, a); err != nil {
		return nil, internal("create attraction", err)
	}
	if a.ID == uuid.Nil {
		return nil, &InsertError{Entity: "attraction"}
	}

	s.logger.WithFields(logrus.Fields{
		"attraction_id": a.ID,
		"city_id":       a.CityID,
	}).Info("Attraction created")
	return a, nil
}

// ============================================================================
// READ
// ============================================================================

// List returns one page of attractions
func (s *AttractionService) List(ctx context.Context, q AttractionQuery) (*AttractionPage, error) {
	q.Query, q.Category = "", ""
	return s.page(ctx, q)
}

// Search returns one page of active attractions matching a text query and/or category
func (s *AttractionService) Search(ctx context.Context, q AttractionQuery) (*AttractionPage, error) {
	q.Query = strings.TrimSpace(q.Query)
	q.Category = strings.TrimSpace(q.Category)
	if q.Query == "" && q.Category == "" {
		return nil, NewValidationError("q or category is required")
	}
	q.ActiveOnly = true
	return s.page(ctx, q)
}

func (s *AttractionService) page(ctx context.Context, q AttractionQuery) (*AttractionPage, error) {
	q.Page, q.Limit = pageDefaults(q.Page, q.Limit)
	filter := models.AttractionFilter{
		ActiveOnly: q.ActiveOnly,
		Query:      q.Query,
		Category:   q.Category,
		Offset:     (q.Page - 1) * q.Limit,
		Limit:      q.Limit,
	}

	var (
		attractions []models.Attraction
		total       int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attractions, err = s.attractions.List(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.attractions.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, internal("list attractions", err)
	}
	if len(attractions) == 0 {
		return nil, &NotFoundError{Entity: "attractions"}
	}

	return &AttractionPage{
		Attractions: attractions,
		Pagination: models.PageInfo{
			CurrentPage:  q.Page,
			TotalPages:   int(math.Ceil(float64(total) / float64(q.Limit))),
			TotalItems:   total,
			ItemsPerPage: q.Limit,
		},
	}, nil
}

// Get returns one attraction
func (s *AttractionService) Get(ctx context.Context, id uuid.UUID) (*models.Attraction, error) {
	a, err := s.attractions.GetByID(ctx, id)
	if err != nil {
		return nil, internal("get attraction", err)
	}
	if a == nil {
		return nil, &NotFoundError{Entity: "attraction", Key: id.String()}
	}
	return a, nil
}

// ListByCity returns the active attractions of a city
func (s *AttractionService) ListByCity(ctx context.Context, id uuid.UUID) ([]models.Attraction, error) {
	return s.byParent(ctx, "city_id", id)
}

// ListByProvince returns the active attractions of a province
func (s *AttractionService) ListByProvince(ctx context.Context, id uuid.UUID) ([]models.Attraction, error) {
	return s.byParent(ctx, "province_id", id)
}

// ListByCountry returns the active attractions of a country
func (s *AttractionService) ListByCountry(ctx context.Context, id uuid.UUID) ([]models.Attraction, error) {
	return s.byParent(ctx, "country_id", id)
}

func (s *AttractionService) byParent(ctx context.Context, column string, id uuid.UUID) ([]models.Attraction, error) {
	attractions, err := s.attractions.ListByParent(ctx, column, id)
	if err != nil {
		return nil, internal("list attractions", err)
	}
	if len(attractions) == 0 {
		return nil, &NotFoundError{Entity: "attractions", Key: id.String()}
	}
	return attractions, nil
}

// Nearby returns active attractions around a point, closest first (default limit 10)
func (s *AttractionService) Nearby(ctx context.Context, q models.NearbyQuery) ([]models.Attraction, error) {
	if err := validateNearby(&q, 10); err != nil {
		return nil, err
	}
	attractions, err := s.attractions.Nearby(ctx, q)
	if err != nil {
		return nil, internal("find nearby attractions", err)
	}
	if len(attractions) == 0 {
		return nil, &NotFoundError{Entity: "attractions"}
	}
	return attractions, nil
}

// ============================================================================
// UPDATE
// ============================================================================

// Update applies the changed fields, re-checking parents that change
func (s *AttractionService) Update(ctx context.Context, id uuid.UUID, in *models.AttractionInput) (*models.Attraction, error) {
	refs, location, err := validateAttraction(in, false)
	if err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Only parents that actually change are looked up
	changed := attractionRefs{}
	if refs.city != nil && *refs.city != current.CityID {
		changed.city = refs.city
	}
	if refs.province != nil && *refs.province != current.ProvinceID {
		changed.province = refs.province
	}
	if refs.country != nil && *refs.country != current.CountryID {
		changed.country = refs.country
	}
	if err := s.checkParents(ctx, changed); err != nil {
		return nil, err
	}

	set, err := patch.Diff(
		patch.Field{Column: "name", Kind: patch.String, Next: trimPtr(in.Name), Current: current.Name},
		patch.Field{Column: "description", Kind: patch.String, Next: trimPtr(in.Description), Current: current.Description},
		patch.Field{Column: "city_id", Kind: patch.Object, Next: refs.city, Current: current.CityID},
		patch.Field{Column: "province_id", Kind: patch.Object, Next: refs.province, Current: current.ProvinceID},
		patch.Field{Column: "country_id", Kind: patch.Object, Next: refs.country, Current: current.CountryID},
		patch.Field{Column: "location", Kind: patch.Object, Next: location, Current: current.Location},
		patch.Field{Column: "categories", Kind: patch.Array, Next: stringArray(in.Categories), Current: current.Categories},
		patch.Field{Column: "images", Kind: patch.Array, Next: stringArray(in.Images), Current: current.Images},
		patch.Field{Column: "rating_avg", Kind: patch.Number, Next: in.RatingAvg, Current: current.RatingAvg},
		patch.Field{Column: "rating_count", Kind: patch.Number, Next: in.RatingCount, Current: current.RatingCount},
		patch.Field{Column: "is_active", Kind: patch.Bool, Next: in.IsActive, Current: current.IsActive},
	)
	if err != nil {
		return nil, internal("diff attraction", err)
	}
	if err := finishUpdate("attraction", set, s.now(), func(set *patch.Set) (int64, error) {
		rows, err := s.attractions.Update(ctx, id, set)
		return rows, missingParent(err, "Attraction")
	}); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"attraction_id": id, "columns": set.Columns()}).Info("Attraction updated")
	return s.Get(ctx, id)
}

// UpdateRating folds one rating (0-5) into the running average
func (s *AttractionService) UpdateRating(ctx context.Context, id uuid.UUID, rating *float64) (*models.Attraction, error) {
	if rating == nil {
		return nil, NewValidationError("rating is required")
	}
	if *rating < 0 || *rating > 5 {
		return nil, NewValidationError("rating must be between 0 and 5")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	count := current.RatingCount + 1
	avg := (current.RatingAvg*float64(current.RatingCount) + *rating) / float64(count)
	rows, err := s.attractions.UpdateRating(ctx, id, avg, count, s.now())
	if err != nil {
		return nil, internal("update attraction rating", err)
	}
	if rows == 0 {
		return nil, &UpdateError{Entity: "attraction rating"}
	}

	s.logger.WithFields(logrus.Fields{
		"attraction_id": id,
		"rating":        *rating,
		"rating_count":  count,
	}).Info("Attraction rated")
	return s.Get(ctx, id)
}

// Delete removes an attraction
func (s *AttractionService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if _, err := s.attractions.Delete(ctx, id); err != nil {
		return internal("delete attraction", foreignKeyViolation(err, "Attraction"))
	}
	s.logger.WithField("attraction_id", id).Info("Attraction deleted")
	return nil
}
