package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/travelbooking/catalog-api/internal/database"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/pkg/patch"
)

// DefaultNearbyDistance is the radius used when a nearby search gives none (metres)
const DefaultNearbyDistance = 10000

// CityService manages cities
type CityService struct {
	cities    *database.CityRepository
	provinces *database.ProvinceRepository
	countries *database.CountryRepository
	logger    *logrus.Logger
	now       func() time.Time
}

// NewCityService creates a new city service
func NewCityService(
	cities *database.CityRepository,
	provinces *database.ProvinceRepository,
	countries *database.CountryRepository,
	logger *logrus.Logger,
) *CityService {
	return &CityService{
		cities:    cities,
		provinces: provinces,
		countries: countries,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates a city, checks its province and country, and stores it
func (s *CityService) Create(ctx context.Context, in *models.CityInput) (*models.City, error) {
	v := validationFor(in)
	checkName(v, "name", in.Name, 100, true)
	provinceID := checkRef(v, "province_id", in.ProvinceID, true)
	countryID := checkRef(v, "country_id", in.CountryID, true)
	location := checkLocation(v, in.Location, true)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if err := requireExists(ctx, "province", provinceID, s.provinces.Exists); err != nil {
		return nil, err
	}
	if err := requireExists(ctx, "country", countryID, s.countries.Exists); err != nil {
		return nil, err
	}

	now := s.now()
	c := &models.City{
		Name:       strings.TrimSpace(*in.Name),
		ProvinceID: *provinceID,
		CountryID:  *countryID,
		Location:   *location,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.cities.Create(ctx, c); err != nil {
		return nil, internal("create city", err)
	}
	if c.ID == uuid.Nil {
		return nil, &InsertError{Entity: "city"}
	}

	s.logger.WithFields(logrus.Fields{
		"city_id":     c.ID,
		"province_id": c.ProvinceID,
	}).Info("City created")
	return c, nil
}

// List returns every city
func (s *CityService) List(ctx context.Context) ([]models.City, error) {
	cities, err := s.cities.List(ctx)
	if err != nil {
		return nil, internal("list cities", err)
	}
	return cities, nil
}

// Get returns one city
func (s *CityService) Get(ctx context.Context, id uuid.UUID) (*models.City, error) {
	c, err := s.cities.GetByID(ctx, id)
	if err != nil {
		return nil, internal("get city", err)
	}
	if c == nil {
		return nil, &NotFoundError{Entity: "city", Key: id.String()}
	}
	return c, nil
}

// ListByProvince returns the cities of a province
func (s *CityService) ListByProvince(ctx context.Context, provinceID uuid.UUID) ([]models.City, error) {
	return s.nonEmpty(s.cities.ListByProvince(ctx, provinceID))
}

// ListByCountry returns the cities of a country
func (s *CityService) ListByCountry(ctx context.Context, countryID uuid.UUID) ([]models.City, error) {
	return s.nonEmpty(s.cities.ListByCountry(ctx, countryID))
}

// Search returns cities whose name contains term
func (s *CityService) Search(ctx context.Context, term string) ([]models.City, error) {
	if strings.TrimSpace(term) == "" {
		return nil, NewValidationError("name query is required")
	}
	return s.nonEmpty(s.cities.Search(ctx, strings.TrimSpace(term)))
}

// Nearby returns cities within q.MaxDistance metres, closest first
func (s *CityService) Nearby(ctx context.Context, q models.NearbyQuery) ([]models.City, error) {
	if err := validateNearby(&q, 0); err != nil {
		return nil, err
	}
	return s.nonEmpty(s.cities.Nearby(ctx, q))
}

func (s *CityService) nonEmpty(cities []models.City, err error) ([]models.City, error) {
	if err != nil {
		return nil, internal("list cities", err)
	}
	if len(cities) == 0 {
		return nil, &NotFoundError{Entity: "cities"}
	}
	return cities, nil
}

// validateNearby checks the coordinates and fills the default radius and limit
func validateNearby(q *models.NearbyQuery, defaultLimit int) error {
	v := NewValidationError()
	if q.Lng < -180 || q.Lng > 180 {
		v.Add("longitude must be between -180 and 180")
	}
	if q.Lat < -90 || q.Lat > 90 {
		v.Add("latitude must be between -90 and 90")
	}
	if q.MaxDistance < 0 {
		v.Add("maxDistance cannot be negative")
	}
	if q.MaxDistance == 0 {
		q.MaxDistance = DefaultNearbyDistance
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	return v.Err()
}

// Update applies the changed fields, re-checking parents that change
func (s *CityService) Update(ctx context.Context, id uuid.UUID, in *models.CityInput) (*models.City, error) {
	v := validationFor(in)
	checkName(v, "name", in.Name, 100, false)
	provinceID := checkRef(v, "province_id", in.ProvinceID, false)
	countryID := checkRef(v, "country_id", in.CountryID, false)
	location := checkLocation(v, in.Location, false)
	if err := v.Err(); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if provinceID != nil && *provinceID != current.ProvinceID {
		if err := requireExists(ctx, "province", provinceID, s.provinces.Exists); err != nil {
			return nil, err
		}
	}
	if countryID != nil && *countryID != current.CountryID {
		if err := requireExists(ctx, "country", countryID, s.countries.Exists); err != nil {
			return nil, err
		}
	}

	set, err := patch.Diff(
		patch.Field{Column: "name", Kind: patch.String, Next: trimPtr(in.Name), Current: current.Name},
		patch.Field{Column: "province_id", Kind: patch.Object, Next: provinceID, Current: current.ProvinceID},
		patch.Field{Column: "country_id", Kind: patch.Object, Next: countryID, Current: current.CountryID},
		patch.Field{Column: "location", Kind: patch.Object, Next: location, Current: current.Location},
	)
	if err != nil {
		return nil, internal("diff city", err)
	}
	if err := finishUpdate("city", set, s.now(), func(set *patch.Set) (int64, error) {
		rows, err := s.cities.Update(ctx, id, set)
		return rows, missingParent(err, "City")
	}); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"city_id": id, "columns": set.Columns()}).Info("City updated")
	return s.Get(ctx, id)
}

// Delete removes a city
func (s *CityService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if _, err := s.cities.Delete(ctx, id); err != nil {
		return internal("delete city", foreignKeyViolation(err, "City"))
	}
	s.logger.WithField("city_id", id).Info("City deleted")
	return nil
}
