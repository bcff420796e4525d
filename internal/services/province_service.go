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

// ProvinceService manages provinces
type ProvinceService struct {
	provinces *database.ProvinceRepository
	countries *database.CountryRepository
	logger    *logrus.Logger
	now       func() time.Time
}

// NewProvinceService creates a new province service
func NewProvinceService(
	provinces *database.ProvinceRepository,
	countries *database.CountryRepository,
	logger *logrus.Logger,
) *ProvinceService {
	return &ProvinceService{provinces: provinces, countries: countries, logger: logger, now: time.Now}
}

// Create validates a province, checks its country and stores it
func (s *ProvinceService) Create(ctx context.Context, in *models.ProvinceInput) (*models.Province, error) {
	v := validationFor(in)
	checkName(v, "name", in.Name, 100, true)
	countryID := checkRef(v, "country_id", in.CountryID, true)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if err := requireExists(ctx, "country", countryID, s.countries.Exists); err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Province{
		Name:      strings.TrimSpace(*in.Name),
		CountryID: *countryID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.provinces.Create(ctx, p); err != nil {
		return nil, internal("create province", err)
	}
	if p.ID == uuid.Nil {
		return nil, &InsertError{Entity: "province"}
	}

	s.logger.WithFields(logrus.Fields{"province_id": p.ID, "country_id": p.CountryID}).Info("Province created")
	return p, nil
}

// List returns every province
func (s *ProvinceService) List(ctx context.Context) ([]models.Province, error) {
	provinces, err := s.provinces.List(ctx)
	if err != nil {
		return nil, internal("list provinces", err)
	}
	return provinces, nil
}

// Get returns one province
func (s *ProvinceService) Get(ctx context.Context, id uuid.UUID) (*models.Province, error) {
	p, err := s.provinces.GetByID(ctx, id)
	if err != nil {
		return nil, internal("get province", err)
	}
	if p == nil {
		return nil, &NotFoundError{Entity: "province", Key: id.String()}
	}
	return p, nil
}

// ListByCountry returns the provinces of a country
func (s *ProvinceService) ListByCountry(ctx context.Context, countryID uuid.UUID) ([]models.Province, error) {
	provinces, err := s.provinces.ListByCountry(ctx, countryID)
	if err != nil {
		return nil, internal("list provinces by country", err)
	}
	if len(provinces) == 0 {
		return nil, &NotFoundError{Entity: "provinces", Key: countryID.String()}
	}
	return provinces, nil
}

// Search returns provinces whose name contains term
func (s *ProvinceService) Search(ctx context.Context, term string) ([]models.Province, error) {
	if strings.TrimSpace(term) == "" {
		return nil, NewValidationError("name query is required")
	}
	provinces, err := s.provinces.Search(ctx, strings.TrimSpace(term))
	if err != nil {
		return nil, internal("search provinces", err)
	}
	if len(provinces) == 0 {
		return nil, &NotFoundError{Entity: "provinces"}
	}
	return provinces, nil
}

// Update applies the changed fields, re-checking the country when it changes
func (s *ProvinceService) Update(ctx context.Context, id uuid.UUID, in *models.ProvinceInput) (*models.Province, error) {
	v := validationFor(in)
	checkName(v, "name", in.Name, 100, false)
	countryID := checkRef(v, "country_id", in.CountryID, false)
	if err := v.Err(); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if countryID != nil && *countryID != current.CountryID {
		if err := requireExists(ctx, "country", countryID, s.countries.Exists); err != nil {
			return nil, err
		}
	}

	set, err := patch.Diff(
		patch.Field{Column: "name", Kind: patch.String, Next: trimPtr(in.Name), Current: current.Name},
		patch.Field{Column: "country_id", Kind: patch.Object, Next: countryID, Current: current.CountryID},
	)
	if err != nil {
		return nil, internal("diff province", err)
	}
	if err := finishUpdate("province", set, s.now(), func(set *patch.Set) (int64, error) {
		rows, err := s.provinces.Update(ctx, id, set)
		return rows, missingParent(err, "Province")
	}); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"province_id": id, "columns": set.Columns()}).Info("Province updated")
	return s.Get(ctx, id)
}

// Delete removes a province
func (s *ProvinceService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if _, err := s.provinces.Delete(ctx, id); err != nil {
		return internal("delete province", foreignKeyViolation(err, "Province"))
	}
	s.logger.WithField("province_id", id).Info("Province deleted")
	return nil
}
