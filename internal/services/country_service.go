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

// CountryService manages countries
type CountryService struct {
	countries *database.CountryRepository
	logger    *logrus.Logger
	now       func() time.Time
}

// NewCountryService creates a new country service
func NewCountryService(countries *database.CountryRepository, logger *logrus.Logger) *CountryService {
	return &CountryService{countries: countries, logger: logger, now: time.Now}
}

func upperPtr(s *string) *string {
	if s == nil {
		return nil
	}
	u := strings.ToUpper(strings.TrimSpace(*s))
	return &u
}

func validateCountry(in *models.CountryInput, create bool) error {
	v := validationFor(in)
	checkName(v, "name", in.Name, 100, create)
	if in.ISO2 != nil || create {
		if in.ISO2 == nil || len(strings.TrimSpace(*in.ISO2)) != 2 {
			v.Add("iso2 must be 2 characters")
		}
	}
	if in.ISO3 != nil || create {
		if in.ISO3 == nil || len(strings.TrimSpace(*in.ISO3)) != 3 {
			v.Add("iso3 must be 3 characters")
		}
	}
	if in.Currency != nil && in.Currency.Code != nil && len(strings.TrimSpace(*in.Currency.Code)) != 3 {
		v.Add("currency.code must be 3 characters")
	}
	if create && (in.Currency == nil || in.Currency.Code == nil) {
		v.Add("currency.code is required")
	}
	return v.Err()
}

// Create validates and stores a country with upper-cased ISO codes
func (s *CountryService) Create(ctx context.Context, in *models.CountryInput) (*models.Country, error) {
	if err := validateCountry(in, true); err != nil {
		return nil, err
	}

	now := s.now()
	c := &models.Country{
		Name:      strings.TrimSpace(*in.Name),
		ISO2:      *upperPtr(in.ISO2),
		ISO3:      *upperPtr(in.ISO3),
		PhoneCode: deref(in.PhoneCode),
		Currency: models.Currency{
			Code:   *upperPtr(in.Currency.Code),
			Name:   deref(in.Currency.Name),
			Symbol: deref(in.Currency.Symbol),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.countries.Create(ctx, c); err != nil {
		return nil, internal("create country", uniqueViolation(err, "Country", "iso code"))
	}
	if c.ID == uuid.Nil {
		return nil, &InsertError{Entity: "country"}
	}

	s.logger.WithFields(logrus.Fields{"country_id": c.ID, "iso2": c.ISO2}).Info("Country created")
	return c, nil
}

// List returns every country
func (s *CountryService) List(ctx context.Context) ([]models.Country, error) {
	countries, err := s.countries.List(ctx)
	if err != nil {
		return nil, internal("list countries", err)
	}
	return countries, nil
}

// Get returns one country
func (s *CountryService) Get(ctx context.Context, id uuid.UUID) (*models.Country, error) {
	c, err := s.countries.GetByID(ctx, id)
	if err != nil {
		return nil, internal("get country", err)
	}
	if c == nil {
		return nil, &NotFoundError{Entity: "country", Key: id.String()}
	}
	return c, nil
}

// GetByISO looks a country up by its 2 or 3 letter code
func (s *CountryService) GetByISO(ctx context.Context, code string) (*models.Country, error) {
	code = strings.TrimSpace(code)
	if len(code) != 2 && len(code) != 3 {
		return nil, NewValidationError("iso code must be 2 or 3 characters")
	}
	c, err := s.countries.GetByISO(ctx, code)
	if err != nil {
		return nil, internal("get country by iso", err)
	}
	if c == nil {
		return nil, &NotFoundError{Entity: "country", Key: strings.ToUpper(code)}
	}
	return c, nil
}

// Search returns countries whose name contains term
func (s *CountryService) Search(ctx context.Context, term string) ([]models.Country, error) {
	if strings.TrimSpace(term) == "" {
		return nil, NewValidationError("name query is required")
	}
	countries, err := s.countries.Search(ctx, strings.TrimSpace(term))
	if err != nil {
		return nil, internal("search countries", err)
	}
	if len(countries) == 0 {
		return nil, &NotFoundError{Entity: "countries"}
	}
	return countries, nil
}

// Update applies the changed fields of in. Currency fields merge into the stored currency.
func (s *CountryService) Update(ctx context.Context, id uuid.UUID, in *models.CountryInput) (*models.Country, error) {
	if err := validateCountry(in, false); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var currency *models.Currency
	if in.Currency != nil {
		merged := current.Currency
		if in.Currency.Code != nil {
			merged.Code = *upperPtr(in.Currency.Code)
		}
		if in.Currency.Name != nil {
			merged.Name = deref(in.Currency.Name)
		}
		if in.Currency.Symbol != nil {
			merged.Symbol = deref(in.Currency.Symbol)
		}
		currency = &merged
	}

	set, err := patch.Diff(
		patch.Field{Column: "name", Kind: patch.String, Next: trimPtr(in.Name), Current: current.Name},
		patch.Field{Column: "iso2", Kind: patch.String, Next: upperPtr(in.ISO2), Current: current.ISO2},
		patch.Field{Column: "iso3", Kind: patch.String, Next: upperPtr(in.ISO3), Current: current.ISO3},
		patch.Field{Column: "phone_code", Kind: patch.String, Next: trimPtr(in.PhoneCode), Current: current.PhoneCode},
		patch.Field{Column: "currency", Kind: patch.Object, Next: currency, Current: current.Currency},
	)
	if err != nil {
		return nil, internal("diff country", err)
	}

	err = finishUpdate("country", set, s.now(), func(set *patch.Set) (int64, error) {
		rows, err := s.countries.Update(ctx, id, set)
		return rows, uniqueViolation(err, "Country", "iso code")
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"country_id": id, "columns": set.Columns()}).Info("Country updated")
	return s.Get(ctx, id)
}

// Delete removes a country
func (s *CountryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if _, err := s.countries.Delete(ctx, id); err != nil {
		return internal("delete country", foreignKeyViolation(err, "Country"))
	}
	s.logger.WithField("country_id", id).Info("Country deleted")
	return nil
}
