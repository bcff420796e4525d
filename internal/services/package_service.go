package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/travelbooking/catalog-api/internal/database"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/pkg/patch"
)

// DefaultPopularLimit is the number of packages returned by popularity listings
const DefaultPopularLimit = 5

// PackageService manages tour packages and their scheduled departures
type PackageService struct {
	packages  *database.PackageRepository
	cities    *database.CityRepository
	countries *database.CountryRepository
	logger    *logrus.Logger
	now       func() time.Time
}

// NewPackageService creates a new package service
func NewPackageService(
	packages *database.PackageRepository,
	cities *database.CityRepository,
	countries *database.CountryRepository,
	logger *logrus.Logger,
) *PackageService {
	return &PackageService{
		packages:  packages,
		cities:    cities,
		countries: countries,
		logger:    logger,
		now:       time.Now,
	}
}

// buildDepartures validates departure inputs and fills bookedSlots and status defaults
func buildDepartures(v *ValidationError, in []models.DepartureInput) models.ScheduledDepartures {
	out := make(models.ScheduledDepartures, 0, len(in))
	for i, d := range in {
		dep := models.ScheduledDeparture{Status: models.DepartureAvailable}
		ok := true

		if d.DepartureDate == nil || strings.TrimSpace(*d.DepartureDate) == "" {
			v.Add("departureDate is required for departure at index %d", i)
			ok = false
		} else if t, err := parseDate(fmt.Sprintf("scheduledDepartures[%d].departureDate", i), *d.DepartureDate); err != nil {
			v.AddErr(err)
			ok = false
		} else {
			dep.DepartureDate = t
		}

		if d.ReturnDate == nil || strings.TrimSpace(*d.ReturnDate) == "" {
			v.Add("returnDate is required for departure at index %d", i)
			ok = false
		} else if t, err := parseDate(fmt.Sprintf("scheduledDepartures[%d].returnDate", i), *d.ReturnDate); err != nil {
			v.AddErr(err)
			ok = false
		} else {
			dep.ReturnDate = t
		}

		if ok && !dep.DepartureDate.Before(dep.ReturnDate) {
			v.Add("returnDate must be after departureDate for departure at index %d", i)
		}
		if d.AvailableSlots == nil || *d.AvailableSlots <= 0 {
			v.Add("availableSlots must be greater than 0 for departure at index %d", i)
		} else {
			dep.AvailableSlots = *d.AvailableSlots
		}
		if d.BookedSlots != nil {
			if *d.BookedSlots < 0 {
				v.Add("bookedSlots cannot be negative for departure at index %d", i)
			}
			dep.BookedSlots = *d.BookedSlots
		}
		if d.Status != nil {
			dep.Status = models.DepartureStatus(*d.Status)
			if !dep.Status.IsValid() {
				v.Add("status must be one of available, soldout, cancelled for departure at index %d", i)
			}
		}
		if d.PriceAdult != nil {
			dep.PriceAdult = *d.PriceAdult
		}
		if d.PriceChild != nil {
			dep.PriceChild = *d.PriceChild
		}
		out = append(out, dep)
	}
	return out
}

type packageRefs struct {
	startCity, country *uuid.UUID
	departures         models.ScheduledDepartures
}

func validatePackage(in *models.PackageInput, create bool) (packageRefs, error) {
	v := validationFor(in)
	var refs packageRefs

	checkText := func(field string, value *string) {
		if value == nil {
			if create {
				v.Add("%s is required", field)
			}
			return
		}
		if strings.TrimSpace(*value) == "" {
			v.Add("%s must be a non-empty string", field)
		}
	}
	checkText("name", in.Name)
	checkText("code", in.Code)
	checkText("baseCurrency", in.BaseCurrency)

	if create && in.DurationDays == nil {
		v.Add("durationDays is required")
	}
	if in.DurationDays != nil && *in.DurationDays < 0 {
		v.Add("durationDays cannot be negative")
	}
	if create && in.IsActive == nil {
		v.Add("isActive is required")
	}
	if in.MinTravelers != nil && *in.MinTravelers < 0 {
		v.Add("minTravelers cannot be negative")
	}
	if in.MaxTravelers != nil && *in.MaxTravelers < 0 {
		v.Add("maxTravelers cannot be negative")
	}
	if in.MinTravelers != nil && in.MaxTravelers != nil && *in.MinTravelers > *in.MaxTravelers {
		v.Add("minTravelers cannot exceed maxTravelers")
	}

	refs.startCity = checkRef(v, "startCity_id", in.StartCityID, create)
	refs.country = checkRef(v, "country_id", in.CountryID, create)

	switch {
	case in.ScheduledDepartures == nil && create:
		v.Add("scheduledDepartures is required and must be an array")
	case in.ScheduledDepartures != nil && len(in.ScheduledDepartures) == 0 && create:
		v.Add("At least one scheduled departure is required")
	case in.ScheduledDepartures != nil:
		refs.departures = buildDepartures(v, in.ScheduledDepartures)
	}
	return refs, v.Err()
}

func (s *PackageService) checkParents(ctx context.Context, startCity, country *uuid.UUID) error {
	if err := requireExists(ctx, "startCity", startCity, s.cities.Exists); err != nil {
		return err
	}
	return requireExists(ctx, "country", country, s.countries.Exists)
}

// decorate adds remaining slots and availability to every departure
func (s *PackageService) decorate(packages []models.Package) []models.Package {
	now := s.now()
	for i := range packages {
		packages[i].ScheduledDepartures = packages[i].ScheduledDepartures.WithAvailability(now)
	}
	return packages
}

// ============================================================================
// CREATE
// ============================================================================

// Create validates a package, checks its start city and country, and stores it
func (s *PackageService) Create(ctx context.Context, in *models.PackageInput) (*models.Package, error) {
	refs, err := validatePackage(in, true)
	if err != nil {
		return nil, err
	}
	if err := s.checkParents(ctx, refs.startCity, refs.country); err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Package{
		Name:                strings.TrimSpace(*in.Name),
		Code:                strings.TrimSpace(*in.Code),
		Description:         deref(in.Description),
		BaseCurrency:        strings.ToUpper(strings.TrimSpace(*in.BaseCurrency)),
		DurationDays:        *in.DurationDays,
		MinTravelers:        in.MinTravelers,
		MaxTravelers:        in.MaxTravelers,
		Inclusions:          deref(in.Inclusions),
		Exclusions:          deref(in.Exclusions),
		Requirements:        deref(in.Requirements),
		IsActive:            *in.IsActive,
		StartCityID:         *refs.startCity,
		CountryID:           *refs.country,
		ScheduledDepartures: refs.departures,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.packages.Create(ctx, p); err != nil {
		return nil, internal("create package", uniqueViolation(err, "Package", "code"))
	}
	if p.ID == uuid.Nil {
		return nil, &InsertError{Entity: "package"}
	}

	s.logger.WithFields(logrus.Fields{
		"package_id": p.ID,
		"code":       p.Code,
		"departures": len(p.ScheduledDepartures),
	}).Info("Package created")
	return p, nil
}

// ============================================================================
// READ
// ============================================================================

// List returns every package with departure availability
func (s *PackageService) List(ctx context.Context) ([]models.Package, error) {
	packages, err := s.packages.List(ctx)
	if err != nil {
		return nil, internal("list packages", err)
	}
	if len(packages) == 0 {
		return nil, &NotFoundError{Entity: "packages"}
	}
	return s.decorate(packages), nil
}

func (s *PackageService) load(ctx context.Context, id uuid.UUID) (*models.Package, error) {
	p, err := s.packages.GetByID(ctx, id)
	if err != nil {
		return nil, internal("get package", err)
	}
	if p == nil {
		return nil, &NotFoundError{Entity: "package", Key: id.String()}
	}
	return p, nil
}

// Get returns one package with departure availability
func (s *PackageService) Get(ctx context.Context, id uuid.UUID) (*models.Package, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	p.ScheduledDepartures = p.ScheduledDepartures.WithAvailability(s.now())
	return p, nil
}

// Search matches a keyword against package names and codes
func (s *PackageService) Search(ctx context.Context, keyword string) ([]models.Package, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, NewValidationError("Keyword is required")
	}
	packages, err := s.packages.Search(ctx, keyword)
	if err != nil {
		return nil, internal("search packages", err)
	}
	return s.decorate(packages), nil
}

// MostPopular returns the packages with the most ratings
func (s *PackageService) MostPopular(ctx context.Context, limit int) ([]models.Package, error) {
	return s.byPopularity(ctx, limit, false)
}

// LeastPopular returns the packages with the fewest ratings
func (s *PackageService) LeastPopular(ctx context.Context, limit int) ([]models.Package, error) {
	return s.byPopularity(ctx, limit, true)
}

func (s *PackageService) byPopularity(ctx context.Context, limit int, ascending bool) ([]models.Package, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	packages, err := s.packages.ListByPopularity(ctx, limit, ascending)
	if err != nil {
		return nil, internal("list packages by popularity", err)
	}
	return s.decorate(packages), nil
}

// Active returns the packages open for sale
func (s *PackageService) Active(ctx context.Context) ([]models.Package, error) {
	packages, err := s.packages.ListActive(ctx)
	if err != nil {
		return nil, internal("list active packages", err)
	}
	return s.decorate(packages), nil
}

// ListByCountry returns the packages of a country
func (s *PackageService) ListByCountry(ctx context.Context, countryID uuid.UUID) ([]models.Package, error) {
	packages, err := s.packages.ListByCountry(ctx, countryID)
	if err != nil {
		return nil, internal("list packages by country", err)
	}
	return s.decorate(packages), nil
}

// ByDepartureDate returns active packages with an available departure on date (YYYY-MM-DD)
func (s *PackageService) ByDepartureDate(ctx context.Context, date string) ([]models.Package, error) {
	if strings.TrimSpace(date) == "" {
		return nil, NewValidationError("Date parameter is required")
	}
	day, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return nil, NewValidationError("Invalid date format")
	}
	packages, err := s.packages.ListByDepartureDate(ctx, day)
	if err != nil {
		return nil, internal("list packages by departure date", err)
	}
	return s.decorate(packages), nil
}

// ============================================================================
// UPDATE / DELETE
// ============================================================================

// Update applies the changed fields, re-checking the start city and country when they change
func (s *PackageService) Update(ctx context.Context, id uuid.UUID, in *models.PackageInput) (*models.Package, error) {
	refs, err := validatePackage(in, false)
	if err != nil {
		return nil, err
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var startCity, country *uuid.UUID
	if refs.startCity != nil && *refs.startCity != current.StartCityID {
		startCity = refs.startCity
	}
	if refs.country != nil && *refs.country != current.CountryID {
		country = refs.country
	}
	if err := s.checkParents(ctx, startCity, country); err != nil {
		return nil, err
	}

	set, err := patch.Diff(
		patch.Field{Column: "name", Kind: patch.String, Next: trimPtr(in.Name), Current: current.Name},
		patch.Field{Column: "code", Kind: patch.String, Next: trimPtr(in.Code), Current: current.Code},
		patch.Field{Column: "description", Kind: patch.String, Next: trimPtr(in.Description), Current: current.Description},
		patch.Field{Column: "base_currency", Kind: patch.String, Next: upperPtr(in.BaseCurrency), Current: current.BaseCurrency},
		patch.Field{Column: "inclusions", Kind: patch.String, Next: trimPtr(in.Inclusions), Current: current.Inclusions},
		patch.Field{Column: "exclusions", Kind: patch.String, Next: trimPtr(in.Exclusions), Current: current.Exclusions},
		patch.Field{Column: "requirements", Kind: patch.String, Next: trimPtr(in.Requirements), Current: current.Requirements},
		patch.Field{Column: "duration_days", Kind: patch.Number, Next: in.DurationDays, Current: current.DurationDays},
		patch.Field{Column: "min_travelers", Kind: patch.Number, Next: in.MinTravelers, Current: current.MinTravelers},
		patch.Field{Column: "max_travelers", Kind: patch.Number, Next: in.MaxTravelers, Current: current.MaxTravelers},
		patch.Field{Column: "is_active", Kind: patch.Bool, Next: in.IsActive, Current: current.IsActive},
		patch.Field{Column: "start_city_id", Kind: patch.Object, Next: refs.startCity, Current: current.StartCityID},
		patch.Field{Column: "country_id", Kind: patch.Object, Next: refs.country, Current: current.CountryID},
		patch.Field{Column: "scheduled_departures", Kind: patch.Array, Next: refs.departures, Current: current.ScheduledDepartures},
	)
	if err != nil {
		return nil, internal("diff package", err)
	}
	err = finishUpdate("package", set, s.now(), func(set *patch.Set) (int64, error) {
		rows, err := s.packages.Update(ctx, id, set)
		return rows, missingParent(uniqueViolation(err, "Package", "code"), "Package")
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"package_id": id, "columns": set.Columns()}).Info("Package updated")
	return s.Get(ctx, id)
}

// Delete removes a package
func (s *PackageService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if _, err := s.packages.Delete(ctx, id); err != nil {
		return internal("delete package", foreignKeyViolation(err, "Package"))
	}
	s.logger.WithField("package_id", id).Info("Package deleted")
	return nil
}

// SyncSoldOut flips full departures to soldout and returns the packages touched
func (s *PackageService) SyncSoldOut(ctx context.Context) (int64, error) {
	rows, err := s.packages.SyncSoldOutDepartures(ctx, s.now())
	if err != nil {
		return 0, internal("sync sold out departures", err)
	}
	return rows, nil
}
