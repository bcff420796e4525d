package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelbooking/catalog-api/internal/database"
	"github.com/travelbooking/catalog-api/internal/models"
)

func newMockDB(t *testing.T) (*database.PostgresDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return &database.PostgresDB{DB: sqlx.NewDb(db, "sqlmock")}, mock
}

func expectExists(mock sqlmock.Sqlmock, table string, exists bool) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM " + table)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestCountryService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("collects validation problems", func(t *testing.T) {
		db, _ := newMockDB(t)
		svc := NewCountryService(database.NewCountryRepository(db), quietLogger())

		_, err := svc.Create(ctx, &models.CountryInput{ISO2: ptr("THA"), ISO3: ptr("TH")})

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, []string{
			"name is required",
			"iso2 must be 2 characters",
			"iso3 must be 3 characters",
			"currency.code is required",
		}, ve.Problems)
	})

	t.Run("upper-cases codes and stores", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := NewCountryService(database.NewCountryRepository(db), quietLogger())
		svc.now = func() time.Time { return fixedNow }
		id := uuid.New()

		mock.ExpectQuery("INSERT INTO countries").
			WithArgs("Thailand", "TH", "THA", "+66", sqlmock.AnyArg(), fixedNow, fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

		c, err := svc.Create(ctx, &models.CountryInput{
			Name:      ptr("Thailand"),
			ISO2:      ptr("th"),
			ISO3:      ptr("tha"),
			PhoneCode: ptr("+66"),
			Currency:  &models.CurrencyInput{Code: ptr("thb"), Name: ptr("Baht"), Symbol: ptr("฿")},
		})
		require.NoError(t, err)
		assert.Equal(t, id, c.ID)
		assert.Equal(t, "THB", c.Currency.Code)
	})

	t.Run("unique violation is a conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := NewCountryService(database.NewCountryRepository(db), quietLogger())

		mock.ExpectQuery("INSERT INTO countries").WillReturnError(&pq.Error{Code: "23505"})

		_, err := svc.Create(ctx, &models.CountryInput{
			Name: ptr("Thailand"), ISO2: ptr("TH"), ISO3: ptr("THA"),
			Currency: &models.CurrencyInput{Code: ptr("THB")},
		})
		var ce *ConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "Country with this iso code already exists", ce.Error())
	})
}

func TestCountryService_GetByISO(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewCountryService(database.NewCountryRepository(db), quietLogger())

	_, err := svc.GetByISO(context.Background(), "T")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestProvinceService_CreateUnknownCountry(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewProvinceService(database.NewProvinceRepository(db), database.NewCountryRepository(db), quietLogger())
	countryID := uuid.New()

	expectExists(mock, "countries", false)

	_, err := svc.Create(context.Background(), &models.ProvinceInput{
		Name:      ptr("Bangkok"),
		CountryID: ptr(countryID.String()),
	})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Country not found: "+countryID.String(), nf.Error())
}

func TestProvinceService_RejectsLongName(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewProvinceService(database.NewProvinceRepository(db), database.NewCountryRepository(db), quietLogger())

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	_, err := svc.Create(context.Background(), &models.ProvinceInput{Name: ptr(string(long)), CountryID: ptr("nope")})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{
		"name must be less than 100 characters",
		"country_id must be a valid id: invalid id",
	}, ve.Problems)
}

func provinceRows(id, countryID uuid.UUID, name string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "country_id", "created_at", "updated_at"}).
		AddRow(id.String(), name, countryID.String(), fixedNow, fixedNow)
}

func TestProvinceService_UpdateTrimsName(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewProvinceService(database.NewProvinceRepository(db), database.NewCountryRepository(db), quietLogger())
	id, countryID := uuid.New(), uuid.New()

	mock.ExpectQuery("FROM provinces WHERE id = \\$1").WithArgs(id).
		WillReturnRows(provinceRows(id, countryID, "Vientiane"))

	_, err := svc.Update(context.Background(), id, &models.ProvinceInput{Name: ptr("  Vientiane ")})
	assert.ErrorIs(t, err, ErrNoChange)
}

func TestProvinceService_DeleteReferenced(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewProvinceService(database.NewProvinceRepository(db), database.NewCountryRepository(db), quietLogger())
	id := uuid.New()

	mock.ExpectQuery("FROM provinces WHERE id = \\$1").WithArgs(id).
		WillReturnRows(provinceRows(id, uuid.New(), "Vientiane"))
	mock.ExpectExec("DELETE FROM provinces").WithArgs(id).
		WillReturnError(&pq.Error{Code: "23503"})

	err := svc.Delete(context.Background(), id)

	var re *ReferenceError
	require.ErrorAs(t, err, &re)
	assert.False(t, re.Missing)
	assert.Equal(t, "Province is referenced by other records", re.Error())
}

func cityRows(id, provinceID, countryID uuid.UUID, name string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "province_id", "country_id", "location", "created_at", "updated_at"}).
		AddRow(id.String(), name, provinceID.String(), countryID.String(),
			[]byte(`{"type":"Point","coordinates":[100.5,13.75]}`), fixedNow, fixedNow)
}

func TestCityService_Location(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewCityService(database.NewCityRepository(db), database.NewProvinceRepository(db),
		database.NewCountryRepository(db), quietLogger())

	_, err := svc.Create(context.Background(), &models.CityInput{
		Name:       ptr("Bangkok"),
		ProvinceID: ptr(uuid.NewString()),
		CountryID:  ptr(uuid.NewString()),
		Location:   &models.GeoPointInput{Type: ptr("Polygon"), Coordinates: []float64{200, -95}},
	})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{
		"location.type must be 'Point'",
		"longitude must be between -180 and 180",
		"latitude must be between -90 and 90",
	}, ve.Problems)
}

func TestCityService_UpdateNoChange(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCityService(database.NewCityRepository(db), database.NewProvinceRepository(db),
		database.NewCountryRepository(db), quietLogger())
	id, provinceID, countryID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery("FROM cities WHERE id = \\$1").WithArgs(id).
		WillReturnRows(cityRows(id, provinceID, countryID, "Bangkok"))

	_, err := svc.Update(context.Background(), id, &models.CityInput{
		Name:       ptr("Bangkok"),
		ProvinceID: ptr(provinceID.String()),
		Location:   &models.GeoPointInput{Coordinates: []float64{100.5, 13.75}},
	})
	assert.ErrorIs(t, err, ErrNoChange)
}

func TestCityService_UpdateParentRemoved(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCityService(database.NewCityRepository(db), database.NewProvinceRepository(db),
		database.NewCountryRepository(db), quietLogger())
	svc.now = func() time.Time { return fixedNow }
	id, provinceID, countryID, movedTo := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery("FROM cities WHERE id = \\$1").WithArgs(id).
		WillReturnRows(cityRows(id, provinceID, countryID, "Bangkok"))
	expectExists(mock, "provinces", true)
	mock.ExpectExec("UPDATE cities SET").
		WillReturnError(&pq.Error{Code: "23503"})

	_, err := svc.Update(context.Background(), id, &models.CityInput{ProvinceID: ptr(movedTo.String())})

	var re *ReferenceError
	require.ErrorAs(t, err, &re)
	assert.True(t, re.Missing)
	assert.Equal(t, "City references a record that does not exist", re.Error())
}

func TestCityService_NearbyDefaults(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCityService(database.NewCityRepository(db), database.NewProvinceRepository(db),
		database.NewCountryRepository(db), quietLogger())

	mock.ExpectQuery("distance <= \\$3").
		WithArgs(100.5, 13.75, float64(DefaultNearbyDistance)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := svc.Nearby(context.Background(), models.NearbyQuery{Lng: 100.5, Lat: 13.75})
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func attractionRows(id uuid.UUID, avg float64, count int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "description", "city_id", "province_id", "country_id", "location",
		"categories", "images", "rating_avg", "rating_count", "is_active", "created_at", "updated_at",
	}).AddRow(id.String(), "Grand Palace", "", uuid.NewString(), uuid.NewString(), uuid.NewString(),
		[]byte(`{"type":"Point","coordinates":[100.49,13.75]}`), "{temple}", "{}", avg, count, true, fixedNow, fixedNow)
}

func TestAttractionService_UpdateRating(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	svc := NewAttractionService(database.NewAttractionRepository(db), database.NewCityRepository(db),
		database.NewProvinceRepository(db), database.NewCountryRepository(db), quietLogger())
	svc.now = func() time.Time { return fixedNow }
	id := uuid.New()

	_, err := svc.UpdateRating(ctx, id, ptr(5.5))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	mock.ExpectQuery("FROM attractions WHERE id = \\$1").WithArgs(id).WillReturnRows(attractionRows(id, 4, 1))
	mock.ExpectExec("UPDATE attractions SET rating_avg").
		WithArgs(4.5, 2, fixedNow, id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM attractions WHERE id = \\$1").WithArgs(id).WillReturnRows(attractionRows(id, 4.5, 2))

	a, err := svc.UpdateRating(ctx, id, ptr(5.0))
	require.NoError(t, err)
	assert.Equal(t, 4.5, a.RatingAvg)
	assert.Equal(t, 2, a.RatingCount)
}

func TestAttractionService_Search(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	svc := NewAttractionService(database.NewAttractionRepository(db), database.NewCityRepository(db),
		database.NewProvinceRepository(db), database.NewCountryRepository(db), quietLogger())

	_, err := svc.Search(ctx, AttractionQuery{})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	id := uuid.New()
	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery("(?s)SELECT .* FROM attractions WHERE is_active AND \\$1 = ANY\\(categories\\) ORDER BY").
		WithArgs("temple", 2, 2).
		WillReturnRows(attractionRows(id, 0, 0))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM attractions WHERE is_active AND \\$1 = ANY\\(categories\\)").
		WithArgs("temple").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	page, err := svc.Search(ctx, AttractionQuery{Page: 2, Limit: 2, Category: "temple"})
	require.NoError(t, err)
	assert.Len(t, page.Attractions, 1)
	assert.Equal(t, models.PageInfo{CurrentPage: 2, TotalPages: 2, TotalItems: 3, ItemsPerPage: 2}, page.Pagination)
}

func TestPackageService_Validation(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewPackageService(database.NewPackageRepository(db), database.NewCityRepository(db),
		database.NewCountryRepository(db), quietLogger())

	_, err := svc.Create(context.Background(), &models.PackageInput{
		Name:         ptr("Island hopping"),
		Code:         ptr("IH-1"),
		BaseCurrency: ptr("THB"),
		DurationDays: ptr(3),
		IsActive:     ptr(true),
		StartCityID:  ptr(uuid.NewString()),
		CountryID:    ptr(uuid.NewString()),
		ScheduledDepartures: []models.DepartureInput{
			{DepartureDate: ptr("2025-06-10"), ReturnDate: ptr("2025-06-08"), AvailableSlots: ptr(0)},
			{DepartureDate: ptr("2025-06-10")},
		},
	})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{
		"returnDate must be after departureDate for departure at index 0",
		"availableSlots must be greater than 0 for departure at index 0",
		"returnDate is required for departure at index 1",
		"availableSlots must be greater than 0 for departure at index 1",
	}, ve.Problems)
}

func TestPackageService_ByDepartureDate(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewPackageService(database.NewPackageRepository(db), database.NewCityRepository(db),
		database.NewCountryRepository(db), quietLogger())

	_, err := svc.ByDepartureDate(context.Background(), "10/06/2025")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Bad request: Invalid date format", ve.Error())
}

func TestReviewService_CreateChecksTarget(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReviewService(database.NewReviewRepository(db), database.NewUserRepository(db),
		database.NewPackageRepository(db), database.NewAttractionRepository(db), quietLogger())

	expectExists(mock, "users", true)
	expectExists(mock, "attractions", false)

	targetID := uuid.New()
	_, err := svc.Create(context.Background(), &models.ReviewInput{
		UserID: ptr(uuid.NewString()),
		Rating: ptr(5),
		Target: &models.ReviewTargetInput{Type: ptr("attraction"), ID: ptr(targetID.String())},
	})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Target not found: "+targetID.String(), nf.Error())
}

func TestReviewService_Validation(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewReviewService(database.NewReviewRepository(db), database.NewUserRepository(db),
		database.NewPackageRepository(db), database.NewAttractionRepository(db), quietLogger())

	_, err := svc.Create(context.Background(), &models.ReviewInput{
		Rating: ptr(6),
		Photos: []string{"not a url"},
		Target: &models.ReviewTargetInput{Type: ptr("hotel")},
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{
		"user_id is required",
		"rating must be between 1-5",
		"photos[0] must be a valid URL",
		"target.type must be 'package' or 'attraction'",
		"target.id is required",
	}, ve.Problems)

	_, err = svc.RatingStats(context.Background(), "package", "abc")
	assert.True(t, errors.As(err, &ve))
}
