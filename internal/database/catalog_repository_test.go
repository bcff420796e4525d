package database

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelbooking/catalog-api/internal/models"
)

func TestCountryGetByISO(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCountryRepository(db)
	id := uuid.New()
	now := time.Now()

	columns := []string{"id", "name", "iso2", "iso3", "phone_code", "currency", "created_at", "updated_at"}

	t.Run("Two Letter Code", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM countries WHERE iso2 = upper($1)`)).
			WithArgs("th").
			WillReturnRows(sqlmock.NewRows(columns).AddRow(
				id.String(), "Thailand", "TH", "THA", "+66",
				[]byte(`{"code":"THB","name":"Baht","symbol":"฿"}`), now, now))

		c, err := repo.GetByISO(context.Background(), "th")
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "THB", c.Currency.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Three Letter Code", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM countries WHERE iso3 = upper($1)`)).
			WithArgs("tha").
			WillReturnRows(sqlmock.NewRows(columns))

		c, err := repo.GetByISO(context.Background(), "tha")
		require.NoError(t, err)
		assert.Nil(t, c)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCountrySearchEscapesWildcards(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCountryRepository(db)

	mock.ExpectQuery(`WHERE name ILIKE \$1`).
		WithArgs(`%th\_%`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	countries, err := repo.Search(context.Background(), "th_")
	require.NoError(t, err)
	assert.Empty(t, countries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCityNearbyArgs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCityRepository(db)

	mock.ExpectQuery(`WHERE distance <= \$3\s+ORDER BY distance`).
		WithArgs(100.5, 13.75, 10000.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Nearby(context.Background(), models.NearbyQuery{Lng: 100.5, Lat: 13.75, MaxDistance: 10000})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttractionListFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttractionRepository(db)

	filter := models.AttractionFilter{ActiveOnly: true, Query: "temple", Category: "culture", Offset: 0, Limit: 10}

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE is_active AND (name ILIKE $1 OR description ILIKE $1) AND $2 = ANY(categories)`)).
		WithArgs("%temple%", "culture", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM attractions WHERE is_active`)).
		WithArgs("%temple%", "culture").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	total, err := repo.Count(context.Background(), filter)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttractionListByParentRejectsColumn(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewAttractionRepository(db)

	_, err := repo.ListByParent(context.Background(), "name", uuid.New())
	assert.Error(t, err)
}

func TestReviewRatingStats(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)
	targetID := uuid.New()

	mock.ExpectQuery(`SELECT rating, COUNT\(\*\) AS count FROM reviews`).
		WithArgs(models.TargetPackage, targetID).
		WillReturnRows(sqlmock.NewRows([]string{"rating", "count"}).
			AddRow(5, 2).
			AddRow(4, 1))

	stats, err := repo.RatingStats(context.Background(), models.TargetPackage, targetID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalReviews)
	assert.Equal(t, 4.7, stats.AverageRating)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 1, 5: 2}, stats.Distribution)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRevoke(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)
	at := time.Now()

	mock.ExpectExec(`UPDATE refresh_tokens`).
		WithArgs(at, hashToken("token")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	revoked, err := repo.Revoke(context.Background(), "token", at)
	require.NoError(t, err)
	assert.False(t, revoked)

	mock.ExpectExec(`DELETE FROM refresh_tokens`).
		WillReturnError(fmt.Errorf("database error"))
	_, err = repo.DeleteExpired(context.Background(), at, time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to cleanup refresh tokens")
	assert.NoError(t, mock.ExpectationsWereMet())
}
