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
	"github.com/travelbooking/catalog-api/pkg/patch"
)

func TestBookingCountActiveForPackage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	packageID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		containment := fmt.Sprintf(`[{"package_id":"%s"}]`, packageID)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM bookings WHERE items @> $1::jsonb AND status = ANY($2)`)).
			WithArgs(containment, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		count, err := repo.CountActiveForPackage(context.Background(), packageID, models.ActiveBookingStatuses)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
			WillReturnError(fmt.Errorf("connection reset"))

		_, err := repo.CountActiveForPackage(context.Background(), packageID, models.ActiveBookingStatuses)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to count package bookings")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	now := time.Now()
	booking := &models.Booking{
		BookingNo: "BK1700000000000ABCDE",
		UserID:    uuid.New(),
		Status:    models.BookingPending,
		Items:     models.BookingItems{{PackageID: uuid.New(), Title: "Alps", QtyAdults: 2, PriceAdult: 50, Subtotal: 100}},
		Currency:  "USD",
		Amounts:   models.Amounts{ItemsTotal: 100, GrandTotal: 100},
		Payment:   models.Payment{Status: models.PaymentUnpaid},
		CreatedAt: now,
		UpdatedAt: now,
	}
	id := uuid.New()

	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(booking.BookingNo, booking.UserID, "pending",
			sqlmock.AnyArg(), "USD", sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), "", now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	require.NoError(t, repo.Create(context.Background(), booking))
	assert.Equal(t, id, booking.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	id := uuid.New()
	packageID := uuid.New()
	now := time.Now()

	t.Run("Found", func(t *testing.T) {
		items := fmt.Sprintf(`[{"package_id":"%s","title":"Alps","qtyAdults":2,"qtyChildren":0,"priceAdult":50,"priceChild":0,"options":[],"subtotal":100}]`, packageID)
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "booking_no", "user_id", "status", "items", "currency", "amounts", "payment",
				"travel_window", "travelers", "notes", "created_at", "updated_at",
			}).AddRow(
				id.String(), "BK1", uuid.New().String(), "paid", []byte(items), "USD",
				[]byte(`{"itemsTotal":100,"discount":0,"tax":0,"fee":0,"grandTotal":100}`),
				[]byte(`{"method":"card","status":"paid","transactions":[{"ref":"TX1","amount":100,"at":"2024-01-01T00:00:00Z"}]}`),
				nil, []byte(`[]`), "", now, now,
			))

		b, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, b)
		assert.Equal(t, models.BookingPaid, b.Status)
		require.Len(t, b.Items, 1)
		assert.Equal(t, packageID, b.Items[0].PackageID)
		assert.Equal(t, 100.0, b.Amounts.GrandTotal)
		require.Len(t, b.Payment.Transactions, 1)
		assert.Equal(t, "TX1", b.Payment.Transactions[0].Ref)
		assert.Nil(t, b.TravelWindow)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		b, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Nil(t, b)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingListWithFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	userID := uuid.New()

	filter := models.BookingFilter{UserID: &userID, Status: "paid", Offset: 10, Limit: 10}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings WHERE user_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`)).
		WithArgs(userID, "paid", 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM bookings WHERE user_id = $1 AND status = $2`)).
		WithArgs(userID, "paid").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	bookings, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Empty(t, bookings)

	total, err := repo.Count(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingSummaryRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	packageID := uuid.New()
	name := "Alps"

	mock.ExpectQuery(`GROUP BY to_char\(b.created_at, 'YYYY-MM'\), it.item->>'package_id'`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"group_key", "package_id", "package_name", "package_code", "max_travelers",
			"total_bookings", "total_adults", "total_children", "total_revenue", "avg_revenue",
		}).AddRow("2024-03", packageID.String(), name, "ALP", 10, 3, 5, 2, 700.0, 233.3333))

	rows, err := repo.Summary(context.Background(), models.BookingSummaryFilter{
		Statuses: models.ActiveBookingStatuses,
		GroupBy:  models.GroupByMonth,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "2024-03", row.Month)
	assert.Empty(t, row.Date)
	assert.Equal(t, 7, row.TotalTravelers)
	assert.Equal(t, 233.33, row.AvgRevenue)
	require.NotNil(t, row.Package.ID)
	assert.Equal(t, packageID, *row.Package.ID)
	assert.Equal(t, &name, row.Package.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	id := uuid.New()

	set := &patch.Set{}
	set.Put("status", "confirmed")
	set.Put("notes", "window seat")

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings SET status = $1, notes = $2 WHERE id = $3`)).
			WithArgs("confirmed", "window seat", id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rows, err := repo.Update(context.Background(), id, set)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty Set", func(t *testing.T) {
		rows, err := repo.Update(context.Background(), id, &patch.Set{})
		require.NoError(t, err)
		assert.Zero(t, rows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
