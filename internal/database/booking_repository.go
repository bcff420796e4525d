package database

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/pkg/patch"
)

const bookingColumns = `id, booking_no, user_id, status, items, currency, amounts, payment,
	travel_window, travelers, notes, created_at, updated_at`

// BookingRepository handles database operations for the bookings table
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a booking and fills its id
func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	query := `
		INSERT INTO bookings (
			booking_no, user_id, status, items, currency, amounts,
			payment, travel_window, travelers, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		b.BookingNo, b.UserID, b.Status, b.Items, b.Currency, b.Amounts,
		b.Payment, b.TravelWindow, b.Travelers, b.Notes, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByID returns a booking or nil when absent
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return getOne[models.Booking](ctx, r.db, "booking",
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func bookingWhere(f models.BookingFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if f.UserID != nil {
		args = append(args, *f.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of bookings, newest first
func (r *BookingRepository) List(ctx context.Context, f models.BookingFilter) ([]models.Booking, error) {
	where, args := bookingWhere(f)
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM bookings%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		bookingColumns, where, len(args)-1, len(args))

	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// Count returns the number of bookings matching f, ignoring paging
func (r *BookingRepository) Count(ctx context.Context, f models.BookingFilter) (int, error) {
	where, args := bookingWhere(f)
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM bookings`+where, args...); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return total, nil
}

// CountActiveForPackage counts bookings that contain packageID in any item
// and whose status is one of statuses
func (r *BookingRepository) CountActiveForPackage(ctx context.Context, packageID uuid.UUID, statuses []string) (int, error) {
	containment, err := json.Marshal([]map[string]string{{"package_id": packageID.String()}})
	if err != nil {
		return 0, fmt.Errorf("failed to encode package filter: %w", err)
	}

	var count int
	query := `SELECT COUNT(*) FROM bookings WHERE items @> $1::jsonb AND status = ANY($2)`
	if err := r.db.GetContext(ctx, &count, query, string(containment), pq.Array(statuses)); err != nil {
		return 0, fmt.Errorf("failed to count package bookings: %w", err)
	}
	return count, nil
}

type summaryScan struct {
	GroupKey      string   `db:"group_key"`
	PackageID     *string  `db:"package_id"`
	PackageName   *string  `db:"package_name"`
	PackageCode   *string  `db:"package_code"`
	MaxTravelers  *int     `db:"max_travelers"`
	TotalBookings int      `db:"total_bookings"`
	TotalAdults   int      `db:"total_adults"`
	TotalChildren int      `db:"total_children"`
	TotalRevenue  float64  `db:"total_revenue"`
	AvgRevenue    *float64 `db:"avg_revenue"`
}

// Summary aggregates booking items over the filtered bookings. Rows are
// ordered by total revenue, highest first.
func (r *BookingRepository) Summary(ctx context.Context, f models.BookingSummaryFilter) ([]models.BookingSummaryRow, error) {
	var (
		conds = []string{"it.item->>'package_id' IS NOT NULL"}
		args  []interface{}
	)
	if len(f.Statuses) > 0 {
		args = append(args, pq.Array(f.Statuses))
		conds = append(conds, fmt.Sprintf("b.status = ANY($%d)", len(args)))
	}
	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		conds = append(conds, fmt.Sprintf("b.created_at >= $%d", len(args)))
	}
	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		conds = append(conds, fmt.Sprintf("b.created_at <= $%d", len(args)))
	}
	if f.PackageID != nil {
		args = append(args, f.PackageID.String())
		conds = append(conds, fmt.Sprintf("it.item->>'package_id' = $%d", len(args)))
	}
	where := "WHERE " + strings.Join(conds, " AND ")

	groupKey := ""
	switch f.GroupBy {
	case models.GroupByDay:
		groupKey = "to_char(b.created_at, 'YYYY-MM-DD')"
	case models.GroupByMonth:
		groupKey = "to_char(b.created_at, 'YYYY-MM')"
	case models.GroupByStatus:
		groupKey = "b.status"
	}
	selectKey, groupBy := "''", "it.item->>'package_id'"
	if groupKey != "" {
		selectKey, groupBy = groupKey, groupKey+", "+groupBy
	}

	query := fmt.Sprintf(`
		SELECT
			%[1]s AS group_key,
			it.item->>'package_id' AS package_id,
			MAX(p.name) AS package_name,
			MAX(p.code) AS package_code,
			MAX(p.max_travelers) AS max_travelers,
			COUNT(*) AS total_bookings,
			COALESCE(SUM((it.item->>'qtyAdults')::int), 0) AS total_adults,
			COALESCE(SUM((it.item->>'qtyChildren')::int), 0) AS total_children,
			SUM(COALESCE((b.amounts->>'grandTotal')::numeric, 0))::float8 AS total_revenue,
			AVG(COALESCE((b.amounts->>'grandTotal')::numeric, 0))::float8 AS avg_revenue
		FROM bookings b
		CROSS JOIN LATERAL jsonb_array_elements(b.items) AS it(item)
		LEFT JOIN packages p ON p.id::text = it.item->>'package_id'
		%[2]s
		GROUP BY %[3]s
		ORDER BY total_revenue DESC`, selectKey, where, groupBy)

	var scanned []summaryScan
	if err := r.db.SelectContext(ctx, &scanned, query, args...); err != nil {
		return nil, fmt.Errorf("failed to summarize bookings: %w", err)
	}

	rows := make([]models.BookingSummaryRow, 0, len(scanned))
	for _, s := range scanned {
		row := models.BookingSummaryRow{
			TotalBookings:  s.TotalBookings,
			TotalAdults:    s.TotalAdults,
			TotalChildren:  s.TotalChildren,
			TotalTravelers: s.TotalAdults + s.TotalChildren,
			TotalRevenue:   s.TotalRevenue,
			Package: models.PackageDescriptor{
				Name:         s.PackageName,
				Code:         s.PackageCode,
				MaxTravelers: s.MaxTravelers,
			},
		}
		if s.AvgRevenue != nil {
			row.AvgRevenue = math.Round(*s.AvgRevenue*100) / 100
		}
		if s.PackageID != nil {
			if id, err := uuid.Parse(*s.PackageID); err == nil {
				row.Package.ID = &id
			}
		}
		switch f.GroupBy {
		case models.GroupByDay:
			row.Date = s.GroupKey
		case models.GroupByMonth:
			row.Month = s.GroupKey
		case models.GroupByStatus:
			row.Status = s.GroupKey
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Update applies a patch set
func (r *BookingRepository) Update(ctx context.Context, id uuid.UUID, set *patch.Set) (int64, error) {
	return updateByID(ctx, r.db, "bookings", id, set)
}

// Delete removes a booking
func (r *BookingRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return deleteByID(ctx, r.db, "bookings", id)
}
