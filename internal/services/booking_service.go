package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/travelbooking/catalog-api/internal/events"
	"github.com/travelbooking/catalog-api/internal/metrics"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/pkg/patch"
	"golang.org/x/sync/errgroup"
)

// BookingStore is the persistence the booking workflow needs
type BookingStore interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, f models.BookingFilter) ([]models.Booking, error)
	Count(ctx context.Context, f models.BookingFilter) (int, error)
	CountActiveForPackage(ctx context.Context, packageID uuid.UUID, statuses []string) (int, error)
	Summary(ctx context.Context, f models.BookingSummaryFilter) ([]models.BookingSummaryRow, error)
	Update(ctx context.Context, id uuid.UUID, set *patch.Set) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// PackageLookup resolves the packages referenced by booking items
type PackageLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Package, error)
}

// BookingService runs the booking create/update workflow
type BookingService struct {
	bookings  BookingStore
	packages  PackageLookup
	publisher events.Publisher
	logger    *logrus.Logger
	now       func() time.Time
}

// NewBookingService creates a new booking service
func NewBookingService(
	bookings BookingStore,
	packages PackageLookup,
	publisher events.Publisher,
	logger *logrus.Logger,
) *BookingService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &BookingService{
		bookings:  bookings,
		packages:  packages,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// BookingEvent is the payload of booking events
type BookingEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	BookingNo  string    `json:"bookingNo"`
	UserID     uuid.UUID `json:"user_id"`
	Status     string    `json:"status"`
	Currency   string    `json:"currency"`
	GrandTotal float64   `json:"grandTotal"`
	Amount     float64   `json:"amount,omitempty"`
	At         time.Time `json:"at"`
}

// ============================================================================
// CREATE
// ============================================================================

// Create validates a booking, checks package capacity, computes totals and stores it
func (s *BookingService) Create(ctx context.Context, in *models.BookingInput) (*models.Booking, error) {
	now := s.now()

	// 1. Booking number is assigned before validation
	bookingNo := NewBookingNo(now)

	// 2. Structural validation
	draft, err := validateBookingCreate(in)
	if err != nil {
		return nil, err
	}

	// 3-4. Resolve packages and check capacity
	if err := s.checkCapacity(ctx, draft.items); err != nil {
		return nil, err
	}

	// 5. Dates
	window, travelers, err := parseBookingDates(in)
	if err != nil {
		return nil, err
	}

	// 6. Totals
	items := RecomputeItems(draft.items)
	discount, tax, fee := amountOverrides(in.Amounts, nil)

	// 7. Assemble
	method := ""
	if in.Payment != nil && in.Payment.Method != nil {
		method = *in.Payment.Method
	}
	notes := ""
	if in.Notes != nil {
		notes = *in.Notes
	}
	if travelers == nil {
		travelers = models.Travelers{}
	}
	booking := &models.Booking{
		BookingNo:    bookingNo,
		UserID:       *draft.userID,
		Status:       models.BookingStatus(*in.Status),
		Items:        items,
		Currency:     *in.Currency,
		Amounts:      ComputeAmounts(items, discount, tax, fee),
		Payment:      models.Payment{Method: method, Status: models.PaymentUnpaid, Transactions: []models.PaymentTransaction{}},
		TravelWindow: window,
		Travelers:    travelers,
		Notes:        notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 8. Insert
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, internal("create booking", uniqueViolation(err, "Booking", "bookingNo"))
	}
	if booking.ID == uuid.Nil {
		return nil, &InsertError{Entity: "booking"}
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"booking_no":  booking.BookingNo,
		"user_id":     booking.UserID,
		"status":      booking.Status,
		"travelers":   totalTravelers(booking.Items),
		"grand_total": booking.Amounts.GrandTotal,
	}).Info("Booking created")

	metrics.BookingsCreated.WithLabelValues(string(booking.Status)).Inc()
	metrics.BookingRevenue.WithLabelValues(booking.Currency).Add(math.Max(booking.Amounts.GrandTotal, 0))
	s.publish(ctx, events.BookingCreated, booking, 0)

	return booking, nil
}

// checkCapacity resolves every item's package and refuses items that exceed
// the package's remaining capacity. The count is advisory: two concurrent
// requests may both pass.
func (s *BookingService) checkCapacity(ctx context.Context, items models.BookingItems) error {
	for _, item := range items {
		pkg, err := s.packages.GetByID(ctx, item.PackageID)
		if err != nil {
			return internal("get package", err)
		}
		if pkg == nil {
			return &NotFoundError{Entity: "package", Key: item.PackageID.String()}
		}
		if pkg.MaxTravelers == nil || *pkg.MaxTravelers <= 0 {
			continue
		}

		active, err := s.bookings.CountActiveForPackage(ctx, pkg.ID, models.ActiveBookingStatuses)
		if err != nil {
			return internal("count package bookings", err)
		}

		available := *pkg.MaxTravelers - active
		requested := item.Travelers()
		if available <= 0 || requested > available {
			metrics.CapacityRejections.Inc()
			s.logger.WithFields(logrus.Fields{
				"package_id": pkg.ID,
				"available":  available,
				"requested":  requested,
			}).Warn("Booking refused, package capacity exceeded")
			return &CapacityError{Package: pkg.Name, Available: available, Requested: requested}
		}
	}
	return nil
}

// ============================================================================
// READ
// ============================================================================

// BookingQuery selects one page of bookings
type BookingQuery struct {
	Page   int
	Limit  int
	Status string
	UserID *uuid.UUID
}

// BookingPage is one page of bookings
type BookingPage struct {
	Bookings   []models.Booking  `json:"bookings"`
	Pagination models.Pagination `json:"pagination"`
}

// List returns one page of bookings, newest first. The page and the total
// are fetched concurrently.
func (s *BookingService) List(ctx context.Context, q BookingQuery) (*BookingPage, error) {
	q.Page, q.Limit = pageDefaults(q.Page, q.Limit)
	filter := models.BookingFilter{
		UserID: q.UserID,
		Status: q.Status,
		Offset: (q.Page - 1) * q.Limit,
		Limit:  q.Limit,
	}

	var (
		bookings []models.Booking
		total    int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bookings, err = s.bookings.List(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.bookings.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, internal("list bookings", err)
	}

	if len(bookings) == 0 {
		return nil, &NotFoundError{Entity: "bookings"}
	}
	return &BookingPage{
		Bookings:   bookings,
		Pagination: models.NewPagination(q.Page, q.Limit, total),
	}, nil
}

// Get returns one booking
func (s *BookingService) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, internal("get booking", err)
	}
	if booking == nil {
		return nil, &NotFoundError{Entity: "booking", Key: id.String()}
	}
	return booking, nil
}

// ============================================================================
// UPDATE
// ============================================================================

// Update applies the fields of in that differ from the stored booking.
// Totals are recomputed whenever items or amounts change.
func (s *BookingService) Update(ctx context.Context, id uuid.UUID, in *models.BookingInput) (*models.Booking, error) {
	draft, err := validateBookingUpdate(in)
	if err != nil {
		return nil, err
	}
	window, travelers, err := parseBookingDates(in)
	if err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()

	set, err := patch.Diff(
		patch.Field{Column: "user_id", Kind: patch.Object, Next: draft.userID, Current: current.UserID},
		patch.Field{Column: "status", Kind: patch.String, Next: in.Status, Current: string(current.Status)},
		patch.Field{Column: "currency", Kind: patch.String, Next: in.Currency, Current: current.Currency},
		patch.Field{Column: "travel_window", Kind: patch.Object, Next: window, Current: current.TravelWindow},
		patch.Field{Column: "travelers", Kind: patch.Array, Next: travelers, Current: current.Travelers},
		patch.Field{Column: "notes", Kind: patch.String, Next: in.Notes, Current: current.Notes},
	)
	if err != nil {
		return nil, internal("diff booking", err)
	}

	// Items replace the stored list; amounts follow items or their own overrides
	var amounts *models.Amounts
	if draft.items != nil {
		items := RecomputeItems(draft.items)
		if _, err := set.Apply(patch.Field{Column: "items", Kind: patch.Array, Next: items, Current: current.Items}); err != nil {
			return nil, internal("diff booking items", err)
		}
		var discount, tax, fee float64
		if in.Amounts != nil {
			discount, tax, fee = amountOverrides(in.Amounts, nil)
		} else {
			discount, tax, fee = amountOverrides(nil, &current.Amounts)
		}
		a := ComputeAmounts(items, discount, tax, fee)
		amounts = &a
	} else if in.Amounts != nil {
		discount, tax, fee := amountOverrides(in.Amounts, nil)
		a := ComputeAmounts(current.Items, discount, tax, fee)
		amounts = &a
	}
	if _, err := set.Apply(patch.Field{Column: "amounts", Kind: patch.Object, Next: amounts, Current: current.Amounts}); err != nil {
		return nil, internal("diff booking amounts", err)
	}

	// Payment merges into the stored payment
	payment, paidAmount := mergePayment(current.Payment, in.Payment, now)
	if _, err := set.Apply(patch.Field{Column: "payment", Kind: patch.Object, Next: payment, Current: current.Payment}); err != nil {
		return nil, internal("diff booking payment", err)
	}

	if set.Len() == 0 {
		return nil, ErrNoChange
	}
	set.Put("updated_at", now)

	rows, err := s.bookings.Update(ctx, id, set)
	if err != nil {
		return nil, internal("update booking", err)
	}
	if rows == 0 {
		return nil, &UpdateError{Entity: "booking"}
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": id,
		"booking_no": updated.BookingNo,
		"columns":    set.Columns(),
	}).Info("Booking updated")

	s.publish(ctx, events.BookingUpdated, updated, 0)
	if paidAmount > 0 {
		metrics.PaymentsRecorded.Inc()
		s.publish(ctx, events.BookingPaid, updated, paidAmount)
	}
	return updated, nil
}

// mergePayment overlays in onto stored. When in marks the booking paid with
// a non-zero amount, one transaction is appended and paidAt is stamped; the
// appended amount is returned. A nil result means in was absent.
func mergePayment(stored models.Payment, in *models.PaymentInput, now time.Time) (*models.Payment, float64) {
	if in == nil {
		return nil, 0
	}
	merged := stored
	merged.Transactions = append([]models.PaymentTransaction{}, stored.Transactions...)
	if in.Method != nil {
		merged.Method = *in.Method
	}
	if in.Status != nil {
		merged.Status = *in.Status
	}

	var paid float64
	if in.Status != nil && *in.Status == models.PaymentPaid && in.Amount != nil && *in.Amount != 0 {
		ref := newTransactionRef(now)
		if in.Ref != nil && *in.Ref != "" {
			ref = *in.Ref
		}
		paidAt := now
		merged.PaidAt = &paidAt
		merged.Transactions = append(merged.Transactions, models.PaymentTransaction{
			Ref:    ref,
			Amount: *in.Amount,
			At:     now,
		})
		paid = *in.Amount
	}
	return &merged, paid
}

// ============================================================================
// DELETE
// ============================================================================

// Delete removes a booking after checking it exists
func (s *BookingService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if _, err := s.bookings.Delete(ctx, id); err != nil {
		return internal("delete booking", err)
	}
	s.logger.WithField("booking_id", id).Info("Booking deleted")
	return nil
}

// ============================================================================
// SUMMARY
// ============================================================================

// SummaryQuery holds the raw summary parameters
type SummaryQuery struct {
	PackageID string
	Statuses  []string
	StartDate string
	EndDate   string
	GroupBy   string
}

// SummaryFilters echoes the filters a summary was computed with
type SummaryFilters struct {
	PackageID string   `json:"packageID"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Status    []string `json:"status"`
	GroupBy   string   `json:"groupBy"`
}

// BookingSummary is the result of a summary query
type BookingSummary struct {
	Summary      []models.BookingSummaryRow `json:"summary"`
	Filters      SummaryFilters             `json:"filters"`
	TotalResults int                        `json:"totalResults"`
}

// Summary aggregates booking items by package and the requested grouping
func (s *BookingService) Summary(ctx context.Context, q SummaryQuery) (*BookingSummary, error) {
	v := NewValidationError()
	filter := models.BookingSummaryFilter{GroupBy: models.GroupByPackage}
	echo := SummaryFilters{PackageID: "all", StartDate: "all", EndDate: "all"}

	if q.PackageID != "" {
		if id, err := models.ParseID("packageID", q.PackageID); err != nil {
			v.AddErr(err)
		} else {
			filter.PackageID = &id
			echo.PackageID = id.String()
		}
	}

	filter.Statuses = lo.Uniq(lo.Filter(q.Statuses, func(s string, _ int) bool { return s != "" }))
	if len(filter.Statuses) == 0 {
		filter.Statuses = models.ActiveBookingStatuses
	}
	for _, st := range filter.Statuses {
		if !models.BookingStatus(st).IsValid() {
			v.Add("status %q is not a booking status", st)
		}
	}
	echo.Status = filter.Statuses

	filter.StartDate = parseOptionalDate(v, "startDate", &q.StartDate)
	if filter.StartDate != nil {
		echo.StartDate = q.StartDate
	}
	filter.EndDate = parseOptionalDate(v, "endDate", &q.EndDate)
	if filter.EndDate != nil {
		echo.EndDate = q.EndDate
		if len(q.EndDate) == len("2006-01-02") {
			end := filter.EndDate.Add(24*time.Hour - time.Nanosecond)
			filter.EndDate = &end
		}
	}

	switch g := models.SummaryGroupBy(q.GroupBy); g {
	case models.GroupByDay, models.GroupByMonth, models.GroupByStatus:
		filter.GroupBy = g
	}
	echo.GroupBy = string(filter.GroupBy)

	if err := v.Err(); err != nil {
		return nil, err
	}

	rows, err := s.bookings.Summary(ctx, filter)
	if err != nil {
		return nil, internal("summarize bookings", err)
	}
	if rows == nil {
		rows = []models.BookingSummaryRow{}
	}
	return &BookingSummary{Summary: rows, Filters: echo, TotalResults: len(rows)}, nil
}

func (s *BookingService) publish(ctx context.Context, key string, b *models.Booking, amount float64) {
	event := BookingEvent{
		BookingID:  b.ID,
		BookingNo:  b.BookingNo,
		UserID:     b.UserID,
		Status:     string(b.Status),
		Currency:   b.Currency,
		GrandTotal: b.Amounts.GrandTotal,
		Amount:     amount,
		At:         s.now(),
	}
	if err := s.publisher.Publish(ctx, key, event); err != nil {
		metrics.EventsPublishFailed.WithLabelValues(key).Inc()
		s.logger.WithFields(logrus.Fields{
			"booking_no":  b.BookingNo,
			"routing_key": key,
		}).WithError(err).Warn("Booking event not published")
	}
}
