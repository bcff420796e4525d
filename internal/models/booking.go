package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle state of a booking
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingPaid      BookingStatus = "paid"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// ActiveBookingStatuses are the statuses that consume package capacity
var ActiveBookingStatuses = []string{
	string(BookingConfirmed),
	string(BookingPaid),
	string(BookingCompleted),
}

// IsValid reports whether s is a known booking status
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingPaid, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// Payment statuses
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// BookingOption is a priced extra attached to an item
type BookingOption struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// BookingItem is one line of a booking
type BookingItem struct {
	PackageID   uuid.UUID       `json:"package_id"`
	Title       string          `json:"title"`
	QtyAdults   int             `json:"qtyAdults"`
	QtyChildren int             `json:"qtyChildren"`
	PriceAdult  float64         `json:"priceAdult"`
	PriceChild  float64         `json:"priceChild"`
	Options     []BookingOption `json:"options"`
	Subtotal    float64         `json:"subtotal"`
}

// Travelers returns the number of people on this line
func (i BookingItem) Travelers() int {
	return i.QtyAdults + i.QtyChildren
}

// BookingItems is stored as a JSONB array
type BookingItems []BookingItem

// Value implements the driver.Valuer interface
func (b BookingItems) Value() (driver.Value, error) {
	if b == nil {
		return []byte("[]"), nil
	}
	return jsonValue([]BookingItem(b))
}

// Scan implements the sql.Scanner interface
func (b *BookingItems) Scan(src interface{}) error { return scanJSON(src, b) }

// Amounts is the monetary block of a booking
type Amounts struct {
	ItemsTotal float64 `json:"itemsTotal"`
	Discount   float64 `json:"discount"`
	Tax        float64 `json:"tax"`
	Fee        float64 `json:"fee"`
	GrandTotal float64 `json:"grandTotal"`
}

// Value implements the driver.Valuer interface
func (a Amounts) Value() (driver.Value, error) { return jsonValue(a) }

// Scan implements the sql.Scanner interface
func (a *Amounts) Scan(src interface{}) error { return scanJSON(src, a) }

// PaymentTransaction is one recorded payment, append-only
type PaymentTransaction struct {
	Ref    string    `json:"ref"`
	Amount float64   `json:"amount"`
	At     time.Time `json:"at"`
}

// Payment records the payment state of a booking
type Payment struct {
	Method       string               `json:"method"`
	Status       string               `json:"status"`
	PaidAt       *time.Time           `json:"paidAt,omitempty"`
	Transactions []PaymentTransaction `json:"transactions"`
}

// Value implements the driver.Valuer interface
func (p Payment) Value() (driver.Value, error) {
	if p.Transactions == nil {
		p.Transactions = []PaymentTransaction{}
	}
	return jsonValue(p)
}

// Scan implements the sql.Scanner interface
func (p *Payment) Scan(src interface{}) error { return scanJSON(src, p) }

// TravelWindow is the period a booking covers
type TravelWindow struct {
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// Value implements the driver.Valuer interface
func (w TravelWindow) Value() (driver.Value, error) { return jsonValue(w) }

// Scan implements the sql.Scanner interface
func (w *TravelWindow) Scan(src interface{}) error { return scanJSON(src, w) }

// Traveler is a person travelling under a booking
type Traveler struct {
	Name        string     `json:"name"`
	Type        string     `json:"type,omitempty"`
	DOB         *time.Time `json:"dob,omitempty"`
	PassportNo  string     `json:"passportNo,omitempty"`
	Nationality string     `json:"nationality,omitempty"`
}

// Travelers is stored as a JSONB array
type Travelers []Traveler

// Value implements the driver.Valuer interface
func (t Travelers) Value() (driver.Value, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return jsonValue([]Traveler(t))
}

// Scan implements the sql.Scanner interface
func (t *Travelers) Scan(src interface{}) error { return scanJSON(src, t) }

// Booking represents a row of the bookings table
type Booking struct {
	ID           uuid.UUID     `db:"id" json:"_id"`
	BookingNo    string        `db:"booking_no" json:"bookingNo"`
	UserID       uuid.UUID     `db:"user_id" json:"user_id"`
	Status       BookingStatus `db:"status" json:"status"`
	Items        BookingItems  `db:"items" json:"items"`
	Currency     string        `db:"currency" json:"currency"`
	Amounts      Amounts       `db:"amounts" json:"amounts"`
	Payment      Payment       `db:"payment" json:"payment"`
	TravelWindow *TravelWindow `db:"travel_window" json:"travelWindow,omitempty"`
	Travelers    Travelers     `db:"travelers" json:"travelers"`
	Notes        string        `db:"notes" json:"notes"`
	CreatedAt    time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updatedAt"`
}

// BookingItemInput is the request shape of a booking line.
// Subtotal is accepted but always recomputed.
type BookingItemInput struct {
	PackageID   *string         `json:"package_id"`
	Title       *string         `json:"title"`
	QtyAdults   *int            `json:"qtyAdults"`
	QtyChildren *int            `json:"qtyChildren"`
	PriceAdult  *float64        `json:"priceAdult"`
	PriceChild  *float64        `json:"priceChild"`
	Options     []BookingOption `json:"options"`
	Subtotal    *float64        `json:"subtotal"`
}

// AmountsInput carries client overrides. Only discount, tax and fee are used.
type AmountsInput struct {
	ItemsTotal *float64 `json:"itemsTotal"`
	Discount   *float64 `json:"discount"`
	Tax        *float64 `json:"tax"`
	Fee        *float64 `json:"fee"`
	GrandTotal *float64 `json:"grandTotal"`
}

// PaymentInput is the request shape of a payment change
type PaymentInput struct {
	Method *string  `json:"method"`
	Status *string  `json:"status"`
	Amount *float64 `json:"amount"`
	Ref    *string  `json:"ref"`
}

// TravelWindowInput holds textual dates
type TravelWindowInput struct {
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

// TravelerInput holds a traveler with a textual date of birth
type TravelerInput struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	DOB         *string `json:"dob"`
	PassportNo  string  `json:"passportNo"`
	Nationality string  `json:"nationality"`
}

// BookingInput is the create and partial-update payload of a booking
type BookingInput struct {
	TypeProblems

	UserID       *string            `json:"user_id"`
	Status       *string            `json:"status"`
	Items        []BookingItemInput `json:"items"`
	Currency     *string            `json:"currency"`
	Amounts      *AmountsInput      `json:"amounts"`
	Payment      *PaymentInput      `json:"payment"`
	TravelWindow *TravelWindowInput `json:"travelWindow"`
	Travelers    []TravelerInput    `json:"travelers"`
	Notes        *string            `json:"notes"`
}

// BookingFilter narrows booking listings
type BookingFilter struct {
	UserID *uuid.UUID
	Status string
	Offset int
	Limit  int
}

// SummaryGroupBy selects the grouping of a booking summary
type SummaryGroupBy string

const (
	GroupByPackage SummaryGroupBy = "package"
	GroupByDay     SummaryGroupBy = "day"
	GroupByMonth   SummaryGroupBy = "month"
	GroupByStatus  SummaryGroupBy = "status"
)

// BookingSummaryFilter holds the summary query parameters
type BookingSummaryFilter struct {
	PackageID *uuid.UUID
	Statuses  []string
	StartDate *time.Time
	EndDate   *time.Time
	GroupBy   SummaryGroupBy
}

// PackageDescriptor is the minimal package view joined into a summary row
type PackageDescriptor struct {
	ID           *uuid.UUID `json:"_id"`
	Name         *string    `json:"name"`
	Code         *string    `json:"code"`
	MaxTravelers *int       `json:"maxTravelers"`
}

// BookingSummaryRow is one aggregated group
type BookingSummaryRow struct {
	Date           string            `json:"date,omitempty"`
	Month          string            `json:"month,omitempty"`
	Status         string            `json:"status,omitempty"`
	Package        PackageDescriptor `json:"package"`
	TotalBookings  int               `json:"totalBookings"`
	TotalAdults    int               `json:"totalAdults"`
	TotalChildren  int               `json:"totalChildren"`
	TotalTravelers int               `json:"totalTravelers"`
	TotalRevenue   float64           `json:"totalRevenue"`
	AvgRevenue     float64           `json:"avgRevenue"`
}
