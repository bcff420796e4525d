package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// DepartureStatus is the sale state of a scheduled departure
type DepartureStatus string

const (
	DepartureAvailable DepartureStatus = "available"
	DepartureSoldOut   DepartureStatus = "soldout"
	DepartureCancelled DepartureStatus = "cancelled"
)

// IsValid reports whether s is a known departure status
func (s DepartureStatus) IsValid() bool {
	switch s {
	case DepartureAvailable, DepartureSoldOut, DepartureCancelled:
		return true
	}
	return false
}

// ScheduledDeparture is a dated instance of a package with its own slots
type ScheduledDeparture struct {
	DepartureDate  time.Time       `json:"departureDate"`
	ReturnDate     time.Time       `json:"returnDate"`
	AvailableSlots int             `json:"availableSlots"`
	BookedSlots    int             `json:"bookedSlots"`
	Status         DepartureStatus `json:"status"`
	PriceAdult     float64         `json:"priceAdult,omitempty"`
	PriceChild     float64         `json:"priceChild,omitempty"`

	// Read-side decoration, never persisted
	RemainingSlots *int  `json:"remainingSlots,omitempty"`
	IsAvailable    *bool `json:"isAvailable,omitempty"`
}

// ScheduledDepartures is stored as a JSONB array
type ScheduledDepartures []ScheduledDeparture

// Value implements the driver.Valuer interface
func (d ScheduledDepartures) Value() (driver.Value, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	stored := make([]ScheduledDeparture, len(d))
	for i, dep := range d {
		dep.RemainingSlots = nil
		dep.IsAvailable = nil
		stored[i] = dep
	}
	return jsonValue(stored)
}

// Scan implements the sql.Scanner interface
func (d *ScheduledDepartures) Scan(src interface{}) error { return scanJSON(src, d) }

// WithAvailability returns a copy decorated with remaining slots and availability at now
func (d ScheduledDepartures) WithAvailability(now time.Time) ScheduledDepartures {
	out := make(ScheduledDepartures, len(d))
	for i, dep := range d {
		remaining := dep.AvailableSlots - dep.BookedSlots
		available := remaining > 0 && dep.Status == DepartureAvailable && dep.DepartureDate.After(now)
		dep.RemainingSlots = &remaining
		dep.IsAvailable = &available
		out[i] = dep
	}
	return out
}

// Package represents a row of the packages table
type Package struct {
	ID                  uuid.UUID           `db:"id" json:"_id"`
	Name                string              `db:"name" json:"name"`
	Code                string              `db:"code" json:"code"`
	Description         string              `db:"description" json:"description"`
	BaseCurrency        string              `db:"base_currency" json:"baseCurrency"`
	DurationDays        int                 `db:"duration_days" json:"durationDays"`
	MinTravelers        *int                `db:"min_travelers" json:"minTravelers,omitempty"`
	MaxTravelers        *int                `db:"max_travelers" json:"maxTravelers,omitempty"`
	Inclusions          string              `db:"inclusions" json:"inclusions"`
	Exclusions          string              `db:"exclusions" json:"exclusions"`
	Requirements        string              `db:"requirements" json:"requirements"`
	IsActive            bool                `db:"is_active" json:"isActive"`
	StartCityID         uuid.UUID           `db:"start_city_id" json:"startCity_id"`
	CountryID           uuid.UUID           `db:"country_id" json:"country_id"`
	ScheduledDepartures ScheduledDepartures `db:"scheduled_departures" json:"scheduledDepartures"`
	RatingAvg           float64             `db:"rating_avg" json:"ratingAvg"`
	RatingCount         int                 `db:"rating_count" json:"ratingCount"`
	CreatedAt           time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time           `db:"updated_at" json:"updatedAt"`
}

// DepartureInput is the request shape of a scheduled departure
type DepartureInput struct {
	DepartureDate  *string  `json:"departureDate"`
	ReturnDate     *string  `json:"returnDate"`
	AvailableSlots *int     `json:"availableSlots"`
	BookedSlots    *int     `json:"bookedSlots"`
	Status         *string  `json:"status"`
	PriceAdult     *float64 `json:"priceAdult"`
	PriceChild     *float64 `json:"priceChild"`
}

// PackageInput is used for both create and partial update
type PackageInput struct {
	TypeProblems

	Name                *string          `json:"name"`
	Code                *string          `json:"code"`
	Description         *string          `json:"description"`
	BaseCurrency        *string          `json:"baseCurrency"`
	DurationDays        *int             `json:"durationDays"`
	MinTravelers        *int             `json:"minTravelers"`
	MaxTravelers        *int             `json:"maxTravelers"`
	Inclusions          *string          `json:"inclusions"`
	Exclusions          *string          `json:"exclusions"`
	Requirements        *string          `json:"requirements"`
	IsActive            *bool            `json:"isActive"`
	StartCityID         *string          `json:"startCity_id"`
	CountryID           *string          `json:"country_id"`
	ScheduledDepartures []DepartureInput `json:"scheduledDepartures"`
}
