package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Attraction represents a row of the attractions table
type Attraction struct {
	ID          uuid.UUID      `db:"id" json:"_id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	CityID      uuid.UUID      `db:"city_id" json:"city_id"`
	ProvinceID  uuid.UUID      `db:"province_id" json:"province_id"`
	CountryID   uuid.UUID      `db:"country_id" json:"country_id"`
	Location    GeoPoint       `db:"location" json:"location"`
	Categories  pq.StringArray `db:"categories" json:"categories"`
	Images      pq.StringArray `db:"images" json:"images"`
	RatingAvg   float64        `db:"rating_avg" json:"ratingAvg"`
	RatingCount int            `db:"rating_count" json:"ratingCount"`
	IsActive    bool           `db:"is_active" json:"isActive"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`

	Distance *float64 `db:"distance" json:"distance,omitempty"`
}

// AttractionInput is used for both create and partial update
type AttractionInput struct {
	TypeProblems

	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	CityID      *string        `json:"city_id"`
	ProvinceID  *string        `json:"province_id"`
	CountryID   *string        `json:"country_id"`
	Location    *GeoPointInput `json:"location"`
	Categories  []string       `json:"categories"`
	Images      []string       `json:"images"`
	RatingAvg   *float64       `json:"ratingAvg"`
	RatingCount *int           `json:"ratingCount"`
	IsActive    *bool          `json:"isActive"`
}

// AttractionFilter narrows attraction listings and searches
type AttractionFilter struct {
	ActiveOnly bool
	Query      string
	Category   string
	Offset     int
	Limit      int
}
