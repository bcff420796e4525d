package models

import (
	"time"

	"github.com/google/uuid"
)

// City represents a row of the cities table
type City struct {
	ID         uuid.UUID `db:"id" json:"_id"`
	Name       string    `db:"name" json:"name"`
	ProvinceID uuid.UUID `db:"province_id" json:"province_id"`
	CountryID  uuid.UUID `db:"country_id" json:"country_id"`
	Location   GeoPoint  `db:"location" json:"location"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`

	// Distance is only populated by nearby searches (metres)
	Distance *float64 `db:"distance" json:"distance,omitempty"`
}

// CityInput is used for both create and partial update
type CityInput struct {
	TypeProblems

	Name       *string        `json:"name"`
	ProvinceID *string        `json:"province_id"`
	CountryID  *string        `json:"country_id"`
	Location   *GeoPointInput `json:"location"`
}
