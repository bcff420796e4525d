package models

import (
	"time"

	"github.com/google/uuid"
)

// Province represents a row of the provinces table
type Province struct {
	ID        uuid.UUID `db:"id" json:"_id"`
	Name      string    `db:"name" json:"name"`
	CountryID uuid.UUID `db:"country_id" json:"country_id"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ProvinceInput is used for both create and partial update
type ProvinceInput struct {
	TypeProblems

	Name      *string `json:"name"`
	CountryID *string `json:"country_id"`
}
