package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// Currency describes the currency a country uses
type Currency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// Value implements the driver.Valuer interface
func (c Currency) Value() (driver.Value, error) { return jsonValue(c) }

// Scan implements the sql.Scanner interface
func (c *Currency) Scan(src interface{}) error { return scanJSON(src, c) }

// Country represents a row of the countries table
type Country struct {
	ID        uuid.UUID `db:"id" json:"_id"`
	Name      string    `db:"name" json:"name"`
	ISO2      string    `db:"iso2" json:"iso2"`
	ISO3      string    `db:"iso3" json:"iso3"`
	PhoneCode string    `db:"phone_code" json:"phoneCode"`
	Currency  Currency  `db:"currency" json:"currency"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// CurrencyInput is the request shape of a currency
type CurrencyInput struct {
	Code   *string `json:"code"`
	Name   *string `json:"name"`
	Symbol *string `json:"symbol"`
}

// CountryInput is used for both create and partial update
type CountryInput struct {
	TypeProblems

	Name      *string        `json:"name"`
	ISO2      *string        `json:"iso2"`
	ISO3      *string        `json:"iso3"`
	PhoneCode *string        `json:"phoneCode"`
	Currency  *CurrencyInput `json:"currency"`
}
