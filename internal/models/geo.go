package models

import "database/sql/driver"

// GeoPoint is a GeoJSON point stored as JSONB. Coordinates are [lng, lat].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewGeoPoint builds a point from longitude and latitude
func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{lng, lat}}
}

// Lng returns the longitude
func (p GeoPoint) Lng() float64 { return p.Coordinates[0] }

// Lat returns the latitude
func (p GeoPoint) Lat() float64 { return p.Coordinates[1] }

// Value implements the driver.Valuer interface
func (p GeoPoint) Value() (driver.Value, error) { return jsonValue(p) }

// Scan implements the sql.Scanner interface
func (p *GeoPoint) Scan(src interface{}) error { return scanJSON(src, p) }

// GeoPointInput is the request shape of a location
type GeoPointInput struct {
	Type        *string   `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// NearbyQuery describes a radius search around a point, distance in metres
type NearbyQuery struct {
	Lng         float64
	Lat         float64
	MaxDistance float64
	Limit       int
}
