package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NullString wraps sql.NullString to provide proper JSON marshaling
type NullString struct {
	sql.NullString
}

// MarshalJSON implements json.Marshaler
func (ns NullString) MarshalJSON() ([]byte, error) {
	if ns.Valid {
		return json.Marshal(ns.String)
	}
	return json.Marshal(nil)
}

// NewNullString returns a valid NullString unless s is empty
func NewNullString(s string) NullString {
	return NullString{sql.NullString{String: s, Valid: s != ""}}
}

// User roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
	RoleStaff    = "staff"
)

// User represents a user in the system. PasswordHash never leaves the service.
type User struct {
	ID           uuid.UUID  `json:"_id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	Phone        NullString `json:"phone" db:"phone"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         string     `json:"role" db:"role"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// RegisterInput is the request body of a registration
type RegisterInput struct {
	TypeProblems

	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

// LoginInput is the request body of a login
type LoginInput struct {
	TypeProblems

	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileInput is the partial update of a user profile
type ProfileInput struct {
	TypeProblems

	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// RefreshInput is the request body of a token refresh
type RefreshInput struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is returned by login and refresh
type AuthResult struct {
	User         *User  `json:"user,omitempty"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken is a stored refresh session
type RefreshToken struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	UserID     uuid.UUID      `json:"user_id" db:"user_id"`
	TokenHash  string         `json:"-" db:"token_hash"`
	DeviceType sql.NullString `json:"device_type" db:"device_type"`
	Platform   sql.NullString `json:"platform" db:"platform"`
	IPAddress  sql.NullString `json:"ip_address" db:"ip_address"`
	UserAgent  sql.NullString `json:"user_agent" db:"user_agent"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	ExpiresAt  time.Time      `json:"expires_at" db:"expires_at"`
	LastUsedAt sql.NullTime   `json:"last_used_at" db:"last_used_at"`
	Revoked    bool           `json:"revoked" db:"revoked"`
	RevokedAt  sql.NullTime   `json:"revoked_at" db:"revoked_at"`
}

// SessionInfo describes the client a refresh token was issued to
type SessionInfo struct {
	IP         string
	UserAgent  string
	DeviceType string
	Platform   string
}
