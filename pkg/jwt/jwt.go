// Package jwt issues and verifies the HS256 access and refresh tokens of the
// travel booking API. The two token kinds use separate secrets.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access from refresh tokens
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

const issuer = "travel-booking-api"

var (
	// ErrTokenExpired is returned for a well-signed token past its expiry
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidToken covers malformed tokens, bad signatures and foreign issuers
	ErrInvalidToken = errors.New("invalid token")

	// ErrWrongTokenType is returned when a refresh token is used as access token or vice versa
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims carried by both token kinds; UserID is serialized as "id"
type Claims struct {
	UserID    uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

type keyConfig struct {
	secret []byte
	expiry time.Duration
}

// Service signs and validates tokens
type Service struct {
	keys map[TokenType]keyConfig
	now  func() time.Time
}

// NewService creates a token service
func NewService(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) *Service {
	return &Service{
		keys: map[TokenType]keyConfig{
			AccessToken:  {secret: []byte(accessSecret), expiry: accessExpiry},
			RefreshToken: {secret: []byte(refreshSecret), expiry: refreshExpiry},
		},
		now: time.Now,
	}
}

// RefreshTokenExpiry is the lifetime of refresh tokens, used to stamp stored sessions
func (s *Service) RefreshTokenExpiry() time.Duration {
	return s.keys[RefreshToken].expiry
}

// GenerateAccessToken signs a short lived access token
func (s *Service) GenerateAccessToken(userID uuid.UUID, email, role string) (string, error) {
	return s.sign(AccessToken, userID, email, role)
}

// GenerateRefreshToken signs a refresh token. The jti makes two tokens
// issued in the same second distinct, so their stored hashes differ too.
func (s *Service) GenerateRefreshToken(userID uuid.UUID, email, role string) (string, error) {
	return s.sign(RefreshToken, userID, email, role)
}

func (s *Service) sign(kind TokenType, userID uuid.UUID, email, role string) (string, error) {
	key := s.keys[kind]
	now := s.now()
	claims := Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(key.expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

// ValidateAccessToken verifies an access token
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validate(AccessToken, tokenString)
}

// ValidateRefreshToken verifies a refresh token
func (s *Service) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.validate(RefreshToken, tokenString)
}

func (s *Service) validate(kind TokenType, tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.keys[kind].secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.TokenType != kind {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrWrongTokenType, kind, claims.TokenType)
	}
	return claims, nil
}

// IsTokenExpired reads the exp claim without verifying the signature.
// Unparsable tokens and tokens without exp count as expired.
func (s *Service) IsTokenExpired(tokenString string) bool {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Time.Before(s.now())
}
