package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/travelbooking/catalog-api/internal/models"
)

// RefreshTokenRepository handles refresh session database operations
type RefreshTokenRepository struct {
	db DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		db: db,
	}
}

// hashToken creates a SHA-256 hash of the token for storage
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Store saves a refresh session for token
func (r *RefreshTokenRepository) Store(ctx context.Context, userID uuid.UUID, token string, s models.SessionInfo, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (
			user_id, token_hash, device_type, platform,
			ip_address, user_agent, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		userID,
		hashToken(token),
		nullable(s.DeviceType),
		nullable(s.Platform),
		nullable(s.IP),
		nullable(s.UserAgent),
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// Get retrieves a refresh session by its token, nil when unknown
func (r *RefreshTokenRepository) Get(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, device_type, platform,
		       ip_address, user_agent, created_at, expires_at,
		       last_used_at, revoked, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1`
	return getOne[models.RefreshToken](ctx, r.db, "refresh token", query, hashToken(token))
}

// Revoke marks a session revoked and records its last use. It reports false
// when the session was unknown or already revoked.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, token string, at time.Time) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE,
		    revoked_at = $1,
		    last_used_at = $1
		WHERE token_hash = $2 AND revoked = FALSE`

	result, err := r.db.ExecContext(ctx, query, at, hashToken(token))
	if err != nil {
		return false, fmt.Errorf("failed to revoke token: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// RevokeAllForUser revokes every active session of a user
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE,
		    revoked_at = $1
		WHERE user_id = $2 AND revoked = FALSE`

	if _, err := r.db.ExecContext(ctx, query, at, userID); err != nil {
		return fmt.Errorf("failed to revoke all user tokens: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions that expired before now and revoked
// sessions older than revokedFor
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time, revokedFor time.Duration) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1
		   OR (revoked = TRUE AND revoked_at < $2)`

	result, err := r.db.ExecContext(ctx, query, now, now.Add(-revokedFor))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup refresh tokens: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}
