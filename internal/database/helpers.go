package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/travelbooking/catalog-api/pkg/patch"
)

// updateByID applies a patch set to one row and returns the number of rows affected
func updateByID(ctx context.Context, db DB, table string, id uuid.UUID, set *patch.Set) (int64, error) {
	if set == nil || set.Len() == 0 {
		return 0, nil
	}
	clause, args := set.Clause(1)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, clause, len(args)+1)
	args = append(args, id)

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", table, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// deleteByID removes one row and returns the number of rows affected
func deleteByID(ctx context.Context, db DB, table string, id uuid.UUID) (int64, error) {
	result, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// existsByID reports whether a row with id exists in table
func existsByID(ctx context.Context, db DB, table string, id uuid.UUID) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)", table)
	if err := db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", table, err)
	}
	return exists, nil
}

// getOne runs a single-row query and maps sql.ErrNoRows to a nil result
func getOne[T any](ctx context.Context, db DB, what, query string, args ...interface{}) (*T, error) {
	var out T
	if err := db.GetContext(ctx, &out, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	return &out, nil
}

// likePattern escapes LIKE wildcards and wraps term for a substring match
func likePattern(term string) string {
	escaped := make([]rune, 0, len(term)+2)
	escaped = append(escaped, '%')
	for _, r := range term {
		if r == '%' || r == '_' || r == '\\' {
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, r)
	}
	return string(append(escaped, '%'))
}

// haversineSQL computes the great-circle distance in metres between a JSONB
// GeoJSON point column and ($1 lng, $2 lat)
const haversineSQL = `(6371000 * 2 * asin(sqrt(
	power(sin(radians(((location->'coordinates'->>1)::float8 - $2) / 2)), 2) +
	cos(radians($2)) * cos(radians((location->'coordinates'->>1)::float8)) *
	power(sin(radians(((location->'coordinates'->>0)::float8 - $1) / 2)), 2)
)))`
