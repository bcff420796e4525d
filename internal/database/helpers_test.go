package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*PostgresDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &PostgresDB{DB: sqlx.NewDb(db, "sqlmock")}, mock
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%bang%", likePattern("bang"))
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
	assert.Equal(t, `%a\\b%`, likePattern(`a\b`))
}
