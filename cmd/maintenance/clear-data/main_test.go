package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetTables(t *testing.T) {
	assert.Equal(t, []string{"reviews", "bookings"}, targetTables(false, true))
	assert.Equal(t,
		[]string{"reviews", "bookings", "packages", "attractions", "cities", "provinces", "countries"},
		targetTables(true, false))
	assert.Contains(t, targetTables(false, false), "users")
	assert.Contains(t, targetTables(false, false), "refresh_tokens")
}
