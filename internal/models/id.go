package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidID is returned when a reference does not hold a well-formed identifier
var ErrInvalidID = errors.New("invalid id")

// ParseID validates a raw reference and converts it to a UUID.
// The nil UUID is rejected so an unset reference never reaches the store.
func ParseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%s must be a valid id: %w", field, ErrInvalidID)
	}
	return id, nil
}
