package services

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"
)

// base36 encodes UUIDs as uppercase base36, least significant digit first,
// so any prefix of the encoding is uniformly distributed
type base36 struct{}

func (base36) Encode(u uuid.UUID) string {
	digits := []byte(strings.ToUpper(new(big.Int).SetBytes(u[:]).Text(36)))
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}

func (base36) Decode(s string) (uuid.UUID, error) {
	digits := []byte(s)
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	n, ok := new(big.Int).SetString(string(digits), 36)
	if !ok || n.BitLen() > 128 {
		return uuid.Nil, fmt.Errorf("invalid base36 uuid %q", s)
	}
	var u uuid.UUID
	n.FillBytes(u[:])
	return u, nil
}

// NewBookingNo returns "BK" + epoch milliseconds + 5 uppercase base36 characters
func NewBookingNo(now time.Time) string {
	suffix := shortuuid.NewWithEncoder(base36{})
	return fmt.Sprintf("BK%d%s", now.UnixMilli(), suffix[:5])
}

// newTransactionRef returns "TX" + epoch milliseconds
func newTransactionRef(now time.Time) string {
	return fmt.Sprintf("TX%d", now.UnixMilli())
}
