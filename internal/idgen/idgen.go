// Package idgen generates booking identifiers.
package idgen

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// DefaultPrefix starts every booking ID.
const DefaultPrefix = "booking"

// suffixLength is the number of random base36 characters in an ID.
const suffixLength = 9

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// ErrMaxRetriesExceeded is returned when no unused ID was found.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for unique ID generation")

// Generator creates unique IDs.
type Generator interface {
	Generate() (string, error)
}

// BookingIDGenerator creates IDs of the form prefix_<unix millis>_<9 base36>.
type BookingIDGenerator struct {
	prefix string
	now    func() time.Time
}

// NewBookingIDGenerator creates a generator using prefix, or DefaultPrefix
// when empty. A nil now uses time.Now.
func NewBookingIDGenerator(prefix string, now func() time.Time) *BookingIDGenerator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if now == nil {
		now = time.Now
	}
	return &BookingIDGenerator{prefix: prefix, now: now}
}

// Generate creates a new ID using crypto/rand for the suffix.
func (g *BookingIDGenerator) Generate() (string, error) {
	suffix := make([]byte, suffixLength)
	max := big.NewInt(int64(len(alphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[i] = alphabet[n.Int64()]
	}

	var b strings.Builder
	b.Grow(len(g.prefix) + 16 + suffixLength)
	b.WriteString(g.prefix)
	b.WriteByte('_')
	b.WriteString(strconv.FormatInt(g.now().UnixMilli(), 10))
	b.WriteByte('_')
	b.Write(suffix)
	return b.String(), nil
}

// ExistsFunc reports whether an ID is already taken.
type ExistsFunc func(id string) (bool, error)

// Unique wraps gen so that IDs for which exists reports true are regenerated,
// up to maxRetries extra attempts.
func Unique(gen Generator, exists ExistsFunc, maxRetries int) (string, error) {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		id, err := gen.Generate()
		if err != nil {
			return "", err
		}
		taken, err := exists(id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", ErrMaxRetriesExceeded
}
