package services

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// ErrNumberSpaceExhausted is returned when no free number was found within the attempt budget
var ErrNumberSpaceExhausted = errors.New("could not generate a unique number")

// NumberGenerator builds human-readable identifiers such as ORD-20261014-0042.
// The suffix is random; collisions are resolved by drawing again.
type NumberGenerator struct {
	Prefix      string
	Digits      int
	MaxAttempts int
	Now         func() time.Time
	Rand        func(n int) int
}

// NewOrderNumberGenerator returns the generator for order numbers (4-digit suffix)
func NewOrderNumberGenerator(maxAttempts int) *NumberGenerator {
	return &NumberGenerator{Prefix: "ORD", Digits: 4, MaxAttempts: maxAttempts}
}

// NewReceiptNumberGenerator returns the generator for receipt numbers (5-digit suffix)
func NewReceiptNumberGenerator(maxAttempts int) *NumberGenerator {
	return &NumberGenerator{Prefix: "RCPT", Digits: 5, MaxAttempts: maxAttempts}
}

// Candidate builds one number with the given suffix width
func (g *NumberGenerator) Candidate(digits int) string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	randn := rand.IntN
	if g.Rand != nil {
		randn = g.Rand
	}

	limit := 1
	for i := 0; i < digits; i++ {
		limit *= 10
	}
	return fmt.Sprintf("%s-%s-%0*d", g.Prefix, now().Format("20060102"), digits, randn(limit))
}

// Generate draws numbers until exists reports one as free.
// After half the attempts the suffix widens by two digits so a crowded day cannot spin forever.
func (g *NumberGenerator) Generate(exists func(number string) (bool, error)) (string, error) {
	attempts := g.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	digits := g.Digits
	for i := 0; i < attempts; i++ {
		if i > 0 && i == attempts/2 {
			digits += 2
		}
		candidate := g.Candidate(digits)
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrNumberSpaceExhausted
}
