package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cents is an amount of money in 1/100 of the currency unit.
type Cents int64

func (c Cents) Mul(qty int) Cents {
	return c * Cents(qty)
}

// Available returns how many of capacity units are still free. It never goes
// below zero.
func Available(capacity, sold int) int {
	return max(capacity-sold, 0)
}

// ParseCents converts price text into cents. Empty text is zero; text with a
// decimal point is a major-currency amount rounded to the nearest cent;
// anything else is taken as a whole number of cents.
func ParseCents(raw string) (Cents, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}

	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("invalid ticket price %q", raw)
		}
		cents := math.RoundToEven(f * 100)
		if cents >= math.MaxInt64 || cents < math.MinInt64 {
			return 0, fmt.Errorf("ticket price %q out of range", raw)
		}
		return Cents(cents), nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ticket price %q", raw)
	}
	return Cents(n), nil
}

// ParseQuantity reads a decimal number and truncates it toward zero, so both
// "50" and "50.0" are accepted.
func ParseQuantity(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid capacity %q", raw)
	}
	t := math.Trunc(f)
	if t > math.MaxInt32 || t < math.MinInt32 {
		return 0, fmt.Errorf("capacity %q out of range", raw)
	}
	return int(t), nil
}
