package services

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Request payloads accept numbers or numeric strings ("50", " 12 ") for percentage, month and
// year. Anything that does not coerce to a finite number is rejected like an out-of-range value.

// optionalText trims s and maps blank text to nil, so clearing a field stores NULL.
func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// toNumber coerces a JSON-decoded value to a finite float64.
func toNumber(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case bool:
		return 0, false
	case string:
		x = strings.TrimSpace(x)
		if x == "" {
			return 0, false
		}
		v = x
	}

	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toWholeNumber coerces v to an int, rejecting fractional values.
func toWholeNumber(v interface{}) (int, bool) {
	f, ok := toNumber(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// coercePercentage validates a loosely-typed percentage in [0, 100].
func coercePercentage(v interface{}) (float64, error) {
	p, ok := toNumber(v)
	if !ok || p < 0 || p > 100 {
		return 0, errPercentageRange
	}
	return p, nil
}

// coerceMonth validates a loosely-typed month in [1, 12].
func coerceMonth(v interface{}) (int, error) {
	m, ok := toWholeNumber(v)
	if !ok || m < 1 || m > 12 {
		return 0, errMonthRange
	}
	return m, nil
}

// coerceYear validates a loosely-typed calendar year.
func coerceYear(v interface{}) (int, error) {
	y, ok := toWholeNumber(v)
	if !ok || y < 1 || y > 9999 {
		return 0, errYearInvalid
	}
	return y, nil
}
