// internal/input/input.go
//
// Parsing of raw presenter input fields.
//
//   - ParseInt:     strict integer parse of an index or value field.
//   - ParseDigit:   ParseInt restricted to 0–9.
//   - ParsePattern: comma/whitespace separated list of numbers.
//
// Numeric text is read as a float first, so forms like "3.0", "+4" and
// "1e1" are accepted when they denote an integer. Each rejection carries
// a distinct sentinel from the domain package.

package input

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/robalobadob/codebreaker/internal/domain"
)

// ParseInt parses a single integer field.
func ParseInt(field string) (int, error) {
	s := strings.TrimSpace(field)
	if s == "" {
		return 0, fmt.Errorf("%w: missing number", domain.ErrInvalidInput)
	}
	n, ok := integral(s)
	if !ok {
		return 0, fmt.Errorf("%w: %q is not an integer", domain.ErrInvalidInput, s)
	}
	return n, nil
}

// ParseDigit parses a field that must hold a digit 0–9.
func ParseDigit(field string) (int, error) {
	n, err := ParseInt(field)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 9 {
		return 0, fmt.Errorf("%w: digit %d not in 0–9", domain.ErrValueOutOfRange, n)
	}
	return n, nil
}

// Unmatchable stands in for a pattern token that is a finite number but
// not an integer in int32 range, such as 0.5. No slot holds it, so a
// pattern containing it is never found.
const Unmatchable = math.MinInt

// ParsePattern splits text on commas and whitespace. Non-numeric and
// non-finite tokens are dropped; any other number keeps its position,
// as Unmatchable when it is not integral. An empty result is an error.
func ParsePattern(text string) ([]int, error) {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	out := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		if n, ok := integral(tok); ok {
			out = append(out, n)
			continue
		}
		if finite(tok) {
			out = append(out, Unmatchable)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: pattern has no numbers, e.g. 2,1,4", domain.ErrInvalidInput)
	}
	return out, nil
}

// finite reports whether s parses as a finite number.
func finite(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// integral reports the integer value of s when s is a finite number with
// no fractional part that fits in an int.
func integral(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
