package schema

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// DefaultTimestampLayouts are tried in order when a schema does not list its own.
var DefaultTimestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04",
	"01/02/2006 03:04:05 PM",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"2006-01-02",
}

// Markers read as missing in numeric and timestamp columns. Text columns
// only treat the empty string as missing.
var nullTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"NaN":  true,
	"nan":  true,
	"NULL": true,
	"null": true,
	"#N/A": true,
	"<NA>": true,
}

var (
	errNotIntegral = errors.New("value is not a whole number")
	errOutOfRange  = errors.New("value out of int64 range")
	errNoLayout    = errors.New("no timestamp layout matched")
)

// Coercer converts raw text to the Go value for a field type. Timestamp
// layouts are tried in order and the first match wins, so a value parses the
// same way regardless of the rows before it.
type Coercer struct {
	layouts []string
}

func NewCoercer(layouts []string) *Coercer {
	if len(layouts) == 0 {
		layouts = DefaultTimestampLayouts
	}
	return &Coercer{layouts: layouts}
}

// Coerce returns int64, float64, string, time.Time, or nil for missing values.
func (c *Coercer) Coerce(t pgingest.FieldType, raw string) (any, error) {
	if t == pgingest.FieldText {
		if raw == "" {
			return nil, nil
		}
		return raw, nil
	}

	s := strings.TrimSpace(raw)
	if nullTokens[s] {
		return nil, nil
	}

	switch t {
	case pgingest.FieldInt64:
		return parseInt64(s)
	case pgingest.FieldFloat64:
		return strconv.ParseFloat(s, 64)
	case pgingest.FieldTimestamp:
		return c.parseTimestamp(s)
	default:
		return nil, pgingest.ErrInvalidConfig
	}
}

// maxExactFloatInt is the largest magnitude a float64 holds without losing
// integer precision.
const maxExactFloatInt = 1 << 53

// parseInt64 also accepts integral decimals such as "1.0", which appear
// when an exporter wrote a nullable integer column through a float.
func parseInt64(s string) (any, error) {
	if whole, frac, ok := strings.Cut(s, "."); ok && whole != "" && strings.Trim(frac, "0") == "" {
		s = whole
	}

	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return i, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return nil, errOutOfRange
	}

	// Exponent forms like "1e3" go through float64 and must stay exact.
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil {
		return nil, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, errNotIntegral
	}
	if math.Abs(f) > maxExactFloatInt {
		return nil, errOutOfRange
	}
	return int64(f), nil
}

func (c *Coercer) parseTimestamp(s string) (any, error) {
	for _, layout := range c.layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return nil, errNoLayout
}
