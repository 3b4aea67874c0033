package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Upstream data sources a dashboard can be built from
const (
	SourcePosts        = "posts"
	SourceReservations = "reservations"
)

// Record is one item of upstream JSON data. Fields are loosely typed: numbers
// arrive as json.Number (the decoder runs with UseNumber), strings as string,
// and any field may be missing.
type Record map[string]any

// Has reports whether the field is present and not null
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// String returns the field rendered as text. Missing and null fields yield "".
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Int returns the field as an integer. Missing, null and unparsable fields
// yield 0.
func (r Record) Int(key string) int {
	n, _ := r.LookupInt(key)
	return n
}

// LookupInt returns the field as an integer and whether it could be read as one.
// Numeric strings are accepted after trimming surrounding whitespace.
func (r Record) LookupInt(key string) (int, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}

	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return int(n), true
		}
		if f, err := val.Float64(); err == nil {
			return int(f), true
		}
		return 0, false
	case float64:
		return int(val), true
	case int:
		return val, true
	case int64:
		return int(val), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
