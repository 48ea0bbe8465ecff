package models

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ID is a record identifier that the dashboard files store either as a JSON
// number or as a string. Both forms are normalized to the same string so that
// 5, 5.0 and "5" refer to the same record.
type ID string

// String returns the normalized identifier.
func (id ID) String() string {
	return string(id)
}

// UnmarshalJSON accepts numbers, strings and null. Booleans decode to an empty ID.
func (id *ID) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")), bytes.Equal(raw, []byte("true")), bytes.Equal(raw, []byte("false")):
		*id = ""
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
	default:
		*id = ID(normalizeNumber(string(raw)))
	}
	return nil
}

// MarshalJSON writes canonical numeric identifiers back as numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if isCanonicalNumber(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Number is a numeric field that may be stored as a number or a numeric
// string. Anything unparseable decodes to zero instead of failing the file.
type Number float64

// Float64 returns the value as float64.
func (n Number) Float64() float64 {
	return float64(n)
}

// UnmarshalJSON never fails: unparseable values become zero.
func (n *Number) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			*n = 0
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*n = 0
		return nil
	}
	*n = Number(v)
	return nil
}

func normalizeNumber(raw string) string {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func isCanonicalNumber(s string) bool {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return strconv.FormatFloat(v, 'f', -1, 64) == s
}

// Timestamp is a payment date. The dashboard stores it as an ISO 8601 string,
// older records as epoch milliseconds. Numbers are converted to RFC 3339 in
// UTC; anything else decodes to empty so only that record loses its date.
type Timestamp string

// UnmarshalJSON never fails.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	*t = ""
	if len(raw) == 0 {
		return nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			*t = Timestamp(strings.TrimSpace(s))
		}
		return nil
	}

	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*t = Timestamp(time.UnixMilli(int64(v)).UTC().Format(time.RFC3339Nano))
	return nil
}
