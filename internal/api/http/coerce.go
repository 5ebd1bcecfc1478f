package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// The request field types below coerce JSON scalars the way a loosely typed client
// expects: numbers may be sent as strings, strings as numbers.

// number accepts a JSON number or a numeric string.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = number(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("cast to number failed for value %s", b)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("cast to number failed for value %q", s)
	}
	*n = number(f)
	return nil
}

// text accepts a JSON string, number or boolean. Numbers keep their literal form.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = text(s)
		return nil
	}

	b = bytes.TrimSpace(b)
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v.(type) {
	case float64, bool:
		*t = text(b)
		return nil
	default:
		return fmt.Errorf("cast to string failed for value %s", b)
	}
}

// timestamp accepts a date string (see parseDate) or epoch milliseconds.
type timestamp time.Time

func (ts *timestamp) UnmarshalJSON(b []byte) error {
	var ms float64
	if err := json.Unmarshal(b, &ms); err == nil {
		t, err := fromEpochMillis(ms)
		if err != nil {
			return err
		}
		*ts = timestamp(t)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("cast to date failed for value %s", b)
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	*ts = timestamp(t)
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseDate accepts RFC3339, a local "YYYY-MM-DDTHH:MM[:SS]" or a bare "YYYY-MM-DD".
// Values without a zone are read as UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cast to date failed for value %q", s)
}

// fromEpochMillis rejects values that do not fit an int64 millisecond count.
func fromEpochMillis(ms float64) (time.Time, error) {
	if math.IsNaN(ms) || ms >= math.MaxInt64 || ms < math.MinInt64 {
		return time.Time{}, fmt.Errorf("cast to date failed for value %v", ms)
	}
	return time.UnixMilli(int64(ms)).UTC(), nil
}

// pathDate reads the informational date path segment. It never fails: values that are
// neither epoch milliseconds nor a parseDate layout yield the zero time.
func pathDate(s string) (time.Time, bool) {
	if ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	t, err := parseDate(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func textPtr(t *text) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

func textValue(t *text) string {
	if t == nil {
		return ""
	}
	return string(*t)
}
