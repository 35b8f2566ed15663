package core

import (
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Helpers reading loosely typed document fields.
// Stored records come from several client versions: numbers may be strings, flags may be strings,
// timestamps may be unix milliseconds, strings or time values.

// Float reads a numeric field. ok is false when the value is absent, non-numeric or not finite.
func Float(v interface{}) (f float64, ok bool) {
	if v == nil {
		return 0, false
	}
	if s, isStr := v.(string); isStr {
		s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
		if s == "" {
			return 0, false
		}
		v = s
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FloatOrZero reads a numeric field, coercing anything invalid to 0.
func FloatOrZero(v interface{}) float64 {
	f, _ := Float(v)
	return f
}

// String reads a text field; numbers are formatted, nil reads as "".
func String(v interface{}) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

// Bool reads a flag field.
func Bool(v interface{}) bool {
	b, err := cast.ToBoolE(v)
	return err == nil && b
}

// Time reads a timestamp field. Numbers are unix milliseconds.
func Time(v interface{}) time.Time {
	switch t := v.(type) {
	case nil:
		return time.Time{}
	case time.Time:
		return t.UTC()
	case *time.Time:
		if t == nil {
			return time.Time{}
		}
		return t.UTC()
	case string:
		if ms, ok := Float(t); ok {
			return time.Unix(0, int64(ms)*int64(time.Millisecond)).UTC()
		}
		parsed, err := cast.ToTimeE(t)
		if err != nil {
			return time.Time{}
		}
		return parsed.UTC()
	}
	if ms, ok := Float(v); ok {
		return time.Unix(0, int64(ms)*int64(time.Millisecond)).UTC()
	}
	return time.Time{}
}

// Millis is how timestamps are written to documents.
func Millis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}
