// Package timeutil normalizes the loosely typed timestamp representations
// carried over from the platform's former document store into time.Time.
package timeutil

import (
	"encoding/json"
	"time"
)

// epochMillisFloor splits numeric epochs: values below it are taken as
// seconds, values at or above it as milliseconds.
const epochMillisFloor = 1e12

// TimeConvertible is satisfied by values that know how to produce an instant,
// such as decoded document-store timestamp wrappers.
type TimeConvertible interface {
	Time() time.Time
}

var stringLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ToInstant resolves a heterogeneous timestamp value to a concrete instant.
// The second return is false when the value is absent, malformed or an
// unparseable string; callers must then skip SLA evaluation for the record
// rather than guess. ToInstant never panics on bad input.
func ToInstant(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, false
	case TimeConvertible:
		return v.Time(), true
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case int:
		return fromEpoch(float64(v)), true
	case int64:
		return fromEpoch(float64(v)), true
	case float64:
		return fromEpoch(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpoch(f), true
	case string:
		for _, layout := range stringLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func fromEpoch(v float64) time.Time {
	if v < epochMillisFloor {
		v *= 1000
	}
	return time.UnixMilli(int64(v)).UTC()
}
