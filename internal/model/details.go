package model

import "math"

// Details is the free-form measurement map attached to an outcome.
// Values are JSON-compatible; numbers may be int, int64 or float64 depending
// on whether they were produced in-process or decoded from JSON.
type Details map[string]any

// Clone returns a shallow copy; a nil receiver yields an empty map
func (d Details) Clone() Details {
	c := make(Details, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}

// Has reports whether key is present
func (d Details) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Bool returns the value of key when it is a bool, false otherwise
func (d Details) Bool(key string) bool {
	b, ok := d[key].(bool)
	return ok && b
}

// Number returns key as float64 when it holds any numeric type
func (d Details) Number(key string) (float64, bool) {
	switch v := d[key].(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		if math.IsNaN(v) {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// Int returns key truncated to int when it holds any numeric type
func (d Details) Int(key string) (int, bool) {
	f, ok := d.Number(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Text returns the value at key when it is a string, else ""
func (d Details) Text(key string) string {
	s, _ := d[key].(string)
	return s
}
