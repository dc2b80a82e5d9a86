package abi

import (
	"encoding/json"
	"math"
	"strconv"
)

// CoerceToInt64 handles every Go integer kind, integral floats (JSON
// decoded numbers) and json.Number.
func CoerceToInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
	case float64:
		// 2^63 is representable as float64 but not as int64
		if v >= math.MinInt64 && v < math.MaxInt64 && v == math.Trunc(v) {
			return int64(v), true
		}
	case float32:
		if v >= math.MinInt64 && v < math.MaxInt64 && v == float32(math.Trunc(float64(v))) {
			return int64(v), true
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
	}
	return 0, false
}

// CoerceToIndex interprets a union discriminant as a position: an integer
// or a string of decimal digits.
func CoerceToIndex(value any) (int, bool) {
	if s, ok := value.(string); ok {
		if s == "" || (len(s) > 1 && s[0] == '0') {
			return 0, false
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	n, ok := CoerceToInt64(value)
	if !ok || n < 0 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}
