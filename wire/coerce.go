package wire

import (
	"math"
	"reflect"
)

// Coercion helpers shared by the serializers. Records are dynamically typed,
// so callers may store any Go integer width; values are narrowed here with
// range checks and surfaced as ValidationErrors when they do not fit.

func coerceBool(v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, validationErrorf("expected bool, got %T", v)
	}
	return b, nil
}

func coerceInt64(v interface{}) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case uint:
		if uint64(t) > math.MaxInt64 {
			return 0, validationErrorf("value %d overflows int64", t)
		}
		return int64(t), nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return 0, validationErrorf("value %d overflows int64", t)
		}
		return int64(t), nil
	default:
		return 0, validationErrorf("expected integer, got %T", v)
	}
}

func coerceUint64(v interface{}) (uint64, error) {
	switch t := v.(type) {
	case uint:
		return uint64(t), nil
	case uint8:
		return uint64(t), nil
	case uint16:
		return uint64(t), nil
	case uint32:
		return uint64(t), nil
	case uint64:
		return t, nil
	case int:
		if t < 0 {
			return 0, validationErrorf("negative value %d for unsigned field", t)
		}
		return uint64(t), nil
	case int8:
		if t < 0 {
			return 0, validationErrorf("negative value %d for unsigned field", t)
		}
		return uint64(t), nil
	case int16:
		if t < 0 {
			return 0, validationErrorf("negative value %d for unsigned field", t)
		}
		return uint64(t), nil
	case int32:
		if t < 0 {
			return 0, validationErrorf("negative value %d for unsigned field", t)
		}
		return uint64(t), nil
	case int64:
		if t < 0 {
			return 0, validationErrorf("negative value %d for unsigned field", t)
		}
		return uint64(t), nil
	default:
		return 0, validationErrorf("expected unsigned integer, got %T", v)
	}
}

func coerceFloat64(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case uint:
		return float64(t), nil
	case uint32:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	default:
		return 0, validationErrorf("expected numeric, got %T", v)
	}
}

func coerceFloat32(v interface{}) (float32, error) {
	if f, ok := v.(float32); ok {
		return f, nil
	}
	f, err := coerceFloat64(v)
	if err != nil {
		return 0, err
	}
	return float32(f), nil
}

func coerceString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", validationErrorf("expected string, got %T", v)
	}
	return s, nil
}

func coerceBytes(v interface{}) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, validationErrorf("expected []byte, got %T", v)
	}
	return b, nil
}

// normalizeSlice converts any supported slice representation to the generic
// element form used by the repeated field variants. A nil input stays nil.
func normalizeSlice(v interface{}) ([]interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case []interface{}:
		return t, nil
	case []bool:
		return genericSlice(len(t), func(i int) interface{} { return t[i] }), nil
	case []int:
		return genericSlice(len(t), func(i int) interface{} { return t[i] }), nil
	case []int32:
		return genericSlice(len(t), func(i int) interface{} { return t[i] }), nil
	case []int64:
		return genericSlice(len(t), func(i int) interface{} { return t[i] }), nil
	case []uint:
		return genericSlice(len(t), func(i int) interface{} { return t[i] }), nil
	case []uint32:
		return genericSlice(len(t), func(i int) interface{} { return t[i] }), nil
	case []uint64:
		return genericSlice(len(t), func(i int) interface{} { return t[i] }), nil
	case []float32:
		return genericSlice(len(t), func(i int) interface{} { return t[i] }), nil
	case []float64:
		return genericSlice(len(t), func(i int) interface{} { return t[i] }), nil
	case []string:
		return genericSlice(len(t), func(i int) interface{} { return t[i] }), nil
	case [][]byte:
		return genericSlice(len(t), func(i int) interface{} { return t[i] }), nil
	case []*Record:
		return genericSlice(len(t), func(i int) interface{} { return t[i] }), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, validationErrorf("repeated value must be a slice, got %T", v)
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

func genericSlice(n int, at func(int) interface{}) []interface{} {
	out := make([]interface{}, n)
	for i := range out {
		out[i] = at(i)
	}
	return out
}
