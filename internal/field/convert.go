package field

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// FromAny converts decoded JSON/YAML data into a Field. Ordered YAML maps keep
// their key order; plain Go maps are ordered by key.
func FromAny(value any) (Field, error) {
	switch current := value.(type) {
	case nil:
		return Null, nil
	case Field:
		return current, nil
	case bool:
		return Bool(current), nil
	case string:
		return String(current), nil
	case int:
		return Int(int64(current)), nil
	case int8:
		return Int(int64(current)), nil
	case int16:
		return Int(int64(current)), nil
	case int32:
		return Int(int64(current)), nil
	case int64:
		return Int(current), nil
	case uint:
		return fromUnsigned(uint64(current)), nil
	case uint8:
		return Int(int64(current)), nil
	case uint16:
		return Int(int64(current)), nil
	case uint32:
		return Int(int64(current)), nil
	case uint64:
		return fromUnsigned(current), nil
	case float32:
		return Number(float64(current)), nil
	case float64:
		return Number(current), nil
	case json.Number:
		return fromJSONNumber(current)
	case []any:
		items := make([]Field, 0, len(current))
		for i, item := range current {
			converted, err := FromAny(item)
			if err != nil {
				return Null, fmt.Errorf("index %d: %w", i, err)
			}
			items = append(items, converted)
		}
		return Sequence(items...), nil
	case yaml.MapSlice:
		entries := make([]Entry, 0, len(current))
		for _, item := range current {
			converted, err := FromAny(item.Value)
			if err != nil {
				return Null, fmt.Errorf("key %v: %w", item.Key, err)
			}
			entries = append(entries, Entry{Key: keyString(item.Key), Value: converted})
		}
		return Map(entries...), nil
	case map[string]any:
		keys := make([]string, 0, len(current))
		for key := range current {
			keys = append(keys, key)
		}
		slices.Sort(keys)

		entries := make([]Entry, 0, len(keys))
		for _, key := range keys {
			converted, err := FromAny(current[key])
			if err != nil {
				return Null, fmt.Errorf("key %s: %w", key, err)
			}
			entries = append(entries, Entry{Key: key, Value: converted})
		}
		return Map(entries...), nil
	case map[any]any:
		normalized := make(map[string]any, len(current))
		for key, item := range current {
			normalized[keyString(key)] = item
		}
		return FromAny(normalized)
	default:
		return Null, fmt.Errorf("%w: unsupported value %T", ErrType, value)
	}
}

// MustFromAny is FromAny for literal fixtures; it panics on unsupported input.
func MustFromAny(value any) Field {
	f, err := FromAny(value)
	if err != nil {
		panic(err)
	}
	return f
}

// Interface converts the Field back to plain Go values: map[string]any, []any,
// int64, float64, string, bool or nil.
func (f Field) Interface() any {
	switch f.kind {
	case KindBool:
		return f.boolean
	case KindNumber:
		if f.integral && fitsInt64(f.number) {
			return int64(f.number)
		}
		return f.number
	case KindString:
		return f.text
	case KindSequence:
		out := make([]any, 0, len(f.items))
		for _, item := range f.items {
			out = append(out, item.Interface())
		}
		return out
	case KindMap:
		out := make(map[string]any, len(f.object.keys))
		for _, key := range f.object.keys {
			out[key] = f.object.values[key].Interface()
		}
		return out
	default:
		return nil
	}
}

func fromUnsigned(n uint64) Field {
	if n > math.MaxInt64 {
		return Number(float64(n))
	}
	return Int(int64(n))
}

func fromJSONNumber(n json.Number) (Field, error) {
	if i, err := n.Int64(); err == nil {
		return Int(i), nil
	}
	fl, err := n.Float64()
	if err != nil {
		return Null, fmt.Errorf("%w: invalid number %q", ErrType, n.String())
	}
	return Number(fl), nil
}

func keyString(key any) string {
	if s, ok := key.(string); ok {
		return s
	}
	return fmt.Sprint(key)
}

func formatNumber(n float64, integral bool) string {
	if integral && fitsInt64(n) {
		return strconv.FormatInt(int64(n), 10)
	}
	s := strconv.FormatFloat(n, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
