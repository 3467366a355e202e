package field

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrType indicates an operation applied to a value of the wrong kind.
var ErrType = errors.New("type error")

// Kind identifies the variant held by a Field.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field is a read-only view over one metadata value. The zero value is Null.
type Field struct {
	kind     Kind
	boolean  bool
	number   float64
	integral bool
	text     string
	items    []Field
	object   *object
}

type object struct {
	keys   []string
	values map[string]Field
}

// Null is the absent marker.
var Null = Field{}

func Bool(b bool) Field {
	return Field{kind: KindBool, boolean: b}
}

func Int(n int64) Field {
	return Field{kind: KindNumber, number: float64(n), integral: true}
}

// IntFromFloat returns n as an integer Field when it is whole and fits in an
// int64.
func IntFromFloat(n float64) (Field, bool) {
	if !fitsInt64(n) || n != math.Trunc(n) {
		return Null, false
	}
	return Int(int64(n)), true
}

// fitsInt64 reports whether n lies in [MinInt64, MaxInt64]. float64(MaxInt64)
// rounds up to 2^63, so the upper bound is exclusive.
func fitsInt64(n float64) bool {
	return n >= math.MinInt64 && n < math.MaxInt64
}

// Number wraps a float. Whole values are not promoted to integers.
func Number(n float64) Field {
	return Field{kind: KindNumber, number: n}
}

func String(s string) Field {
	return Field{kind: KindString, text: s}
}

func Sequence(items ...Field) Field {
	if items == nil {
		items = []Field{}
	}
	return Field{kind: KindSequence, items: items}
}

// Entry is one key/value pair used to build an ordered Map.
type Entry struct {
	Key   string
	Value Field
}

// Map builds a map preserving entry order. Later duplicates replace the value
// but keep the position of the first occurrence.
func Map(entries ...Entry) Field {
	obj := &object{
		keys:   make([]string, 0, len(entries)),
		values: make(map[string]Field, len(entries)),
	}
	for _, entry := range entries {
		if _, exists := obj.values[entry.Key]; !exists {
			obj.keys = append(obj.keys, entry.Key)
		}
		obj.values[entry.Key] = entry.Value
	}
	return Field{kind: KindMap, object: obj}
}

func (f Field) Kind() Kind {
	return f.kind
}

func (f Field) IsNull() bool {
	return f.kind == KindNull
}

func (f Field) IsIntegral() bool {
	return f.kind == KindNumber && f.integral
}

func (f Field) BoolValue() (bool, bool) {
	return f.boolean, f.kind == KindBool
}

func (f Field) NumberValue() (float64, bool) {
	return f.number, f.kind == KindNumber
}

func (f Field) StringValue() (string, bool) {
	return f.text, f.kind == KindString
}

// Items returns the elements of a Sequence, nil otherwise.
func (f Field) Items() []Field {
	if f.kind != KindSequence {
		return nil
	}
	return f.items
}

// Keys returns map keys in insertion order, nil for non-maps.
func (f Field) Keys() []string {
	if f.kind != KindMap {
		return nil
	}
	return f.object.keys
}

// Len reports the number of elements of a sequence, keys of a map or runes of
// a string.
func (f Field) Len() (int, error) {
	switch f.kind {
	case KindSequence:
		return len(f.items), nil
	case KindMap:
		return len(f.object.keys), nil
	case KindString:
		return len([]rune(f.text)), nil
	default:
		return 0, fmt.Errorf("%w: %s has no length", ErrType, f.kind)
	}
}

// Lookup returns the value stored under key when f is a map.
func (f Field) Lookup(key string) (Field, bool) {
	if f.kind != KindMap {
		return Null, false
	}
	value, ok := f.object.values[key]
	return value, ok
}

// Get walks a dotted path one segment at a time. A missing segment anywhere
// along the path returns def without walking further.
func (f Field) Get(path string, def Field) Field {
	current := f
	for _, segment := range strings.Split(path, ".") {
		next, ok := current.Lookup(segment)
		if !ok {
			return def
		}
		current = next
	}
	return current
}

// Attr is attribute-style access: Get(name, Null).
func (f Field) Attr(name string) Field {
	return f.Get(name, Null)
}

// Index returns the i-th element of a sequence. Out of range indices and Null
// receivers yield Null. Negative indices count from the end.
func (f Field) Index(i int) (Field, error) {
	switch f.kind {
	case KindNull:
		return Null, nil
	case KindSequence:
		if i < 0 {
			i += len(f.items)
		}
		if i < 0 || i >= len(f.items) {
			return Null, nil
		}
		return f.items[i], nil
	case KindMap:
		return Null, fmt.Errorf("%w: cannot index a map, use attribute/dot syntax instead", ErrType)
	default:
		return Null, fmt.Errorf("%w: %s is not indexable", ErrType, f.kind)
	}
}

// Truthy follows the usual scripting rules: null, false, zero, and empty
// strings and collections are false.
func (f Field) Truthy() bool {
	switch f.kind {
	case KindBool:
		return f.boolean
	case KindNumber:
		return f.number != 0 && !math.IsNaN(f.number)
	case KindString:
		return f.text != ""
	case KindSequence:
		return len(f.items) > 0
	case KindMap:
		return len(f.object.keys) > 0
	default:
		return false
	}
}

// Equal compares structurally. Numbers compare by value regardless of
// integral-ness; map key order is irrelevant.
func (f Field) Equal(other Field) bool {
	if f.kind != other.kind {
		return false
	}

	switch f.kind {
	case KindNull:
		return true
	case KindBool:
		return f.boolean == other.boolean
	case KindNumber:
		return f.number == other.number
	case KindString:
		return f.text == other.text
	case KindSequence:
		if len(f.items) != len(other.items) {
			return false
		}
		for i := range f.items {
			if !f.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(f.object.keys) != len(other.object.keys) {
			return false
		}
		for key, value := range f.object.values {
			otherValue, ok := other.object.values[key]
			if !ok || !value.Equal(otherValue) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders scalars as plain text and composites in a JSON-like form.
func (f Field) String() string {
	var b strings.Builder
	f.write(&b)
	return b.String()
}

func (f Field) write(b *strings.Builder) {
	switch f.kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		if f.boolean {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindNumber:
		b.WriteString(formatNumber(f.number, f.integral))
	case KindString:
		b.WriteString(f.text)
	case KindSequence:
		b.WriteByte('[')
		for i, item := range f.items {
			if i > 0 {
				b.WriteString(", ")
			}
			item.writeQuoted(b)
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		for i, key := range f.object.keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%q: ", key)
			f.object.values[key].writeQuoted(b)
		}
		b.WriteByte('}')
	}
}

func (f Field) writeQuoted(b *strings.Builder) {
	if f.kind == KindString {
		fmt.Fprintf(b, "%q", f.text)
		return
	}
	f.write(b)
}
