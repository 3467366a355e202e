package field

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Compare orders two values of compatible kinds: numbers with numbers, strings
// with strings, bools with bools and sequences element-wise. Any other pairing
// is a type error.
func Compare(a, b Field) (int, error) {
	if a.kind != b.kind {
		return 0, fmt.Errorf("%w: cannot compare %s and %s", ErrType, a.kind, b.kind)
	}

	switch a.kind {
	case KindNumber:
		return cmp.Compare(a.number, b.number), nil
	case KindString:
		return strings.Compare(a.text, b.text), nil
	case KindBool:
		return compareBool(a.boolean, b.boolean), nil
	case KindSequence:
		for i := 0; i < len(a.items) && i < len(b.items); i++ {
			c, err := Compare(a.items[i], b.items[i])
			if err != nil {
				return 0, err
			}
			if c != 0 {
				return c, nil
			}
		}
		return cmp.Compare(len(a.items), len(b.items)), nil
	default:
		return 0, fmt.Errorf("%w: %s values are not ordered", ErrType, a.kind)
	}
}

// Order is a total order over all values, used for sort keys where records may
// disagree on the type of a field. Kinds rank null < bool < number < string <
// sequence < map; values of the same kind compare naturally.
func Order(a, b Field) int {
	if a.kind != b.kind {
		return cmp.Compare(a.kind, b.kind)
	}

	switch a.kind {
	case KindNull:
		return 0
	case KindSequence:
		for i := 0; i < len(a.items) && i < len(b.items); i++ {
			if c := Order(a.items[i], b.items[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(a.items), len(b.items))
	case KindMap:
		aKeys := slices.Sorted(slices.Values(a.object.keys))
		bKeys := slices.Sorted(slices.Values(b.object.keys))
		if c := slices.Compare(aKeys, bKeys); c != 0 {
			return c
		}
		for _, key := range aKeys {
			if c := Order(a.object.values[key], b.object.values[key]); c != 0 {
				return c
			}
		}
		return 0
	default:
		c, _ := Compare(a, b)
		return c
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
