package expr

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/jacoelho/mdq/internal/field"
)

type builtin struct {
	minArgs int
	maxArgs int // negative means variadic
	call    func(p *Program, args []field.Field) (field.Field, error)
}

// builtins is the complete set of callable functions. None of them perform
// I/O or touch global state.
var builtins = map[string]builtin{
	"min":      {minArgs: 1, maxArgs: -1, call: func(_ *Program, args []field.Field) (field.Field, error) { return extreme("min", args, -1) }},
	"max":      {minArgs: 1, maxArgs: -1, call: func(_ *Program, args []field.Field) (field.Field, error) { return extreme("max", args, 1) }},
	"len":      {minArgs: 1, maxArgs: 1, call: builtinLen},
	"abs":      {minArgs: 1, maxArgs: 1, call: builtinAbs},
	"round":    {minArgs: 1, maxArgs: 2, call: builtinRound},
	"str":      {minArgs: 1, maxArgs: 1, call: builtinStr},
	"int":      {minArgs: 1, maxArgs: 1, call: builtinInt},
	"float":    {minArgs: 1, maxArgs: 1, call: builtinFloat},
	"bool":     {minArgs: 1, maxArgs: 1, call: builtinBool},
	"jsonpath": {minArgs: 2, maxArgs: 2, call: builtinJSONPath},
}

func builtinNames() string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}

// extreme implements min/max over either a single sequence argument or the
// argument list itself. direction is -1 for min and 1 for max.
func extreme(name string, args []field.Field, direction int) (field.Field, error) {
	candidates := args
	if len(args) == 1 {
		if args[0].Kind() != field.KindSequence {
			return field.Null, evaluationError("%s() expects a sequence or several values, got %s", name, args[0].Kind())
		}
		candidates = args[0].Items()
	}
	if len(candidates) == 0 {
		return field.Null, evaluationError("%s() of an empty sequence", name)
	}

	best := candidates[0]
	for _, candidate := range candidates[1:] {
		c, err := field.Compare(candidate, best)
		if err != nil {
			return field.Null, evaluationError("%s(): %v", name, err)
		}
		if c*direction > 0 {
			best = candidate
		}
	}
	return best, nil
}

func builtinLen(_ *Program, args []field.Field) (field.Field, error) {
	n, err := args[0].Len()
	if err != nil {
		return field.Null, evaluationError("len(): %v", err)
	}
	return field.Int(int64(n)), nil
}

func builtinAbs(_ *Program, args []field.Field) (field.Field, error) {
	n, ok := args[0].NumberValue()
	if !ok {
		return field.Null, evaluationError("abs() expects a number, got %s", args[0].Kind())
	}
	return numeric(math.Abs(n), args[0].IsIntegral()), nil
}

func builtinRound(_ *Program, args []field.Field) (field.Field, error) {
	n, ok := args[0].NumberValue()
	if !ok {
		return field.Null, evaluationError("round() expects a number, got %s", args[0].Kind())
	}
	if len(args) == 1 {
		rounded, ok := field.IntFromFloat(math.RoundToEven(n))
		if !ok {
			return field.Null, evaluationError("round() cannot convert %v to an integer", args[0])
		}
		return rounded, nil
	}

	digits, ok := args[1].NumberValue()
	if !ok || !args[1].IsIntegral() {
		return field.Null, evaluationError("round() digits must be an integer")
	}
	scale := math.Pow(10, digits)
	return field.Number(math.RoundToEven(n*scale) / scale), nil
}

func builtinStr(_ *Program, args []field.Field) (field.Field, error) {
	return field.String(args[0].String()), nil
}

func builtinInt(_ *Program, args []field.Field) (field.Field, error) {
	value := args[0]
	switch value.Kind() {
	case field.KindNumber:
		n, _ := value.NumberValue()
		truncated, ok := field.IntFromFloat(math.Trunc(n))
		if !ok {
			return field.Null, evaluationError("int() cannot convert %v", value)
		}
		return truncated, nil
	case field.KindBool:
		if b, _ := value.BoolValue(); b {
			return field.Int(1), nil
		}
		return field.Int(0), nil
	case field.KindString:
		s, _ := value.StringValue()
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return field.Null, evaluationError("int() cannot parse %q", s)
		}
		return field.Int(n), nil
	default:
		return field.Null, evaluationError("int() cannot convert %s", value.Kind())
	}
}

func builtinFloat(_ *Program, args []field.Field) (field.Field, error) {
	value := args[0]
	switch value.Kind() {
	case field.KindNumber:
		n, _ := value.NumberValue()
		return field.Number(n), nil
	case field.KindBool:
		if b, _ := value.BoolValue(); b {
			return field.Number(1), nil
		}
		return field.Number(0), nil
	case field.KindString:
		s, _ := value.StringValue()
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return field.Null, evaluationError("float() cannot parse %q", s)
		}
		return field.Number(n), nil
	default:
		return field.Null, evaluationError("float() cannot convert %s", value.Kind())
	}
}

func builtinBool(_ *Program, args []field.Field) (field.Field, error) {
	return field.Bool(args[0].Truthy()), nil
}

// builtinJSONPath selects the first match of a JSONPath selector within a
// value, or null when nothing matches.
func builtinJSONPath(p *Program, args []field.Field) (field.Field, error) {
	selector, ok := args[1].StringValue()
	if !ok {
		return field.Null, evaluationError("jsonpath() selector must be a string, got %s", args[1].Kind())
	}

	path, err := p.path(selector)
	if err != nil {
		return field.Null, err
	}

	matches := path.Select(args[0].Interface())
	if len(matches) == 0 {
		return field.Null, nil
	}

	value, err := field.FromAny(matches[0])
	if err != nil {
		return field.Null, evaluationError("jsonpath(): %v", err)
	}
	return value, nil
}
