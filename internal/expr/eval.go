package expr

import (
	"math"
	"strings"

	"github.com/jacoelho/mdq/internal/field"
	"github.com/theory/jsonpath"
)

// Program is a parsed and validated expression. It is immutable after Compile
// and may be evaluated concurrently against any number of records.
type Program struct {
	source string
	root   node
	paths  map[string]*jsonpath.Path
}

// Compile parses and validates an expression.
func Compile(input string) (*Program, error) {
	root, err := parse(input)
	if err != nil {
		return nil, err
	}

	v := validator{paths: make(map[string]*jsonpath.Path)}
	if err := v.check(root); err != nil {
		return nil, err
	}

	return &Program{source: input, root: root, paths: v.paths}, nil
}

// Validate reports whether input would compile.
func Validate(input string) error {
	_, err := Compile(input)
	return err
}

func (p *Program) String() string {
	return p.source
}

// Eval evaluates the program with the record's top-level keys as variables.
func (p *Program) Eval(record field.Field) (field.Field, error) {
	return p.evaluate(p.root, record)
}

// path returns the selector compiled during validation. Selectors computed at
// evaluation time are parsed on every call so that paths is never written
// after Compile.
func (p *Program) path(selector string) (*jsonpath.Path, error) {
	if path, ok := p.paths[selector]; ok {
		return path, nil
	}
	path, err := jsonpath.Parse(selector)
	if err != nil {
		return nil, evaluationError("invalid JSONPath %q: %v", selector, err)
	}
	return path, nil
}

func (p *Program) evaluate(root node, scope field.Field) (field.Field, error) {
	switch current := root.(type) {
	case literalNode:
		return current.value, nil
	case identifierNode:
		return scope.Attr(current.name), nil
	case attributeNode:
		target, err := p.evaluate(current.target, scope)
		if err != nil {
			return field.Null, err
		}
		switch target.Kind() {
		case field.KindNull, field.KindMap:
			return target.Attr(current.name), nil
		default:
			return field.Null, evaluationError("%s has no attribute %q", target.Kind(), current.name)
		}
	case indexNode:
		return p.evaluateIndex(current, scope)
	case listNode:
		items := make([]field.Field, 0, len(current.items))
		for _, item := range current.items {
			value, err := p.evaluate(item, scope)
			if err != nil {
				return field.Null, err
			}
			items = append(items, value)
		}
		return field.Sequence(items...), nil
	case unaryNode:
		operand, err := p.evaluate(current.operand, scope)
		if err != nil {
			return field.Null, err
		}
		return unary(current.op, operand)
	case binaryNode:
		return p.evaluateBinary(current, scope)
	case comparisonNode:
		left, err := p.evaluate(current.left, scope)
		if err != nil {
			return field.Null, err
		}
		right, err := p.evaluate(current.right, scope)
		if err != nil {
			return field.Null, err
		}
		result, err := compare(current.op, left, right)
		if err != nil {
			return field.Null, err
		}
		return field.Bool(result != current.negated), nil
	case callNode:
		return p.evaluateCall(current, scope)
	default:
		return field.Null, evaluationError("unsupported expression node %T", root)
	}
}

func (p *Program) evaluateIndex(current indexNode, scope field.Field) (field.Field, error) {
	target, err := p.evaluate(current.target, scope)
	if err != nil {
		return field.Null, err
	}
	index, err := p.evaluate(current.index, scope)
	if err != nil {
		return field.Null, err
	}

	if target.Kind() == field.KindMap {
		_, err := target.Index(0)
		return field.Null, evaluationError("%v", err)
	}

	position, ok := index.NumberValue()
	if !ok || !index.IsIntegral() {
		return field.Null, evaluationError("index must be an integer, got %s", index.Kind())
	}

	value, err := target.Index(int(position))
	if err != nil {
		return field.Null, evaluationError("%v", err)
	}
	return value, nil
}

func (p *Program) evaluateBinary(current binaryNode, scope field.Field) (field.Field, error) {
	left, err := p.evaluate(current.left, scope)
	if err != nil {
		return field.Null, err
	}

	switch current.op {
	case tokenAnd:
		if !left.Truthy() {
			return left, nil
		}
		return p.evaluate(current.right, scope)
	case tokenOr:
		if left.Truthy() {
			return left, nil
		}
		return p.evaluate(current.right, scope)
	}

	right, err := p.evaluate(current.right, scope)
	if err != nil {
		return field.Null, err
	}
	return arithmetic(current.op, left, right)
}

func (p *Program) evaluateCall(current callNode, scope field.Field) (field.Field, error) {
	callee, ok := current.callee.(identifierNode)
	if !ok {
		return field.Null, evaluationError("only built-in functions can be called")
	}
	fn, ok := builtins[callee.name]
	if !ok {
		return field.Null, evaluationError("unknown function %s()", callee.name)
	}

	args := make([]field.Field, 0, len(current.args))
	for _, arg := range current.args {
		value, err := p.evaluate(arg, scope)
		if err != nil {
			return field.Null, err
		}
		args = append(args, value)
	}
	return fn.call(p, args)
}

func unary(op tokenType, operand field.Field) (field.Field, error) {
	switch op {
	case tokenNot:
		return field.Bool(!operand.Truthy()), nil
	case tokenMinus, tokenPlus:
		n, ok := operand.NumberValue()
		if !ok {
			return field.Null, evaluationError("bad operand for unary %s: %s", tokenNames[op], operand.Kind())
		}
		if op == tokenMinus {
			n = -n
		}
		return numeric(n, operand.IsIntegral()), nil
	default:
		return field.Null, evaluationError("unsupported unary operator")
	}
}

func compare(op tokenType, left, right field.Field) (bool, error) {
	switch op {
	case tokenEqual, tokenIs:
		return left.Equal(right), nil
	case tokenNotEqual:
		return !left.Equal(right), nil
	case tokenIn:
		return contains(right, left)
	}

	c, err := field.Compare(left, right)
	if err != nil {
		return false, evaluationError("%v", err)
	}

	switch op {
	case tokenLess:
		return c < 0, nil
	case tokenLessEqual:
		return c <= 0, nil
	case tokenGreater:
		return c > 0, nil
	case tokenGreaterEqual:
		return c >= 0, nil
	default:
		return false, evaluationError("unsupported comparison operator")
	}
}

func contains(container, item field.Field) (bool, error) {
	switch container.Kind() {
	case field.KindSequence:
		for _, candidate := range container.Items() {
			if candidate.Equal(item) {
				return true, nil
			}
		}
		return false, nil
	case field.KindMap:
		key, ok := item.StringValue()
		if !ok {
			return false, nil
		}
		_, found := container.Lookup(key)
		return found, nil
	case field.KindString:
		text, _ := container.StringValue()
		needle, ok := item.StringValue()
		if !ok {
			return false, evaluationError("'in <string>' requires a string operand, got %s", item.Kind())
		}
		return strings.Contains(text, needle), nil
	default:
		return false, evaluationError("argument of type %s is not a container", container.Kind())
	}
}

func arithmetic(op tokenType, left, right field.Field) (field.Field, error) {
	if op == tokenPlus {
		if a, ok := left.StringValue(); ok {
			if b, ok := right.StringValue(); ok {
				return field.String(a + b), nil
			}
		}
		if left.Kind() == field.KindSequence && right.Kind() == field.KindSequence {
			items := make([]field.Field, 0, len(left.Items())+len(right.Items()))
			items = append(items, left.Items()...)
			items = append(items, right.Items()...)
			return field.Sequence(items...), nil
		}
	}

	a, leftOK := left.NumberValue()
	b, rightOK := right.NumberValue()
	if !leftOK || !rightOK {
		return field.Null, evaluationError("unsupported operand types for %s: %s and %s", tokenNames[op], left.Kind(), right.Kind())
	}
	integral := left.IsIntegral() && right.IsIntegral()

	var result float64
	switch op {
	case tokenPlus:
		result = a + b
	case tokenMinus:
		result = a - b
	case tokenStar:
		result = a * b
	case tokenSlash:
		if b == 0 {
			return field.Null, evaluationError("division by zero")
		}
		return field.Number(a / b), nil
	case tokenPercent:
		if b == 0 {
			return field.Null, evaluationError("modulo by zero")
		}
		result = math.Mod(a, b)
		if result != 0 && (result < 0) != (b < 0) {
			result += b
		}
	default:
		return field.Null, evaluationError("unsupported binary operator")
	}

	return numeric(result, integral), nil
}

// numeric keeps integer results integral while they fit in an int64 and
// widens them to a float otherwise.
func numeric(n float64, integral bool) field.Field {
	if integral {
		if f, ok := field.IntFromFloat(n); ok {
			return f
		}
	}
	return field.Number(n)
}
