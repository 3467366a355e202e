package expr

import (
	"strings"

	"github.com/theory/jsonpath"
)

// forbiddenCalls are names whose invocation could run code, open files or
// sockets, or reach interpreter internals.
var forbiddenCalls = map[string]struct{}{
	"eval":       {},
	"exec":       {},
	"open":       {},
	"socket":     {},
	"subprocess": {},
	"__import__": {},
	"compile":    {},
	"getattr":    {},
	"setattr":    {},
	"delattr":    {},
	"globals":    {},
	"locals":     {},
	"vars":       {},
}

// forbiddenModules may not appear as the root of an attribute or call chain.
var forbiddenModules = map[string]struct{}{
	"subprocess": {},
	"socket":     {},
}

// validator walks a parsed tree once and rejects constructs outside the
// supported subset. Literal jsonpath selectors are compiled along the way.
type validator struct {
	paths map[string]*jsonpath.Path
}

func (v *validator) check(n node) error {
	switch current := n.(type) {
	case literalNode:
		return nil
	case identifierNode:
		if isDunder(current.name) {
			return unsafeError("access to %q is not allowed (position %d)", current.name, current.pos)
		}
		return nil
	case attributeNode:
		if isDunder(current.name) {
			return unsafeError("access to attribute %q is not allowed (position %d)", current.name, current.pos)
		}
		if root, ok := rootName(current.target); ok {
			if _, forbidden := forbiddenModules[root]; forbidden {
				return unsafeError("use of %s.%s is not allowed (position %d)", root, current.name, current.pos)
			}
		}
		return v.check(current.target)
	case indexNode:
		if err := v.check(current.target); err != nil {
			return err
		}
		return v.check(current.index)
	case unaryNode:
		return v.check(current.operand)
	case binaryNode:
		if err := v.check(current.left); err != nil {
			return err
		}
		return v.check(current.right)
	case comparisonNode:
		if err := v.check(current.left); err != nil {
			return err
		}
		return v.check(current.right)
	case listNode:
		for _, item := range current.items {
			if err := v.check(item); err != nil {
				return err
			}
		}
		return nil
	case callNode:
		return v.checkCall(current)
	default:
		return unsupportedError("unsupported expression node %T", n)
	}
}

func (v *validator) checkCall(call callNode) error {
	switch callee := call.callee.(type) {
	case identifierNode:
		if _, forbidden := forbiddenCalls[callee.name]; forbidden {
			return unsafeError("call to %s() is not allowed (position %d)", callee.name, callee.pos)
		}
		if isDunder(callee.name) {
			return unsafeError("call to %s() is not allowed (position %d)", callee.name, callee.pos)
		}

		fn, ok := builtins[callee.name]
		if !ok {
			return unsupportedError("unknown function %s() at position %d, available: %s", callee.name, callee.pos, builtinNames())
		}
		if len(call.args) < fn.minArgs || (fn.maxArgs >= 0 && len(call.args) > fn.maxArgs) {
			return unsupportedError("%s() called with %d argument(s) at position %d", callee.name, len(call.args), callee.pos)
		}

		if callee.name == "jsonpath" {
			if err := v.compileLiteralPath(call); err != nil {
				return err
			}
		}
	case attributeNode:
		if root, ok := rootName(callee); ok {
			if _, forbidden := forbiddenModules[root]; forbidden {
				return unsafeError("call to %s.%s() is not allowed (position %d)", root, callee.name, callee.pos)
			}
		}
		return unsupportedError("method calls are not supported (%s() at position %d)", callee.name, callee.pos)
	default:
		return unsupportedError("only built-in functions can be called (position %d)", call.pos)
	}

	for _, arg := range call.args {
		if err := v.check(arg); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) compileLiteralPath(call callNode) error {
	literal, ok := call.args[1].(literalNode)
	if !ok {
		return nil
	}
	selector, ok := literal.value.StringValue()
	if !ok {
		return unsupportedError("jsonpath() selector must be a string (position %d)", call.pos)
	}

	path, err := jsonpath.Parse(selector)
	if err != nil {
		return expressionError("invalid JSONPath %q: %v", selector, err)
	}
	v.paths[selector] = path
	return nil
}

func isDunder(name string) bool {
	return strings.HasPrefix(name, "__")
}
