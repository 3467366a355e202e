package expr

import "github.com/jacoelho/mdq/internal/field"

type node interface{}

type literalNode struct {
	value field.Field
}

// identifierNode resolves a top-level key of the record.
type identifierNode struct {
	name string
	pos  int
}

type attributeNode struct {
	target node
	name   string
	pos    int
}

type indexNode struct {
	target node
	index  node
	pos    int
}

type unaryNode struct {
	op      tokenType
	operand node
}

type binaryNode struct {
	op    tokenType
	left  node
	right node
}

// comparisonNode holds negated membership/identity forms such as "not in" and
// "is not" next to the plain comparison operators.
type comparisonNode struct {
	op      tokenType
	negated bool
	left    node
	right   node
}

type callNode struct {
	callee node
	args   []node
	pos    int
}

type listNode struct {
	items []node
}

// rootName returns the identifier an attribute/index/call chain starts from.
func rootName(n node) (string, bool) {
	for {
		switch current := n.(type) {
		case identifierNode:
			return current.name, true
		case attributeNode:
			n = current.target
		case indexNode:
			n = current.target
		case callNode:
			n = current.callee
		default:
			return "", false
		}
	}
}
