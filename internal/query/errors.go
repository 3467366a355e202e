package query

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParsing indicates a token stream the grammar rejects.
	ErrParsing = errors.New("query parsing error")
	// ErrExecution indicates an expression rejected before any record is read.
	ErrExecution = errors.New("query execution error")
)

// ParseError describes where a token stream went wrong.
type ParseError struct {
	Tokens   []string
	Position int      // index of the offending token, len(Tokens) for end of input
	Expected []string // keywords or "expression" legal at Position
	Reason   string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason)

	if len(e.Tokens) > 0 {
		b.WriteString(": ")
		b.WriteString(markTokens(e.Tokens, e.Position))
	}

	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, " (expected %s)", strings.Join(e.Expected, ", "))
	}

	return b.String()
}

func (e *ParseError) Unwrap() error {
	return ErrParsing
}

const marker = "<<<"

// markTokens joins tokens with a marker right after the one at position.
func markTokens(tokens []string, position int) string {
	parts := make([]string, 0, len(tokens)+1)
	for i, tok := range tokens {
		parts = append(parts, quoteToken(tok))
		if i == position {
			parts = append(parts, marker)
		}
	}
	if position >= len(tokens) {
		parts = append(parts, marker)
	}
	return strings.Join(parts, " ")
}

func quoteToken(tok string) string {
	if tok == "" || strings.ContainsAny(tok, " \t\n") {
		return fmt.Sprintf("%q", tok)
	}
	return tok
}

func executionError(expression string, err error) error {
	return fmt.Errorf("%w: %q: %w", ErrExecution, expression, err)
}
