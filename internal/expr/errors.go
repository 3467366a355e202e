package expr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidExpression indicates malformed expression syntax.
	ErrInvalidExpression = errors.New("invalid expression")
	// ErrUnsafeExpression indicates a construct able to run code, perform I/O or
	// escape the evaluator.
	ErrUnsafeExpression = errors.New("unsafe expression")
	// ErrUnsupportedExpression indicates valid-looking syntax outside the
	// supported subset, such as comprehensions or method calls.
	ErrUnsupportedExpression = errors.New("unsupported expression")
	// ErrEvaluation indicates a failure while evaluating against a record.
	ErrEvaluation = errors.New("evaluation error")
)

func expressionError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidExpression, fmt.Sprintf(format, args...))
}

func unsafeError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsafeExpression, fmt.Sprintf(format, args...))
}

func unsupportedError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedExpression, fmt.Sprintf(format, args...))
}

func evaluationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrEvaluation, fmt.Sprintf(format, args...))
}
