package query

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

const (
	keywordFilter = "filter"
	keywordSort   = "sort"
	keywordLimit  = "limit"
	keywordOffset = "offset"
	keywordDesc   = "desc"
)

var keywords = map[string]struct{}{
	keywordFilter: {},
	keywordSort:   {},
	keywordLimit:  {},
	keywordOffset: {},
	keywordDesc:   {},
}

type state int

const (
	stateStart state = iota
	stateColumns
	stateFilter
	stateAfterFilter
	stateSort
	stateAfterSort
	stateOffset
	stateAfterOffset
	stateLimit
	stateEnd
	stateError
)

var stateNames = map[state]string{
	stateStart:       "start",
	stateColumns:     "columns",
	stateFilter:      keywordFilter,
	stateAfterFilter: "after filter",
	stateSort:        keywordSort,
	stateAfterSort:   "after sort",
	stateOffset:      keywordOffset,
	stateAfterOffset: "after offset",
	stateLimit:       keywordLimit,
	stateEnd:         "end",
	stateError:       "error",
}

func (s state) String() string {
	return stateNames[s]
}

// rule lists the legal moves out of a state: keyword edges, and the edge taken
// on a data token (stateError when data is not accepted).
type rule struct {
	keywords map[string]state
	data     state
}

var grammar = map[state]rule{
	stateStart: {
		data: stateColumns,
	},
	stateColumns: {
		keywords: map[string]state{
			keywordFilter: stateFilter,
			keywordSort:   stateSort,
			keywordLimit:  stateLimit,
			keywordOffset: stateOffset,
		},
		data: stateColumns,
	},
	stateFilter: {
		data: stateAfterFilter,
	},
	stateAfterFilter: {
		keywords: map[string]state{
			keywordSort:   stateSort,
			keywordLimit:  stateLimit,
			keywordOffset: stateOffset,
		},
		data: stateError,
	},
	stateSort: {
		data: stateAfterSort,
	},
	// A query sorts by a single key; a second bare expression is an error.
	stateAfterSort: {
		keywords: map[string]state{
			keywordDesc:   stateAfterSort,
			keywordLimit:  stateLimit,
			keywordOffset: stateOffset,
		},
		data: stateError,
	},
	stateOffset: {
		data: stateAfterOffset,
	},
	stateAfterOffset: {
		keywords: map[string]state{
			keywordLimit: stateLimit,
		},
		data: stateError,
	},
	stateLimit: {
		data: stateEnd,
	},
	stateEnd: {
		data: stateError,
	},
}

func (r rule) expected() []string {
	expected := make([]string, 0, len(r.keywords)+1)
	for keyword := range r.keywords {
		expected = append(expected, keyword)
	}
	slices.Sort(expected)
	if r.data != stateError {
		expected = append(expected, "expression")
	}
	return expected
}

// pending reports states waiting for the expression that follows a keyword.
func pending(s state) bool {
	switch s {
	case stateFilter, stateSort, stateOffset, stateLimit:
		return true
	default:
		return false
	}
}

func isKeyword(token string) bool {
	_, ok := keywords[token]
	return ok
}

// Parse turns command-line tokens into a Query:
//
//	<col> [<col> ...] [filter <expr>] [sort <expr> [desc]] [offset <n>] [limit <n>]
//
// Keywords are matched case-sensitively and only as whole tokens.
func Parse(tokens []string) (Query, error) {
	if len(tokens) == 0 {
		return Query{}, &ParseError{Reason: "empty query", Expected: []string{"column expression"}}
	}

	var q Query
	current := stateStart

	for position, token := range tokens {
		r := grammar[current]

		if isKeyword(token) {
			next, ok := r.keywords[token]
			if !ok {
				return Query{}, &ParseError{
					Tokens:   tokens,
					Position: position,
					Expected: r.expected(),
					Reason:   fmt.Sprintf("unexpected keyword %q", token),
				}
			}
			if token == keywordDesc {
				q.Desc = true
			}
			current = next
			continue
		}

		if r.data == stateError {
			reason := fmt.Sprintf("unexpected expression %q, a keyword is required", token)
			if current == stateEnd {
				reason = fmt.Sprintf("unexpected %q after limit", token)
			}
			return Query{}, &ParseError{
				Tokens:   tokens,
				Position: position,
				Expected: r.expected(),
				Reason:   reason,
			}
		}

		if err := q.accept(current, token); err != nil {
			return Query{}, &ParseError{
				Tokens:   tokens,
				Position: position,
				Reason:   err.Error(),
			}
		}
		current = r.data
	}

	if pending(current) {
		return Query{}, &ParseError{
			Tokens:   tokens,
			Position: len(tokens),
			Expected: []string{"expression"},
			Reason:   fmt.Sprintf("missing expression after %s", current),
		}
	}

	return q, nil
}

// accept stores a data token according to the state it was read in.
func (q *Query) accept(current state, token string) error {
	switch current {
	case stateStart, stateColumns:
		if token == "" {
			return errors.New("empty column expression")
		}
		q.Columns = append(q.Columns, token)
	case stateFilter:
		if token == "" {
			return errors.New("empty filter expression")
		}
		q.Filter = token
	case stateSort:
		if token == "" {
			return errors.New("empty sort expression")
		}
		q.Sort = token
	case stateOffset:
		n, err := parseCount(keywordOffset, token)
		if err != nil {
			return err
		}
		q.Offset = &n
	case stateLimit:
		n, err := parseCount(keywordLimit, token)
		if err != nil {
			return err
		}
		q.Limit = &n
	default:
		return fmt.Errorf("unexpected %q in state %s", token, current)
	}
	return nil
}

func parseCount(keyword, token string) (int, error) {
	n, err := strconv.Atoi(token)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", keyword, token)
	}
	return n, nil
}
