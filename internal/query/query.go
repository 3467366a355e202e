package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Query is the parsed form of a query token stream. Only Parse builds one.
type Query struct {
	Columns []string
	Filter  string // empty when absent
	Sort    string // empty when absent
	Desc    bool
	Limit   *int
	Offset  *int
}

// Tokens renders the query back into its canonical token stream.
func (q Query) Tokens() []string {
	tokens := make([]string, 0, len(q.Columns)+8)
	tokens = append(tokens, q.Columns...)
	if q.Filter != "" {
		tokens = append(tokens, keywordFilter, q.Filter)
	}
	if q.Sort != "" {
		tokens = append(tokens, keywordSort, q.Sort)
		if q.Desc {
			tokens = append(tokens, keywordDesc)
		}
	}
	if q.Offset != nil {
		tokens = append(tokens, keywordOffset, strconv.Itoa(*q.Offset))
	}
	if q.Limit != nil {
		tokens = append(tokens, keywordLimit, strconv.Itoa(*q.Limit))
	}
	return tokens
}

func (q Query) String() string {
	return strings.Join(q.Tokens(), " ")
}

// Row maps column expressions to evaluated values; nil marks a failed or
// missing evaluation.
type Row map[string]any

// Result is the outcome of one Execute call.
type Result struct {
	ID      uuid.UUID
	Columns []string
	Count   int
	Data    []Row
	Elapsed time.Duration
}

// Seconds returns the elapsed wall-clock time in seconds.
func (r *Result) Seconds() float64 {
	return r.Elapsed.Seconds()
}
