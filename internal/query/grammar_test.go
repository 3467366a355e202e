package query

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func intPtr(n int) *int {
	return &n
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		tokens []string
		want   Query
	}{
		{
			name:   "single_column",
			tokens: []string{"params.a"},
			want:   Query{Columns: []string{"params.a"}},
		},
		{
			name:   "several_columns",
			tokens: []string{"params.a", "metrics.acc", "len(tags)"},
			want:   Query{Columns: []string{"params.a", "metrics.acc", "len(tags)"}},
		},
		{
			name:   "filter",
			tokens: []string{"params.a", "filter", "params.b > 0"},
			want:   Query{Columns: []string{"params.a"}, Filter: "params.b > 0"},
		},
		{
			name:   "sort_desc",
			tokens: []string{"params.a", "sort", "params.b", "desc"},
			want:   Query{Columns: []string{"params.a"}, Sort: "params.b", Desc: true},
		},
		{
			name:   "repeated_desc",
			tokens: []string{"params.a", "sort", "params.b", "desc", "desc"},
			want:   Query{Columns: []string{"params.a"}, Sort: "params.b", Desc: true},
		},
		{
			name:   "everything",
			tokens: []string{"a", "b", "filter", "a > 1", "sort", "b", "desc", "offset", "2", "limit", "5"},
			want: Query{
				Columns: []string{"a", "b"},
				Filter:  "a > 1",
				Sort:    "b",
				Desc:    true,
				Offset:  intPtr(2),
				Limit:   intPtr(5),
			},
		},
		{
			name:   "limit_only",
			tokens: []string{"a", "limit", "0"},
			want:   Query{Columns: []string{"a"}, Limit: intPtr(0)},
		},
		{
			name:   "filter_then_offset",
			tokens: []string{"a", "filter", "a", "offset", "3"},
			want:   Query{Columns: []string{"a"}, Filter: "a", Offset: intPtr(3)},
		},
		{
			name:   "keyword_as_substring_is_data",
			tokens: []string{"params.filter", "sorted", "filter", "params.limit > 1"},
			want:   Query{Columns: []string{"params.filter", "sorted"}, Filter: "params.limit > 1"},
		},
		{
			name:   "keywords_are_case_sensitive",
			tokens: []string{"Filter", "DESC"},
			want:   Query{Columns: []string{"Filter", "DESC"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.tokens)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Parse() = %#v, want %#v", got, tt.want)
			}

			again, err := Parse(tt.tokens)
			if err != nil || !reflect.DeepEqual(again, got) {
				t.Fatalf("Parse() is not deterministic: %#v vs %#v (%v)", again, got, err)
			}

			roundTrip, err := Parse(got.Tokens())
			if err != nil || !reflect.DeepEqual(roundTrip, got) {
				t.Fatalf("Parse(Tokens()) = %#v, %v, want %#v", roundTrip, err, got)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		tokens       []string
		wantPosition int
		wantContains []string
	}{
		{
			name:         "empty",
			tokens:       nil,
			wantContains: []string{"empty query"},
		},
		{
			name:         "keyword_first",
			tokens:       []string{"filter", "a > 1"},
			wantPosition: 0,
			wantContains: []string{`unexpected keyword "filter"`, "filter <<< ", "expected expression"},
		},
		{
			name:         "desc_without_sort",
			tokens:       []string{"a", "desc"},
			wantPosition: 1,
			wantContains: []string{`unexpected keyword "desc"`, "a desc <<<", "expected filter, limit, offset, sort, expression"},
		},
		{
			name:         "filter_after_sort",
			tokens:       []string{"a", "sort", "b", "filter", "c"},
			wantPosition: 3,
			wantContains: []string{"a sort b filter <<< c", "expected desc, limit, offset"},
		},
		{
			name:         "two_filters",
			tokens:       []string{"a", "filter", "b", "c"},
			wantPosition: 3,
			wantContains: []string{`unexpected expression "c"`, "expected limit, offset, sort"},
		},
		{
			name:         "two_sort_expressions",
			tokens:       []string{"a", "sort", "b", "c"},
			wantPosition: 3,
			wantContains: []string{"expected desc, limit, offset"},
		},
		{
			name:         "expression_after_desc",
			tokens:       []string{"a", "sort", "b", "desc", "c"},
			wantPosition: 4,
			wantContains: []string{`unexpected expression "c"`, "a sort b desc <<< c", "expected desc, limit, offset"},
		},
		{
			name:         "limit_before_offset",
			tokens:       []string{"a", "limit", "1", "offset", "2"},
			wantPosition: 3,
			wantContains: []string{`unexpected keyword "offset"`},
		},
		{
			name:         "token_after_limit",
			tokens:       []string{"a", "limit", "1", "b"},
			wantPosition: 3,
			wantContains: []string{`unexpected "b" after limit`},
		},
		{
			name:         "offset_then_expression",
			tokens:       []string{"a", "offset", "1", "b"},
			wantPosition: 3,
			wantContains: []string{"expected limit"},
		},
		{
			name:         "keyword_in_expression_slot",
			tokens:       []string{"a", "filter", "sort"},
			wantPosition: 2,
			wantContains: []string{`unexpected keyword "sort"`, "expected expression"},
		},
		{
			name:         "missing_filter_expression",
			tokens:       []string{"a", "filter"},
			wantPosition: 2,
			wantContains: []string{"missing expression after filter", "a filter <<<"},
		},
		{
			name:         "limit_not_integer",
			tokens:       []string{"a", "limit", "ten"},
			wantPosition: 2,
			wantContains: []string{`limit must be a non-negative integer, got "ten"`},
		},
		{
			name:         "negative_offset",
			tokens:       []string{"a", "offset", "-1"},
			wantPosition: 2,
			wantContains: []string{"offset must be a non-negative integer"},
		},
		{
			name:         "empty_column",
			tokens:       []string{""},
			wantPosition: 0,
			wantContains: []string{"empty column expression"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tt.tokens)
			if !errors.Is(err, ErrParsing) {
				t.Fatalf("Parse() error = %v, want ErrParsing", err)
			}

			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Parse() error = %T, want *ParseError", err)
			}
			if len(tt.tokens) > 0 && parseErr.Position != tt.wantPosition {
				t.Fatalf("Position = %d, want %d", parseErr.Position, tt.wantPosition)
			}

			for _, want := range tt.wantContains {
				if !strings.Contains(err.Error(), want) {
					t.Fatalf("error %q does not contain %q", err.Error(), want)
				}
			}
		})
	}
}
