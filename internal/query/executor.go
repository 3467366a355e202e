package query

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jacoelho/mdq/internal/clock"
	"github.com/jacoelho/mdq/internal/expr"
	"github.com/jacoelho/mdq/internal/field"
	"github.com/jacoelho/mdq/internal/progress"
)

// Source yields the records a query runs against. Implementations should
// yield an empty map for entries that cannot be read instead of stopping.
type Source interface {
	Records(ctx context.Context) iter.Seq[field.Field]
}

// SliceSource serves records held in memory.
type SliceSource []field.Field

func (s SliceSource) Records(ctx context.Context) iter.Seq[field.Field] {
	return func(yield func(field.Field) bool) {
		for _, record := range s {
			if ctx.Err() != nil || !yield(record) {
				return
			}
		}
	}
}

// Executor runs queries against a Source.
type Executor struct {
	source           Source
	logger           *slog.Logger
	progressInterval time.Duration
}

// NewExecutor uses a discarding logger when logger is nil.
func NewExecutor(source Source, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Executor{
		source:           source,
		logger:           logger,
		progressInterval: progress.DefaultInterval,
	}
}

func (e *Executor) SetProgressInterval(interval time.Duration) {
	e.progressInterval = interval
}

// plan holds every expression of a query compiled exactly once.
type plan struct {
	columns []*expr.Program
	filter  *expr.Program
	sort    *expr.Program
}

func compile(q Query) (plan, error) {
	if len(q.Columns) == 0 {
		return plan{}, fmt.Errorf("%w: no columns selected", ErrExecution)
	}

	programs := make(map[string]*expr.Program)
	get := func(source string) (*expr.Program, error) {
		if program, ok := programs[source]; ok {
			return program, nil
		}
		program, err := expr.Compile(source)
		if err != nil {
			return nil, executionError(source, err)
		}
		programs[source] = program
		return program, nil
	}

	var p plan
	var err error

	if q.Filter != "" {
		if p.filter, err = get(q.Filter); err != nil {
			return plan{}, err
		}
	}
	if q.Sort != "" {
		if p.sort, err = get(q.Sort); err != nil {
			return plan{}, err
		}
	}

	p.columns = make([]*expr.Program, 0, len(q.Columns))
	for _, column := range q.Columns {
		program, err := get(column)
		if err != nil {
			return plan{}, err
		}
		p.columns = append(p.columns, program)
	}

	return p, nil
}

// Validate compiles every expression of q without reading any record.
func Validate(q Query) error {
	_, err := compile(q)
	return err
}

type entry struct {
	row Row
	key field.Field
}

// Execute validates the query, scans the source and returns the projected,
// filtered, sorted and paginated rows. Evaluation failures on individual
// records never fail the query: columns degrade to nil, filters to false and
// sort keys to null.
func (e *Executor) Execute(ctx context.Context, q Query) (*Result, error) {
	start := clock.Now()
	id := uuid.New()
	logger := e.logger.With("query_id", id.String())

	p, err := compile(q)
	if err != nil {
		return nil, err
	}

	logger.Debug("query started", "query", q.String())

	reporter := progress.New(logger, e.progressInterval)
	var entries []entry

	index := 0
	for record := range e.source.Records(ctx) {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("query interrupted after %d records: %w", index, ctx.Err())
		default:
		}

		reporter.Scanned()
		if current, ok := e.evaluate(logger, p, q.Columns, record, index); ok {
			reporter.Accepted()
			entries = append(entries, current)
		}
		index++
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("query interrupted after %d records: %w", index, err)
	}
	reporter.Done()

	if p.sort != nil {
		sortEntries(entries, q.Desc)
	}
	entries = paginate(entries, q.Offset, q.Limit)

	data := make([]Row, 0, len(entries))
	for _, current := range entries {
		data = append(data, current.row)
	}

	result := &Result{
		ID:      id,
		Columns: slices.Clone(q.Columns),
		Count:   len(data),
		Data:    data,
		Elapsed: clock.Since(start),
	}

	scanned, accepted := reporter.Counts()
	logger.Debug("query finished", "scanned", scanned, "accepted", accepted, "rows", result.Count, "elapsed", result.Elapsed)
	return result, nil
}

func (e *Executor) evaluate(logger *slog.Logger, p plan, columns []string, record field.Field, index int) (entry, bool) {
	if p.filter != nil {
		keep, err := p.filter.Eval(record)
		if err != nil {
			logger.Debug("filter failed, record dropped", "record", index, "error", err)
			return entry{}, false
		}
		if !keep.Truthy() {
			return entry{}, false
		}
	}

	row := make(Row, len(columns))
	for i, program := range p.columns {
		value, err := program.Eval(record)
		if err != nil {
			logger.Debug("column evaluation failed", "record", index, "column", columns[i], "error", err)
			row[columns[i]] = nil
			continue
		}
		row[columns[i]] = value.Interface()
	}

	current := entry{row: row, key: field.Null}
	if p.sort != nil {
		key, err := p.sort.Eval(record)
		if err != nil {
			logger.Debug("sort key evaluation failed", "record", index, "error", err)
			key = field.Null
		}
		current.key = key
	}

	return current, true
}

// sortEntries orders by (key is null, key) ascending; desc inverts the whole
// ordering, so null keys lead under desc. Equal keys keep source order.
func sortEntries(entries []entry, desc bool) {
	slices.SortStableFunc(entries, func(a, b entry) int {
		c := compareKeys(a.key, b.key)
		if desc {
			return -c
		}
		return c
	})
}

func compareKeys(a, b field.Field) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return 1
	case b.IsNull():
		return -1
	default:
		return field.Order(a, b)
	}
}

// paginate drops offset leading entries, then truncates to limit.
func paginate(entries []entry, offset, limit *int) []entry {
	if offset != nil {
		if *offset >= len(entries) {
			return nil
		}
		entries = entries[*offset:]
	}
	if limit != nil && *limit < len(entries) {
		entries = entries[:*limit]
	}
	return entries
}
