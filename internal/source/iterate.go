package source

import (
	"context"
	"iter"
	"log/slog"

	"github.com/jacoelho/mdq/internal/field"
)

// emptyRecord stands in for entries that cannot be read.
var emptyRecord = field.Map()

// Iterate streams the records of a container. Composites are flattened one
// level by concatenating their children's records. Entries that fail to read
// or decode yield an empty record so the scan continues; children that cannot
// be opened are skipped.
func Iterate(ctx context.Context, c Container, logger *slog.Logger) iter.Seq[field.Field] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return func(yield func(field.Field) bool) {
		composite, ok := c.(Composite)
		if !ok {
			entries(ctx, c, logger)(yield)
			return
		}

		for index := range composite.Len() {
			if ctx.Err() != nil {
				return
			}

			child, err := composite.Child(index)
			if err != nil {
				logger.Warn("skipping unreadable container", "index", index, "error", err)
				continue
			}

			for record := range entries(ctx, child, logger) {
				if !yield(record) {
					return
				}
			}
		}
	}
}

func entries(ctx context.Context, c Container, logger *slog.Logger) iter.Seq[field.Field] {
	return func(yield func(field.Field) bool) {
		for index := range c.Len() {
			if ctx.Err() != nil {
				return
			}
			if !yield(readRecord(c, index, logger)) {
				return
			}
		}
	}
}

func readRecord(c Container, index int, logger *slog.Logger) field.Field {
	meta, err := c.Meta(index)
	if err != nil {
		logger.Warn("failed to read meta, using empty record", "index", index, "error", err)
		return emptyRecord
	}

	record, err := field.FromAny(meta)
	if err != nil {
		logger.Warn("unsupported meta, using empty record", "index", index, "error", err)
		return emptyRecord
	}
	return record
}

// Scanner exposes a container as a record source for the query executor.
type Scanner struct {
	container Container
	logger    *slog.Logger
}

func NewScanner(c Container, logger *slog.Logger) *Scanner {
	return &Scanner{container: c, logger: logger}
}

func (s *Scanner) Records(ctx context.Context) iter.Seq[field.Field] {
	return Iterate(ctx, s.container, s.logger)
}
