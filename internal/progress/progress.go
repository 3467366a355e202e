package progress

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum time between two progress lines.
const DefaultInterval = time.Second

// Reporter counts scanned records and logs the running total at most once
// per interval.
type Reporter struct {
	logger    *slog.Logger
	sometimes *rate.Sometimes
	scanned   int
	accepted  int
}

// New uses DefaultInterval when interval is not positive.
func New(logger *slog.Logger, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Reporter{
		logger:    logger,
		sometimes: &rate.Sometimes{Interval: interval},
	}
}

// Scanned records one record read from the source.
func (r *Reporter) Scanned() {
	r.scanned++
	r.sometimes.Do(func() {
		r.logger.Debug("scanning records", "scanned", r.scanned, "accepted", r.accepted)
	})
}

// Accepted records one record that passed the filter.
func (r *Reporter) Accepted() {
	r.accepted++
}

func (r *Reporter) Counts() (scanned int, accepted int) {
	return r.scanned, r.accepted
}

// Done logs the final totals.
func (r *Reporter) Done() {
	r.logger.Debug("scan complete", "scanned", r.scanned, "accepted", r.accepted)
}
