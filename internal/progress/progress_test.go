package progress

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestReporterThrottlesProgressLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := New(logger, time.Hour)
	for range 100 {
		r.Scanned()
	}
	r.Accepted()
	r.Done()

	output := buf.String()
	if got := strings.Count(output, "scanning records"); got != 1 {
		t.Fatalf("progress lines = %d, want 1\n%s", got, output)
	}
	if !strings.Contains(output, `msg="scan complete" scanned=100 accepted=1`) {
		t.Fatalf("missing final totals in %q", output)
	}

	scanned, accepted := r.Counts()
	if scanned != 100 || accepted != 1 {
		t.Fatalf("Counts() = %d, %d, want 100, 1", scanned, accepted)
	}
}
