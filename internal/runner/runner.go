package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jacoelho/mdq/internal/config"
	"github.com/jacoelho/mdq/internal/exit"
	"github.com/jacoelho/mdq/internal/logger"
	"github.com/jacoelho/mdq/internal/output"
	"github.com/jacoelho/mdq/internal/query"
	"github.com/jacoelho/mdq/internal/source"
)

type Runner struct {
	config    *config.Config
	output    io.Writer
	errOutput io.Writer
}

func New(cfg *config.Config) (*Runner, *exit.Result) {
	if cfg == nil {
		return nil, exit.Errorf("Error creating runner: missing configuration\n")
	}

	return &Runner{
		config:    cfg,
		output:    os.Stdout,
		errOutput: os.Stderr,
	}, nil
}

func (r *Runner) SetOutput(w io.Writer) {
	r.output = w
}

func (r *Runner) SetErrorOutput(w io.Writer) {
	r.errOutput = w
}

func (r *Runner) payloadWriter() io.Writer {
	if r.output == nil {
		return io.Discard
	}
	return r.output
}

func (r *Runner) errorWriter() io.Writer {
	if r.errOutput == nil {
		return io.Discard
	}
	return r.errOutput
}

func (r *Runner) logf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.errorWriter(), format, args...)
}

// Run parses, validates and executes the configured query, then renders the
// result. It returns the process exit code.
func (r *Runner) Run(ctx context.Context) int {
	log, err := logger.New(logger.Config{
		Level:  r.config.LogLevel(),
		Format: r.config.LogFormat,
		Output: r.errorWriter(),
	})
	if err != nil {
		r.logf("Error: %v\n", err)
		return exit.CodeUsage
	}

	result, err := r.runQuery(ctx, log)
	if err != nil {
		r.logf("Error: %v\n", describe(err, r.config))
		return exit.CodeFailure
	}

	if err := output.Render(r.config.Format, r.payloadWriter(), result); err != nil {
		r.logf("Error: failed to render result: %v\n", err)
		return exit.CodeFailure
	}

	return exit.CodeSuccess
}

func (r *Runner) runQuery(ctx context.Context, log *slog.Logger) (*query.Result, error) {
	q, err := query.Parse(r.config.Tokens)
	if err != nil {
		return nil, err
	}

	// Reject unsafe expressions before touching the filesystem.
	if err := query.Validate(q); err != nil {
		return nil, err
	}

	container, err := source.Open(r.config.Root, r.config.Type)
	if err != nil {
		return nil, err
	}
	log.Debug("container opened", "root", r.config.Root, "type", fmt.Sprintf("%T", container), "entries", container.Len())

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	executor := query.NewExecutor(source.NewScanner(container, log), log)
	return executor.Execute(ctx, q)
}

func describe(err error, cfg *config.Config) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("query timed out after %s: %w", cfg.Timeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("query cancelled: %w", err)
	default:
		return err
	}
}
