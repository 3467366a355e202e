package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jacoelho/mdq/internal/exit"
	"github.com/jacoelho/mdq/internal/output"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want *Config
	}{
		{
			name: "defaults",
			args: []string{"mdq", "query", "params.a"},
			want: &Config{Root: ".", Tokens: []string{"params.a"}, Format: output.FormatText, LogFormat: "text"},
		},
		{
			name: "all_flags",
			args: []string{
				"mdq", "--root", "runs", "--type", "repo", "--format", "json", "--timeout", "5s",
				"--debug", "--log-format", "json", "query", "name", "sort", "len", "desc",
			},
			want: &Config{
				Root:      "runs",
				Type:      "repo",
				Tokens:    []string{"name", "sort", "len", "desc"},
				Timeout:   5 * time.Second,
				Format:    output.FormatJSON,
				Debug:     true,
				LogFormat: "json",
			},
		},
		{
			name: "tokens_are_verbatim",
			args: []string{"mdq", "query", "params.a > -1", "--debug", "filter", "a or b"},
			want: &Config{
				Root:      ".",
				Tokens:    []string{"params.a > -1", "--debug", "filter", "a or b"},
				Format:    output.FormatText,
				LogFormat: "text",
			},
		},
		{
			name: "empty_query_is_left_to_the_grammar",
			args: []string{"mdq", "--type", "detect", "query"},
			want: &Config{Root: ".", Tokens: []string{}, Format: output.FormatText, LogFormat: "text"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, result := Parse(tt.args)
			if result != nil {
				t.Fatalf("Parse() exit = %d %q", result.ExitCode, result.Message)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Parse() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseUsageErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		args        []string
		wantMessage string
	}{
		{name: "no_arguments", args: nil, wantMessage: "no arguments provided"},
		{name: "no_command", args: []string{"mdq", "--debug"}, wantMessage: "no command specified"},
		{name: "unknown_command", args: []string{"mdq", "select", "a"}, wantMessage: `unknown command: "select"`},
		{name: "unknown_flag", args: []string{"mdq", "--verbose", "query", "a"}, wantMessage: "failed to parse arguments"},
		{name: "bad_type", args: []string{"mdq", "--type", "workspace", "query", "a"}, wantMessage: "invalid container type"},
		{name: "bad_format", args: []string{"mdq", "--format", "xml", "query", "a"}, wantMessage: "invalid output format"},
		{name: "bad_log_format", args: []string{"mdq", "--log-format", "logfmt", "query", "a"}, wantMessage: "invalid log format"},
		{name: "negative_timeout", args: []string{"mdq", "--timeout", "-1s", "query", "a"}, wantMessage: "timeout must not be negative"},
		{name: "missing_config", args: []string{"mdq", "--config", "does-not-exist.yaml", "query", "a"}, wantMessage: "failed to read config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			config, result := Parse(tt.args)
			if config != nil {
				t.Fatalf("Parse() config = %#v, want nil", config)
			}
			if result == nil || result.ExitCode != exit.CodeUsage {
				t.Fatalf("Parse() exit = %#v, want usage error", result)
			}
			if result.Output != os.Stderr {
				t.Fatal("usage errors should go to stderr")
			}
			if !strings.Contains(result.Message, tt.wantMessage) {
				t.Fatalf("message %q does not contain %q", result.Message, tt.wantMessage)
			}
			if !strings.Contains(result.Message, "Usage: mdq") {
				t.Fatal("usage errors should include the usage text")
			}
		})
	}
}

func TestParseHelp(t *testing.T) {
	t.Parallel()

	config, result := Parse([]string{"mdq", "-h"})
	if config != nil || result == nil {
		t.Fatalf("Parse() = %v, %v", config, result)
	}
	if result.ExitCode != exit.CodeSuccess || result.Output != os.Stdout {
		t.Fatalf("help exit = %d to %v", result.ExitCode, result.Output)
	}
	if result.Message != Usage() {
		t.Fatalf("help message = %q", result.Message)
	}
}

func TestParseConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "mdq.yaml")
	content := "root: experiments\ntype: line\nformat: yaml\ntimeout: 2m\ndebug: true\nlog_format: json\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, result := Parse([]string{"mdq", "--config", path, "--format", "text", "query", "a"})
	if result != nil {
		t.Fatalf("Parse() exit = %d %q", result.ExitCode, result.Message)
	}

	want := &Config{
		Root:       "experiments",
		Type:       "line",
		Tokens:     []string{"a"},
		Timeout:    2 * time.Minute,
		Format:     output.FormatText,
		Debug:      true,
		LogFormat:  "json",
		ConfigFile: path,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parse() = %#v, want %#v", got, want)
	}
	if got.LogLevel() != "DEBUG" {
		t.Fatalf("LogLevel() = %q, want DEBUG", got.LogLevel())
	}
}

func TestParseConfigFileErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		content     string
		wantMessage string
	}{
		{name: "unknown_key", content: "roots: x\n", wantMessage: "invalid config file"},
		{name: "bad_timeout", content: "timeout: soon\n", wantMessage: "timeout"},
		{name: "bad_type", content: "type: workspace\n", wantMessage: "invalid container type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "mdq.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			_, result := Parse([]string{"mdq", "--config", path, "query", "a"})
			if result == nil || result.ExitCode != exit.CodeUsage {
				t.Fatalf("Parse() exit = %#v, want usage error", result)
			}
			if !strings.Contains(result.Message, tt.wantMessage) {
				t.Fatalf("message %q does not contain %q", result.Message, tt.wantMessage)
			}
		})
	}
}
