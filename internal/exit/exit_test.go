package exit

import (
	"bytes"
	"os"
	"testing"
)

func TestResults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		result     *Result
		wantCode   int
		wantOutput *os.File
		wantMsg    string
	}{
		{name: "success", result: Success("done"), wantCode: CodeSuccess, wantOutput: os.Stdout, wantMsg: "done"},
		{name: "error", result: Error("failed"), wantCode: CodeFailure, wantOutput: os.Stderr, wantMsg: "failed"},
		{name: "errorf", result: Errorf("query failed: %s (%d)", "boom", 3), wantCode: CodeFailure, wantOutput: os.Stderr, wantMsg: "query failed: boom (3)"},
		{name: "usage", result: Usagef("unknown flag %q", "-x"), wantCode: CodeUsage, wantOutput: os.Stderr, wantMsg: `unknown flag "-x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if tt.result.ExitCode != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", tt.result.ExitCode, tt.wantCode)
			}
			if tt.result.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", tt.result.Message, tt.wantMsg)
			}
			if tt.result.Output != tt.wantOutput {
				t.Errorf("Output = %v, want %v", tt.result.Output, tt.wantOutput)
			}
		})
	}
}

func TestPrint(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	result := &Result{Output: &buf, Message: "test output"}
	result.Print()

	if buf.String() != "test output" {
		t.Errorf("Print() output = %q, want %q", buf.String(), "test output")
	}
}
