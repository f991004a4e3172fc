package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestExitErrHandler_NilError(_ *testing.T) {
	exitErrHandler(nil, nil)
}

func TestReport(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOut  string
	}{
		{"silent exit", cli.Exit("", 7), 7, ""},
		{"validation", cli.Exit("array must have 2 to 4 dimensions", 2), 2, "array must have 2 to 4 dimensions\n"},
		{"connect", cli.Exit("viewer did not accept a connection in time", 3), 3, "viewer did not accept a connection in time\n"},
		{"wrapped", errors.Join(errors.New("context"), cli.Exit("inner error", 42)), 42, "inner error\n"},
		{"regular error", errors.New("boom"), 1, "Error: boom\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if code := report(&buf, tt.err); code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if buf.String() != tt.wantOut {
				t.Errorf("output = %q, want %q", buf.String(), tt.wantOut)
			}
		})
	}
}
