package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/vertti/visualcheck/pkg/runner"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		want       int
		wantStderr string
	}{
		{"success", nil, 0, ""},
		{"checks failed", runner.ErrChecksFailed, 1, ""},
		{"wrapped checks failed", fmt.Errorf("run: %w", runner.ErrChecksFailed), 1, ""},
		{"fault", errors.New("launch chrome: executable not found"), 2, "fatal: launch chrome: executable not found\n"},
		{"cancelled", context.Canceled, 2, "fatal: context canceled\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if got := exitCode(tt.err, &stderr); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
			if stderr.String() != tt.wantStderr {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}
