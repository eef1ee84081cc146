package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/steveyegge/daybook/internal/syncer"
)

// TestExitCode verifies the stable error-class to exit-code mapping that
// scripts and the wrap command depend on.
func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitOK},
		{"commit failure", fmt.Errorf("%w: index corrupt", syncer.ErrCommitFailed), exitCommitFailed},
		{"needs attention", fmt.Errorf("%w: conflicts", syncer.ErrNeedsAttention), exitCommitFailed},
		{"retries exhausted", fmt.Errorf("%w: timeout", syncer.ErrRetriesExhausted), exitRetriesExhausted},
		{"unclassified", errors.New("boom"), exitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
