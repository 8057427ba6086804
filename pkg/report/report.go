// Package report aggregates per-combination results and persists them as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vertti/visualcheck/pkg/check"
	"github.com/vertti/visualcheck/pkg/matrix"
)

// Exit codes of a run.
const (
	ExitPassed = 0
	ExitFailed = 1
	ExitFault  = 2
)

// RunResult is the outcome of one combination. It is either a check set or an error.
type RunResult struct {
	Label    string    `json:"label"`
	Filename string    `json:"filename"`
	Checks   check.Set `json:"checks,omitempty"`
	Error    string    `json:"error,omitempty"`
	Passed   bool      `json:"passed"`
}

// NewRunResult records a completed check set for c.
func NewRunResult(c matrix.Combination, checks check.Set) RunResult {
	return RunResult{
		Label:    c.Label(),
		Filename: c.Filename(),
		Checks:   checks,
		Passed:   checks.Passed(),
	}
}

// NewErrorResult records a combination that faulted before its checks completed.
func NewErrorResult(c matrix.Combination, err error) RunResult {
	return RunResult{
		Label:    c.Label(),
		Filename: c.Filename(),
		Error:    err.Error(),
		Passed:   false,
	}
}

// FailedChecks returns the failing checks of r in order.
func (r RunResult) FailedChecks() []check.Result {
	return r.Checks.Failed()
}

// Summary counts the results of a run.
type Summary struct {
	Total    int
	Passed   int
	Failures []RunResult
}

// OK reports whether every result passed.
func (s Summary) OK() bool {
	return len(s.Failures) == 0
}

// Summarize aggregates results, keeping failures in run order.
func Summarize(results []RunResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		} else {
			s.Failures = append(s.Failures, r)
		}
	}
	return s
}

// ExitCode returns ExitPassed when every result passed and ExitFailed otherwise.
func ExitCode(results []RunResult) int {
	if Summarize(results).OK() {
		return ExitPassed
	}
	return ExitFailed
}

// Write stores results at path as indented JSON, creating parent directories.
func Write(path string, results []RunResult) error {
	if results == nil {
		results = []RunResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { //nolint:gosec // report is meant to be shared
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Read loads a report written by Write.
func Read(path string) ([]RunResult, error) {
	data, err := os.ReadFile(path) //nolint:gosec // intentional: report path from user
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var results []RunResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return results, nil
}
