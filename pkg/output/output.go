package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jwalton/go-supportscolor"

	"github.com/vertti/visualcheck/pkg/report"
)

var (
	green = "\033[32m"
	red   = "\033[31m"
	dim   = "\033[2m"
	reset = "\033[0m"
)

func init() {
	if !supportscolor.Stdout().SupportsColor {
		green, red, dim, reset = "", "", "", ""
	}
}

// PrintRunResult outputs one combination with colored status.
func PrintRunResult(w io.Writer, r report.RunResult) {
	switch {
	case r.Passed:
		_, _ = fmt.Fprintf(w, "%s[OK]%s %s\n", green, reset, r.Label)
	case r.Error != "":
		_, _ = fmt.Fprintf(w, "%s[FAIL]%s %s %s(error: %s)%s\n", red, reset, r.Label, dim, r.Error, reset)
	default:
		names := make([]string, 0, len(r.Checks))
		for _, c := range r.FailedChecks() {
			names = append(names, c.Name)
		}
		_, _ = fmt.Fprintf(w, "%s[FAIL]%s %s %s(failed: %s)%s\n", red, reset, r.Label, dim, strings.Join(names, ", "), reset)
	}
}

// PrintSummary outputs the pass count and the detail of every failure.
func PrintSummary(w io.Writer, s report.Summary) {
	_, _ = fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 50))
	color := green
	if !s.OK() {
		color = red
	}
	_, _ = fmt.Fprintf(w, "%sResults: %d/%d passed%s\n", color, s.Passed, s.Total, reset)

	if s.OK() {
		return
	}
	_, _ = fmt.Fprintf(w, "\nFailures:\n")
	for _, f := range s.Failures {
		_, _ = fmt.Fprintf(w, "  %s:\n", f.Label)
		if f.Error != "" {
			_, _ = fmt.Fprintf(w, "    %s %s\n", formatLabel("error:"), f.Error)
			continue
		}
		for _, c := range f.FailedChecks() {
			if c.Payload == nil {
				_, _ = fmt.Fprintf(w, "    %s\n", c.Name)
				continue
			}
			detail, err := json.Marshal(c.Payload)
			if err != nil {
				detail = []byte(err.Error())
			}
			_, _ = fmt.Fprintf(w, "    %s %s\n", formatLabel(c.Name+":"), detail)
		}
	}
}

// PrintLocations outputs where the report and screenshots were written.
func PrintLocations(w io.Writer, reportPath, screenshotDir string) {
	_, _ = fmt.Fprintf(w, "\n%s %s\n", formatLabel("Report:"), reportPath)
	_, _ = fmt.Fprintf(w, "%s %s\n", formatLabel("Screenshots:"), screenshotDir)
}

// formatLabel dims the part of s up to and including the first colon.
func formatLabel(s string) string {
	idx := strings.Index(s, ":")
	if idx == -1 {
		return s
	}
	return dim + s[:idx+1] + reset + s[idx+1:]
}
