package check

// Status represents the outcome of a check.
type Status string

const (
	StatusOK   Status = "OK"
	StatusFail Status = "FAIL"
)

// Result holds the outcome of a single layout check.
type Result struct {
	Name    string   // e.g., "noHorizontalOverflow", "footerVisible"
	Status  Status   // OK or FAIL
	Details []string // human-readable details
	Payload any      // diagnostic data, reported as <Name>Details when the check fails
}

// OK returns true if the check passed.
func (r Result) OK() bool {
	return r.Status == StatusOK
}
