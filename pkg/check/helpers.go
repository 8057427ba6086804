package check

import "fmt"

// Pass sets the result to OK status.
func (r *Result) Pass() Result {
	r.Status = StatusOK
	return *r
}

// Fail sets the result to failed status with a detail message and diagnostic payload.
// A nil payload leaves the failure without a <Name>Details entry.
func (r *Result) Fail(detail string, payload any) Result {
	r.Status = StatusFail
	r.Details = append(r.Details, detail)
	r.Payload = payload
	return *r
}

// Failf sets the result to failed status with a formatted detail message and no payload.
func (r *Result) Failf(format string, args ...interface{}) Result {
	return r.Fail(fmt.Sprintf(format, args...), nil)
}

// AddDetail appends a detail line to the result.
func (r *Result) AddDetail(detail string) *Result {
	r.Details = append(r.Details, detail)
	return r
}

// AddDetailf appends a formatted detail line to the result.
func (r *Result) AddDetailf(format string, args ...interface{}) *Result {
	return r.AddDetail(fmt.Sprintf(format, args...))
}
