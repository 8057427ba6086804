// Package httpcheck confirms the site answers before a browser is launched.
package httpcheck

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/vertti/visualcheck/pkg/check"
)

// HTTPClient abstracts HTTP requests for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Check verifies that the base URL of the site responds.
type Check struct {
	URL            string        // target URL (required)
	ExpectedStatus int           // expected HTTP status (default: 200)
	Timeout        time.Duration // request timeout (default: 5s)
	Client         HTTPClient    // injected for testing
}

// Run issues a single GET. There is no retry.
func (c *Check) Run(ctx context.Context) check.Result {
	result := check.Result{
		Name: "http: " + c.URL,
	}

	if c.URL == "" {
		return result.Failf("URL is required")
	}
	parsedURL, err := url.Parse(c.URL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return result.Failf("invalid URL: %s", c.URL)
	}

	expectedStatus := c.ExpectedStatus
	if expectedStatus == 0 {
		expectedStatus = http.StatusOK
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, http.NoBody)
	if err != nil {
		return result.Failf("failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return result.Failf("request failed: %v", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != expectedStatus {
		return result.Failf("status %d, expected %d", resp.StatusCode, expectedStatus)
	}

	result.Status = check.StatusOK
	result.AddDetailf("status %d", resp.StatusCode)
	return result
}

// Err converts a failed result into an error for the caller to abort on.
func Err(r check.Result) error {
	if r.OK() {
		return nil
	}
	detail := "unreachable"
	if len(r.Details) > 0 {
		detail = r.Details[len(r.Details)-1]
	}
	return fmt.Errorf("site check %s: %s", r.Name, detail)
}
