// Package probe performs a headless preflight of a recording target. The
// result is advisory: an unreachable endpoint is reported, never fatal, since
// the operator may still want to record against it.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultTimeout bounds a single preflight navigation.
const DefaultTimeout = 15 * time.Second

// Report describes what the preflight observed at the target endpoint.
type Report struct {
	URL       string
	Reachable bool
	Title     string
	Err       string
}

// Prober drives a headless browser for endpoint preflight.
type Prober struct {
	Timeout time.Duration
}

// New creates a prober with defaults.
func New() *Prober {
	return &Prober{Timeout: DefaultTimeout}
}

// Check navigates to url headlessly and captures the page title. Failures
// are folded into the report rather than returned, matching its advisory
// role.
func (p *Prober) Check(ctx context.Context, url string) Report {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("headless", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	runCtx, runCancel := context.WithTimeout(browserCtx, timeout)
	defer runCancel()

	var title string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Title(&title),
	)
	if err != nil {
		return Report{URL: url, Reachable: false, Err: fmt.Sprintf("preflight failed: %v", err)}
	}

	return Report{URL: url, Reachable: true, Title: title}
}
