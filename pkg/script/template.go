// Package script builds and recomposes browser-automation scripts: the
// wrapper shape every script conforms to, recomposition of recorder output
// into that shape, and the execution-scoped artifact layout.
package script

import (
	"fmt"
	"strings"

	"github.com/zen-systems/scriptflow/pkg/plan"
)

// Origin tells downstream stages how a script came to exist.
type Origin string

const (
	OriginGenerated    Origin = "generated"
	OriginDemonstrated Origin = "demonstrated"
)

// PlaceholderURL is the recording endpoint used when no URL-shaped token
// appears in the plan.
const PlaceholderURL = "https://example.com"

// Compose indents action lines into the fixed wrapper shape. extraImports are
// emitted verbatim after the playwright import.
func Compose(actionLines []string, extraImports []string, p plan.Plan) string {
	var sb strings.Builder

	sb.WriteString("\"\"\"\nGenerated from user demonstration\nPlan:\n")
	sb.WriteString(p.JSON())
	sb.WriteString("\n\"\"\"\n\n")
	sb.WriteString("from playwright.sync_api import sync_playwright\n")
	for _, imp := range extraImports {
		sb.WriteString(imp)
		sb.WriteString("\n")
	}
	sb.WriteString("\nwith sync_playwright() as p:\n")
	sb.WriteString("    browser = p.chromium.launch(headless=False, slow_mo=1500)\n")
	sb.WriteString("    page = browser.new_page()\n\n")
	sb.WriteString("    # Recorded actions\n")
	for _, line := range actionLines {
		sb.WriteString("    ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n    print(\"Automation completed\")\n")
	sb.WriteString("    browser.close()\n")

	return sb.String()
}

// Template builds the deterministic placeholder script used when recording
// captures nothing usable. It is syntactically runnable on its own and passes
// the generative shape gate.
func Template(p plan.Plan) string {
	target := TargetURL(p)
	return fmt.Sprintf(`"""
Placeholder automation script.
Plan:
%s

To complete this script:
1. Run: playwright codegen --target python %s
2. Perform your actions in the browser
3. Replace the placeholder section below with the recorded code
"""

from playwright.sync_api import sync_playwright

with sync_playwright() as p:
    browser = p.chromium.launch(headless=False, slow_mo=1500)
    page = browser.new_page()

    print("Starting automation...")
    page.goto("%s")
    print("Navigated to %s")

    # Replace this section with your recorded actions

    print("Automation completed")
    browser.close()
`, p.JSON(), target, target, target)
}
