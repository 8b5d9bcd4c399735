package gate

import "strings"

// Import lines a finished test script must carry. Order matters: the
// deterministic rewrite inserts them in this order.
var RequiredImports = []string{
	"import pytest",
	"from playwright.sync_api import Page, expect",
	"import agentql",
}

// Inspect scans a finalized script for the repair checklist: missing imports,
// manual construction of fixture-provided objects, raw assertions, and a test
// function missing its required parameter. A script may carry zero or many
// violations; inspection never modifies the script.
func Inspect(source string) []Violation {
	var violations []Violation

	for _, imp := range RequiredImports {
		if !strings.Contains(source, imp) {
			violations = append(violations, Violation{
				Rule:       "missing_import",
				Severity:   "error",
				Message:    "missing import line: " + imp,
				Suggestion: "add " + imp + " at the top of the script",
			})
		}
	}

	if strings.Contains(source, "page = Page(") {
		violations = append(violations, Violation{
			Rule:       "manual_page_construction",
			Severity:   "error",
			Message:    "manual Page object creation; the page fixture provides it",
			Suggestion: "remove the construction and take page: Page as a parameter",
		})
	}

	if strings.Contains(source, "assert page.") {
		violations = append(violations, Violation{
			Rule:       "raw_assertion",
			Severity:   "error",
			Message:    "raw assert on page state; use expect() helpers",
			Suggestion: "rewrite assert page.title(...) == x as expect(page).to_have_title(x)",
		})
	}

	if strings.Contains(source, "page.title") && !strings.Contains(source, "expect(") {
		violations = append(violations, Violation{
			Rule:       "unguarded_title_check",
			Severity:   "error",
			Message:    "page.title accessed without an expect() guard",
			Suggestion: "check titles with expect(page).to_have_title(...)",
		})
	}

	if strings.Contains(source, "def test_") && !strings.Contains(source, "page: Page") {
		violations = append(violations, Violation{
			Rule:       "missing_fixture_param",
			Severity:   "error",
			Message:    "test function signature missing page: Page parameter",
			Suggestion: "declare the test as def test_name(page: Page):",
		})
	}

	return violations
}

// InspectResult wraps Inspect as a gate for the stage runner.
func InspectResult(source string) *Result {
	violations := Inspect(source)
	if len(violations) == 0 {
		return NewPassingResult()
	}
	return NewFailingResult(violations, nil)
}
