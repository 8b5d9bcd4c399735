package gate

import (
	"fmt"
	"strings"
)

// Required syntactic markers for a generatively-produced automation script:
// entry-point import, driver construction, and page construction. Forbidden
// markers catch a headless flag the run policy disallows and unguarded
// direct assertions.
var (
	requiredMarkers = []string{
		"from playwright.sync_api import sync_playwright",
		"with sync_playwright() as p:",
		"browser = p.chromium.launch",
		"page = browser.new_page()",
	}

	forbiddenMarkers = map[string]string{
		"headless=True": "browser must stay visible; launch with headless=False",
		"assert page.":  "use expect() helpers instead of raw assertions",
	}
)

// CheckShape validates script source against the fixed marker checklist.
func CheckShape(source string) *Result {
	var violations []Violation

	for _, marker := range requiredMarkers {
		if !strings.Contains(source, marker) {
			violations = append(violations, Violation{
				Rule:       "missing_marker",
				Severity:   "error",
				Message:    fmt.Sprintf("script is missing required element: %s", marker),
				Suggestion: fmt.Sprintf("include %q", marker),
			})
		}
	}

	for marker, hint := range forbiddenMarkers {
		if strings.Contains(source, marker) {
			violations = append(violations, Violation{
				Rule:       "forbidden_marker",
				Severity:   "error",
				Message:    fmt.Sprintf("script contains forbidden element: %s", marker),
				Suggestion: hint,
			})
		}
	}

	if len(violations) > 0 {
		return NewFailingResult(violations, []string{
			"Return ONLY valid Python code using the sync_playwright context manager",
		})
	}
	return NewPassingResult()
}
