package script

import (
	"regexp"
	"strings"

	"github.com/zen-systems/scriptflow/pkg/plan"
)

var (
	importLine = regexp.MustCompile(`(?m)^(import\s+.+|from\s+.+\s+import\s+.+)$`)

	// The recorder emits a run function wrapping the captured actions.
	runBlock = regexp.MustCompile(`(?s)def run\(playwright: Playwright\) -> None:\n(.*?)(\n\n|\nwith sync_playwright|\z)`)
	anyBlock = regexp.MustCompile(`(?s)def \w+.*?:\n(.*?)(\n\n|\nwith sync_playwright|\z)`)
)

// Setup and teardown lines the recorder emits around the action block. The
// wrapper provides its own, so these are stripped.
var setupTeardown = []string{
	"browser = playwright.chromium.launch",
	"context = browser.new_context()",
	"page = context.new_page()",
	"context.close()",
	"browser.close()",
}

// Recompose converts raw recorder output into the wrapper shape: non-library
// imports carried verbatim, the action block located and stripped of
// setup/teardown, remaining action lines reindented under the wrapper. ok is
// false when no recognizable action block exists.
func Recompose(recorded string, p plan.Plan) (source string, ok bool) {
	block := runBlock.FindStringSubmatch(recorded)
	if block == nil {
		block = anyBlock.FindStringSubmatch(recorded)
	}
	if block == nil {
		return "", false
	}

	actions := extractActionLines(block[1])
	if len(actions) == 0 {
		return "", false
	}

	return Compose(actions, extractImports(recorded), p), true
}

func extractActionLines(body string) []string {
	var actions []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isSetupTeardown(line) {
			continue
		}
		actions = append(actions, line)
	}
	return actions
}

func isSetupTeardown(line string) bool {
	for _, marker := range setupTeardown {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

// extractImports returns the recorded code's import statements, skipping
// playwright's own: the wrapper supplies those.
func extractImports(recorded string) []string {
	var imports []string
	for _, line := range importLine.FindAllString(recorded, -1) {
		line = strings.TrimSpace(line)
		if strings.Contains(line, "playwright") {
			continue
		}
		imports = append(imports, line)
	}
	return imports
}
