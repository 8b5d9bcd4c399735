// Package repair turns gate violations into corrective action: enriched
// prompts for the oracle, and deterministic line rewrites when the oracle
// is exhausted.
package repair

import (
	"fmt"
	"strings"

	"github.com/zen-systems/scriptflow/pkg/gate"
)

// Prompt builds the enriched retry prompt for a failed attempt. The prior
// candidate and its violations are injected so the oracle can self-correct.
func Prompt(candidate string, result *gate.Result) string {
	var sb strings.Builder

	sb.WriteString("The following output failed quality checks:\n\n")
	sb.WriteString("---\n")
	sb.WriteString(candidate)
	sb.WriteString("\n---\n\n")

	sb.WriteString("Issues found:\n")
	for _, v := range result.Violations {
		sb.WriteString(fmt.Sprintf("- [%s] %s: %s\n", v.Severity, v.Rule, v.Message))
		if v.Suggestion != "" {
			sb.WriteString(fmt.Sprintf("  Suggestion: %s\n", v.Suggestion))
		}
	}

	if len(result.RepairHints) > 0 {
		sb.WriteString("\nRepair hints:\n")
		for _, hint := range result.RepairHints {
			sb.WriteString(fmt.Sprintf("- %s\n", hint))
		}
	}

	sb.WriteString("\nPlease fix all issues and provide the corrected output.")

	return sb.String()
}

// IssuePrompt builds the repair-stage prompt: the script plus the issue list
// from static inspection.
func IssuePrompt(script string, violations []gate.Violation) string {
	var sb strings.Builder

	sb.WriteString("You are a senior QA engineer specializing in Playwright. Fix the following issues in this test script:\n\n")
	sb.WriteString("Issues found:\n")
	for _, v := range violations {
		sb.WriteString(fmt.Sprintf("- %s\n", v.Message))
	}
	sb.WriteString("\nScript to fix:\n")
	sb.WriteString(script)
	sb.WriteString("\n\nReturn ONLY the corrected Python code, no explanations or markdown.")

	return sb.String()
}

// PolishPrompt builds the unconditioned final-review prompt used on scripts
// that already pass inspection.
func PolishPrompt(script string) string {
	var sb strings.Builder

	sb.WriteString("You are a senior QA engineer. Review this Playwright pytest script:\n\n")
	sb.WriteString(script)
	sb.WriteString("\n\nCheck for errors, bad imports, wrong Playwright usage, or invalid pytest code.\n")
	sb.WriteString("If there are problems, FIX them and return the corrected script.\n")
	sb.WriteString("If it's valid, return it unchanged.\n")
	sb.WriteString("Return ONLY Python code, no explanations or markdown.")

	return sb.String()
}
