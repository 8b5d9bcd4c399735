package script

import (
	"regexp"

	"github.com/zen-systems/scriptflow/pkg/plan"
)

var urlToken = regexp.MustCompile(`https?://[^\s'"]+`)

// TargetURL scans plan step text for the first URL-shaped token, falling back
// to the placeholder endpoint when none is present.
func TargetURL(p plan.Plan) string {
	for _, step := range p {
		if match := urlToken.FindString(step.Description); match != "" {
			return match
		}
	}
	return PlaceholderURL
}
