// Package extract recovers structured payloads from raw oracle output.
//
// Oracles wrap answers in markdown fences, leave trailing commas, and append
// commentary around the structure they were asked for. Extraction is
// deliberately lenient: it never fails, and garbage passes through unchanged
// for the downstream validator to reject.
package extract

import (
	"regexp"
	"strings"
)

var (
	trailingCommaArray  = regexp.MustCompile(`,\s*]`)
	trailingCommaObject = regexp.MustCompile(`,\s*}`)
)

// Clean strips a single leading/trailing code-fence pair and removes trailing
// commas before closing brackets. It returns a best-effort candidate even when
// no structure is present.
func Clean(raw string) string {
	out := StripFence(raw)
	out = trailingCommaArray.ReplaceAllString(out, "]")
	out = trailingCommaObject.ReplaceAllString(out, "}")
	return strings.TrimSpace(out)
}

// Array cleans raw output and returns the first balanced bracketed region,
// tracking nesting depth so inner arrays do not terminate the scan early.
// When no balanced array is found the cleaned text is returned unmodified.
func Array(raw string) string {
	cleaned := Clean(raw)

	start := strings.IndexByte(cleaned, '[')
	if start == -1 {
		return cleaned
	}

	depth := 0
	for i := start; i < len(cleaned); i++ {
		switch cleaned[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return cleaned[start : i+1]
			}
		}
	}
	return cleaned
}

// Code strips markdown fencing from oracle-produced source code. Unlike Clean
// it leaves commas alone, since trailing commas are legal in most languages
// the pipeline emits.
func Code(raw string) string {
	return StripFence(raw)
}

// StripFence removes one leading and one trailing markdown fence marker pair,
// including a language tag on the opening fence.
func StripFence(raw string) string {
	out := strings.TrimSpace(raw)

	if strings.HasPrefix(out, "```") {
		if idx := strings.IndexByte(out, '\n'); idx != -1 {
			out = out[idx+1:]
		} else {
			out = strings.TrimPrefix(out, "```")
		}
	}
	if strings.HasSuffix(out, "```") {
		out = out[:len(out)-3]
	}
	return strings.TrimSpace(out)
}
