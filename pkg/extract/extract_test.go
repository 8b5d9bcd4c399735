package extract

import "testing"

func TestCleanStripsFenceAndTrailingCommas(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "plain json untouched",
			raw:      `[{"id": 1}]`,
			expected: `[{"id": 1}]`,
		},
		{
			name:     "json fence with language tag",
			raw:      "```json\n[{\"id\": 1}]\n```",
			expected: `[{"id": 1}]`,
		},
		{
			name:     "fence without language tag",
			raw:      "```\n[{\"id\": 1}]\n```",
			expected: `[{"id": 1}]`,
		},
		{
			name:     "trailing comma before bracket",
			raw:      `[{"id": 1},]`,
			expected: `[{"id": 1}]`,
		},
		{
			name:     "trailing comma before brace",
			raw:      `[{"id": 1,}]`,
			expected: `[{"id": 1}]`,
		},
		{
			name:     "surrounding whitespace",
			raw:      "  \n[1, 2]\n ",
			expected: "[1, 2]",
		},
		{
			name:     "no structure at all",
			raw:      "I could not produce a plan.",
			expected: "I could not produce a plan.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.raw); got != tt.expected {
				t.Errorf("Clean() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestArrayExtractsFirstBalancedRegion(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "junk prefix and suffix",
			raw:      "Here is the plan: [{\"id\": 1}] hope that helps!",
			expected: `[{"id": 1}]`,
		},
		{
			name:     "nested arrays do not end the scan early",
			raw:      `[{"id": 1, "tags": ["a", "b"]}, {"id": 2}] trailing`,
			expected: `[{"id": 1, "tags": ["a", "b"]}, {"id": 2}]`,
		},
		{
			name:     "unbalanced bracket returns cleaned text",
			raw:      `[{"id": 1}`,
			expected: `[{"id": 1}`,
		},
		{
			name:     "no bracket returns cleaned text",
			raw:      "nothing structured here",
			expected: "nothing structured here",
		},
		{
			name:     "fenced array with commentary",
			raw:      "Sure!\n```json\n[{\"id\": 1},]\n```",
			expected: `[{"id": 1}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Array(tt.raw); got != tt.expected {
				t.Errorf("Array() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCodeKeepsCommas(t *testing.T) {
	raw := "```python\npage.goto('https://example.com', timeout=60000,)\n```"
	expected := "page.goto('https://example.com', timeout=60000,)"
	if got := Code(raw); got != expected {
		t.Errorf("Code() = %q, want %q", got, expected)
	}
}
