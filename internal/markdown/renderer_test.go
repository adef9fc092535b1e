package markdown

import (
	"strings"
	"testing"
)

func TestRenderer_Render(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Plain text",
			input:    "宝宝好可爱",
			expected: "<p>宝宝好可爱</p>\n",
		},
		{
			name:     "Hard wraps",
			input:    "line one\nline two",
			expected: "line one<br />\nline two",
		},
		{
			name:     "Emphasis",
			input:    "**健康** 成长",
			expected: "<strong>健康</strong>",
		},
		{
			name:     "Empty Input",
			input:    "",
			expected: "",
		},
		{
			name:     "Strikethrough",
			input:    "~~deleted~~",
			expected: "<del>deleted</del>",
		},
		{
			name:     "Autolink",
			input:    "Visit https://example.com for more",
			expected: "<a href=\"https://example.com\"",
		},
		{
			name:     "Raw HTML omitted",
			input:    "<script>alert(1)</script>",
			expected: "<!-- raw HTML omitted -->",
		},
	}

	renderer := NewRenderer()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := renderer.Render([]byte(tt.input))
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			got := string(output)
			if !strings.Contains(got, tt.expected) {
				t.Errorf("Render() = %v, want substring %v", got, tt.expected)
			}
		})
	}
}

func TestRenderer_Sanitizes(t *testing.T) {
	renderer := NewRenderer()

	got, err := renderer.RenderString("<img src=x onerror=alert(1)> [click](javascript:alert(1))")
	if err != nil {
		t.Fatalf("RenderString() error = %v", err)
	}
	if strings.Contains(got, "<img") || strings.Contains(got, "javascript:") {
		t.Errorf("Expected unsafe content removed, got %q", got)
	}
}
