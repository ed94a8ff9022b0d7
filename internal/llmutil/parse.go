// Package llmutil holds helpers for cleaning and decoding LLM output.
package llmutil

import (
	"fmt"
	"strings"
)

// StripMarkdownJSON extracts a JSON object from an LLM response that may
// contain markdown code fences or leading prose. It trims whitespace, strips
// ```json and ``` fences, and cuts to the first '{'.
// Returns an error if no '{' is found in the text.
func StripMarkdownJSON(text string) (string, error) {
	content := strings.TrimSpace(text)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.IndexByte(content, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in text")
	}
	return content[start:], nil
}
