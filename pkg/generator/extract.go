package generator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var trailingCommas = regexp.MustCompile(`,(\s*[}\]])`)

// ExtractJSON pulls a flat JSON object out of a model completion. Models
// wrap their output in markdown fences or prose often enough that strict
// parsing alone would fail many otherwise usable responses.
func ExtractJSON(text string) (map[string]string, error) {
	text = stripFences(strings.TrimSpace(text))

	files := make(map[string]string)
	if err := json.Unmarshal([]byte(text), &files); err == nil {
		return files, nil
	}

	// Cut everything outside the outermost braces.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}
	text = text[start : end+1]

	text = trailingCommas.ReplaceAllString(text, "$1")

	files = make(map[string]string)
	if err := json.Unmarshal([]byte(text), &files); err != nil {
		return nil, fmt.Errorf("parse model response as JSON: %w", err)
	}

	return files, nil
}

// stripFences removes a leading ``` or ```json line and a trailing ``` line.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}

	return strings.Join(lines, "\n")
}
