package generator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sitesmith/deploy/pkg/generator"
)

func TestExtractJSON(t *testing.T) {
	expected := map[string]string{
		"index.html": "<!DOCTYPE html>",
		"readme":     "# Demo",
	}

	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "plain object",
			input: `{"index.html": "<!DOCTYPE html>", "readme": "# Demo"}`,
		},
		{
			name: "fenced with language tag",
			input: "```json\n" +
				`{"index.html": "<!DOCTYPE html>", "readme": "# Demo"}` +
				"\n```",
		},
		{
			name: "fenced without language tag",
			input: "```\n" +
				`{"index.html": "<!DOCTYPE html>", "readme": "# Demo"}` +
				"\n```",
		},
		{
			name:  "prose around the object",
			input: `Here is the JSON you asked for: {"index.html": "<!DOCTYPE html>", "readme": "# Demo"} Hope it helps!`,
		},
		{
			name: "trailing comma",
			input: `{"index.html": "<!DOCTYPE html>", "readme": "# Demo",
}`,
		},
		{
			name: "surrounding whitespace",
			input: `
   {"index.html": "<!DOCTYPE html>", "readme": "# Demo"}
`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			files, err := generator.ExtractJSON(test.input)
			assert.NoError(t, err)
			assert.Equal(t, expected, files)
		})
	}
}

func TestExtractJSONErrors(t *testing.T) {
	t.Run("no object at all", func(t *testing.T) {
		_, err := generator.ExtractJSON("I could not produce the files, sorry.")
		assert.EqualError(t, err, "no JSON object in model response")
	})

	t.Run("unbalanced braces", func(t *testing.T) {
		_, err := generator.ExtractJSON(`{"index.html": "<!DOCTYPE html>"`)
		assert.Error(t, err)
	})

	t.Run("object with non-string values", func(t *testing.T) {
		_, err := generator.ExtractJSON(`{"index.html": 42}`)
		assert.ErrorContains(t, err, "parse model response as JSON")
	})
}
