package generator

import (
	"fmt"
	"sort"

	"github.com/aymerick/raymond"

	"github.com/sitesmith/deploy/pkg/deployment"
)

// Boilerplate files are kept out of upgrade prompts; the model only needs
// the application sources it is allowed to change.
var promptExcludedFiles = map[string]bool{
	"LICENSE":        true,
	".nojekyll":      true,
	".gitattributes": true,
}

const initialPromptSource = `You are a senior front-end developer building a static web application for GitHub Pages.

=== TASK BRIEF ===
{{{brief}}}

=== ACCEPTANCE CHECKS ===
The deployed page must pass every one of these checks, evaluated as JavaScript in the live browser DOM. Every element, ID, class and attribute a check queries must exist, and dynamic content must be rendered before the checks run.
{{#each checks}}
  - {{{this}}}
{{/each}}

=== ATTACHMENTS ===
{{#if attachments}}
{{#each attachments}}
  - {{{this}}}
{{/each}}
{{else}}
No attachments.
{{/if}}

=== TECHNICAL CONSTRAINTS ===
  - Vanilla JavaScript only, no frameworks and no build step.
  - The page must work when served as static files from a subdirectory.
  - Reference the stylesheet as styles.css and the script as script.js with relative paths.
  - No placeholder comments: every feature in the brief must actually work.

=== OUTPUT FORMAT ===
Respond with a single JSON object and nothing else: no markdown fences, no prose before or after. The object must contain exactly these four string fields:

{
  "index.html": "complete HTML5 document",
  "styles.css": "complete stylesheet",
  "script.js": "complete application script",
  "readme": "README body in markdown, starting at the first section below the title"
}`

const upgradePromptSource = `You are a senior front-end developer upgrading an existing static web application deployed on GitHub Pages.

=== EXISTING APPLICATION ===
{{#each existing}}
--- {{name}} ---
{{{content}}}

{{/each}}
=== NEW REQUIREMENTS ===
{{{brief}}}

=== UPDATED ACCEPTANCE CHECKS ===
The upgraded page must pass every one of these checks in addition to keeping all previous functionality intact:
{{#each checks}}
  - {{{this}}}
{{/each}}

=== NEW ATTACHMENTS ===
{{#if attachments}}
{{#each attachments}}
  - {{{this}}}
{{/each}}
{{else}}
No new attachments.
{{/if}}

=== OUTPUT FORMAT ===
Respond with a single JSON object and nothing else: no markdown fences, no prose before or after. Return the complete upgraded content of all four fields, not a diff:

{
  "index.html": "complete HTML5 document",
  "styles.css": "complete stylesheet",
  "script.js": "complete application script",
  "readme": "README body in markdown, starting at the first section below the title"
}`

var (
	initialTemplate = raymond.MustParse(initialPromptSource)
	upgradeTemplate = raymond.MustParse(upgradePromptSource)
)

func initialPrompt(brief string, checks []string, attachments []deployment.Attachment) (string, error) {
	return initialTemplate.Exec(map[string]interface{}{
		"brief":       brief,
		"checks":      checks,
		"attachments": attachmentSummaries(attachments),
	})
}

func upgradePrompt(brief string, checks []string, attachments []deployment.Attachment, existing map[string]string) (string, error) {
	names := make([]string, 0, len(existing))
	for name := range existing {
		if !promptExcludedFiles[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	sources := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		sources = append(sources, map[string]interface{}{
			"name":    name,
			"content": existing[name],
		})
	}

	return upgradeTemplate.Exec(map[string]interface{}{
		"brief":       brief,
		"checks":      checks,
		"attachments": attachmentSummaries(attachments),
		"existing":    sources,
	})
}

// attachmentSummaries describes attachments by name, media type and size.
// Payload bytes never go into the prompt.
func attachmentSummaries(attachments []deployment.Attachment) []string {
	summaries := make([]string, 0, len(attachments))
	for _, att := range attachments {
		if !att.IsDataURI() {
			summaries = append(summaries, fmt.Sprintf("%s (external, %s)", att.Name, att.URL))
			continue
		}

		mediaType, data, err := att.DecodeDataURI()
		if err != nil {
			summaries = append(summaries, att.Name)
			continue
		}
		summaries = append(summaries, fmt.Sprintf("%s (%s, %d bytes, committed alongside the sources)", att.Name, mediaType, len(data)))
	}
	return summaries
}
