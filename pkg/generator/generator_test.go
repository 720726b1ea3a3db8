package generator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sitesmith/deploy/pkg/deployment"
	"github.com/sitesmith/deploy/pkg/generator"
	"github.com/sitesmith/deploy/pkg/llm"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(llm.ChatResponse), args.Error(1)
}

const completeResponse = `{
	"index.html": "<!DOCTYPE html><html></html>",
	"styles.css": "body { margin: 0 }",
	"script.js": "console.log('ready')",
	"readme": "## Features"
}`

func TestGenerate(t *testing.T) {
	var prompt string

	client := &mockLLM{}
	client.On("Chat", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			req := args.Get(1).(llm.ChatRequest)
			assert.Len(t, req.Messages, 1)
			prompt = req.Messages[0].Content
		}).
		Return(llm.ChatResponse{Content: completeResponse}, nil).
		Once()

	gen := generator.New(client)
	set, err := gen.Generate(context.Background(),
		"Build a <b>bold</b> markdown editor",
		[]string{"document.querySelector('#editor') !== null", "typeof render === 'function'"},
		[]deployment.Attachment{
			{Name: "logo.png", URL: "data:image/png;base64,aGVsbG8="},
			{Name: "spec.pdf", URL: "https://example.com/spec.pdf"},
		},
	)

	assert.NoError(t, err)
	assert.Equal(t, "<!DOCTYPE html><html></html>", set.Markup)
	assert.Equal(t, "body { margin: 0 }", set.Stylesheet)
	assert.Equal(t, "console.log('ready')", set.Script)
	assert.Equal(t, "## Features", set.ReadmeBody)

	// The brief goes in verbatim, without HTML escaping.
	assert.Contains(t, prompt, "Build a <b>bold</b> markdown editor")
	assert.Contains(t, prompt, "document.querySelector('#editor') !== null")
	assert.Contains(t, prompt, "typeof render === 'function'")
	assert.Contains(t, prompt, "logo.png (image/png, 5 bytes, committed alongside the sources)")
	assert.Contains(t, prompt, "spec.pdf (external, https://example.com/spec.pdf)")

	client.AssertExpectations(t)
}

func TestGenerateIncompleteArtifacts(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{
			name:     "missing fields",
			response: `{"index.html": "<!DOCTYPE html>", "readme": "# Demo"}`,
		},
		{
			name: "blank field",
			response: `{
				"index.html": "<!DOCTYPE html>",
				"styles.css": "   ",
				"script.js": "console.log('ready')",
				"readme": "# Demo"
			}`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			client := &mockLLM{}
			client.On("Chat", mock.Anything, mock.Anything).
				Return(llm.ChatResponse{Content: test.response}, nil).
				Once()

			gen := generator.New(client)
			set, err := gen.Generate(context.Background(), "brief", nil, nil)

			assert.Nil(t, set)
			assert.ErrorIs(t, err, generator.ErrIncompleteArtifacts)
			client.AssertExpectations(t)
		})
	}
}

func TestGenerateFencedResponse(t *testing.T) {
	client := &mockLLM{}
	client.On("Chat", mock.Anything, mock.Anything).
		Return(llm.ChatResponse{Content: "```json\n" + completeResponse + "\n```"}, nil).
		Once()

	gen := generator.New(client)
	set, err := gen.Generate(context.Background(), "brief", nil, nil)

	assert.NoError(t, err)
	assert.NoError(t, set.Validate())
}

func TestGenerateModelError(t *testing.T) {
	client := &mockLLM{}
	client.On("Chat", mock.Anything, mock.Anything).
		Return(llm.ChatResponse{}, assert.AnError).
		Once()

	gen := generator.New(client)
	set, err := gen.Generate(context.Background(), "brief", nil, nil)

	assert.Nil(t, set)
	assert.ErrorIs(t, err, assert.AnError)

	// One attempt only; generation is never retried here.
	client.AssertNumberOfCalls(t, "Chat", 1)
}

func TestImprove(t *testing.T) {
	var prompt string

	client := &mockLLM{}
	client.On("Chat", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			prompt = args.Get(1).(llm.ChatRequest).Messages[0].Content
		}).
		Return(llm.ChatResponse{Content: completeResponse}, nil).
		Once()

	existing := map[string]string{
		"index.html": "<!DOCTYPE html><title>v1</title>",
		"script.js":  "console.log('v1')",
		"LICENSE":    "MIT License",
		".nojekyll":  "",
	}

	gen := generator.New(client)
	set, err := gen.Improve(context.Background(), "Add dark mode", []string{"document.body.classList.contains('dark')"}, nil, existing)

	assert.NoError(t, err)
	assert.NoError(t, set.Validate())

	assert.Contains(t, prompt, "Add dark mode")
	assert.Contains(t, prompt, "--- index.html ---")
	assert.Contains(t, prompt, "<!DOCTYPE html><title>v1</title>")
	assert.Contains(t, prompt, "console.log('v1')")

	// Boilerplate must not leak into the prompt.
	assert.NotContains(t, prompt, "MIT License")
	assert.NotContains(t, prompt, ".nojekyll")

	client.AssertExpectations(t)
}

func TestArtifactSetValidate(t *testing.T) {
	set := &generator.ArtifactSet{
		Markup:     "<!DOCTYPE html>",
		Stylesheet: "body {}",
		Script:     "void 0",
		ReadmeBody: "# Demo",
	}
	assert.NoError(t, set.Validate())

	set.Script = ""
	set.ReadmeBody = " "
	err := set.Validate()
	assert.ErrorIs(t, err, generator.ErrIncompleteArtifacts)
	assert.ErrorContains(t, err, "script.js, readme")
}
