// Package generator turns a deployment brief into application sources by
// prompting a code generation model and validating its structured response.
package generator

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sitesmith/deploy/pkg/deployment"
	"github.com/sitesmith/deploy/pkg/llm"
)

type Generator interface {
	// Generate produces the sources for a fresh application.
	Generate(ctx context.Context, brief string, checks []string, attachments []deployment.Attachment) (*ArtifactSet, error)

	// Improve produces upgraded sources given the application's existing
	// files, keyed by path relative to the repository root.
	Improve(ctx context.Context, brief string, checks []string, attachments []deployment.Attachment, existing map[string]string) (*ArtifactSet, error)
}

type generator struct {
	client llm.Client
}

func New(client llm.Client) Generator {
	return &generator{
		client: client,
	}
}

var jsonResponseFormat = map[string]string{"type": "json_object"}

func (g *generator) Generate(ctx context.Context, brief string, checks []string, attachments []deployment.Attachment) (*ArtifactSet, error) {
	prompt, err := initialPrompt(brief, checks, attachments)
	if err != nil {
		return nil, fmt.Errorf("render generation prompt: %w", err)
	}

	return g.complete(ctx, prompt)
}

func (g *generator) Improve(ctx context.Context, brief string, checks []string, attachments []deployment.Attachment, existing map[string]string) (*ArtifactSet, error) {
	prompt, err := upgradePrompt(brief, checks, attachments, existing)
	if err != nil {
		return nil, fmt.Errorf("render upgrade prompt: %w", err)
	}

	return g.complete(ctx, prompt)
}

// One model call per deployment round; a failed completion is terminal
// for the run.
func (g *generator) complete(ctx context.Context, prompt string) (*ArtifactSet, error) {
	response, err := g.client.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: prompt},
		},
		ResponseFormat: jsonResponseFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("model call: %w", err)
	}

	log.Tracef("Model response of %d bytes", len(response.Content))

	files, err := ExtractJSON(response.Content)
	if err != nil {
		return nil, err
	}

	return artifactSetFromFiles(files)
}
