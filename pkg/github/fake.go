package github

import (
	"context"

	"github.com/sitesmith/deploy/pkg/deployment"
)

type fakeClient struct{}

// FakeClient returns a Client that fails every operation with ErrNotConfigured.
func FakeClient() Client {
	return &fakeClient{}
}

func (c *fakeClient) CreateRepository(ctx context.Context, name, dir string) (*deployment.Repository, error) {
	return nil, ErrNotConfigured
}

func (c *fakeClient) EnablePages(ctx context.Context, repo *deployment.Repository) (string, error) {
	return "", ErrNotConfigured
}

func (c *fakeClient) CloneRepository(ctx context.Context, name, dir string) error {
	return ErrNotConfigured
}

func (c *fakeClient) UpdateRepository(ctx context.Context, dir, message string) (string, error) {
	return "", ErrNotConfigured
}
