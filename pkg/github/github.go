package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"github.com/sitesmith/deploy/pkg/deployment"
	"github.com/sitesmith/deploy/pkg/smithd/metrics"
)

var ErrNotConfigured = fmt.Errorf("GitHub publishing is not configured")

const commitAuthorDomain = "users.noreply.github.com"

// Client publishes generated source trees as GitHub repositories.
type Client interface {
	CreateRepository(ctx context.Context, name, dir string) (*deployment.Repository, error)
	EnablePages(ctx context.Context, repo *deployment.Repository) (string, error)
	CloneRepository(ctx context.Context, name, dir string) error
	UpdateRepository(ctx context.Context, dir, message string) (string, error)
}

type Config struct {
	Username string
	Token    string

	// APIURL overrides the GitHub API base URL. Leave empty for github.com.
	APIURL string

	// Runner overrides how git is executed. Leave empty for the git CLI.
	Runner Runner
}

type client struct {
	api      *gh.Client
	runner   Runner
	username string
	token    string
}

func New(cfg Config) (Client, error) {
	if cfg.Username == "" || cfg.Token == "" {
		return nil, ErrNotConfigured
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.Token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	api := gh.NewClient(tc)
	if cfg.APIURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse GitHub API URL: %w", err)
		}
		api.BaseURL = base
	}

	runner := cfg.Runner
	if runner == nil {
		runner = execRunner{}
	}

	return &client{
		api:      api,
		runner:   runner,
		username: cfg.Username,
		token:    cfg.Token,
	}, nil
}

func (c *client) CreateRepository(ctx context.Context, name, dir string) (*deployment.Repository, error) {
	prepare := [][]string{
		{"init"},
		{"config", "user.name", c.username},
		{"config", "user.email", c.commitAuthor()},
		{"branch", "-M", deployment.DefaultBranch},
		{"add", "."},
		{"commit", "-m", "Initial commit"},
	}
	for _, args := range prepare {
		if _, err := c.git(ctx, dir, args...); err != nil {
			return nil, &Error{Op: OpCreate, Err: err}
		}
	}

	_, resp, err := c.api.Repositories.Create(ctx, "", &gh.Repository{
		Name:    gh.String(name),
		Private: gh.Bool(false),
	})
	if resp != nil {
		metrics.GitHubRequest(resp.StatusCode)
	}
	if err != nil {
		return nil, &Error{Op: OpCreate, Err: err}
	}

	push := [][]string{
		{"remote", "add", "origin", c.remoteURL(name)},
		{"push", "-u", "origin", deployment.DefaultBranch},
	}
	for _, args := range push {
		if _, err := c.git(ctx, dir, args...); err != nil {
			return nil, &Error{Op: OpPush, Err: err}
		}
	}

	sha, err := c.headSHA(ctx, dir)
	if err != nil {
		return nil, &Error{Op: OpPush, Err: err}
	}

	repo := deployment.NewRepository(c.username, name)
	repo.CommitSHA = sha

	return repo, nil
}

func (c *client) EnablePages(ctx context.Context, repo *deployment.Repository) (string, error) {
	pages := &gh.Pages{
		Source: &gh.PagesSource{
			Branch: gh.String(repo.DefaultBranch),
			Path:   gh.String("/"),
		},
	}

	_, resp, err := c.api.Repositories.EnablePages(ctx, repo.Owner, repo.Name, pages)
	if resp != nil {
		metrics.GitHubRequest(resp.StatusCode)
	}
	if err != nil {
		// 409 means Pages is already enabled for this repository.
		if resp == nil || resp.StatusCode != http.StatusConflict {
			return "", &Error{Op: OpEnablePages, Err: err}
		}
	}

	return repo.PagesURL, nil
}

func (c *client) CloneRepository(ctx context.Context, name, dir string) error {
	_, err := c.git(ctx, "", "clone", c.remoteURL(name), dir)
	if err != nil {
		return &Error{Op: OpClone, Err: err}
	}
	return nil
}

func (c *client) UpdateRepository(ctx context.Context, dir, message string) (string, error) {
	prepare := [][]string{
		{"config", "user.name", c.username},
		{"config", "user.email", c.commitAuthor()},
		{"add", "."},
	}
	for _, args := range prepare {
		if _, err := c.git(ctx, dir, args...); err != nil {
			return "", &Error{Op: OpUpdate, Err: err}
		}
	}

	// Exits non-zero when the index holds staged changes.
	if _, err := c.git(ctx, dir, "diff", "--staged", "--quiet"); err != nil {
		commands := [][]string{
			{"commit", "-m", message},
			{"push", "origin", deployment.DefaultBranch},
		}
		for _, args := range commands {
			if _, err := c.git(ctx, dir, args...); err != nil {
				return "", &Error{Op: OpUpdate, Err: err}
			}
		}
	}

	sha, err := c.headSHA(ctx, dir)
	if err != nil {
		return "", &Error{Op: OpUpdate, Err: err}
	}

	return sha, nil
}

func (c *client) git(ctx context.Context, dir string, args ...string) ([]byte, error) {
	out, err := c.runner.Run(ctx, dir, args...)
	if err != nil {
		output := c.redact(out)
		if output != "" {
			return out, fmt.Errorf("git %s: %s: %s", args[0], err, output)
		}
		return out, fmt.Errorf("git %s: %s", args[0], err)
	}
	return out, nil
}

func (c *client) headSHA(ctx context.Context, dir string) (string, error) {
	out, err := c.git(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (c *client) remoteURL(name string) string {
	return fmt.Sprintf("https://%s@github.com/%s/%s.git", c.token, c.username, name)
}

func (c *client) commitAuthor() string {
	return fmt.Sprintf("%s@%s", c.username, commitAuthorDomain)
}

// Command output may echo the remote URL, which embeds the token.
func (c *client) redact(output []byte) string {
	s := strings.TrimSpace(string(output))
	if c.token != "" {
		s = strings.ReplaceAll(s, c.token, "***")
	}
	return s
}
