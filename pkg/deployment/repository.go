package deployment

import (
	"fmt"
)

const DefaultBranch = "main"

// Repository identifies a created remote repository. The handle outlives
// the pipeline run that created it; remotes are never deleted by this
// system, not even when a later stage fails.
type Repository struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	DefaultBranch string `json:"default_branch"`
	URL           string `json:"url"`
	PagesURL      string `json:"pages_url"`
	CommitSHA     string `json:"commit_sha"`
}

func NewRepository(owner, name string) *Repository {
	return &Repository{
		Owner:         owner,
		Name:          name,
		DefaultBranch: DefaultBranch,
		URL:           fmt.Sprintf("https://github.com/%s/%s", owner, name),
		PagesURL:      fmt.Sprintf("https://%s.github.io/%s/", owner, name),
	}
}

func (r *Repository) FullName() string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

func (r *Repository) Valid() bool {
	return r != nil && len(r.Owner) > 0 && len(r.Name) > 0
}
