package deployment

import (
	"fmt"
	"time"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Report is the payload posted to the caller's evaluation URL once a
// deployment reaches a terminal state. Email, task, round and nonce are
// echoed from the originating request, unmodified. Field names are part of
// the contract with evaluators and must not change.
type Report struct {
	Email     string `json:"email"`
	Task      string `json:"task"`
	Round     int    `json:"round"`
	Nonce     string `json:"nonce"`
	RepoURL   string `json:"repo_url,omitempty"`
	CommitSHA string `json:"commit_sha,omitempty"`
	PagesURL  string `json:"pages_url,omitempty"`
	PagesLive bool   `json:"pages_live"`
	Status    string `json:"status"`
	Stage     string `json:"stage,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func NewSuccessReport(req DeploymentRequest, repo *Repository, pagesLive bool) *Report {
	report := newReport(req, repo)
	report.Status = StatusSuccess
	report.PagesLive = pagesLive
	return report
}

// NewFailureReport describes a deployment that died at the given stage.
// The repository handle may be nil when the failure occurred before any
// remote state existed.
func NewFailureReport(req DeploymentRequest, repo *Repository, stage string) *Report {
	report := newReport(req, repo)
	report.Status = StatusFailed
	report.Stage = stage
	return report
}

func newReport(req DeploymentRequest, repo *Repository) *Report {
	report := &Report{
		Email:     req.Email,
		Task:      req.Task,
		Round:     req.Round,
		Nonce:     req.Nonce,
		Timestamp: time.Now().Unix(),
	}
	if repo != nil {
		report.RepoURL = repo.URL
		report.CommitSHA = repo.CommitSHA
		report.PagesURL = repo.PagesURL
	}
	return report
}

// Validate checks the fields an evaluation receiver requires.
func (r *Report) Validate() error {
	if len(r.Email) == 0 {
		return fmt.Errorf("no email specified")
	}

	if len(r.Task) == 0 {
		return fmt.Errorf("no task specified")
	}

	if len(r.Nonce) == 0 {
		return fmt.Errorf("no nonce specified")
	}

	if len(r.RepoURL) == 0 {
		return fmt.Errorf("no repo_url specified")
	}

	if len(r.CommitSHA) == 0 {
		return fmt.Errorf("no commit_sha specified")
	}

	if len(r.PagesURL) == 0 {
		return fmt.Errorf("no pages_url specified")
	}

	return nil
}
