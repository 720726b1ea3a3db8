package deployment_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sitesmith/deploy/pkg/deployment"
)

// Caller identity must be echoed back byte for byte.
func TestReportEchoesRequestIdentity(t *testing.T) {
	request := validRequest()
	repo := deployment.NewRepository("siteowner", request.RepoName())
	repo.CommitSHA = "deadbeef"

	report := deployment.NewSuccessReport(request, repo, true)

	assert.Equal(t, request.Email, report.Email)
	assert.Equal(t, request.Task, report.Task)
	assert.Equal(t, request.Round, report.Round)
	assert.Equal(t, request.Nonce, report.Nonce)

	assert.Equal(t, deployment.StatusSuccess, report.Status)
	assert.Empty(t, report.Stage)
	assert.True(t, report.PagesLive)
	assert.Equal(t, "https://github.com/siteowner/markdown-to-html-ab12", report.RepoURL)
	assert.Equal(t, "https://siteowner.github.io/markdown-to-html-ab12/", report.PagesURL)
	assert.Equal(t, "deadbeef", report.CommitSHA)
	assert.InDelta(t, time.Now().Unix(), report.Timestamp, 5)
}

func TestFailureReportWithoutRepository(t *testing.T) {
	request := validRequest()

	report := deployment.NewFailureReport(request, nil, "generation")

	assert.Equal(t, deployment.StatusFailed, report.Status)
	assert.Equal(t, "generation", report.Stage)
	assert.False(t, report.PagesLive)
	assert.Empty(t, report.RepoURL)
	assert.Empty(t, report.CommitSHA)
	assert.Empty(t, report.PagesURL)
}

func TestReportValidate(t *testing.T) {
	request := validRequest()
	repo := deployment.NewRepository("siteowner", request.RepoName())
	repo.CommitSHA = "deadbeef"

	report := deployment.NewSuccessReport(request, repo, true)
	assert.NoError(t, report.Validate())

	report.CommitSHA = ""
	assert.EqualError(t, report.Validate(), "no commit_sha specified")

	report = deployment.NewFailureReport(request, nil, "generation")
	assert.Error(t, report.Validate())
}

func TestRepositoryFullName(t *testing.T) {
	repo := deployment.NewRepository("foo", "bar")
	assert.Equal(t, "foo/bar", repo.FullName())
	assert.True(t, repo.Valid())

	var missing *deployment.Repository
	assert.Equal(t, "", missing.FullName())
	assert.False(t, missing.Valid())
}
