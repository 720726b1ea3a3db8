package deployment

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// Attachment is an input asset referenced by the brief. The URL is either
// an ordinary link or a data URI carrying the payload inline.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (a Attachment) IsDataURI() bool {
	return strings.HasPrefix(a.URL, "data:")
}

// DecodeDataURI returns the media type and decoded payload of a data URI
// attachment.
func (a Attachment) DecodeDataURI() (string, []byte, error) {
	if !a.IsDataURI() {
		return "", nil, fmt.Errorf("attachment %q is not a data URI", a.Name)
	}

	header, payload, found := strings.Cut(a.URL, ",")
	if !found {
		return "", nil, fmt.Errorf("attachment %q has a malformed data URI", a.Name)
	}

	mediaType := strings.TrimPrefix(header, "data:")
	mediaType, _, _ = strings.Cut(mediaType, ";")

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("attachment %q: decode base64 payload: %w", a.Name, err)
	}

	return mediaType, data, nil
}

// DeploymentRequest is the inbound request body. Email, task, round and
// nonce are opaque caller identity echoed back in the evaluation report.
type DeploymentRequest struct {
	Email         string       `json:"email"`
	Secret        string       `json:"secret,omitempty"`
	Task          string       `json:"task"`
	Round         int          `json:"round"`
	Nonce         string       `json:"nonce"`
	Brief         string       `json:"brief"`
	Checks        []string     `json:"checks"`
	EvaluationURL string       `json:"evaluation_url"`
	Attachments   []Attachment `json:"attachments,omitempty"`
}

func (r *DeploymentRequest) Validate() error {
	if len(r.Email) == 0 {
		return fmt.Errorf("no email specified")
	}

	if len(r.Task) == 0 {
		return fmt.Errorf("no task specified")
	}

	if r.Round < 1 {
		return fmt.Errorf("round must be a positive integer")
	}

	if len(r.Nonce) == 0 {
		return fmt.Errorf("no nonce specified")
	}

	if len(r.Brief) == 0 {
		return fmt.Errorf("no brief specified")
	}

	if len(r.EvaluationURL) == 0 {
		return fmt.Errorf("no evaluation_url specified")
	}

	u, err := url.Parse(r.EvaluationURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("evaluation_url must be an absolute http(s) URL")
	}

	return nil
}

// RepoName derives the repository name for this request. The nonce is
// unique per submission, so concurrent deployments never collide.
func (r *DeploymentRequest) RepoName() string {
	return strings.ReplaceAll(fmt.Sprintf("%s-%s", r.Task, r.Nonce), " ", "-")
}
