package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sitesmith/deploy/pkg/deployment"
	"github.com/sitesmith/deploy/pkg/retry"
	"github.com/sitesmith/deploy/pkg/telemetry"
)

const (
	defaultTimeout = 30 * time.Second
	submitAttempts = 5
)

// Reporter delivers deployment reports to the evaluation endpoint named in
// the originating request.
type Reporter interface {
	Submit(ctx context.Context, url string, report *deployment.Report) error
}

type reporter struct {
	client *http.Client
	policy retry.Policy
}

// New returns a Reporter with the standard five attempt exponential policy.
func New(timeout time.Duration) Reporter {
	return NewWithPolicy(timeout, retry.Policy{
		Attempts: submitAttempts,
		Schedule: retry.Exponential(time.Second),
	})
}

func NewWithPolicy(timeout time.Duration, policy retry.Policy) Reporter {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &reporter{
		client: &http.Client{
			Timeout: timeout,
		},
		policy: policy,
	}
}

func (r *reporter) Submit(ctx context.Context, url string, report *deployment.Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	attempt := 0
	return retry.Do(ctx, r.policy, func(ctx context.Context) error {
		attempt++
		err := r.post(ctx, url, body)
		if err != nil {
			log.WithFields(report.LogFields()).Warnf("Evaluation report attempt %d of %d: %s", attempt, r.policy.Attempts, err)
		}
		return err
	})
}

func (r *reporter) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if parent := telemetry.TraceParentHeader(ctx); parent != "" {
		req.Header.Set("traceparent", parent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// The evaluator acknowledges receipt with 200 and nothing else.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("evaluation endpoint answered %s", resp.Status)
	}

	return nil
}
