package pagewait

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultMaxWait      = 5 * time.Minute
	DefaultPollInterval = 10 * time.Second
)

// Waiter blocks until a published page answers with HTTP 200.
type Waiter interface {
	AwaitLive(ctx context.Context, url string) bool
}

type waiter struct {
	maxWait      time.Duration
	pollInterval time.Duration
	client       *http.Client
}

func New(maxWait, pollInterval time.Duration) Waiter {
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &waiter{
		maxWait:      maxWait,
		pollInterval: pollInterval,
		client: &http.Client{
			Timeout: pollInterval,
		},
	}
}

// AwaitLive polls url until it answers 200 OK or the wait budget runs out.
// Running out of budget is an expected outcome, not an error.
func (w *waiter) AwaitLive(ctx context.Context, url string) bool {
	started := time.Now()
	deadline := started.Add(w.maxWait)

	for i := 0; time.Now().Before(deadline); i++ {
		if w.live(ctx, url) {
			log.Infof("Page at %s came live after %s", url, time.Since(started).Truncate(time.Second))
			return true
		}

		// With the default poll interval this logs every 30 seconds.
		if i%3 == 0 {
			log.Infof("Waiting for page at %s to come live (%s elapsed)", url, time.Since(started).Truncate(time.Second))
		}

		select {
		case <-time.After(w.pollInterval):
		case <-ctx.Done():
			return false
		}
	}

	log.Warnf("Page at %s did not come live within %s", url, w.maxWait)
	return false
}

func (w *waiter) live(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
