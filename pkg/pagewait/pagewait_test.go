package pagewait_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sitesmith/deploy/pkg/pagewait"
)

func TestAwaitLive(t *testing.T) {
	var hits int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	waiter := pagewait.New(time.Second, 10*time.Millisecond)

	assert.True(t, waiter.AwaitLive(context.Background(), srv.URL))
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestAwaitLiveBudgetExhausted(t *testing.T) {
	// 202 is what Pages answers while still building; only 200 counts as live.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	waiter := pagewait.New(50*time.Millisecond, 10*time.Millisecond)
	started := time.Now()

	assert.False(t, waiter.AwaitLive(context.Background(), srv.URL))
	assert.Less(t, time.Since(started), time.Second)
}

func TestAwaitLiveCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	waiter := pagewait.New(time.Minute, 20*time.Millisecond)
	started := time.Now()

	assert.False(t, waiter.AwaitLive(ctx, srv.URL))
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestAwaitLiveUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	waiter := pagewait.New(40*time.Millisecond, 10*time.Millisecond)

	assert.False(t, waiter.AwaitLive(context.Background(), url))
}
