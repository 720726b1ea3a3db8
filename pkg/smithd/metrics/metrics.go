package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "sitesmith"
	subsystem = "smithd"

	labelStage      = "stage"
	labelStatus     = "status"
	labelStatusCode = "status_code"
	labelRound      = "round"
)

func counter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name:      name,
		Help:      help,
		Namespace: namespace,
		Subsystem: subsystem,
	})
}

var (
	DeploySuccessful = counter("deploy_successful", "number of deployments that completed and were reported")
	PipelinePanics   = counter("pipeline_panics", "number of deployment runs aborted by a panic")

	deployFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "deploy_failed",
		Help:      "number of failed deployments",
		Namespace: namespace,
		Subsystem: subsystem,
	},
		[]string{
			labelStage,
		},
	)

	githubRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "github_requests",
		Help:      "number of GitHub API requests made",
		Namespace: namespace,
		Subsystem: subsystem,
	},
		[]string{
			labelStatusCode,
		},
	)

	pipelineDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:      "pipeline_duration_seconds",
		Help:      "time from accepted request to terminal pipeline state",
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	},
		[]string{
			labelRound,
		},
	)

	evaluationsReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "evaluations_received",
		Help:      "number of evaluation reports posted to the notify endpoint",
		Namespace: namespace,
		Subsystem: subsystem,
	},
		[]string{
			labelStatus,
		},
	)
)

func DeployFailed(stage string) {
	deployFailed.With(prometheus.Labels{
		labelStage: stage,
	}).Inc()
}

func GitHubRequest(statusCode int) {
	githubRequests.With(prometheus.Labels{
		labelStatusCode: strconv.Itoa(statusCode),
	}).Inc()
}

func PipelineCompleted(round int, started time.Time) {
	pipelineDuration.With(prometheus.Labels{
		labelRound: strconv.Itoa(round),
	}).Observe(time.Since(started).Seconds())
}

func EvaluationReceived(status string) {
	evaluationsReceived.With(prometheus.Labels{
		labelStatus: status,
	}).Inc()
}

func init() {
	prometheus.MustRegister(DeploySuccessful)
	prometheus.MustRegister(PipelinePanics)
	prometheus.MustRegister(deployFailed)
	prometheus.MustRegister(githubRequests)
	prometheus.MustRegister(pipelineDuration)
	prometheus.MustRegister(evaluationsReceived)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
