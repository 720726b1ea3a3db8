package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	chi_middleware "github.com/go-chi/chi/middleware"
	log "github.com/sirupsen/logrus"

	api_v1_deploy "github.com/sitesmith/deploy/pkg/smithd/api/v1/deploy"
	api_v1_notify "github.com/sitesmith/deploy/pkg/smithd/api/v1/notify"
	"github.com/sitesmith/deploy/pkg/smithd/metrics"
	"github.com/sitesmith/deploy/pkg/smithd/middleware"
)

var requestTimeout = time.Second * 10

type Config struct {
	MetricsPath string
	SecretKey   string
	Runner      api_v1_deploy.Runner
}

func New(cfg Config) chi.Router {
	prometheusMiddleware := middleware.PrometheusMiddleware("smithd")

	deployHandler := &api_v1_deploy.DeploymentHandler{
		SecretKey: cfg.SecretKey,
		Runner:    cfg.Runner,
	}

	notifyHandler := &api_v1_notify.Handler{}

	// Pre-populate request metrics
	for _, code := range api_v1_deploy.StatusCodes {
		prometheusMiddleware.Initialize("/api-endpoint", http.MethodPost, code)
	}

	// Base settings for all requests
	router := chi.NewRouter()
	router.Use(
		middleware.RequestLogger(),
		prometheusMiddleware.Handler(),
		chi_middleware.StripSlashes,
	)

	// Mount /metrics endpoint with no authentication
	router.Get(cfg.MetricsPath, metrics.Handler().ServeHTTP)

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"status": "healthy"}`)
	})

	router.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"message": "sitesmith deployment server", "status": "running"}`)
	})

	router.Group(func(r chi.Router) {
		r.Use(
			chi_middleware.AllowContentType("application/json"),
			chi_middleware.Timeout(requestTimeout),
		)

		if len(cfg.SecretKey) == 0 {
			log.Error("No pre-shared secret configured; all deployment requests will be rejected; try using --secret-key")
		}
		r.Post("/api-endpoint", deployHandler.ServeHTTP)

		r.Post("/notify", notifyHandler.ServeHTTP)
	})

	return router
}
