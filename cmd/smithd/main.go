package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/sitesmith/deploy/pkg/conftools"
	"github.com/sitesmith/deploy/pkg/evaluation"
	"github.com/sitesmith/deploy/pkg/generator"
	"github.com/sitesmith/deploy/pkg/github"
	"github.com/sitesmith/deploy/pkg/llm"
	"github.com/sitesmith/deploy/pkg/logging"
	"github.com/sitesmith/deploy/pkg/pagewait"
	"github.com/sitesmith/deploy/pkg/pipeline"
	"github.com/sitesmith/deploy/pkg/smithd/api"
	"github.com/sitesmith/deploy/pkg/smithd/config"
	"github.com/sitesmith/deploy/pkg/telemetry"
	"github.com/sitesmith/deploy/pkg/version"
)

var maskedConfig = []string{
	config.GeneratorAPIKey,
	config.GithubToken,
	config.SecretKey,
}

func run() error {
	cfg := config.Initialize()
	err := conftools.Load(cfg)
	if err != nil {
		return err
	}

	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	// Welcome
	log.Infof("smithd %s", version.Version())
	ts, err := version.BuildTime()
	if err == nil {
		log.Infof("This version was built %s", ts.Local())
	}

	for _, line := range conftools.Format(maskedConfig) {
		log.Info(line)
	}

	ctx := context.Background()

	tracerProvider, err := telemetry.New(ctx, "smithd", cfg.OtelCollectorEndpoint)
	if err != nil {
		return fmt.Errorf("set up telemetry: %w", err)
	}
	defer func() {
		err := tracerProvider.Shutdown(context.Background())
		if err != nil {
			log.Errorf("shut down telemetry: %s", err)
		}
	}()

	if _, err := exec.LookPath("git"); err != nil {
		log.Warnf("git not found on PATH; all deployments will fail: %s", err)
	}

	var publisher github.Client
	if cfg.Github.HasConfig() {
		publisher, err = github.New(github.Config{
			Username: cfg.Github.Username,
			Token:    cfg.Github.Token,
			APIURL:   cfg.Github.APIURL,
		})
		if err != nil {
			return fmt.Errorf("set up GitHub client: %w", err)
		}
	} else {
		log.Warn("GitHub credentials not configured; all deployments will fail; try using --github.username and --github.token")
		publisher = github.FakeClient()
	}

	if len(cfg.Generator.APIKey) == 0 {
		log.Warn("Completion API key not configured; the completion endpoint will likely reject artifact generation")
	}

	model := llm.New(cfg.Generator.BaseURL, cfg.Generator.APIKey, cfg.Generator.Model, cfg.Generator.Timeout)

	pipe := pipeline.New(pipeline.Config{
		Owner:          cfg.Github.Username,
		Generator:      generator.New(model),
		Publisher:      publisher,
		Waiter:         pagewait.New(cfg.Pages.MaxWait, cfg.Pages.PollInterval),
		Reporter:       evaluation.New(cfg.Evaluation.Timeout),
		ReportFailures: cfg.ReportFailures,
	})

	router := api.New(api.Config{
		MetricsPath: cfg.MetricsPath,
		SecretKey:   cfg.SecretKey,
		Runner:      pipe,
	})

	server := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: router,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err)
		}
	}()

	log.Infof("Ready to accept connections on %s", cfg.ListenAddress)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signals

	log.Infof("Received signal %s (%d), exiting...", sig, sig)

	return server.Shutdown(context.Background())
}

func main() {
	err := run()
	if err != nil {
		log.Errorf("Fatal error: %s", err)
		os.Exit(1)
	}
}
