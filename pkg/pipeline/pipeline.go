package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	ocodes "go.opentelemetry.io/otel/codes"

	"github.com/sitesmith/deploy/pkg/bundle"
	"github.com/sitesmith/deploy/pkg/deployment"
	"github.com/sitesmith/deploy/pkg/evaluation"
	"github.com/sitesmith/deploy/pkg/generator"
	"github.com/sitesmith/deploy/pkg/github"
	"github.com/sitesmith/deploy/pkg/pagewait"
	"github.com/sitesmith/deploy/pkg/smithd/metrics"
	"github.com/sitesmith/deploy/pkg/telemetry"
)

// Stage names appear in failure reports and metrics.
const (
	StageGeneration = "generation"
	StageAssembly   = "assembly"
	StagePublish    = "publish"
	StageReport     = "report"
)

// Pages needs a moment to notice a new commit on an existing repository
// before the first availability probe makes sense.
const defaultSettleDelay = 10 * time.Second

type Config struct {
	Owner          string
	Generator      generator.Generator
	Publisher      github.Client
	Waiter         pagewait.Waiter
	Reporter       evaluation.Reporter
	ReportFailures bool
	SettleDelay    time.Duration
}

type Pipeline struct {
	owner          string
	generator      generator.Generator
	publisher      github.Client
	waiter         pagewait.Waiter
	reporter       evaluation.Reporter
	reportFailures bool
	settleDelay    time.Duration
}

func New(cfg Config) *Pipeline {
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = defaultSettleDelay
	}
	return &Pipeline{
		owner:          cfg.Owner,
		generator:      cfg.Generator,
		publisher:      cfg.Publisher,
		waiter:         cfg.Waiter,
		reporter:       cfg.Reporter,
		reportFailures: cfg.ReportFailures,
		settleDelay:    cfg.SettleDelay,
	}
}

// Run drives one deployment from accepted request to terminal state.
// It never returns an error; outcomes are observable through logs,
// metrics and the evaluation report.
func (p *Pipeline) Run(op *Operation) {
	defer func() {
		if r := recover(); r != nil {
			metrics.PipelinePanics.Inc()
			op.Logger.Errorf("Deployment pipeline panicked: %s", r)
			op.Logger.Errorf("%s", debug.Stack())
		}
	}()

	started := time.Now()
	defer func() {
		metrics.PipelineCompleted(op.Request.Round, started)
	}()

	ctx, span := telemetry.Tracer().Start(op.Context, "Deployment pipeline")
	defer span.End()
	op.Context = ctx

	op.Logger.Infof("Starting deployment of %s, round %d", op.Request.RepoName(), op.Request.Round)

	var repo *deployment.Repository
	var stage string
	var err error

	if op.Request.Round == 1 {
		repo, stage, err = p.publishInitial(op)
	} else {
		repo, stage, err = p.publishUpgrade(op)
	}
	if err != nil {
		span.SetStatus(ocodes.Error, err.Error())
		span.RecordError(err)
		p.fail(op, repo, stage, err)
		return
	}

	pagesLive := p.awaitPages(op, repo)

	report := deployment.NewSuccessReport(*op.Request, repo, pagesLive)
	err = p.submit(op, report)
	if err != nil {
		span.SetStatus(ocodes.Error, err.Error())
		span.RecordError(err)
		p.fail(op, repo, StageReport, err)
		return
	}

	metrics.DeploySuccessful.Inc()
	op.Logger.WithFields(report.LogFields()).Infof("Deployment finished successfully in %s", time.Since(started).Truncate(time.Second))
}

func (p *Pipeline) fail(op *Operation, repo *deployment.Repository, stage string, err error) {
	op.Logger.WithField(deployment.LogFieldStage, stage).Errorf("Deployment failed: %s", err)
	metrics.DeployFailed(stage)

	// Failing to deliver the report is the one failure the evaluator
	// cannot be told about.
	if stage == StageReport || !p.reportFailures {
		return
	}

	report := deployment.NewFailureReport(*op.Request, repo, stage)
	if err := p.reporter.Submit(op.Context, op.Request.EvaluationURL, report); err != nil {
		op.Logger.Warnf("Unable to deliver failure report: %s", err)
	}
}

func (p *Pipeline) publishInitial(op *Operation) (*deployment.Repository, string, error) {
	set, err := p.generate(op)
	if err != nil {
		return nil, StageGeneration, err
	}

	workdir, err := os.MkdirTemp("", "smithd-*")
	if err != nil {
		return nil, StageAssembly, fmt.Errorf("create work directory: %w", err)
	}
	defer os.RemoveAll(workdir)

	if err := bundle.Materialize(workdir, set, op.Request); err != nil {
		return nil, StageAssembly, err
	}
	op.Logger.Debugf("Assembled work tree in %s", workdir)

	ctx, span := telemetry.Tracer().Start(op.Context, "Publish repository")
	defer span.End()

	op.Logger.Infof("Publishing %s to GitHub", op.Request.RepoName())

	repo, err := p.publisher.CreateRepository(ctx, op.Request.RepoName(), workdir)
	if err != nil {
		span.SetStatus(ocodes.Error, err.Error())
		return nil, StagePublish, err
	}

	pagesURL, err := p.publisher.EnablePages(ctx, repo)
	if err != nil {
		span.SetStatus(ocodes.Error, err.Error())
		return repo, StagePublish, err
	}
	repo.PagesURL = pagesURL

	op.Logger.WithField(deployment.LogFieldRepository, repo.FullName()).Infof("Published %s at commit %s", repo.URL, repo.CommitSHA)

	return repo, "", nil
}

func (p *Pipeline) publishUpgrade(op *Operation) (*deployment.Repository, string, error) {
	workdir, err := os.MkdirTemp("", "smithd-*")
	if err != nil {
		return nil, StageAssembly, fmt.Errorf("create work directory: %w", err)
	}
	defer os.RemoveAll(workdir)

	repo := deployment.NewRepository(p.owner, op.Request.RepoName())
	target := filepath.Join(workdir, repo.Name)

	op.Logger.Infof("Cloning %s for upgrade round %d", repo.FullName(), op.Request.Round)

	if err := p.clone(op, target); err != nil {
		return nil, StagePublish, err
	}

	existing, err := bundle.ReadTree(target)
	if err != nil {
		return repo, StageAssembly, err
	}

	set, err := p.improve(op, existing)
	if err != nil {
		return repo, StageGeneration, err
	}

	if err := bundle.WriteUpdate(target, set, op.Request); err != nil {
		return repo, StageAssembly, err
	}

	sha, err := p.pushUpdate(op, target)
	if err != nil {
		return repo, StagePublish, err
	}
	repo.CommitSHA = sha

	// Let Pages notice the new commit before the first probe.
	select {
	case <-time.After(p.settleDelay):
	case <-op.Context.Done():
	}

	return repo, "", nil
}

func (p *Pipeline) generate(op *Operation) (*generator.ArtifactSet, error) {
	ctx, span := telemetry.Tracer().Start(op.Context, "Generate artifacts")
	defer span.End()

	op.Logger.Infof("Generating artifacts against %d checks", len(op.Request.Checks))

	set, err := p.generator.Generate(ctx, op.Request.Brief, op.Request.Checks, op.Request.Attachments)
	if err != nil {
		span.SetStatus(ocodes.Error, err.Error())
		return nil, err
	}
	return set, nil
}

func (p *Pipeline) improve(op *Operation, existing map[string]string) (*generator.ArtifactSet, error) {
	ctx, span := telemetry.Tracer().Start(op.Context, "Generate upgraded artifacts")
	defer span.End()

	op.Logger.Infof("Upgrading %d existing files against %d checks", len(existing), len(op.Request.Checks))

	set, err := p.generator.Improve(ctx, op.Request.Brief, op.Request.Checks, op.Request.Attachments, existing)
	if err != nil {
		span.SetStatus(ocodes.Error, err.Error())
		return nil, err
	}
	return set, nil
}

func (p *Pipeline) clone(op *Operation, target string) error {
	ctx, span := telemetry.Tracer().Start(op.Context, "Clone repository")
	defer span.End()

	err := p.publisher.CloneRepository(ctx, op.Request.RepoName(), target)
	if err != nil {
		span.SetStatus(ocodes.Error, err.Error())
	}
	return err
}

func (p *Pipeline) pushUpdate(op *Operation, dir string) (string, error) {
	ctx, span := telemetry.Tracer().Start(op.Context, "Push update")
	defer span.End()

	message := fmt.Sprintf("Round %d: %d", op.Request.Round, time.Now().Unix())
	sha, err := p.publisher.UpdateRepository(ctx, dir, message)
	if err != nil {
		span.SetStatus(ocodes.Error, err.Error())
		return "", err
	}

	op.Logger.Infof("Pushed %q as commit %s", message, sha)
	return sha, nil
}

func (p *Pipeline) awaitPages(op *Operation, repo *deployment.Repository) bool {
	ctx, span := telemetry.Tracer().Start(op.Context, "Await page availability")
	defer span.End()

	live := p.waiter.AwaitLive(ctx, repo.PagesURL)
	if !live {
		span.SetStatus(ocodes.Error, "page did not come live within the wait budget")
		op.Logger.Warnf("Page at %s is not live yet; reporting anyway", repo.PagesURL)
	}
	return live
}

func (p *Pipeline) submit(op *Operation, report *deployment.Report) error {
	ctx, span := telemetry.Tracer().Start(op.Context, "Submit evaluation report")
	defer span.End()

	op.Logger.Infof("Submitting evaluation report to %s", op.Request.EvaluationURL)

	err := p.reporter.Submit(ctx, op.Request.EvaluationURL, report)
	if err != nil {
		span.SetStatus(ocodes.Error, err.Error())
	}
	return err
}
