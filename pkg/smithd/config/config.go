package config

import (
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sitesmith/deploy/pkg/conftools"
)

type Github struct {
	Username string `json:"username"`
	Token    string `json:"token"`
	APIURL   string `json:"api-url"`
}

type Generator struct {
	BaseURL string        `json:"base-url"`
	APIKey  string        `json:"api-key"`
	Model   string        `json:"model"`
	Timeout time.Duration `json:"timeout"`
}

type Pages struct {
	MaxWait      time.Duration `json:"max-wait"`
	PollInterval time.Duration `json:"poll-interval"`
}

type Evaluation struct {
	Timeout time.Duration `json:"timeout"`
}

type Config struct {
	Evaluation            Evaluation `json:"evaluation"`
	Generator             Generator  `json:"generator"`
	Github                Github     `json:"github"`
	ListenAddress         string     `json:"listen-address"`
	LogFormat             string     `json:"log-format"`
	LogLevel              string     `json:"log-level"`
	MetricsPath           string     `json:"metrics-path"`
	OtelCollectorEndpoint string     `json:"otel-collector-endpoint"`
	Pages                 Pages      `json:"pages"`
	ReportFailures        bool       `json:"report-failures"`
	SecretKey             string     `json:"secret-key"`
}

func (g *Github) HasConfig() bool {
	return g.Username != "" && g.Token != ""
}

const (
	EvaluationTimeout     = "evaluation.timeout"
	GeneratorAPIKey       = "generator.api-key"
	GeneratorBaseURL      = "generator.base-url"
	GeneratorModel        = "generator.model"
	GeneratorTimeout      = "generator.timeout"
	GithubAPIURL          = "github.api-url"
	GithubToken           = "github.token"
	GithubUsername        = "github.username"
	ListenAddress         = "listen-address"
	LogFormat             = "log-format"
	LogLevel              = "log-level"
	MetricsPath           = "metrics-path"
	OtelCollectorEndpoint = "otel-collector-endpoint"
	PagesMaxWait          = "pages.max-wait"
	PagesPollInterval     = "pages.poll-interval"
	ReportFailures        = "report-failures"
	SecretKey             = "secret-key"
)

// Bind environment variables conventionally set by hosting platforms
func bindConventional() {
	viper.BindEnv(GithubToken, "GITHUB_TOKEN")
	viper.BindEnv(GithubUsername, "GITHUB_USERNAME")

	viper.BindEnv(GeneratorAPIKey, "OPENAI_API_KEY")
	viper.BindEnv(GeneratorBaseURL, "OPENAI_BASE_URL")

	viper.BindEnv(SecretKey, "SECRET_KEY")
}

func Initialize() *Config {
	conftools.Initialize("smithd")
	bindConventional()

	// Provide command-line flags
	flag.String(ListenAddress, "127.0.0.1:8080", "IP:PORT")
	flag.String(LogFormat, "text", "Log format, either 'json' or 'text'.")
	flag.String(LogLevel, "debug", "Logging verbosity level.")
	flag.String(MetricsPath, "/metrics", "HTTP endpoint for exposed metrics.")
	flag.String(SecretKey, "", "Pre-shared key for the deployment intake endpoint.")

	flag.String(GithubUsername, "", "GitHub account owning the published repositories.")
	flag.String(GithubToken, "", "GitHub personal access token with repo scope.")
	flag.String(GithubAPIURL, "", "GitHub API base URL. Leave empty for github.com.")

	flag.String(GeneratorBaseURL, "https://api.openai.com/v1", "Base URL of an OpenAI-compatible completion API.")
	flag.String(GeneratorAPIKey, "", "API key for the completion API.")
	flag.String(GeneratorModel, "gpt-5-nano", "Model used to generate site artifacts.")
	flag.Duration(GeneratorTimeout, time.Minute*3, "Maximum duration of a single completion call.")

	flag.Duration(PagesMaxWait, time.Minute*5, "How long to wait for a published page to come live.")
	flag.Duration(PagesPollInterval, time.Second*10, "How often to probe a published page.")

	flag.Duration(EvaluationTimeout, time.Second*30, "Maximum duration of a single evaluation report delivery.")
	flag.Bool(ReportFailures, true, "Send best-effort failure reports to the evaluation endpoint.")

	flag.String(OtelCollectorEndpoint, "", "OpenTelemetry collector endpoint URL. Leave empty to disable tracing.")

	return &Config{}
}
