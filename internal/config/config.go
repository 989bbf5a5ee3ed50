package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	SinkFile = "file"
	SinkS3   = "s3"

	ClassifierKeyword = "keyword"
	ClassifierLLM     = "llm"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv                string
	DBPath                string
	DBDriver              string
	RedisAddr             string
	GRPCPort              int
	GRPCReflectionEnabled bool
	AdminToken            string

	Sink               string
	OutputDir          string
	S3Bucket           string
	S3Region           string
	S3Prefix           string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	ReportFormat      string
	WriteConcurrency  int
	RunTimeout        time.Duration
	CommentSampleSize int

	Classifier      string
	KeywordsPath    string
	AnthropicAPIKey string
	LLMModel        string

	SlackBotToken  string
	SlackChannelID string

	ReportSchedule string
	Timezone       string

	Verbose bool

	// parseErrs holds settings that were set but could not be parsed.
	parseErrs []*Error
}

// Error names the setting that made a configuration unusable.
type Error struct {
	Setting string
	Reason  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Setting, e.Reason)
}

// LoadFromEnv loads configuration from environment variables. A numeric,
// boolean or duration setting that does not parse keeps its default here and
// is reported by Validate.
func LoadFromEnv() *Config {
	env := &envReader{}
	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		DBPath:                getEnv("DB_PATH", "./data/database.db"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		DBDriver:              getEnv("DB_DRIVER", "sqlite3"),
		GRPCPort:              env.getInt("GRPC_PORT", 50051),
		GRPCReflectionEnabled: env.getBool("GRPC_REFLECTION_ENABLED", false),
		AdminToken:            os.Getenv("ADMIN_TOKEN"),

		Sink:               strings.ToLower(getEnv("SINK", SinkFile)),
		OutputDir:          getEnv("OUTPUT_DIR", "./reports"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3Region:           os.Getenv("S3_REGION"),
		S3Prefix:           os.Getenv("S3_PREFIX"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),

		ReportFormat:      strings.ToLower(getEnv("REPORT_FORMAT", "html")),
		WriteConcurrency:  env.getInt("WRITE_CONCURRENCY", 4),
		RunTimeout:        env.getDuration("RUN_TIMEOUT", 10*time.Minute),
		CommentSampleSize: env.getInt("COMMENT_SAMPLE_SIZE", 5),

		Classifier:      strings.ToLower(getEnv("CLASSIFIER", ClassifierKeyword)),
		KeywordsPath:    os.Getenv("KEYWORDS_PATH"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		LLMModel:        os.Getenv("LLM_MODEL"),

		SlackBotToken:  os.Getenv("SLACK_BOT_TOKEN"),
		SlackChannelID: os.Getenv("SLACK_CHANNEL_ID"),

		ReportSchedule: os.Getenv("REPORT_SCHEDULE"),
		Timezone:       getEnv("TIMEZONE", "UTC"),
	}
	cfg.parseErrs = env.errs
	return cfg
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if len(c.parseErrs) > 0 {
		return c.parseErrs[0]
	}

	switch c.Sink {
	case SinkFile:
		if c.OutputDir == "" {
			return &Error{Setting: "OUTPUT_DIR", Reason: "is required for the file sink"}
		}
	case SinkS3:
		if c.S3Bucket == "" {
			return &Error{Setting: "S3_BUCKET", Reason: "is required for the s3 sink"}
		}
		if c.S3Region == "" {
			return &Error{Setting: "S3_REGION", Reason: "is required for the s3 sink"}
		}
		if (c.AWSAccessKeyID == "") != (c.AWSSecretAccessKey == "") {
			return &Error{Setting: "AWS_SECRET_ACCESS_KEY", Reason: "must be set together with AWS_ACCESS_KEY_ID"}
		}
	default:
		return &Error{Setting: "SINK", Reason: fmt.Sprintf("must be %q or %q, got %q", SinkFile, SinkS3, c.Sink)}
	}

	if c.ReportFormat != "html" && c.ReportFormat != "pdf" {
		return &Error{Setting: "REPORT_FORMAT", Reason: fmt.Sprintf("must be html or pdf, got %q", c.ReportFormat)}
	}
	if c.WriteConcurrency < 1 {
		return &Error{Setting: "WRITE_CONCURRENCY", Reason: "must be at least 1"}
	}
	if c.RunTimeout <= 0 {
		return &Error{Setting: "RUN_TIMEOUT", Reason: "must be positive"}
	}
	if c.CommentSampleSize < 0 {
		return &Error{Setting: "COMMENT_SAMPLE_SIZE", Reason: "must not be negative"}
	}

	switch c.Classifier {
	case ClassifierKeyword:
	case ClassifierLLM:
		if c.AnthropicAPIKey == "" {
			return &Error{Setting: "ANTHROPIC_API_KEY", Reason: "is required for the llm classifier"}
		}
	default:
		return &Error{Setting: "CLASSIFIER", Reason: fmt.Sprintf("must be %q or %q, got %q", ClassifierKeyword, ClassifierLLM, c.Classifier)}
	}

	if (c.SlackBotToken == "") != (c.SlackChannelID == "") {
		return &Error{Setting: "SLACK_CHANNEL_ID", Reason: "must be set together with SLACK_BOT_TOKEN"}
	}
	if _, err := c.Location(); err != nil {
		return &Error{Setting: "TIMEZONE", Reason: err.Error()}
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.AppEnv == "production" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// envReader parses typed settings and remembers the ones that fail.
type envReader struct {
	errs []*Error
}

func (r *envReader) getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		r.errs = append(r.errs, &Error{Setting: key, Reason: fmt.Sprintf("must be a whole number, got %q", raw)})
		return fallback
	}
	return v
}

func (r *envReader) getBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		r.errs = append(r.errs, &Error{Setting: key, Reason: fmt.Sprintf("must be true or false, got %q", raw)})
		return fallback
	}
	return v
}

func (r *envReader) getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		r.errs = append(r.errs, &Error{Setting: key, Reason: fmt.Sprintf("must be a duration with a unit such as 90s or 10m, got %q", raw)})
		return fallback
	}
	return v
}
