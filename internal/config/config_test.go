package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "DB_DRIVER", "GRPC_PORT", "SINK", "REPORT_FORMAT", "WRITE_CONCURRENCY", "RUN_TIMEOUT", "CLASSIFIER", "TIMEZONE"} {
		t.Setenv(k, "")
	}

	cfg := LoadFromEnv()

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.Equal(t, SinkFile, cfg.Sink)
	assert.Equal(t, "html", cfg.ReportFormat)
	assert.Equal(t, 4, cfg.WriteConcurrency)
	assert.Equal(t, 10*time.Minute, cfg.RunTimeout)
	assert.Equal(t, ClassifierKeyword, cfg.Classifier)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("GRPC_PORT", "9000")
	t.Setenv("GRPC_REFLECTION_ENABLED", "true")
	t.Setenv("SINK", "S3")
	t.Setenv("S3_BUCKET", "reports")
	t.Setenv("S3_REGION", "ap-southeast-1")
	t.Setenv("REPORT_FORMAT", "PDF")
	t.Setenv("WRITE_CONCURRENCY", "8")
	t.Setenv("RUN_TIMEOUT", "90s")

	cfg := LoadFromEnv()

	assert.Equal(t, 9000, cfg.GRPCPort)
	assert.True(t, cfg.GRPCReflectionEnabled)
	assert.Equal(t, SinkS3, cfg.Sink)
	assert.Equal(t, "pdf", cfg.ReportFormat)
	assert.Equal(t, 8, cfg.WriteConcurrency)
	assert.Equal(t, 90*time.Second, cfg.RunTimeout)
}

func TestLoadFromEnv_UnparsableSettings(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"RUN_TIMEOUT", "10"},
		{"RUN_TIMEOUT", "soon"},
		{"GRPC_PORT", "not-a-port"},
		{"WRITE_CONCURRENCY", "x"},
		{"COMMENT_SAMPLE_SIZE", "5.5"},
		{"GRPC_REFLECTION_ENABLED", "sometimes"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			t.Setenv("SINK", "")
			t.Setenv("OUTPUT_DIR", "")

			cfg := LoadFromEnv()

			err := cfg.Validate()
			var cfgErr *Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.key, cfgErr.Setting)
			assert.Contains(t, err.Error(), tt.value)
		})
	}
}

func TestLoadFromEnv_UnparsableKeepsDefault(t *testing.T) {
	t.Setenv("RUN_TIMEOUT", "10")

	cfg := LoadFromEnv()

	assert.Equal(t, 10*time.Minute, cfg.RunTimeout)
	assert.Error(t, cfg.Validate())
}

func TestLoadFromEnv_FirstParseErrorWins(t *testing.T) {
	t.Setenv("GRPC_PORT", "x")
	t.Setenv("RUN_TIMEOUT", "10")

	var cfgErr *Error
	require.ErrorAs(t, LoadFromEnv().Validate(), &cfgErr)
	assert.Equal(t, "GRPC_PORT", cfgErr.Setting)
}

func validConfig() *Config {
	return &Config{
		Sink:             SinkFile,
		OutputDir:        "/tmp/reports",
		ReportFormat:     "html",
		WriteConcurrency: 2,
		RunTimeout:       time.Minute,
		Classifier:       ClassifierKeyword,
		Timezone:         "Asia/Manila",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		setting string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown sink", func(c *Config) { c.Sink = "ftp" }, "SINK"},
		{"file sink without dir", func(c *Config) { c.OutputDir = "" }, "OUTPUT_DIR"},
		{"s3 without bucket", func(c *Config) { c.Sink = SinkS3; c.S3Region = "us-east-1" }, "S3_BUCKET"},
		{"s3 without region", func(c *Config) { c.Sink = SinkS3; c.S3Bucket = "b" }, "S3_REGION"},
		{"s3 half credentials", func(c *Config) {
			c.Sink, c.S3Bucket, c.S3Region, c.AWSAccessKeyID = SinkS3, "b", "us-east-1", "AKIA"
		}, "AWS_SECRET_ACCESS_KEY"},
		{"bad format", func(c *Config) { c.ReportFormat = "docx" }, "REPORT_FORMAT"},
		{"zero concurrency", func(c *Config) { c.WriteConcurrency = 0 }, "WRITE_CONCURRENCY"},
		{"zero timeout", func(c *Config) { c.RunTimeout = 0 }, "RUN_TIMEOUT"},
		{"negative samples", func(c *Config) { c.CommentSampleSize = -1 }, "COMMENT_SAMPLE_SIZE"},
		{"llm without key", func(c *Config) { c.Classifier = ClassifierLLM }, "ANTHROPIC_API_KEY"},
		{"unknown classifier", func(c *Config) { c.Classifier = "magic" }, "CLASSIFIER"},
		{"slack without channel", func(c *Config) { c.SlackBotToken = "xoxb" }, "SLACK_CHANNEL_ID"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "TIMEZONE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.setting == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.setting, cfgErr.Setting)
			assert.Contains(t, err.Error(), tt.setting)
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(&Config{AppEnv: "production"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	logger, err = NewLogger(&Config{AppEnv: "development", Verbose: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))
}
