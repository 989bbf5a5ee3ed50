// Package sink stores rendered reports in a hierarchy of containers. A
// container is a directory for the file sink and a key prefix for S3.
package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Root is the container ID of the top of the tree.
const Root = ""

var ErrInvalidName = errors.New("invalid name")

// Sink is where a report run writes its output. Writing a document that
// already exists replaces it, so a retried run never duplicates output.
type Sink interface {
	// Check verifies the sink is reachable and writable before any work starts.
	Check(ctx context.Context) error
	CreateContainer(ctx context.Context, parentID, name string) (string, error)
	WriteDocument(ctx context.Context, containerID, name string, content []byte) (string, error)
}

// Config selects and configures a sink.
type Config struct {
	Kind      string
	OutputDir string
	Bucket    string
	Region    string
	Prefix    string
	AccessKey string
	SecretKey string
}

// New builds the sink named by cfg.Kind.
func New(cfg Config, logger *zap.Logger) (Sink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(cfg.Kind) {
	case "file", "":
		logger.Info("using file sink", zap.String("dir", cfg.OutputDir))
		return NewFileSink(cfg.OutputDir), nil
	case "s3":
		logger.Info("using s3 sink", zap.String("bucket", cfg.Bucket), zap.String("prefix", cfg.Prefix))
		return NewS3Sink(cfg)
	default:
		return nil, fmt.Errorf("unknown sink %q", cfg.Kind)
	}
}

// validateName rejects names that would escape their container.
func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`), strings.Contains(name, ".."):
		return fmt.Errorf("%w: %q contains a path separator or '..'", ErrInvalidName, name)
	}
	return nil
}
