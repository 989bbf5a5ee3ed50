package grpc

import (
	"context"
	"time"

	"github.com/godilite/evalreport/internal/service"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, admin service.Admin) (service.RunSummary, error)
}
