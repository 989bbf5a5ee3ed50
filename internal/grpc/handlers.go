package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/evalreport/internal/service"
	"github.com/godilite/evalreport/pkg/cache"
	grpcsrv "github.com/godilite/evalreport/pkg/grpc/server"
)

const (
	defaultLockTTL      = 15 * time.Minute
	defaultLastRunTTL   = 30 * 24 * time.Hour
	defaultCacheTimeout = 2 * time.Second
)

type CacheKeyType string

const (
	cacheKeyRunLock CacheKeyType = "evalreport:run_lock"
	cacheKeyLastRun CacheKeyType = "evalreport:last_run"
)

var errRunInProgress = errors.New("a report run is already in progress")

type GRPCHandlers struct {
	reports ReportGenerator
	cache   Cacher
	logger  *zap.Logger
	sfGroup singleflight.Group
	lockTTL time.Duration
	lastRun atomic.Pointer[service.RunSummary]
}

// NewGRPCHandlers initializes the gRPC handlers. The cache is optional; without
// it runs are only serialized within this process.
func NewGRPCHandlers(reports ReportGenerator, cache Cacher, logger *zap.Logger, lockTTL time.Duration) *GRPCHandlers {
	if reports == nil {
		panic("nil ReportGenerator provided to NewGRPCHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &GRPCHandlers{
		reports: reports,
		cache:   cache,
		logger:  logger.Named("grpc-handler"),
		lockTTL: lockTTL,
	}
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrNoEvaluations):
		s.logger.Info("no evaluations found", zap.String("op", op))
		return status.Error(codes.NotFound, "No evaluations found")
	case errors.Is(err, service.ErrUnauthorized):
		return status.Error(codes.PermissionDenied, "administrator authentication required")
	case errors.Is(err, service.ErrSinkUnavailable):
		s.logger.Error("sink unavailable", zap.String("op", op), zap.Error(err))
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, errRunInProgress):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, service.ErrAllWritesFailed):
		s.logger.Error("every write failed", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, service.ErrStorageFailure):
		s.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "database error")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "report run timed out")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

// GenerateReports runs the report pipeline. Callers arriving while a run is
// in flight in this process share its result; a run held by another process
// is refused with Aborted.
func (s *GRPCHandlers) GenerateReports(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	caller, ok := grpcsrv.AdminFromContext(ctx)
	if !ok {
		return nil, s.handleError(ctx, "GenerateReports", service.ErrUnauthorized)
	}
	admin := service.Admin{ID: caller.ID, Name: caller.Name}

	v, err, shared := s.sfGroup.Do(string(cacheKeyRunLock), func() (any, error) {
		// the run outlives a caller that disconnects; the service bounds it with its own timeout
		return s.generate(context.WithoutCancel(ctx), admin)
	})
	if shared {
		s.logger.Debug("joined in-flight report run", zap.String("admin", admin.String()))
	}
	if err != nil {
		return nil, s.handleError(ctx, "GenerateReports", err)
	}
	return summaryToStruct(v.(service.RunSummary))
}

func (s *GRPCHandlers) generate(ctx context.Context, admin service.Admin) (service.RunSummary, error) {
	if s.cache != nil {
		lockCtx, cancel := context.WithTimeout(ctx, defaultCacheTimeout)
		release, err := s.cache.Lock(lockCtx, string(cacheKeyRunLock), s.lockTTL)
		cancel()
		switch {
		case errors.Is(err, cache.ErrLocked):
			return service.RunSummary{}, errRunInProgress
		case err != nil:
			s.logger.Warn("run lock unavailable, continuing unlocked", zap.Error(err))
		default:
			defer func() {
				relCtx, cancel := context.WithTimeout(context.Background(), defaultCacheTimeout)
				defer cancel()
				if err := release(relCtx); err != nil {
					s.logger.Warn("failed to release run lock", zap.Error(err))
				}
			}()
		}
	}

	summary, err := s.reports.Generate(ctx, admin)
	if summary.ID != "" {
		s.remember(ctx, summary)
	}
	return summary, err
}

func (s *GRPCHandlers) remember(ctx context.Context, summary service.RunSummary) {
	s.lastRun.Store(&summary)
	if s.cache == nil {
		return
	}
	setCtx, cancel := context.WithTimeout(ctx, defaultCacheTimeout)
	defer cancel()
	if err := s.cache.Set(setCtx, string(cacheKeyLastRun), summary, defaultLastRunTTL); err != nil {
		s.logger.Warn("failed to cache last run", zap.Error(err))
	}
}

// GetLastRun returns the most recent run summary, from any process when the
// cache is shared.
func (s *GRPCHandlers) GetLastRun(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s.cache != nil {
		var summary service.RunSummary
		err := s.cache.Get(ctx, string(cacheKeyLastRun), &summary)
		switch {
		case err == nil:
			return summaryToStruct(summary)
		case errors.Is(err, cache.ErrMiss):
			s.logger.Debug("last run not cached")
		default:
			s.logger.Warn("cache get error (falling back to memory)", zap.Error(err))
		}
	}

	if last := s.lastRun.Load(); last != nil {
		return summaryToStruct(*last)
	}
	return nil, status.Error(codes.NotFound, "no report run yet")
}

// summaryToStruct goes through JSON so the Struct mirrors the summary's json tags.
func summaryToStruct(summary service.RunSummary) (*structpb.Struct, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode summary: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, status.Errorf(codes.Internal, "encode summary: %v", err)
	}
	fields["text"] = service.FormatSummary(summary)
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode summary: %v", err)
	}
	return st, nil
}
