package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/godilite/evalreport/internal/aggregate"
	"github.com/godilite/evalreport/internal/classify"
	"github.com/godilite/evalreport/internal/config"
	handler "github.com/godilite/evalreport/internal/grpc"
	"github.com/godilite/evalreport/internal/notify"
	"github.com/godilite/evalreport/internal/render"
	"github.com/godilite/evalreport/internal/repository"
	"github.com/godilite/evalreport/internal/schedule"
	"github.com/godilite/evalreport/internal/service"
	"github.com/godilite/evalreport/internal/sink"
	"github.com/godilite/evalreport/pkg/cache"
	dbbuilder "github.com/godilite/evalreport/pkg/database"
	grpcsrv "github.com/godilite/evalreport/pkg/grpc/server"
)

const shutdownTimeout = 10 * time.Second

// App owns the long-lived resources behind both the one-shot run and the server.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	dbPool   *sql.DB
	keywords *classify.Reloadable
	reports  *service.ReportService
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dbPool, err := dbbuilder.New(ctx,
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	logger.Info("database pool initialized", zap.String("driver", cfg.DBDriver))

	a := &App{cfg: cfg, logger: logger, dbPool: dbPool}
	if err := a.build(); err != nil {
		dbPool.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build() error {
	cfg := a.cfg

	classifier, err := a.classifier()
	if err != nil {
		return err
	}

	out, err := sink.New(sink.Config{
		Kind:      cfg.Sink,
		OutputDir: cfg.OutputDir,
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Prefix:    cfg.S3Prefix,
		AccessKey: cfg.AWSAccessKeyID,
		SecretKey: cfg.AWSSecretAccessKey,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("sink init failed: %w", err)
	}

	renderer, err := render.New(cfg.ReportFormat)
	if err != nil {
		return fmt.Errorf("renderer init failed: %w", err)
	}

	opts := []service.Option{
		service.WithConcurrency(cfg.WriteConcurrency),
		service.WithTimeout(cfg.RunTimeout),
	}
	if cfg.SlackBotToken != "" {
		n, err := notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannelID, a.logger)
		if err != nil {
			return fmt.Errorf("notifier init failed: %w", err)
		}
		opts = append(opts, service.WithNotifier(n))
		a.logger.Info("slack notifications enabled", zap.String("channel", cfg.SlackChannelID))
	}

	a.reports = service.NewReportService(
		repository.NewEvaluationRepository(a.dbPool),
		out,
		renderer,
		aggregate.New(classifier, a.logger, aggregate.WithSampleSize(cfg.CommentSampleSize)),
		a.logger,
		opts...,
	)
	return nil
}

func (a *App) classifier() (classify.Classifier, error) {
	kw := classify.DefaultKeywords()
	if a.cfg.KeywordsPath != "" {
		loaded, err := classify.LoadKeywords(a.cfg.KeywordsPath)
		if err != nil {
			return nil, fmt.Errorf("keyword init failed: %w", err)
		}
		kw = loaded
	}
	a.keywords = classify.NewReloadable(classify.NewKeywordClassifier(kw))

	if a.cfg.Classifier == config.ClassifierLLM {
		a.logger.Info("using llm comment classifier", zap.String("model", a.cfg.LLMModel))
		return classify.NewLLMClassifier(
			classify.AnthropicCompleter(a.cfg.AnthropicAPIKey, a.cfg.LLMModel),
			a.keywords,
			a.logger,
		), nil
	}
	return a.keywords, nil
}

// RunOnce generates every report and returns when the run is over.
func (a *App) RunOnce(ctx context.Context, admin service.Admin) (service.RunSummary, error) {
	return a.reports.Generate(ctx, admin)
}

// Serve starts the admin gRPC server, the optional report schedule and the
// keyword watcher, and blocks until ctx is done or a shutdown signal arrives.
func (a *App) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cacheClient handler.Cacher
	if a.cfg.RedisAddr != "" {
		redisCache, err := cache.New(ctx, cache.WithAddress(a.cfg.RedisAddr))
		if err != nil {
			a.logger.Warn("cache unavailable, runs are serialized in this process only", zap.Error(err))
		} else {
			cacheClient = redisCache
			a.logger.Info("cache client initialized", zap.String("addr", a.cfg.RedisAddr))
		}
	}

	grpcHandlers := handler.NewGRPCHandlers(a.reports, cacheClient, a.logger, a.cfg.RunTimeout+time.Minute)

	grpcServer, err := grpcsrv.New(
		grpcsrv.WithPort(a.cfg.GRPCPort),
		grpcsrv.WithLogger(a.logger),
		grpcsrv.WithReflection(a.cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(true),
		grpcsrv.WithAdminAuth(a.cfg.AdminToken),
	)
	if err != nil {
		if cacheClient != nil {
			cacheClient.Close()
		}
		return fmt.Errorf("failed to create gRPC server: %w", err)
	}
	if a.cfg.AdminToken == "" {
		a.logger.Warn("ADMIN_TOKEN is empty, every report call will be refused")
	}

	grpcServer.Register(handler.ServiceName, func(s grpc.ServiceRegistrar) {
		handler.RegisterReportServer(s, grpcHandlers)
	})
	grpcServer.Start()

	if a.cfg.KeywordsPath != "" {
		if err := classify.Watch(ctx, a.cfg.KeywordsPath, a.keywords, a.logger); err != nil {
			a.logger.Warn("keyword hot reload disabled", zap.Error(err))
		}
	}

	var scheduled <-chan struct{}
	if a.cfg.ReportSchedule != "" {
		loc, _ := a.cfg.Location()
		scheduled, err = schedule.Start(ctx, a.cfg.ReportSchedule, loc, a.scheduledRun(grpcHandlers), a.logger)
		if err != nil {
			a.logger.Error("report schedule disabled", zap.Error(err))
		} else {
			a.logger.Info("report schedule enabled",
				zap.String("cron", a.cfg.ReportSchedule),
				zap.String("timezone", a.cfg.Timezone))
		}
	}

	a.logger.Info("application started")
	<-ctx.Done()
	a.logger.Info("application shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("gRPC shutdown incomplete", zap.Error(err))
	}
	if scheduled != nil {
		select {
		case <-scheduled:
		case <-shutdownCtx.Done():
			a.logger.Warn("scheduled run still in progress at shutdown")
		}
	}
	if cacheClient != nil {
		if err := cacheClient.Close(); err != nil {
			a.logger.Error("cache shutdown error", zap.Error(err))
		}
	}
	return nil
}

// scheduledRun goes through the handlers so scheduled and requested runs share
// the run lock and the last-run record.
func (a *App) scheduledRun(h *handler.GRPCHandlers) func(context.Context) {
	return func(ctx context.Context) {
		ctx = grpcsrv.ContextWithAdmin(ctx, grpcsrv.Admin{ID: "schedule:" + a.cfg.ReportSchedule, Name: "scheduler"})
		resp, err := h.GenerateReports(ctx, nil)
		if err != nil {
			a.logger.Error("scheduled report run failed", zap.Error(err))
			return
		}
		a.logger.Info("scheduled report run finished",
			zap.Float64("documents", resp.GetFields()["documents"].GetNumberValue()))
	}
}

// Close releases the database pool.
func (a *App) Close() error {
	if err := a.dbPool.Close(); err != nil {
		a.logger.Error("database shutdown error", zap.Error(err))
		return err
	}
	_ = a.logger.Sync()
	return nil
}
