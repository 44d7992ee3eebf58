package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	httpadapter "github.com/kirillkom/resumind-client/internal/adapters/http"
	"github.com/kirillkom/resumind-client/internal/config"
	"github.com/kirillkom/resumind-client/internal/core/ports"
	"github.com/kirillkom/resumind-client/internal/core/usecase"
	"github.com/kirillkom/resumind-client/internal/infrastructure/api"
	"github.com/kirillkom/resumind-client/internal/infrastructure/credentials"
	"github.com/kirillkom/resumind-client/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/resumind-client/internal/infrastructure/queue/nats"
	"github.com/kirillkom/resumind-client/internal/infrastructure/resilience"
	"github.com/kirillkom/resumind-client/internal/infrastructure/session"
	"github.com/kirillkom/resumind-client/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/resumind-client/internal/observability/logging"
	"github.com/kirillkom/resumind-client/internal/observability/metrics"
)

const serviceName = "resumind-client"

type App struct {
	Config config.Config
	Logger *zap.Logger

	Client    *api.Client
	AuthUC    *usecase.AuthUseCase
	Workflow  *usecase.UploadWorkflow
	ResumesUC *usecase.ResumeUseCase
	ReportsUC *usecase.ReportUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(serviceName, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	storage, err := localfs.New(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("init state dir: %w", err)
	}

	creds, err := credentials.NewFileStore(cfg.CredentialsPath())
	if err != nil {
		return nil, fmt.Errorf("init credential store: %w", err)
	}

	closers := []func(){func() { _ = logger.Sync() }}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	sessions, closeSessions, err := newSessionStore(ctx, cfg, storage)
	if err != nil {
		closeAll()
		return nil, err
	}
	closers = append(closers, closeSessions)

	resilienceCfg := resilience.ClientConfig(cfg.RetryMaxAttempts, cfg.BreakerEnabled)
	executor := resilience.NewExecutor(resilienceCfg, logger.Named("resilience"))
	if resilienceCfg.Retries() {
		logger.Info("idempotent_retries_enabled", zap.Int("max_attempts", resilienceCfg.RetryMaxAttempts))
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), max(cfg.RateLimitBurst, 1))
	}

	clientMetrics := metrics.NewClientMetrics(serviceName)
	workflowMetrics := metrics.NewWorkflowMetrics(serviceName)

	pipeline := api.NewPipeline(cfg.APIURL, creds, api.Options{
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		Executor:   executor,
		Limiter:    limiter,
		Metrics:    clientMetrics,
		Logger:     logger.Named("api"),
	})
	client := api.NewClient(pipeline)

	workflowOpts := []usecase.WorkflowOption{
		usecase.WithWorkflowRecorder(workflowMetrics),
		usecase.WithWorkflowLogger(logger.Named("workflow")),
	}
	if cfg.NATSURL != "" {
		publisher, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger.Named("nats"),
		})
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		closers = append(closers, publisher.Close)
		workflowOpts = append(workflowOpts, usecase.WithEventPublisher(publisher))
	}

	authUC := usecase.NewAuthUseCase(client, creds, sessions, credentials.AccessExpiry, logger.Named("auth"))
	workflow := usecase.NewUploadWorkflow(client, client, sessions, workflowOpts...)

	if cfg.MetricsAddr != "" {
		router := httpadapter.NewRouter(
			authUC,
			workflow,
			metrics.Handler(clientMetrics.Gatherer(), workflowMetrics.Gatherer()),
			logger.Named("admin"),
		)
		closers = append(closers, serveAdmin(cfg.MetricsAddr, router.Handler(), logger))
	}

	return &App{
		Config: cfg,
		Logger: logger,

		Client:    client,
		AuthUC:    authUC,
		Workflow:  workflow,
		ResumesUC: usecase.NewResumeUseCase(client),
		ReportsUC: usecase.NewReportUseCase(client, xlsx.NewExporter()),

		closeFn: closeAll,
	}, nil
}

func newSessionStore(ctx context.Context, cfg config.Config, storage *localfs.Storage) (ports.SessionStore, func(), error) {
	switch cfg.SessionBackend {
	case config.SessionBackendMemory:
		return session.NewMemoryStore(), func() {}, nil
	case config.SessionBackendRedis:
		opts := session.RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			SessionID: cfg.SessionID,
			TTL:       cfg.SessionTTL,
		}
		store := session.NewRedisStore(session.NewRedisClient(opts), opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("init session store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return session.NewFileStore(storage), func() {}, nil
	}
}

// serveAdmin runs the health and metrics surface until the returned func is called.
func serveAdmin(addr string, handler http.Handler, logger *zap.Logger) func() {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("admin_listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin_server_failed", zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("admin_shutdown_failed", zap.Error(err))
		}
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
