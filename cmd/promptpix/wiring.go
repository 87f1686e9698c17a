package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/basel-ax/promptpix/internal/config"
	"github.com/basel-ax/promptpix/internal/db"
	"github.com/basel-ax/promptpix/internal/domain"
	"github.com/basel-ax/promptpix/internal/infrastructure/modal"
	"github.com/basel-ax/promptpix/internal/infrastructure/objectstore"
	"github.com/basel-ax/promptpix/internal/metrics"
	"github.com/basel-ax/promptpix/internal/repository"
	"github.com/basel-ax/promptpix/internal/server"
	"github.com/basel-ax/promptpix/internal/service"
)

const auditTimeout = 5 * time.Minute

func newArtifactStore(ctx context.Context, cfg *config.Config) (domain.ArtifactStore, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverS3:
		client, err := objectstore.NewS3Client(ctx, cfg.Storage.S3)
		if err != nil {
			return nil, err
		}
		return objectstore.NewS3Store(client, cfg.Storage.S3), nil
	case config.StorageDriverLocal:
		store, err := objectstore.NewLocalStore(cfg.Storage.Local.Dir, cfg.Storage.Local.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func provideStore(cfg *config.Config) (domain.ArtifactStore, error) {
	return newArtifactStore(context.Background(), cfg)
}

func provideDB(lc fx.Lifecycle, cfg *config.Config) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return conn.Close() },
	})
	return conn, nil
}

func provideRepository(conn *sql.DB) domain.ImageRepository {
	return repository.NewPostgresImageRepository(conn)
}

func provideGenerator(cfg *config.Config) (domain.ImageGenerator, error) {
	client, err := modal.NewClient(cfg.ModalURL, cfg.ModalAPIKey, cfg.UpstreamTimeout)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideMetrics(reg *prometheus.Registry) (*metrics.Metrics, error) {
	return metrics.New(reg)
}

func provideAuthenticator(cfg *config.Config) *service.Authenticator {
	return service.NewAuthenticator(cfg.APISecret)
}

func provideAuditor(store domain.ArtifactStore, repo domain.ImageRepository, m *metrics.Metrics, log *zap.Logger, cfg *config.Config) *service.OrphanAuditor {
	return service.NewOrphanAuditor(store, repo, m, log, cfg.OrphanGracePeriod)
}

func provideEngine(svc *service.ImageGenerationService, reg *prometheus.Registry, log *zap.Logger, cfg *config.Config) *gin.Engine {
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	opts := server.Options{Logger: log, Gatherer: reg}
	if cfg.Storage.Driver == config.StorageDriverLocal {
		opts.ImagesDir = cfg.Storage.Local.Dir
	}
	return server.NewEngine(server.NewImageHandler(svc), opts)
}

func provideHTTPServer(cfg *config.Config, engine *gin.Engine) *http.Server {
	return server.NewHTTPServer(cfg.HTTPAddr, engine)
}

// registerAudit schedules the orphan audit. An empty schedule disables it.
func registerAudit(lc fx.Lifecycle, cfg *config.Config, auditor *service.OrphanAuditor, log *zap.Logger) error {
	if cfg.OrphanSchedule == "" {
		log.Info("orphan audit disabled")
		return nil
	}

	cronLog := cron.PrintfLogger(zap.NewStdLog(log.With(zap.String("component", "cron"))))
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := c.AddFunc(cfg.OrphanSchedule, func() {
		runCtx, done := context.WithTimeout(ctx, auditTimeout)
		defer done()
		if _, err := auditor.Run(runCtx); err != nil {
			log.Error("orphan audit failed", zap.Error(err))
		}
	})
	if err != nil {
		cancel()
		return fmt.Errorf("invalid ORPHAN_AUDIT_SCHEDULE %q: %w", cfg.OrphanSchedule, err)
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			c.Start()
			log.Info("orphan audit scheduled", zap.String("schedule", cfg.OrphanSchedule))
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-c.Stop().Done():
			case <-stopCtx.Done():
			}
			return nil
		},
	})
	return nil
}
