package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/basel-ax/promptpix/internal/config"
	"github.com/basel-ax/promptpix/internal/server"
	"github.com/basel-ax/promptpix/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the scheduled orphan audit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		app := newApp(cfg, log)

		startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
		defer cancel()
		if err := app.Start(startCtx); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		log.Info("shutting down gracefully")

		stopCtx, cancelStop := context.WithTimeout(context.Background(), app.StopTimeout())
		defer cancelStop()
		return app.Stop(stopCtx)
	},
}

func newApp(cfg *config.Config, log *zap.Logger) *fx.App {
	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
		fx.Supply(cfg, log),
		fx.Provide(
			provideDB,
			provideRepository,
			provideStore,
			provideGenerator,
			provideRegistry,
			provideMetrics,
			provideAuthenticator,
			service.NewImageGenerationService,
			provideAuditor,
			provideEngine,
			provideHTTPServer,
		),
		fx.Invoke(server.Register, registerAudit),
		fx.StopTimeout(15*time.Second),
	)
}
