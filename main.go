package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrops-br/catalog-api/internal/app/service"
	"github.com/mrops-br/catalog-api/internal/domain"
	"github.com/mrops-br/catalog-api/internal/infrastructure/config"
	"github.com/mrops-br/catalog-api/internal/infrastructure/http"
	"github.com/mrops-br/catalog-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/catalog-api/internal/infrastructure/http/web"
	"github.com/mrops-br/catalog-api/internal/infrastructure/idgen"
	"github.com/mrops-br/catalog-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/catalog-api/internal/infrastructure/source"
	"github.com/mrops-br/catalog-api/internal/infrastructure/telemetry"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "catalog-api",
		Usage: "In-memory product catalog with a JSON API and HTML UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "path to a .env file with configuration",
				Value: ".env",
			},
		},
		Action: serve,
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatalf("catalog-api: %v", err)
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("env-file"))
	if err != nil {
		return err
	}

	telem, err := telemetry.New(&cfg.OTLP, &cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telem.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	tracer := telem.TracerProvider.Tracer("catalog-api")
	meter := telem.MeterProvider.Meter("catalog-api")
	logger := telem.Logger

	logger.Info("Starting Catalog API")

	ids, err := idgen.NewSnowflake(cfg.Catalog.NodeID)
	if err != nil {
		return err
	}

	// a nil source keeps the catalog empty until products are created
	var remote domain.ProductSource
	if cfg.Catalog.SourceURL != "" {
		remote = source.NewHTTPSource(cfg.Catalog.SourceURL, source.Options{
			Timeout:     cfg.Catalog.SourceTimeout,
			MaxAttempts: cfg.Catalog.SourceMaxAttempts,
		}, tracer, logger)
		logger.Info("Catalog source configured", slog.String("url", cfg.Catalog.SourceURL))
	}

	repo := memory.NewCatalogRepository(tracer, logger)
	catalogService := service.NewCatalogService(repo, remote, ids, tracer, meter, logger)

	templates, err := web.LoadTemplates()
	if err != nil {
		return err
	}

	server := http.NewServer(
		&cfg.Server,
		handler.NewProductHandler(catalogService, logger),
		web.NewHandler(catalogService, templates, logger),
		telem.MeterProvider,
		telem.Registry,
		logger,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", slog.String("error", err.Error()))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
