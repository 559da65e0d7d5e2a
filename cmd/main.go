package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/tejusbharadwaj/meterwatch/internal/app"
	"github.com/tejusbharadwaj/meterwatch/internal/config"
	server "github.com/tejusbharadwaj/meterwatch/internal/grpc"
	httpserver "github.com/tejusbharadwaj/meterwatch/internal/http"
	"github.com/tejusbharadwaj/meterwatch/internal/ingest"
	"github.com/tejusbharadwaj/meterwatch/internal/scheduler"
)

// Command meterwatch classifies smart meter readings and serves them.
//
// The service supports:
//   - Direct submission of readings over gRPC and HTTP
//   - Streaming ingestion from a Kinesis shard with store-backed checkpoints
//   - Range queries over readings and anomalies per meter
//   - Memory, PostgreSQL and DynamoDB storage backends
//   - Prometheus metrics
//
// Usage:
//
//	meterwatch [flags]
//
// The flags are:
//
//	-config string
//	      path to config file (default "config.yaml")
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file, empty for defaults and environment only")
	flag.Parse()

	if *configPath != "" {
		if _, err := os.Stat(*configPath); errors.Is(err, os.ErrNotExist) {
			*configPath = ""
		}
	}

	appConfig, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := appConfig.Logging.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, appConfig, logger)
	if err != nil {
		logger.Fatalf("Failed to build application: %v", err)
	}
	svc := components.Service

	healthServer := health.NewServer()
	srv, err := server.SetupServer(svc, healthServer, server.ServerConfig{
		CacheSize:      appConfig.Cache.Size,
		CacheTTL:       appConfig.Cache.TTL,
		RateLimit:      appConfig.RateLimit.RPS,
		RateLimitBurst: appConfig.RateLimit.Burst,
	}, logger, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatalf("Failed to setup server: %v", err)
	}

	grpcAddr := fmt.Sprintf("%s:%d", appConfig.Server.Host, appConfig.Server.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logger.Fatalf("Failed to listen: %v", err)
	}

	errChan := make(chan error, 3)

	go func() {
		logger.WithField("addr", grpcAddr).Info("Starting gRPC server")
		if err := srv.Serve(lis); err != nil {
			errChan <- fmt.Errorf("grpc server error: %w", err)
		}
	}()

	var httpSrv *http.Server
	if appConfig.HTTP.Enabled {
		httpSrv = &http.Server{
			Addr:              fmt.Sprintf("%s:%d", appConfig.HTTP.Host, appConfig.HTTP.Port),
			Handler:           httpserver.New(svc, logger),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		go func() {
			logger.WithField("addr", httpSrv.Addr).Info("Starting HTTP server")
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("http server error: %w", err)
			}
		}()
	}

	var sched *scheduler.Scheduler
	if appConfig.Scheduler.Enabled {
		sched = scheduler.NewScheduler(svc, appConfig.Scheduler.Spec, logger)
		if err := sched.Start(); err != nil {
			logger.Fatalf("Failed to start scheduler: %v", err)
		}
	}

	if appConfig.Ingest.Enabled {
		loop, err := newIngestLoop(appConfig, components, logger)
		if err != nil {
			logger.Fatalf("Failed to create ingestion loop: %v", err)
		}
		go func() {
			err := loop.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				errChan <- fmt.Errorf("ingestion error: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-errChan:
		logger.WithError(err).Error("Service error, shutting down")
	}

	shutdown(appConfig, logger, healthServer, srv, httpSrv, sched, components)
}

func newIngestLoop(cfg *config.Config, c *app.Components, logger *logrus.Logger) (*ingest.Loop, error) {
	if cfg.Ingest.Source != "kinesis" {
		return nil, fmt.Errorf("unknown ingest source %q", cfg.Ingest.Source)
	}

	source, err := ingest.NewKinesisSource(ingest.KinesisConfig{
		Stream:       cfg.Kinesis.Stream,
		ShardID:      cfg.Kinesis.ShardID,
		Region:       cfg.Kinesis.Region,
		Endpoint:     cfg.Kinesis.Endpoint,
		Group:        cfg.Ingest.Group,
		StartAt:      cfg.Kinesis.StartAt,
		PollInterval: cfg.Kinesis.PollInterval,
	}, c.KV, logger)
	if err != nil {
		return nil, err
	}

	return ingest.NewLoop(ingest.LoopConfig{
		Name:    cfg.Ingest.Group,
		Workers: cfg.Ingest.Workers,
		Backoff: ingest.Backoff{
			Base:       cfg.Ingest.BaseDelay,
			Max:        cfg.Ingest.MaxDelay,
			MaxRetries: cfg.Ingest.MaxRetries,
		},
	}, source, c.Service, logger), nil
}

// shutdown stops intake first, then drains detached writes and closes the store.
func shutdown(
	cfg *config.Config,
	logger *logrus.Logger,
	healthServer *health.Server,
	srv *grpc.Server,
	httpSrv *http.Server,
	sched *scheduler.Scheduler,
	c *app.Components,
) {
	logger.Info("Gracefully stopping server...")
	healthServer.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if httpSrv != nil {
		if err := httpSrv.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("HTTP shutdown incomplete")
		}
	}

	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		srv.Stop()
	}

	if sched != nil {
		sched.Stop()
	}

	if err := c.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close store")
	}
	logger.Info("Server stopped")
}
