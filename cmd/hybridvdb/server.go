package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/hybridvdb/internal/config"
	"github.com/hyperjump/hybridvdb/internal/scheduler"
	"github.com/hyperjump/hybridvdb/internal/server"
	"github.com/hyperjump/hybridvdb/internal/watcher"
)

func newServerCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long: `Start the HTTP API with periodic anchor and cache decay. Directories
listed under ingest.directories are ingested into the permanent partition
at startup, and watched for changes when ingest.watch is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(opts)
		},
	}
}

func runServer(opts *rootOptions) error {
	cfg, configPath, logger, err := opts.setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("config loaded",
		zap.String("config_path", configPath),
		zap.Bool("debug", cfg.Debug || opts.debug))

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobs, err := startMaintenance(ctx, cfg, comps, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, j := range jobs {
			j.Stop()
		}
	}()

	srvOpts := []server.Option{server.WithGatherer(comps.Registry)}
	if cfg.Ingest.Watch {
		watchSvc := watcher.New(comps.Ingester, watcher.Options{
			Roots:     cfg.Ingest.Directories,
			Recursive: cfg.Ingest.RecursiveOrDefault(),
		}, watcher.WithLogger(logger))
		if err := watchSvc.Start(ctx); err != nil {
			return err
		}
		defer watchSvc.Stop()
		watchSvc.SyncExistingFiles()
		srvOpts = append(srvOpts, server.WithWatch(watchSvc, configPath))
	} else {
		for _, dir := range cfg.Ingest.Directories {
			if _, err := comps.Ingester.IngestPath(ctx, dir); err != nil {
				logger.Warn("startup ingest failed", zap.String("path", dir), zap.Error(err))
			}
		}
	}

	srv := server.NewServer(comps.Router, comps.Ingester, cfg, logger, srvOpts...)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errCh:
		logger.Error("server failed", zap.Error(err))
		return err
	}

	logger.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Stop(shutdownCtx)
}

// startMaintenance schedules anchor and cache decay unless disabled.
func startMaintenance(ctx context.Context, cfg *config.Config, comps *Components, logger *zap.Logger) ([]*scheduler.Job, error) {
	if cfg.Maintenance.Disabled {
		logger.Info("periodic maintenance disabled")
		return nil, nil
	}
	specs := []struct {
		name     string
		interval time.Duration
		fn       scheduler.Func
	}{
		{"anchor-decay", cfg.Maintenance.AnchorDecayInterval, comps.Router.DecayAnchors},
		{"cache-decay", cfg.Maintenance.CacheDecayInterval, comps.Router.DecayClusters},
	}
	var jobs []*scheduler.Job
	for _, s := range specs {
		job, err := scheduler.New(s.interval, s.name, s.fn, logger)
		if err == nil {
			err = job.Start(ctx)
		}
		if err != nil {
			for _, j := range jobs {
				j.Stop()
			}
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
