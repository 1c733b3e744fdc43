package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vidsum/vidsum/internal/acquire"
	"github.com/vidsum/vidsum/internal/config"
	"github.com/vidsum/vidsum/internal/events"
	"github.com/vidsum/vidsum/internal/logger"
	"github.com/vidsum/vidsum/internal/metrics"
	"github.com/vidsum/vidsum/internal/pipeline"
	"github.com/vidsum/vidsum/internal/provider"
	"github.com/vidsum/vidsum/internal/segment"
	"github.com/vidsum/vidsum/internal/server"
	"github.com/vidsum/vidsum/internal/transcribe"
	"github.com/vidsum/vidsum/internal/watcher"
	"github.com/vidsum/vidsum/pkg/executor"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Info(ctx, "========================================")
	log.Info(ctx, "Video Summarization Pipeline")
	log.Info(ctx, "========================================")
	log.Info(ctx, "System: %s/%s, %d cores", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())

	if err := ensureDirectories(cfg); err != nil {
		log.Error(ctx, "Failed to create directories: %v", err)
		os.Exit(1)
	}

	exec := executor.New()
	for _, tool := range []string{cfg.Acquisition.YtdlpBinary, cfg.Acquisition.FFmpegBinary, cfg.Acquisition.FFprobeBinary, cfg.Whisper.BinaryPath} {
		if !exec.Available(tool) {
			log.Warn(ctx, "Tool %q not found on PATH; related stages will fail", tool)
		}
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	engine := acquire.New(cfg, exec, log)
	transcriber := transcribe.New(cfg, exec, logger.WithComponent(log, "whisper"))
	segmenter := segment.New(logger.WithComponent(log, "segment"))
	registry := provider.New(cfg, logger.WithComponent(log, "provider"))
	orch := pipeline.New(cfg, engine, transcriber, segmenter, registry, m, logger.WithComponent(log, "pipeline"))

	publisher := events.New(cfg, logger.WithComponent(log, "events"))
	defer publisher.Close()

	descs := registry.ProbeAll(ctx)
	for name, d := range descs {
		if d.Available {
			log.Info(ctx, "Provider %s available (%d models)", name, len(d.Models))
		} else {
			log.Warn(ctx, "Provider %s unavailable: %s", name, d.Err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runJob := makeJobHandler(orch, publisher, log)

	errChan := make(chan error, 2)

	if cfg.Paths.Input != "" {
		w, err := watcher.New(cfg.Paths.Input, runJob, logger.WithComponent(log, "watcher"), 2)
		if err != nil {
			log.Error(ctx, "Failed to create watcher: %v", err)
			os.Exit(1)
		}
		defer w.Stop()

		go func() {
			if err := w.Start(ctx); err != nil && err != context.Canceled {
				errChan <- err
			}
		}()
		log.Info(ctx, "Watching %s for .url job files", cfg.Paths.Input)
	}

	srv := server.New(cfg.Server.Addr, orch, registry, logger.WithComponent(log, "server"))
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	log.Info(ctx, "Output directory: %s", cfg.Paths.Output)
	log.Info(ctx, "Listening on %s", cfg.Server.Addr)
	log.Info(ctx, "Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case err := <-errChan:
		log.Error(ctx, "Fatal: %v", err)
	}

	log.Info(ctx, "Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "Server shutdown: %v", err)
	}

	log.Info(ctx, "Pipeline stopped")
}

// makeJobHandler adapts the orchestrator to the watcher's job
// interface: run the pipeline, drain its events, publish the outcome.
func makeJobHandler(orch pipeline.Orchestrator, publisher *events.Publisher, log logger.Logger) watcher.JobHandler {
	return func(ctx context.Context, url string) error {
		start := time.Now()

		var final pipeline.Event
		for ev := range orch.Run(ctx, pipeline.Request{URL: url}) {
			log.Info(ctx, "[%3d%%] %s: %s", ev.Percent, ev.Stage, ev.Message)
			if ev.Terminal {
				final = ev
			}
		}

		event := events.RunEvent{
			URL:        url,
			Status:     string(final.Stage),
			ReportPath: final.ReportPath,
			Error:      final.Error,
			DurationMs: time.Since(start).Milliseconds(),
			FinishedAt: time.Now(),
		}
		if final.Report != nil {
			event.Title = final.Report.Title
			event.Partial = final.Report.Partial
		}
		if err := publisher.Publish(ctx, event); err != nil {
			log.Warn(ctx, "Failed to publish run event: %v", err)
		}

		if final.Stage == pipeline.StageFailed {
			return fmt.Errorf("run failed: %s", final.Error)
		}
		return nil
	}
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{cfg.Paths.Output, cfg.Paths.Temp}
	if cfg.Paths.Input != "" {
		dirs = append(dirs, cfg.Paths.Input)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
