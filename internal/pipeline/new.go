package pipeline

import (
	"time"

	"github.com/vidsum/vidsum/internal/acquire"
	"github.com/vidsum/vidsum/internal/config"
	"github.com/vidsum/vidsum/internal/logger"
	"github.com/vidsum/vidsum/internal/metrics"
	"github.com/vidsum/vidsum/internal/provider"
	"github.com/vidsum/vidsum/internal/segment"
	"github.com/vidsum/vidsum/internal/transcribe"
)

type implOrchestrator struct {
	engine      acquire.Engine
	transcriber transcribe.Transcriber
	segmenter   segment.Segmenter
	registry    provider.Registry
	metrics     *metrics.Metrics
	logger      logger.Logger

	outputDir     string
	maxSegments   int
	windowSeconds int
	maxTokens     int
	minTimeout    time.Duration
	allowPartial  bool
}

// New wires the orchestrator from configuration and the stage
// implementations. Metrics may be nil.
func New(
	cfg *config.Config,
	engine acquire.Engine,
	transcriber transcribe.Transcriber,
	segmenter segment.Segmenter,
	registry provider.Registry,
	m *metrics.Metrics,
	log logger.Logger,
) Orchestrator {
	return &implOrchestrator{
		engine:        engine,
		transcriber:   transcriber,
		segmenter:     segmenter,
		registry:      registry,
		metrics:       m,
		logger:        log,
		outputDir:     cfg.Paths.Output,
		maxSegments:   cfg.Pipeline.MaxSegments,
		windowSeconds: cfg.Pipeline.WindowSeconds,
		maxTokens:     cfg.Pipeline.SummaryMaxTokens,
		minTimeout:    time.Duration(cfg.Pipeline.MinTimeoutMinutes) * time.Minute,
		allowPartial:  cfg.Pipeline.AllowPartial,
	}
}
