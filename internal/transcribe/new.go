package transcribe

import (
	"github.com/vidsum/vidsum/internal/config"
	"github.com/vidsum/vidsum/internal/logger"
	"github.com/vidsum/vidsum/pkg/executor"
)

type implTranscriber struct {
	cfg      *config.Config
	executor executor.Executor
	logger   logger.Logger
}

// New creates a Transcriber backed by a whisper.cpp binary.
func New(cfg *config.Config, exec executor.Executor, log logger.Logger) Transcriber {
	return &implTranscriber{
		cfg:      cfg,
		executor: exec,
		logger:   log,
	}
}
