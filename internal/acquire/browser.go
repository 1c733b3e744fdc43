package acquire

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vidsum/vidsum/internal/logger"
	"github.com/vidsum/vidsum/pkg/executor"
)

// browserStrategy shells out to an operator-provided capture command,
// typically a headless-browser script, as a last resort for pages that
// defeat both the platform extractor and direct scraping. The command
// receives the video URL and an output directory and is expected to
// leave an audio file there.
type browserStrategy struct {
	command  string
	ffmpeg   string
	tempDir  string
	executor executor.Executor
	logger   logger.Logger
}

func (s *browserStrategy) Name() string { return "browser" }

func (s *browserStrategy) Fetch(ctx context.Context, ref VideoReference, _ Fingerprint, _ *Credentials) (*Result, error) {
	if s.command == "" {
		return nil, fmt.Errorf("browser capture command is not configured")
	}

	workDir, err := os.MkdirTemp(s.tempDir, "acquire-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	res, err := s.capture(ctx, workDir, ref)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}
	return res, nil
}

func (s *browserStrategy) capture(ctx context.Context, workDir string, ref VideoReference) (*Result, error) {
	s.logger.Info(ctx, "running browser capture: %s", s.command)
	if _, err := s.executor.Execute(ctx, s.command, ref.URL, workDir); err != nil {
		return nil, fmt.Errorf("browser capture: %w", err)
	}

	captured, err := findAudioFile(workDir)
	if err != nil {
		return nil, err
	}

	wavPath, err := convertToWAV(ctx, s.executor, s.ffmpeg, captured, filepath.Join(workDir, "audio.wav"))
	if err != nil {
		return nil, err
	}
	if wavPath != captured {
		os.Remove(captured)
	}

	return &Result{
		AudioPath: wavPath,
		WorkDir:   workDir,
		Title:     "Downloaded Video",
		Duration:  0,
	}, nil
}
