package acquire

import (
	"net/http"
	"time"

	"github.com/vidsum/vidsum/internal/config"
	"github.com/vidsum/vidsum/internal/logger"
	"github.com/vidsum/vidsum/pkg/executor"
)

// New creates an Engine with the default strategy order: the yt-dlp
// client profiles in decreasing success likelihood, the conference
// page strategy, and the behavioral browser fallback last when one is
// configured.
func New(cfg *config.Config, exec executor.Executor, log logger.Logger) Engine {
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.Acquisition.ProbeTimeoutSecs) * time.Second,
	}

	strategies := make([]Strategy, 0, len(clientProfiles)+2)
	for _, profile := range clientProfiles {
		strategies = append(strategies, &ytdlpStrategy{
			profile:  profile,
			binary:   cfg.Acquisition.YtdlpBinary,
			ffmpeg:   cfg.Acquisition.FFmpegBinary,
			tempDir:  cfg.Paths.Temp,
			executor: exec,
			logger:   log,
		})
	}

	strategies = append(strategies, &conferenceStrategy{
		client:  &http.Client{Timeout: 10 * time.Minute},
		ffmpeg:  cfg.Acquisition.FFmpegBinary,
		tempDir: cfg.Paths.Temp,
		exec:    exec,
		logger:  log,
	})

	if cfg.Acquisition.BrowserCommand != "" {
		strategies = append(strategies, &browserStrategy{
			command:  cfg.Acquisition.BrowserCommand,
			ffmpeg:   cfg.Acquisition.FFmpegBinary,
			tempDir:  cfg.Paths.Temp,
			executor: exec,
			logger:   log,
		})
	}

	return &implEngine{
		strategies:   strategies,
		prober:       newProber(httpClient, log),
		validator:    newValidator(cfg.Acquisition.FFprobeBinary, exec),
		logger:       log,
		retries:      cfg.Acquisition.MaxRetries,
		backoffBase:  time.Duration(cfg.Acquisition.BackoffBaseSeconds) * time.Second,
		backoffMax:   time.Duration(cfg.Acquisition.BackoffMaxSeconds) * time.Second,
		jitterFactor: 0.2,
		sleep:        realSleeper{},
		rnd:          defaultRand,
	}
}
