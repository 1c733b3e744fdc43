package acquire

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vidsum/vidsum/pkg/executor"
)

// validator verifies a downloaded asset before the engine hands it to
// the caller. Failures here count as a transient failure of the
// attempt that produced the asset.
type validator interface {
	Validate(ctx context.Context, path string, reported time.Duration) error
}

type ffprobeValidator struct {
	binary   string
	executor executor.Executor
}

func newValidator(binary string, exec executor.Executor) validator {
	return &ffprobeValidator{binary: binary, executor: exec}
}

// Validate checks the asset is non-empty and, when the source reported
// a duration, that the audio length is consistent with it.
func (v *ffprobeValidator) Validate(ctx context.Context, path string, reported time.Duration) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat asset: %w", err)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("downloaded asset is empty")
	}

	out, err := v.executor.Execute(ctx, v.binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	if err != nil {
		return fmt.Errorf("ffprobe asset: %w", err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return fmt.Errorf("parse ffprobe duration %q: %w", strings.TrimSpace(out), err)
	}
	actual := time.Duration(seconds * float64(time.Second))
	if actual <= 0 {
		return fmt.Errorf("asset has zero playable length")
	}

	if reported > 0 {
		tolerance := reported / 10
		if tolerance < 5*time.Second {
			tolerance = 5 * time.Second
		}
		diff := actual - reported
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			return fmt.Errorf("asset length %s inconsistent with reported duration %s", actual, reported)
		}
	}

	return nil
}
