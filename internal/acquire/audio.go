package acquire

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vidsum/vidsum/pkg/executor"
)

// audioExtensions yt-dlp and conference platforms are known to produce.
var audioExtensions = []string{".webm", ".mp4", ".m4a", ".wav", ".mp3", ".ogg", ".opus", ".aac"}

func isAudioFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range audioExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

// convertToWAV transcodes a downloaded asset to 16kHz mono PCM WAV,
// the input format the transcriber expects. Already-WAV inputs pass
// through untouched.
func convertToWAV(ctx context.Context, exec executor.Executor, ffmpeg, src, dst string) (string, error) {
	if strings.EqualFold(filepath.Ext(src), ".wav") {
		return src, nil
	}

	args := []string{
		"-i", src,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-threads", "0",
		"-y",
		dst,
	}

	if _, err := exec.Execute(ctx, ffmpeg, args...); err != nil {
		return "", fmt.Errorf("ffmpeg convert to wav: %w", err)
	}

	return dst, nil
}
