package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vidsum/vidsum/internal/logger"
	"github.com/vidsum/vidsum/pkg/executor"
)

// clientProfile is one yt-dlp player-client negotiation profile.
// Different platform clients expose different stream manifests, so a
// profile blocked for one identity often succeeds for another.
type clientProfile struct {
	name          string
	playerClients []string
}

var clientProfiles = []clientProfile{
	{name: "android", playerClients: []string{"android", "android_creator"}},
	{name: "ios", playerClients: []string{"ios", "ios_music"}},
	{name: "android_vr", playerClients: []string{"android_vr", "android"}},
	{name: "web_creator", playerClients: []string{"web_creator", "web"}},
	{name: "tv_embedded", playerClients: []string{"tv_embedded", "web"}},
	{name: "web", playerClients: []string{"web"}},
}

type ytdlpStrategy struct {
	profile  clientProfile
	binary   string
	ffmpeg   string
	tempDir  string
	executor executor.Executor
	logger   logger.Logger
}

func (s *ytdlpStrategy) Name() string { return s.profile.name }

type ytdlpInfo struct {
	Title       string  `json:"title"`
	Duration    float64 `json:"duration"`
	Uploader    string  `json:"uploader"`
	UploadDate  string  `json:"upload_date"`
	Description string  `json:"description"`
}

// Fetch downloads the best audio stream into a per-attempt work
// directory and normalizes it to WAV. The work directory is removed on
// failure and handed to the caller on success.
func (s *ytdlpStrategy) Fetch(ctx context.Context, ref VideoReference, fp Fingerprint, _ *Credentials) (*Result, error) {
	workDir, err := os.MkdirTemp(s.tempDir, "acquire-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	res, err := s.fetchInto(ctx, workDir, ref, fp)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}
	return res, nil
}

func (s *ytdlpStrategy) fetchInto(ctx context.Context, workDir string, ref VideoReference, fp Fingerprint) (*Result, error) {
	base := []string{
		"--no-playlist",
		"--no-warnings",
		"--user-agent", fp.UserAgent,
		"--extractor-args", "youtube:player_client=" + strings.Join(s.profile.playerClients, ","),
		// The engine owns retries; the tool must fail fast.
		"--retries", "1",
	}
	for key, value := range fp.Headers {
		base = append(base, "--add-header", key+":"+value)
	}

	// Metadata first: title and duration feed validation and the
	// report. Failure here is not fatal; the download may still work.
	var info ytdlpInfo
	infoArgs := append([]string{"--dump-json", "--skip-download"}, base...)
	infoArgs = append(infoArgs, ref.URL)
	if out, err := s.executor.Execute(ctx, s.binary, infoArgs...); err != nil {
		s.logger.Warn(ctx, "yt-dlp metadata extraction failed: %v", err)
	} else if jerr := json.Unmarshal([]byte(out), &info); jerr != nil {
		s.logger.Warn(ctx, "yt-dlp metadata parse failed: %v", jerr)
	}

	dlArgs := append([]string{
		"-f", "bestaudio/best",
		"-o", filepath.Join(workDir, "%(id)s.%(ext)s"),
	}, base...)
	dlArgs = append(dlArgs, ref.URL)
	if _, err := s.executor.Execute(ctx, s.binary, dlArgs...); err != nil {
		return nil, fmt.Errorf("yt-dlp download: %w", err)
	}

	downloaded, err := findAudioFile(workDir)
	if err != nil {
		return nil, err
	}

	wavPath, err := convertToWAV(ctx, s.executor, s.ffmpeg, downloaded, filepath.Join(workDir, "audio.wav"))
	if err != nil {
		return nil, err
	}
	if wavPath != downloaded {
		os.Remove(downloaded)
	}

	title := info.Title
	if title == "" {
		title = "Downloaded Video"
	}

	return &Result{
		AudioPath: wavPath,
		WorkDir:   workDir,
		Title:     title,
		Duration:  time.Duration(info.Duration * float64(time.Second)),
		Meta: Metadata{
			Uploader:    info.Uploader,
			UploadDate:  info.UploadDate,
			Description: truncate(info.Description, 500),
		},
	}, nil
}

func findAudioFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read work dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && isAudioFile(e.Name()) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no audio file was downloaded")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
