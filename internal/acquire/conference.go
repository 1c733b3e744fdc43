package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vidsum/vidsum/internal/logger"
	"github.com/vidsum/vidsum/pkg/executor"
)

// conferenceStrategy handles conference and lecture portals that embed
// a plain <video> element instead of going through a streaming platform.
// It scrapes the page for a direct media URL and downloads it over HTTP.
type conferenceStrategy struct {
	client  *http.Client
	ffmpeg  string
	tempDir string
	exec    executor.Executor
	logger  logger.Logger
}

func (s *conferenceStrategy) Name() string { return "conference" }

func (s *conferenceStrategy) Fetch(ctx context.Context, ref VideoReference, fp Fingerprint, creds *Credentials) (*Result, error) {
	doc, title, err := s.fetchPage(ctx, ref.URL, fp, creds)
	if err != nil {
		return nil, err
	}

	mediaURL, err := extractMediaURL(doc, ref.URL)
	if err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "conference page media url: %s", mediaURL)

	workDir, err := os.MkdirTemp(s.tempDir, "acquire-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	res, err := s.download(ctx, workDir, mediaURL, title, fp, creds)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}
	return res, nil
}

func (s *conferenceStrategy) fetchPage(ctx context.Context, pageURL string, fp Fingerprint, creds *Credentials) (*goquery.Document, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build page request: %w", err)
	}
	applyFingerprint(req, fp)
	if creds != nil {
		req.SetBasicAuth(creds.Username, creds.Password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("parse page: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	return doc, title, nil
}

// extractMediaURL looks for a direct video source on the page. Relative
// sources are resolved against the page URL.
func extractMediaURL(doc *goquery.Document, pageURL string) (string, error) {
	var src string
	doc.Find("video[src], video source[src], source[type^='video'][src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if v, ok := sel.Attr("src"); ok && v != "" {
			src = v
			return false
		}
		return true
	})
	if src == "" {
		doc.Find("[data-video-src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if v, ok := sel.Attr("data-video-src"); ok && v != "" {
				src = v
				return false
			}
			return true
		})
	}
	if src == "" {
		return "", fmt.Errorf("no embedded video source found on page")
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	resolved, err := base.Parse(src)
	if err != nil {
		return "", fmt.Errorf("resolve media url: %w", err)
	}
	return resolved.String(), nil
}

func (s *conferenceStrategy) download(ctx context.Context, workDir, mediaURL, title string, fp Fingerprint, creds *Credentials) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build media request: %w", err)
	}
	applyFingerprint(req, fp)
	if creds != nil {
		req.SetBasicAuth(creds.Username, creds.Password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download media: status %d", resp.StatusCode)
	}

	name := path.Base(req.URL.Path)
	if name == "" || name == "/" || name == "." {
		name = "media.mp4"
	}
	mediaPath := filepath.Join(workDir, name)

	f, err := os.Create(mediaPath)
	if err != nil {
		return nil, fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return nil, fmt.Errorf("write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close media file: %w", err)
	}

	wavPath, err := convertToWAV(ctx, s.exec, s.ffmpeg, mediaPath, filepath.Join(workDir, "audio.wav"))
	if err != nil {
		return nil, err
	}
	if wavPath != mediaPath {
		os.Remove(mediaPath)
	}

	if title == "" {
		title = "Downloaded Video"
	}

	return &Result{
		AudioPath: wavPath,
		WorkDir:   workDir,
		Title:     title,
		Duration:  0,
	}, nil
}

func applyFingerprint(req *http.Request, fp Fingerprint) {
	if fp.UserAgent != "" {
		req.Header.Set("User-Agent", fp.UserAgent)
	}
	for key, value := range fp.Headers {
		req.Header.Set(key, value)
	}
}
