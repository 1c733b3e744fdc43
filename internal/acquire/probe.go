package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vidsum/vidsum/internal/logger"
)

// prober performs the cheap accessibility pre-check before any
// network-heavy download attempt. A returned *Error with a permanent
// kind is definitive; any other error is advisory only.
type prober interface {
	Check(ctx context.Context, ref VideoReference) error
}

type implProber struct {
	client *http.Client
	logger logger.Logger
}

func newProber(client *http.Client, log logger.Logger) prober {
	return &implProber{client: client, logger: log}
}

func (p *implProber) Check(ctx context.Context, ref VideoReference) error {
	if ref.Kind == KindPublic {
		return p.checkOEmbed(ctx, ref)
	}
	return p.checkPage(ctx, ref)
}

// checkOEmbed asks the platform's oEmbed endpoint about the video.
// It answers existence and visibility without touching any media.
func (p *implProber) checkOEmbed(ctx context.Context, ref VideoReference) error {
	probeURL := "https://www.youtube.com/oembed?url=" + url.QueryEscape(ref.URL) + "&format=json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var info struct {
			Title      string `json:"title"`
			AuthorName string `json:"author_name"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&info); err == nil {
			p.logger.Debug(ctx, "Pre-check ok: %q by %s", info.Title, info.AuthorName)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return &Error{Kind: FailureNotFound, Err: fmt.Errorf("probe: HTTP 404")}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &Error{Kind: FailurePrivateOrUnavailable,
			Err: fmt.Errorf("probe: HTTP %d", resp.StatusCode)}
	default:
		return fmt.Errorf("probe: HTTP %d", resp.StatusCode)
	}
}

// checkPage fetches a recording page and inspects it for embedded
// media. Login walls are advisory: the conference strategy may still
// get through with credentials.
func (p *implProber) checkPage(ctx context.Context, ref VideoReference) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return &Error{Kind: FailureNotFound, Err: fmt.Errorf("probe: HTTP %d", resp.StatusCode)}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("probe: HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("parse probe page: %w", err)
	}

	if doc.Find("video, video source, source[type^='video']").Length() > 0 {
		title := strings.TrimSpace(doc.Find("title").First().Text())
		p.logger.Debug(ctx, "Pre-check found embedded media on %q", title)
		return nil
	}
	if doc.Find("input[type='password']").Length() > 0 {
		return fmt.Errorf("probe: page appears to be behind a login wall")
	}

	return fmt.Errorf("probe: no embedded media found on page")
}
