package acquire

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// RefKind classifies how a video reference is reached.
type RefKind string

const (
	// KindPublic is a video on a public sharing platform.
	KindPublic RefKind = "public"
	// KindAuthenticated is a conference or intranet recording that may
	// require credentials.
	KindAuthenticated RefKind = "authenticated"
)

var youtubeURL = regexp.MustCompile(
	`(https?://)?(www\.)?(youtube|youtu|youtube-nocookie)\.(com|be)/` +
		`(watch\?v=|embed/|v/|.+\?v=)?([^&=%\?]{11})`)

// VideoReference is a validated, immutable reference to a remote video.
type VideoReference struct {
	URL  string
	Kind RefKind
}

// ParseReference validates a raw URL and classifies it. An empty kind
// auto-detects: recognized sharing-platform URLs are public, anything
// else is treated as an authenticated recording.
func ParseReference(rawURL string, kind RefKind) (VideoReference, error) {
	if rawURL == "" {
		return VideoReference{}, fmt.Errorf("empty video URL")
	}

	switch kind {
	case KindPublic:
		if !youtubeURL.MatchString(rawURL) {
			return VideoReference{}, fmt.Errorf("invalid video URL: %s", rawURL)
		}
	case KindAuthenticated:
		// Accepted as-is; the acquisition strategy decides reachability.
	case "":
		if youtubeURL.MatchString(rawURL) {
			kind = KindPublic
		} else {
			kind = KindAuthenticated
		}
	default:
		return VideoReference{}, fmt.Errorf("unknown reference kind %q", kind)
	}

	return VideoReference{URL: rawURL, Kind: kind}, nil
}

// Credentials are externally supplied login values for authenticated
// acquisition strategies. Never logged.
type Credentials struct {
	Username string
	Password string
}

// Metadata carries source details for diagnostics and the final report.
type Metadata struct {
	Uploader    string
	UploadDate  string
	Description string
	Strategy    string
}

// Result is a locally acquired audio asset. The caller takes ownership
// of WorkDir and everything beneath it.
type Result struct {
	AudioPath string
	WorkDir   string
	Title     string
	Duration  time.Duration
	Meta      Metadata
}

// Strategy is one method of obtaining the audio for a reference.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, ref VideoReference, fp Fingerprint, creds *Credentials) (*Result, error)
}

// State names a position in the acquisition loop.
type State int

const (
	StateIdle State = iota
	StateProbing
	StateDownloading
	StateValidating
	StateBackoffWait
	StateDone
	StateFailed
)

func (s State) String() string {
	return [...]string{"idle", "probing", "downloading", "validating", "backoff-wait", "done", "failed"}[s]
}

// Attempt describes a transition inside a running acquisition, for
// progress reporting.
type Attempt struct {
	State    State
	Strategy string
	Attempt  int
}

// AttemptFunc receives attempt transitions during Acquire. May be nil.
type AttemptFunc func(Attempt)

// Engine resolves a video reference to a local audio asset.
type Engine interface {
	Acquire(ctx context.Context, ref VideoReference, creds *Credentials, notify AttemptFunc) (*Result, error)
}
