package acquire

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// FailureKind classifies an acquisition failure. The permanent kinds
// abort the whole acquisition; everything else is retried.
type FailureKind int

const (
	FailureNotFound FailureKind = iota
	FailureForbidden
	FailureAgeRestricted
	FailurePrivateOrUnavailable
	FailureRateLimited
	FailureNetwork
	FailureExhausted
)

func (k FailureKind) String() string {
	switch k {
	case FailureNotFound:
		return "not_found"
	case FailureForbidden:
		return "forbidden"
	case FailureAgeRestricted:
		return "age_restricted"
	case FailurePrivateOrUnavailable:
		return "private_or_unavailable"
	case FailureRateLimited:
		return "rate_limited"
	case FailureNetwork:
		return "network_failure"
	case FailureExhausted:
		return "all_strategies_exhausted"
	}
	return "unknown"
}

// UserMessage returns the caller-facing cause category, free of
// strategy names and raw diagnostics.
func (k FailureKind) UserMessage() string {
	switch k {
	case FailureNotFound:
		return "video not found"
	case FailureForbidden:
		return "access to the video was denied"
	case FailureAgeRestricted:
		return "video is age-restricted and requires authentication"
	case FailurePrivateOrUnavailable:
		return "video is private or unavailable"
	case FailureRateLimited:
		return "the video platform is rate limiting downloads"
	case FailureNetwork:
		return "network failure while downloading"
	case FailureExhausted:
		return "video could not be downloaded"
	}
	return "video could not be downloaded"
}

// Error is the failure type surfaced by the acquisition engine.
type Error struct {
	Kind     FailureKind
	Strategy string
	Err      error
}

func (e *Error) Error() string {
	if e.Strategy != "" {
		return fmt.Sprintf("acquire [%s] %s: %v", e.Strategy, e.Kind, e.Err)
	}
	return fmt.Sprintf("acquire %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// permanent reports whether the failure class rules out every further
// attempt. Age restriction is only terminal without credentials;
// forbidden and rate limiting may clear under a different
// client-identity profile.
func permanent(kind FailureKind, creds *Credentials) bool {
	switch kind {
	case FailureNotFound, FailurePrivateOrUnavailable:
		return true
	case FailureAgeRestricted:
		return creds == nil
	}
	return false
}

// Classify maps a raw strategy failure onto a FailureKind. Download
// tools surface platform responses as message text, so matching is
// string-based; anything unrecognized counts as a transient network
// failure.
func Classify(err error) FailureKind {
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr.Kind
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "sign in to confirm your age"),
		strings.Contains(msg, "age-restricted"),
		strings.Contains(msg, "age restricted"):
		return FailureAgeRestricted
	case strings.Contains(msg, "private video"),
		strings.Contains(msg, "video unavailable"),
		strings.Contains(msg, "no longer available"),
		strings.Contains(msg, "has been removed"):
		return FailurePrivateOrUnavailable
	case strings.Contains(msg, "404"),
		strings.Contains(msg, "not found"),
		strings.Contains(msg, "does not exist"):
		return FailureNotFound
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "rate-limit"):
		return FailureRateLimited
	case strings.Contains(msg, "403"),
		strings.Contains(msg, "forbidden"),
		strings.Contains(msg, "access denied"):
		return FailureForbidden
	}

	var nerr net.Error
	if errors.As(err, &nerr) || errors.Is(err, context.DeadlineExceeded) {
		return FailureNetwork
	}

	return FailureNetwork
}
