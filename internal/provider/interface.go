package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoProviderAvailable is returned when every configured provider
// failed its availability probe.
var ErrNoProviderAvailable = errors.New("no summarization provider is available")

// CallError is a failed generation call against a specific provider.
type CallError struct {
	Provider string
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// ModelInfo describes one model a provider can serve.
type ModelInfo struct {
	Name string `json:"name"`
}

// Provider is a single summarization backend.
type Provider interface {
	Name() string
	// CheckAvailability verifies the backend is reachable and usable.
	CheckAvailability(ctx context.Context) error
	ListModels(ctx context.Context) ([]ModelInfo, error)
	// Generate runs one completion. An empty model selects the
	// provider's configured default.
	Generate(ctx context.Context, model, prompt string, maxTokens int) (string, error)
}

// Descriptor is the cached probe result for one provider.
type Descriptor struct {
	Name        string      `json:"name"`
	Available   bool        `json:"available"`
	Models      []ModelInfo `json:"models,omitempty"`
	LastChecked time.Time   `json:"last_checked"`
	Err         string      `json:"error,omitempty"`
}

// Options steer one summarization call.
type Options struct {
	// Provider pins a specific provider by name. Empty follows the
	// configured priority order.
	Provider string
	// Model overrides the selected provider's default model.
	Model     string
	MaxTokens int
}

// SegmentSummary is the structured result of summarizing one
// transcript segment.
type SegmentSummary struct {
	Summary   string
	KeyPoints []string
	Provider  string
	Model     string
}

// Synthesis is the overall summary built from per-segment summaries.
type Synthesis struct {
	Overall   string
	Themes    []string
	Takeaways []string
	Provider  string
	Model     string
}

// Registry probes configured providers and routes summarization calls
// to whichever is available.
type Registry interface {
	// ProbeAll checks every provider concurrently and returns the
	// refreshed descriptors keyed by provider name.
	ProbeAll(ctx context.Context) map[string]Descriptor
	// Descriptors returns the cached probe results without probing.
	Descriptors() map[string]Descriptor
	Summarize(ctx context.Context, text string, opts Options) (*SegmentSummary, error)
	Synthesize(ctx context.Context, title string, summaries []string, opts Options) (*Synthesis, error)
}
