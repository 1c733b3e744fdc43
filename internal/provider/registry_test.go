package provider

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...interface{}) {}
func (nopLogger) Info(context.Context, string, ...interface{})  {}
func (nopLogger) Warn(context.Context, string, ...interface{})  {}
func (nopLogger) Error(context.Context, string, ...interface{}) {}

type fakeProvider struct {
	name       string
	checkErr   error
	checkDelay time.Duration
	response   string
	genErr     error
	genCalls   atomic.Int32
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) CheckAvailability(ctx context.Context) error {
	if p.checkDelay > 0 {
		select {
		case <-time.After(p.checkDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p.checkErr
}

func (p *fakeProvider) ListModels(context.Context) ([]ModelInfo, error) {
	return []ModelInfo{{Name: p.name + "-default"}}, nil
}

func (p *fakeProvider) Generate(_ context.Context, _, _ string, _ int) (string, error) {
	p.genCalls.Add(1)
	if p.genErr != nil {
		return "", p.genErr
	}
	return p.response, nil
}

func newTestRegistry(priority []string, providers ...*fakeProvider) *implRegistry {
	m := make(map[string]Provider, len(providers))
	for _, p := range providers {
		m[p.name] = p
	}
	return &implRegistry{
		providers:   m,
		priority:    priority,
		timeout:     5 * time.Second,
		logger:      nopLogger{},
		descriptors: make(map[string]Descriptor),
	}
}

const okResponse = "SUMMARY: Fine.\nKEY_POINTS:\n- One"

func TestProbeAllRunsConcurrently(t *testing.T) {
	delay := 100 * time.Millisecond
	a := &fakeProvider{name: "ollama", checkDelay: delay}
	b := &fakeProvider{name: "gemini", checkDelay: delay}
	c := &fakeProvider{name: "openai", checkDelay: delay, checkErr: errors.New("bad key")}
	reg := newTestRegistry([]string{"ollama", "gemini", "openai"}, a, b, c)

	start := time.Now()
	descs := reg.ProbeAll(context.Background())
	elapsed := time.Since(start)

	// Serial probes would take 3x the delay.
	if elapsed >= 2*delay {
		t.Errorf("probes took %v, expected concurrent execution under %v", elapsed, 2*delay)
	}

	if !descs["ollama"].Available || !descs["gemini"].Available {
		t.Error("expected ollama and gemini available")
	}
	if descs["openai"].Available {
		t.Error("expected openai unavailable")
	}
	if descs["openai"].Err == "" {
		t.Error("expected openai descriptor to carry the probe error")
	}
	if len(descs["ollama"].Models) != 1 {
		t.Errorf("expected cached model list, got %v", descs["ollama"].Models)
	}
}

func TestSummarizeFollowsPriority(t *testing.T) {
	first := &fakeProvider{name: "ollama", checkErr: errors.New("down")}
	second := &fakeProvider{name: "gemini", response: okResponse}
	reg := newTestRegistry([]string{"ollama", "gemini"}, first, second)
	reg.ProbeAll(context.Background())

	sum, err := reg.Summarize(context.Background(), "some transcript", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Provider != "gemini" {
		t.Errorf("got provider %s, want gemini", sum.Provider)
	}
	if sum.Summary != "Fine." {
		t.Errorf("got summary %q", sum.Summary)
	}
	if first.genCalls.Load() != 0 {
		t.Error("unavailable provider should never be called")
	}
}

func TestSummarizePreferredProviderWins(t *testing.T) {
	first := &fakeProvider{name: "ollama", response: okResponse}
	second := &fakeProvider{name: "gemini", response: okResponse}
	reg := newTestRegistry([]string{"ollama", "gemini"}, first, second)
	reg.ProbeAll(context.Background())

	sum, err := reg.Summarize(context.Background(), "text", Options{Provider: "gemini"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Provider != "gemini" {
		t.Errorf("got provider %s, want pinned gemini", sum.Provider)
	}
	if first.genCalls.Load() != 0 {
		t.Error("priority provider called despite pin")
	}
}

func TestSummarizeCallFailureSurfacesAndInvalidates(t *testing.T) {
	first := &fakeProvider{name: "ollama", genErr: errors.New("model crashed")}
	second := &fakeProvider{name: "gemini", response: okResponse}
	reg := newTestRegistry([]string{"ollama", "gemini"}, first, second)
	reg.ProbeAll(context.Background())

	_, err := reg.Summarize(context.Background(), "text", Options{})
	var cerr *CallError
	if !errors.As(err, &cerr) {
		t.Fatalf("got %T, want *CallError", err)
	}
	if cerr.Provider != "ollama" {
		t.Errorf("got provider %s, want ollama", cerr.Provider)
	}
	if second.genCalls.Load() != 0 {
		t.Error("registry cascaded to another provider mid-request")
	}

	// The failed call marks the provider unavailable, so the caller's
	// retry lands on the next one in priority order.
	if reg.Descriptors()["ollama"].Available {
		t.Error("failed provider still marked available")
	}

	sum, err := reg.Summarize(context.Background(), "text", Options{})
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if sum.Provider != "gemini" {
		t.Errorf("retry used %s, want gemini", sum.Provider)
	}
}

func TestSummarizeNoProviderAvailable(t *testing.T) {
	first := &fakeProvider{name: "ollama", checkErr: errors.New("down")}
	reg := newTestRegistry([]string{"ollama"}, first)
	reg.ProbeAll(context.Background())

	_, err := reg.Summarize(context.Background(), "text", Options{})
	if !errors.Is(err, ErrNoProviderAvailable) {
		t.Fatalf("got %v, want ErrNoProviderAvailable", err)
	}
}

func TestSummarizeAllProvidersExhausted(t *testing.T) {
	first := &fakeProvider{name: "ollama", genErr: errors.New("crash a")}
	second := &fakeProvider{name: "gemini", genErr: errors.New("crash b")}
	reg := newTestRegistry([]string{"ollama", "gemini"}, first, second)
	reg.ProbeAll(context.Background())

	// Each call fails one provider; once both are invalidated there is
	// nothing left to select.
	for range 2 {
		var cerr *CallError
		if _, err := reg.Summarize(context.Background(), "text", Options{}); !errors.As(err, &cerr) {
			t.Fatalf("got %T, want *CallError", err)
		}
	}
	_, err := reg.Summarize(context.Background(), "text", Options{})
	if !errors.Is(err, ErrNoProviderAvailable) {
		t.Fatalf("got %v, want ErrNoProviderAvailable", err)
	}
}

func TestSynthesizeEmptyInput(t *testing.T) {
	reg := newTestRegistry([]string{"ollama"}, &fakeProvider{name: "ollama", response: okResponse})
	if _, err := reg.Synthesize(context.Background(), "Title", nil, Options{}); err == nil {
		t.Fatal("expected error for empty summaries")
	}
}

func TestSynthesize(t *testing.T) {
	response := `OVERALL_SUMMARY: Whole talk.
MAIN_THEMES:
- Theme one
KEY_TAKEAWAYS:
- Takeaway one`
	reg := newTestRegistry([]string{"ollama"}, &fakeProvider{name: "ollama", response: response})
	reg.ProbeAll(context.Background())

	syn, err := reg.Synthesize(context.Background(), "Title", []string{"s1", "s2"}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if syn.Overall != "Whole talk." {
		t.Errorf("overall = %q", syn.Overall)
	}
	if len(syn.Themes) != 1 || len(syn.Takeaways) != 1 {
		t.Errorf("themes %v takeaways %v", syn.Themes, syn.Takeaways)
	}
}

func TestProbeAllRestoresInvalidatedProvider(t *testing.T) {
	p := &fakeProvider{name: "ollama", response: okResponse, genErr: errors.New("model crashed")}
	reg := newTestRegistry([]string{"ollama"}, p)
	reg.ProbeAll(context.Background())

	if _, err := reg.Summarize(context.Background(), "text", Options{}); err == nil {
		t.Fatal("expected error from failing provider")
	}
	if _, err := reg.Summarize(context.Background(), "text", Options{}); err != ErrNoProviderAvailable {
		t.Fatalf("error while invalidated = %v, want ErrNoProviderAvailable", err)
	}

	// The backend recovers; the next probe must bring it back.
	p.genErr = nil
	reg.ProbeAll(context.Background())

	sum, err := reg.Summarize(context.Background(), "text", Options{})
	if err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	if sum.Provider != "ollama" {
		t.Errorf("provider = %q", sum.Provider)
	}
}
