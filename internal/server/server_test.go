package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vidsum/vidsum/internal/pipeline"
	"github.com/vidsum/vidsum/internal/provider"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...interface{}) {}
func (nopLogger) Info(context.Context, string, ...interface{})  {}
func (nopLogger) Warn(context.Context, string, ...interface{})  {}
func (nopLogger) Error(context.Context, string, ...interface{}) {}

type fakeOrchestrator struct{}

func (fakeOrchestrator) Run(context.Context, pipeline.Request) <-chan pipeline.Event {
	ch := make(chan pipeline.Event, 1)
	ch <- pipeline.Event{Stage: pipeline.StageCompleted, Percent: 100, Terminal: true}
	close(ch)
	return ch
}

type fakeRegistry struct{}

func (fakeRegistry) ProbeAll(context.Context) map[string]provider.Descriptor {
	return map[string]provider.Descriptor{
		"ollama": {Name: "ollama", Available: true, LastChecked: time.Now()},
		"gemini": {Name: "gemini", Err: "no API keys configured"},
	}
}

func (fakeRegistry) Descriptors() map[string]provider.Descriptor { return nil }

func (fakeRegistry) Summarize(context.Context, string, provider.Options) (*provider.SegmentSummary, error) {
	return nil, provider.ErrNoProviderAvailable
}

func (fakeRegistry) Synthesize(context.Context, string, []string, provider.Options) (*provider.Synthesis, error) {
	return nil, provider.ErrNoProviderAvailable
}

func TestHandleProviders(t *testing.T) {
	s := New(":0", fakeOrchestrator{}, fakeRegistry{}, nopLogger{})

	req := httptest.NewRequest(http.MethodGet, "/api/providers", nil)
	rec := httptest.NewRecorder()
	s.handleProviders(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var descs map[string]provider.Descriptor
	if err := json.Unmarshal(rec.Body.Bytes(), &descs); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if !descs["ollama"].Available {
		t.Error("expected ollama available")
	}
	if descs["gemini"].Err == "" {
		t.Error("expected gemini error in descriptor")
	}
}

func TestHandleProvidersMethodNotAllowed(t *testing.T) {
	s := New(":0", fakeOrchestrator{}, fakeRegistry{}, nopLogger{})

	req := httptest.NewRequest(http.MethodPost, "/api/providers", nil)
	rec := httptest.NewRecorder()
	s.handleProviders(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

// recordingOrchestrator hands the request it receives back to the test
// over a channel so the assertion does not race the handler goroutine.
type recordingOrchestrator struct {
	requests chan pipeline.Request
}

func (o *recordingOrchestrator) Run(_ context.Context, req pipeline.Request) <-chan pipeline.Event {
	o.requests <- req
	ch := make(chan pipeline.Event, 1)
	ch <- pipeline.Event{Stage: pipeline.StageCompleted, Percent: 100, Terminal: true}
	close(ch)
	return ch
}

func TestHandleRunPassesOptions(t *testing.T) {
	orch := &recordingOrchestrator{requests: make(chan pipeline.Request, 1)}
	s := New(":0", orch, fakeRegistry{}, nopLogger{})

	ts := httptest.NewServer(http.HandlerFunc(s.handleRun))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	err = conn.WriteJSON(map[string]interface{}{
		"url":                    "https://youtu.be/dQw4w9WgXcQ",
		"provider":               "gemini",
		"max_segments":           7,
		"segment_window_seconds": 90,
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	var req pipeline.Request
	select {
	case req = <-orch.requests:
	case <-time.After(5 * time.Second):
		t.Fatal("orchestrator never received the request")
	}

	if req.URL != "https://youtu.be/dQw4w9WgXcQ" {
		t.Errorf("url = %q", req.URL)
	}
	if req.Options.Provider != "gemini" {
		t.Errorf("provider = %q", req.Options.Provider)
	}
	if req.Options.MaxSegments != 7 {
		t.Errorf("max segments = %d", req.Options.MaxSegments)
	}
	if req.Options.WindowSeconds != 90 {
		t.Errorf("window seconds = %d", req.Options.WindowSeconds)
	}

	var ev pipeline.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if !ev.Terminal || ev.Stage != pipeline.StageCompleted {
		t.Fatalf("event = %+v, want terminal completed", ev)
	}
}
