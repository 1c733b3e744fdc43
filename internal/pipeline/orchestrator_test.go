package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vidsum/vidsum/internal/acquire"
	"github.com/vidsum/vidsum/internal/provider"
	"github.com/vidsum/vidsum/internal/segment"
	"github.com/vidsum/vidsum/internal/transcribe"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...interface{}) {}
func (nopLogger) Info(context.Context, string, ...interface{})  {}
func (nopLogger) Warn(context.Context, string, ...interface{})  {}
func (nopLogger) Error(context.Context, string, ...interface{}) {}

type fakeEngine struct {
	res *acquire.Result
	err error
}

func (e *fakeEngine) Acquire(_ context.Context, _ acquire.VideoReference, _ *acquire.Credentials, notify acquire.AttemptFunc) (*acquire.Result, error) {
	if notify != nil {
		notify(acquire.Attempt{State: acquire.StateProbing})
		if e.err == nil {
			notify(acquire.Attempt{State: acquire.StateDownloading, Strategy: "android"})
			notify(acquire.Attempt{State: acquire.StateValidating, Strategy: "android"})
			notify(acquire.Attempt{State: acquire.StateDone, Strategy: "android"})
		} else {
			notify(acquire.Attempt{State: acquire.StateFailed})
		}
	}
	return e.res, e.err
}

type fakeTranscriber struct {
	text transcribe.TimedText
	err  error
}

func (t *fakeTranscriber) Transcribe(context.Context, string) (transcribe.TimedText, error) {
	return t.text, t.err
}

type fakeSegmenter struct {
	segments []segment.Segment
	err      error
}

func (s *fakeSegmenter) Segment(context.Context, transcribe.TimedText, time.Duration, int) ([]segment.Segment, error) {
	return s.segments, s.err
}

type fakeRegistry struct {
	summarizeErr  error
	synthesizeErr error
	// failFirstN makes the first N Summarize calls fail with a
	// CallError, simulating a provider dying mid-run.
	failFirstN int
	calls      int
	probes     int
}

func (r *fakeRegistry) ProbeAll(context.Context) map[string]provider.Descriptor {
	r.probes++
	return nil
}

func (r *fakeRegistry) Descriptors() map[string]provider.Descriptor { return nil }

func (r *fakeRegistry) Summarize(_ context.Context, text string, _ provider.Options) (*provider.SegmentSummary, error) {
	r.calls++
	if r.calls <= r.failFirstN {
		return nil, &provider.CallError{Provider: "ollama", Err: errors.New("model crashed")}
	}
	if r.summarizeErr != nil {
		return nil, r.summarizeErr
	}
	return &provider.SegmentSummary{
		Summary:   "summary of " + text,
		KeyPoints: []string{"point"},
		Provider:  "ollama",
	}, nil
}

func (r *fakeRegistry) Synthesize(_ context.Context, _ string, _ []string, _ provider.Options) (*provider.Synthesis, error) {
	if r.synthesizeErr != nil {
		return nil, r.synthesizeErr
	}
	return &provider.Synthesis{
		Overall:  "the whole video",
		Themes:   []string{"theme"},
		Provider: "ollama",
	}, nil
}

func testTranscript() transcribe.TimedText {
	return transcribe.TimedText{Cues: []transcribe.Cue{
		{Start: 0, End: 30 * time.Second, Text: "First part of the talk."},
		{Start: 30 * time.Second, End: 60 * time.Second, Text: "Second part of the talk."},
	}}
}

func testSegments() []segment.Segment {
	return []segment.Segment{
		{Start: 0, End: 30 * time.Second, Text: "First part of the talk.", Score: 1.0},
		{Start: 30 * time.Second, End: 60 * time.Second, Text: "Second part of the talk.", Score: 0.5},
	}
}

func acquiredResult(t *testing.T) *acquire.Result {
	t.Helper()
	workDir, err := os.MkdirTemp(t.TempDir(), "run-*")
	if err != nil {
		t.Fatal(err)
	}
	audio := filepath.Join(workDir, "audio.wav")
	if err := os.WriteFile(audio, []byte("riff"), 0644); err != nil {
		t.Fatal(err)
	}
	return &acquire.Result{
		AudioPath: audio,
		WorkDir:   workDir,
		Title:     "Test Talk",
		Duration:  time.Minute,
	}
}

func newTestOrchestrator(t *testing.T, eng acquire.Engine, tr transcribe.Transcriber, seg segment.Segmenter, reg provider.Registry) *implOrchestrator {
	t.Helper()
	return &implOrchestrator{
		engine:        eng,
		transcriber:   tr,
		segmenter:     seg,
		registry:      reg,
		logger:        nopLogger{},
		outputDir:     t.TempDir(),
		maxSegments:   5,
		windowSeconds: 60,
		maxTokens:     300,
		minTimeout:    10 * time.Minute,
	}
}

func collect(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var events []Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func checkEventContract(t *testing.T, events []Event) Event {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("no events emitted")
	}
	last := -1
	terminals := 0
	for _, ev := range events {
		if ev.Percent < last {
			t.Errorf("percent decreased: %d after %d (%s)", ev.Percent, last, ev.Message)
		}
		last = ev.Percent
		if ev.Terminal {
			terminals++
		}
	}
	if terminals != 1 {
		t.Fatalf("got %d terminal events, want exactly 1", terminals)
	}
	final := events[len(events)-1]
	if !final.Terminal {
		t.Fatal("terminal event is not last")
	}
	return final
}

func TestRunSuccess(t *testing.T) {
	res := acquiredResult(t)
	o := newTestOrchestrator(t,
		&fakeEngine{res: res},
		&fakeTranscriber{text: testTranscript()},
		&fakeSegmenter{segments: testSegments()},
		&fakeRegistry{},
	)

	events := collect(t, o.Run(context.Background(), Request{URL: "https://youtu.be/dQw4w9WgXcQ"}))
	final := checkEventContract(t, events)

	if final.Stage != StageCompleted || final.Percent != 100 {
		t.Fatalf("final event = %+v, want completed at 100", final)
	}
	if final.Report == nil || len(final.Report.Segments) != 2 {
		t.Fatalf("unexpected report: %+v", final.Report)
	}
	if final.Report.Partial {
		t.Error("report marked partial on clean run")
	}

	if _, err := os.Stat(final.ReportPath); err != nil {
		t.Errorf("markdown report missing: %v", err)
	}
	docx := strings.TrimSuffix(final.ReportPath, ".md") + ".docx"
	if _, err := os.Stat(docx); err != nil {
		t.Errorf("docx report missing: %v", err)
	}

	if _, err := os.Stat(res.WorkDir); !os.IsNotExist(err) {
		t.Error("work dir not cleaned up after successful run")
	}
}

func TestRunAcquireFailure(t *testing.T) {
	o := newTestOrchestrator(t,
		&fakeEngine{err: &acquire.Error{Kind: acquire.FailurePrivateOrUnavailable, Err: errors.New("private")}},
		&fakeTranscriber{},
		&fakeSegmenter{},
		&fakeRegistry{},
	)

	events := collect(t, o.Run(context.Background(), Request{URL: "https://youtu.be/dQw4w9WgXcQ"}))
	final := checkEventContract(t, events)

	if final.Stage != StageFailed {
		t.Fatalf("final stage = %s, want failed", final.Stage)
	}
	if final.Error != "video is private or unavailable" {
		t.Errorf("user message = %q", final.Error)
	}
}

func TestRunInvalidURL(t *testing.T) {
	o := newTestOrchestrator(t, &fakeEngine{}, &fakeTranscriber{}, &fakeSegmenter{}, &fakeRegistry{})

	events := collect(t, o.Run(context.Background(), Request{URL: "", Kind: acquire.KindPublic}))
	final := checkEventContract(t, events)
	if final.Stage != StageFailed {
		t.Fatalf("final stage = %s, want failed", final.Stage)
	}
}

func TestRunEmptyTranscript(t *testing.T) {
	res := acquiredResult(t)
	o := newTestOrchestrator(t,
		&fakeEngine{res: res},
		&fakeTranscriber{text: transcribe.TimedText{}},
		&fakeSegmenter{},
		&fakeRegistry{},
	)

	events := collect(t, o.Run(context.Background(), Request{URL: "https://youtu.be/dQw4w9WgXcQ"}))
	final := checkEventContract(t, events)

	if final.Stage != StageFailed {
		t.Fatalf("final stage = %s, want failed", final.Stage)
	}
	if !strings.Contains(final.Error, "speech") {
		t.Errorf("user message = %q", final.Error)
	}
	if _, err := os.Stat(res.WorkDir); !os.IsNotExist(err) {
		t.Error("work dir not cleaned up after failed run")
	}
}

func TestRunSummarizeFailureWithoutPartial(t *testing.T) {
	res := acquiredResult(t)
	o := newTestOrchestrator(t,
		&fakeEngine{res: res},
		&fakeTranscriber{text: testTranscript()},
		&fakeSegmenter{segments: testSegments()},
		&fakeRegistry{summarizeErr: provider.ErrNoProviderAvailable},
	)

	events := collect(t, o.Run(context.Background(), Request{URL: "https://youtu.be/dQw4w9WgXcQ"}))
	final := checkEventContract(t, events)

	if final.Stage != StageFailed {
		t.Fatalf("final stage = %s, want failed", final.Stage)
	}
	if !strings.Contains(final.Error, "no AI provider") {
		t.Errorf("user message = %q", final.Error)
	}
}

func TestRunRetriesSegmentAgainstNextProvider(t *testing.T) {
	res := acquiredResult(t)
	reg := &fakeRegistry{failFirstN: 1}
	o := newTestOrchestrator(t,
		&fakeEngine{res: res},
		&fakeTranscriber{text: testTranscript()},
		&fakeSegmenter{segments: testSegments()},
		reg,
	)

	events := collect(t, o.Run(context.Background(), Request{URL: "https://youtu.be/dQw4w9WgXcQ"}))
	final := checkEventContract(t, events)

	if final.Stage != StageCompleted {
		t.Fatalf("final stage = %s, want completed after provider retry", final.Stage)
	}
	// First segment takes two calls, second takes one.
	if reg.calls != 3 {
		t.Errorf("got %d summarize calls, want 3", reg.calls)
	}
}

func TestRunRefreshesProvidersEachRun(t *testing.T) {
	reg := &fakeRegistry{}
	o := newTestOrchestrator(t,
		&fakeEngine{res: acquiredResult(t)},
		&fakeTranscriber{text: testTranscript()},
		&fakeSegmenter{segments: testSegments()},
		reg,
	)

	collect(t, o.Run(context.Background(), Request{URL: "https://youtu.be/dQw4w9WgXcQ"}))
	if reg.probes != 1 {
		t.Fatalf("got %d provider probes, want 1", reg.probes)
	}

	// A second run must probe again rather than trust availability
	// cached from the first.
	o2 := newTestOrchestrator(t,
		&fakeEngine{res: acquiredResult(t)},
		&fakeTranscriber{text: testTranscript()},
		&fakeSegmenter{segments: testSegments()},
		reg,
	)
	collect(t, o2.Run(context.Background(), Request{URL: "https://youtu.be/dQw4w9WgXcQ"}))
	if reg.probes != 2 {
		t.Fatalf("got %d provider probes after second run, want 2", reg.probes)
	}
}

func TestRunAllowPartialDegrades(t *testing.T) {
	res := acquiredResult(t)
	o := newTestOrchestrator(t,
		&fakeEngine{res: res},
		&fakeTranscriber{text: testTranscript()},
		&fakeSegmenter{segments: testSegments()},
		&fakeRegistry{summarizeErr: provider.ErrNoProviderAvailable, synthesizeErr: provider.ErrNoProviderAvailable},
	)

	req := Request{URL: "https://youtu.be/dQw4w9WgXcQ", Options: Options{AllowPartial: true}}
	events := collect(t, o.Run(context.Background(), req))
	final := checkEventContract(t, events)

	if final.Stage != StageCompleted {
		t.Fatalf("final stage = %s, want completed", final.Stage)
	}
	if final.Report == nil || !final.Report.Partial {
		t.Fatal("partial run not marked partial")
	}
	for _, seg := range final.Report.Segments {
		if !seg.Fallback {
			t.Error("segment not marked as fallback")
		}
		if seg.Summary == "" {
			t.Error("fallback segment has empty summary")
		}
	}
}

func TestRunCancellation(t *testing.T) {
	res := acquiredResult(t)
	o := newTestOrchestrator(t,
		&fakeEngine{res: res},
		&fakeTranscriber{text: testTranscript()},
		&fakeSegmenter{segments: testSegments()},
		&fakeRegistry{},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := collect(t, o.Run(ctx, Request{URL: "https://youtu.be/dQw4w9WgXcQ"}))
	final := checkEventContract(t, events)

	if final.Stage != StageFailed {
		t.Fatalf("final stage = %s, want failed", final.Stage)
	}
	if !strings.Contains(final.Error, "cancelled") {
		t.Errorf("user message = %q", final.Error)
	}
}
