package pipeline

import (
	"context"
	"fmt"

	"github.com/vidsum/vidsum/internal/acquire"
	"github.com/vidsum/vidsum/internal/report"
)

// Stage names a phase of a pipeline run.
type Stage string

const (
	StageAcquiring    Stage = "acquiring"
	StageTranscribing Stage = "transcribing"
	StageAnalyzing    Stage = "analyzing"
	StageSummarizing  Stage = "summarizing"
	StageCompleted    Stage = "completed"
	StageFailed       Stage = "failed"
)

// Event is one progress update of a run. Percent never decreases
// across the events of a single run, and exactly one event has
// Terminal set.
type Event struct {
	Stage    Stage  `json:"stage"`
	Percent  int    `json:"percent"`
	Message  string `json:"message"`
	Terminal bool   `json:"terminal"`
	Error    string `json:"error,omitempty"`
	// ReportPath is set on the terminal completed event.
	ReportPath string         `json:"report_path,omitempty"`
	Report     *report.Report `json:"report,omitempty"`
}

// RunError separates what the caller may show a user from the full
// diagnostic chain.
type RunError struct {
	Stage       Stage
	UserMessage string
	Err         error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run failed during %s: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Request describes one summarization run.
type Request struct {
	URL         string
	Kind        acquire.RefKind
	Credentials *acquire.Credentials
	Options     Options
}

// Options override the configured pipeline defaults. Zero values keep
// the defaults.
type Options struct {
	MaxSegments   int
	WindowSeconds int
	// Provider pins a specific summarization provider by name.
	Provider string
	Model    string
	// AllowPartial degrades to extractive summaries when no provider
	// can serve a call, instead of failing the run.
	AllowPartial bool
}

// Orchestrator runs the acquire-transcribe-segment-summarize pipeline.
type Orchestrator interface {
	// Run executes one pipeline run and streams progress events. The
	// channel is closed after the terminal event. The caller must
	// drain it.
	Run(ctx context.Context, req Request) <-chan Event
}
