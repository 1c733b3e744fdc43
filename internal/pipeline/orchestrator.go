package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/vidsum/vidsum/internal/acquire"
	"github.com/vidsum/vidsum/internal/provider"
	"github.com/vidsum/vidsum/internal/report"
	"github.com/vidsum/vidsum/internal/segment"
)

func (o *implOrchestrator) Run(ctx context.Context, req Request) <-chan Event {
	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		o.run(ctx, req, newEmitter(ch))
	}()
	return ch
}

func (o *implOrchestrator) run(ctx context.Context, req Request, em *emitter) {
	o.metrics.RunStarted()
	opts := o.resolve(req.Options)

	ref, err := acquire.ParseReference(req.URL, req.Kind)
	if err != nil {
		o.fail(ctx, em, StageAcquiring, "the video URL is not valid", err)
		return
	}

	start := time.Now()

	// Acquisition runs under the minimum budget; the full ceiling
	// depends on the video duration, which is unknown until now.
	actx, cancelAcquire := context.WithTimeout(ctx, o.minTimeout)
	res, err := o.acquireStage(actx, em, ref, req.Credentials)
	cancelAcquire()
	if err != nil {
		o.fail(ctx, em, StageAcquiring, acquireUserMessage(err), err)
		return
	}
	defer func() {
		if rerr := os.RemoveAll(res.WorkDir); rerr != nil {
			o.logger.Warn(ctx, "Failed to clean up work dir %s: %v", res.WorkDir, rerr)
		}
	}()
	o.metrics.ObserveStage(string(StageAcquiring), time.Since(start))

	// Total run ceiling: at least the minimum, scaled up for long
	// videos.
	ceiling := o.minTimeout
	if d := 3 * res.Duration; d > ceiling {
		ceiling = d
	}
	remaining := ceiling - time.Since(start)
	if remaining <= 0 {
		o.fail(ctx, em, StageTranscribing, "the run exceeded its time budget", context.DeadlineExceeded)
		return
	}
	rctx, cancel := context.WithTimeout(ctx, remaining)
	defer cancel()

	em.progress(StageTranscribing, 20, fmt.Sprintf("transcribing %q", res.Title))
	stageStart := time.Now()
	text, err := o.transcriber.Transcribe(rctx, res.AudioPath)
	if err != nil {
		o.fail(rctx, em, StageTranscribing, "the audio could not be transcribed", err)
		return
	}
	if text.Empty() {
		o.fail(rctx, em, StageTranscribing, "the video contains no recognizable speech",
			fmt.Errorf("empty transcript for %s", res.AudioPath))
		return
	}
	o.metrics.ObserveStage(string(StageTranscribing), time.Since(stageStart))

	duration := res.Duration
	if duration == 0 {
		duration = text.Duration()
	}

	em.progress(StageAnalyzing, 45, "selecting key segments")
	stageStart = time.Now()
	segments, err := o.segmenter.Segment(rctx, text, time.Duration(opts.WindowSeconds)*time.Second, opts.MaxSegments)
	if err != nil {
		o.fail(rctx, em, StageAnalyzing, "the transcript could not be analyzed", err)
		return
	}
	o.metrics.ObserveStage(string(StageAnalyzing), time.Since(stageStart))

	em.progress(StageSummarizing, 55, fmt.Sprintf("summarizing %d segments", len(segments)))
	stageStart = time.Now()
	// Fresh probes for this run: a provider invalidated by a failed
	// call during an earlier run may have recovered since.
	o.registry.ProbeAll(rctx)
	summaries, partial, err := o.summarizeStage(rctx, em, segments, opts)
	if err != nil {
		o.fail(rctx, em, StageSummarizing, summarizeUserMessage(err), err)
		return
	}
	o.metrics.ObserveStage(string(StageSummarizing), time.Since(stageStart))

	em.progress(StageSummarizing, 95, "writing the overall summary")
	overall, synPartial, err := o.synthesizeStage(rctx, res.Title, summaries, opts)
	if err != nil {
		o.fail(rctx, em, StageSummarizing, summarizeUserMessage(err), err)
		return
	}
	partial = partial || synPartial

	rep := &report.Report{
		Title:       res.Title,
		SourceURL:   ref.URL,
		Uploader:    res.Meta.Uploader,
		Duration:    duration,
		GeneratedAt: time.Now(),
		Overall:     *overall,
		Segments:    summaries,
		Partial:     partial,
	}

	path, err := o.writeReport(rep)
	if err != nil {
		o.fail(rctx, em, StageSummarizing, "the summary report could not be written", err)
		return
	}

	o.metrics.RunSucceeded()
	o.logger.Info(ctx, "Run completed for %q in %s (report: %s)", res.Title, time.Since(start).Round(time.Second), path)
	em.complete(rep, path)
}

func (o *implOrchestrator) resolve(opts Options) Options {
	if opts.MaxSegments <= 0 {
		opts.MaxSegments = o.maxSegments
	}
	if opts.WindowSeconds <= 0 {
		opts.WindowSeconds = o.windowSeconds
	}
	if !opts.AllowPartial {
		opts.AllowPartial = o.allowPartial
	}
	return opts
}

func (o *implOrchestrator) acquireStage(ctx context.Context, em *emitter, ref acquire.VideoReference, creds *acquire.Credentials) (*acquire.Result, error) {
	em.progress(StageAcquiring, 1, "checking video accessibility")

	notify := func(a acquire.Attempt) {
		switch a.State {
		case acquire.StateProbing:
			em.progress(StageAcquiring, 2, "checking video accessibility")
		case acquire.StateDownloading:
			em.progress(StageAcquiring, 5, fmt.Sprintf("downloading via %s (attempt %d)", a.Strategy, a.Attempt+1))
		case acquire.StateValidating:
			em.progress(StageAcquiring, 17, "validating downloaded audio")
		case acquire.StateBackoffWait:
			o.metrics.AcquireAttempt(a.Strategy, "retry")
			em.progress(StageAcquiring, 5, fmt.Sprintf("waiting before retrying %s", a.Strategy))
		case acquire.StateDone:
			o.metrics.AcquireAttempt(a.Strategy, "success")
			em.progress(StageAcquiring, 19, "download complete")
		case acquire.StateFailed:
			o.metrics.AcquireAttempt(a.Strategy, "failed")
		}
	}

	return o.engine.Acquire(ctx, ref, creds, notify)
}

// providerRetries is how many providers one segment may be tried
// against before it counts as failed. The registry never cascades on
// its own; each retry here lands on the next available provider
// because a failed call invalidates the previous one.
const providerRetries = 2

func (o *implOrchestrator) summarizeSegment(ctx context.Context, text string, opts Options) (*provider.SegmentSummary, error) {
	popts := provider.Options{
		Provider:  opts.Provider,
		Model:     opts.Model,
		MaxTokens: o.maxTokens,
	}

	var lastErr error
	for attempt := 0; attempt < providerRetries; attempt++ {
		sum, err := o.registry.Summarize(ctx, text, popts)
		if err == nil {
			return sum, nil
		}
		lastErr = err

		var cerr *provider.CallError
		if !errors.As(err, &cerr) || ctx.Err() != nil {
			break
		}
		// The pin is spent once its provider failed.
		popts.Provider = ""
		popts.Model = ""
	}
	return nil, lastErr
}

// summarizeStage summarizes each selected segment, degrading to an
// extractive summary per segment when partial results are allowed.
func (o *implOrchestrator) summarizeStage(ctx context.Context, em *emitter, segments []segment.Segment, opts Options) ([]report.SegmentSummary, bool, error) {
	out := make([]report.SegmentSummary, 0, len(segments))
	partial := false

	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		sum, err := o.summarizeSegment(ctx, seg.Text, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, false, ctx.Err()
			}
			if !opts.AllowPartial {
				return nil, false, err
			}
			o.logger.Warn(ctx, "Segment %d falling back to extractive summary: %v", i+1, err)
			o.metrics.ProviderCall("fallback", true)
			partial = true
			out = append(out, report.SegmentSummary{
				Start:    seg.Start,
				End:      seg.End,
				Summary:  provider.ExtractiveFallback(seg.Text, 2),
				Fallback: true,
			})
		} else {
			o.metrics.ProviderCall(sum.Provider, false)
			out = append(out, report.SegmentSummary{
				Start:     seg.Start,
				End:       seg.End,
				Summary:   sum.Summary,
				KeyPoints: sum.KeyPoints,
				Provider:  sum.Provider,
			})
		}

		percent := 55 + (i+1)*40/len(segments)
		em.progress(StageSummarizing, percent, fmt.Sprintf("summarized segment %d/%d", i+1, len(segments)))
	}

	return out, partial, nil
}

func (o *implOrchestrator) synthesizeStage(ctx context.Context, title string, summaries []report.SegmentSummary, opts Options) (*report.Overall, bool, error) {
	texts := make([]string, 0, len(summaries))
	for _, s := range summaries {
		texts = append(texts, s.Summary)
	}

	popts := provider.Options{
		Provider:  opts.Provider,
		Model:     opts.Model,
		MaxTokens: o.maxTokens,
	}

	var syn *provider.Synthesis
	var err error
	for attempt := 0; attempt < providerRetries; attempt++ {
		syn, err = o.registry.Synthesize(ctx, title, texts, popts)
		if err == nil {
			break
		}
		var cerr *provider.CallError
		if !errors.As(err, &cerr) || ctx.Err() != nil {
			break
		}
		popts.Provider = ""
		popts.Model = ""
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		if !opts.AllowPartial {
			return nil, false, err
		}
		o.logger.Warn(ctx, "Overall synthesis falling back to extractive summary: %v", err)
		return &report.Overall{
			Summary: provider.ExtractiveFallback(strings.Join(texts, " "), 3),
		}, true, nil
	}

	return &report.Overall{
		Summary:   syn.Overall,
		Themes:    syn.Themes,
		Takeaways: syn.Takeaways,
	}, false, nil
}

var reUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func (o *implOrchestrator) writeReport(rep *report.Report) (string, error) {
	if err := os.MkdirAll(o.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	slug := strings.Trim(reUnsafe.ReplaceAllString(rep.Title, "-"), "-")
	if slug == "" {
		slug = "summary"
	}
	if len(slug) > 80 {
		slug = slug[:80]
	}
	base := fmt.Sprintf("%s-%s", slug, rep.GeneratedAt.Format("20060102-150405"))

	mdPath := filepath.Join(o.outputDir, base+".md")
	if err := os.WriteFile(mdPath, []byte(rep.Markdown()), 0644); err != nil {
		return "", fmt.Errorf("write markdown report: %w", err)
	}

	docxPath := filepath.Join(o.outputDir, base+".docx")
	if err := rep.WriteDocx(docxPath); err != nil {
		return "", fmt.Errorf("write docx report: %w", err)
	}

	return mdPath, nil
}

func (o *implOrchestrator) fail(ctx context.Context, em *emitter, stage Stage, userMsg string, err error) {
	if errors.Is(err, context.Canceled) {
		userMsg = "the run was cancelled"
	} else if errors.Is(err, context.DeadlineExceeded) {
		userMsg = "the run exceeded its time budget"
	}

	runErr := &RunError{Stage: stage, UserMessage: userMsg, Err: err}
	o.metrics.RunFailed(string(stage))
	o.logger.Error(ctx, "Run failed during %s: %v", stage, err)
	em.fail(runErr)
}

func acquireUserMessage(err error) string {
	var aerr *acquire.Error
	if errors.As(err, &aerr) {
		return aerr.Kind.UserMessage()
	}
	return "the video could not be downloaded"
}

func summarizeUserMessage(err error) string {
	if errors.Is(err, provider.ErrNoProviderAvailable) {
		return "no AI provider is available to summarize the video"
	}
	return "the video could not be summarized"
}
