package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vidsum/vidsum/internal/logger"
)

type implRegistry struct {
	providers map[string]Provider
	priority  []string
	timeout   time.Duration
	logger    logger.Logger

	mu          sync.RWMutex
	descriptors map[string]Descriptor
}

// ProbeAll checks every provider concurrently. Each probe gets its own
// timeout so one hung backend cannot stall the rest.
func (r *implRegistry) ProbeAll(ctx context.Context) map[string]Descriptor {
	var wg sync.WaitGroup
	results := make([]Descriptor, len(r.priority))

	for i, name := range r.priority {
		p, ok := r.providers[name]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			results[i] = r.probe(ctx, p)
		}(i, p)
	}
	wg.Wait()

	r.mu.Lock()
	for _, d := range results {
		if d.Name != "" {
			r.descriptors[d.Name] = d
		}
	}
	r.mu.Unlock()

	return r.Descriptors()
}

func (r *implRegistry) probe(ctx context.Context, p Provider) Descriptor {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	d := Descriptor{Name: p.Name(), LastChecked: time.Now()}

	if err := p.CheckAvailability(ctx); err != nil {
		d.Err = err.Error()
		r.logger.Debug(ctx, "Provider %s unavailable: %v", p.Name(), err)
		return d
	}

	d.Available = true
	if models, err := p.ListModels(ctx); err == nil {
		d.Models = models
	}
	return d
}

func (r *implRegistry) Descriptors() map[string]Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Descriptor, len(r.descriptors))
	for k, v := range r.descriptors {
		out[k] = v
	}
	return out
}

// candidates returns the providers to try for one call: the pinned
// provider first if named, then the priority order. Providers whose
// last probe failed are skipped; a provider never probed yet is probed
// on demand.
func (r *implRegistry) candidates(ctx context.Context, preferred string) []Provider {
	names := make([]string, 0, len(r.priority)+1)
	if preferred != "" {
		names = append(names, preferred)
	}
	for _, n := range r.priority {
		if n != preferred {
			names = append(names, n)
		}
	}

	var out []Provider
	for _, name := range names {
		p, ok := r.providers[name]
		if !ok {
			continue
		}

		r.mu.RLock()
		d, probed := r.descriptors[name]
		r.mu.RUnlock()

		if !probed {
			d = r.probe(ctx, p)
			r.mu.Lock()
			r.descriptors[name] = d
			r.mu.Unlock()
		}
		if d.Available {
			out = append(out, p)
		}
	}
	return out
}

// generate routes one completion call to the single selected provider.
// The registry never cascades to a different backend mid-request; a
// failed call surfaces as a CallError and invalidates the provider's
// cached availability, so the caller's next attempt selects the next
// one in order. The invalidation lasts only until the next ProbeAll,
// which callers issue at the start of each run.
func (r *implRegistry) generate(ctx context.Context, prompt string, opts Options) (text, providerName, model string, err error) {
	cands := r.candidates(ctx, opts.Provider)
	if len(cands) == 0 {
		return "", "", "", ErrNoProviderAvailable
	}
	p := cands[0]

	// The pinned model only applies to the pinned provider.
	model = opts.Model
	if p.Name() != opts.Provider {
		model = ""
	}

	text, err = p.Generate(ctx, model, prompt, opts.MaxTokens)
	if err == nil {
		return text, p.Name(), model, nil
	}
	if ctx.Err() != nil {
		return "", "", "", ctx.Err()
	}

	r.logger.Warn(ctx, "Provider %s call failed: %v", p.Name(), err)

	r.mu.Lock()
	d := r.descriptors[p.Name()]
	d.Name = p.Name()
	d.Available = false
	d.Err = err.Error()
	d.LastChecked = time.Now()
	r.descriptors[p.Name()] = d
	r.mu.Unlock()

	return "", "", "", &CallError{Provider: p.Name(), Err: err}
}

func (r *implRegistry) Summarize(ctx context.Context, text string, opts Options) (*SegmentSummary, error) {
	response, name, model, err := r.generate(ctx, segmentPrompt(text), opts)
	if err != nil {
		return nil, err
	}

	summary, keyPoints := parseSegmentResponse(response)
	if summary == "" {
		return nil, &CallError{Provider: name, Err: fmt.Errorf("empty summary in response")}
	}

	return &SegmentSummary{
		Summary:   summary,
		KeyPoints: keyPoints,
		Provider:  name,
		Model:     model,
	}, nil
}

func (r *implRegistry) Synthesize(ctx context.Context, title string, summaries []string, opts Options) (*Synthesis, error) {
	if len(summaries) == 0 {
		return nil, fmt.Errorf("no segment summaries to synthesize")
	}

	response, name, model, err := r.generate(ctx, synthesisPrompt(title, summaries), opts)
	if err != nil {
		return nil, err
	}

	overall, themes, takeaways := parseSynthesisResponse(response)
	if overall == "" {
		return nil, &CallError{Provider: name, Err: fmt.Errorf("empty synthesis in response")}
	}

	return &Synthesis{
		Overall:   overall,
		Themes:    themes,
		Takeaways: takeaways,
		Provider:  name,
		Model:     model,
	}, nil
}
