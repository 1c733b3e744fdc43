package acquire

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/vidsum/vidsum/internal/logger"
)

type implEngine struct {
	strategies []Strategy
	prober     prober
	validator  validator
	logger     logger.Logger

	retries      int
	backoffBase  time.Duration
	backoffMax   time.Duration
	jitterFactor float64
	sleep        Sleeper
	rnd          func() float64
}

type strategyFailure struct {
	strategy string
	err      error
}

// Acquire walks the ordered strategy list. Transient failures retry
// the same strategy with exponential backoff before moving on;
// permanent failures abort the whole acquisition immediately.
func (e *implEngine) Acquire(ctx context.Context, ref VideoReference, creds *Credentials, notify AttemptFunc) (*Result, error) {
	emit := func(state State, strategy string, attempt int) {
		if notify != nil {
			notify(Attempt{State: state, Strategy: strategy, Attempt: attempt})
		}
	}

	emit(StateProbing, "", 0)
	if err := e.prober.Check(ctx, ref); err != nil {
		var aerr *Error
		if errors.As(err, &aerr) && permanent(aerr.Kind, creds) {
			e.logger.Warn(ctx, "Pre-check rejected %s: %v", ref.URL, err)
			emit(StateFailed, "", 0)
			return nil, err
		}
		// The check can be wrong; proceed anyway.
		e.logger.Warn(ctx, "Pre-check inconclusive for %s: %v", ref.URL, err)
	}

	var failures []strategyFailure

	for _, strat := range e.strategies {
		var lastErr error

		for attempt := 0; attempt < e.retries; attempt++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			emit(StateDownloading, strat.Name(), attempt)
			e.logger.Info(ctx, "Attempt %d/%d with %s strategy", attempt+1, e.retries, strat.Name())

			// Fingerprint rotation happens inside the backoff loop so
			// every attempt presents a fresh client identity.
			res, err := strat.Fetch(ctx, ref, randomFingerprint(), creds)
			if err == nil {
				emit(StateValidating, strat.Name(), attempt)
				verr := e.validator.Validate(ctx, res.AudioPath, res.Duration)
				if verr == nil {
					res.Meta.Strategy = strat.Name()
					e.logger.Info(ctx, "Acquired %q via %s strategy", res.Title, strat.Name())
					emit(StateDone, strat.Name(), attempt)
					return res, nil
				}
				// A corrupt or truncated asset counts as a transient
				// failure of this attempt.
				os.RemoveAll(res.WorkDir)
				err = fmt.Errorf("asset validation: %w", verr)
			}

			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			kind := Classify(err)
			if permanent(kind, creds) {
				e.logger.Warn(ctx, "%s strategy hit permanent failure %s: %v", strat.Name(), kind, err)
				emit(StateFailed, strat.Name(), attempt)
				return nil, &Error{Kind: kind, Strategy: strat.Name(), Err: err}
			}

			lastErr = err
			e.logger.Warn(ctx, "%s strategy attempt %d failed (%s): %v", strat.Name(), attempt+1, kind, err)

			delay := backoffDelay(e.backoffBase, e.backoffMax, attempt, e.jitterFactor, e.rnd)
			emit(StateBackoffWait, strat.Name(), attempt)
			if serr := e.sleep.Sleep(ctx, delay); serr != nil {
				return nil, serr
			}
		}

		failures = append(failures, strategyFailure{strategy: strat.Name(), err: lastErr})
	}

	emit(StateFailed, "", 0)
	return nil, exhausted(failures)
}

// exhausted aggregates the last error per strategy for diagnostics.
func exhausted(failures []strategyFailure) *Error {
	parts := make([]string, 0, len(failures))
	errs := make([]error, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.strategy, f.err))
		errs = append(errs, f.err)
	}
	return &Error{
		Kind: FailureExhausted,
		Err:  fmt.Errorf("all strategies exhausted [%s]: %w", strings.Join(parts, "; "), errors.Join(errs...)),
	}
}

func defaultRand() float64 {
	return rand.Float64()
}
