package segment

import (
	"context"
	"errors"
	"time"

	"github.com/vidsum/vidsum/internal/transcribe"
)

// ErrInvalidInput marks an upstream contract violation: an empty
// transcript or a non-positive window.
var ErrInvalidInput = errors.New("segmenter: invalid input")

// Segment is one scored transcript window.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
	Score float64 // importance in [0,1], comparable within one transcript only
}

// Segmenter splits a transcript into fixed windows, scores each by
// lexical importance, and selects the top windows in reading order.
type Segmenter interface {
	Segment(ctx context.Context, text transcribe.TimedText, window time.Duration, maxSegments int) ([]Segment, error)
}
