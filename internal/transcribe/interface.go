package transcribe

import (
	"context"
	"time"
)

// Cue is a single time-coded line of transcript text.
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// TimedText is a full transcript in chronological cue order.
type TimedText struct {
	Cues []Cue
}

// Duration returns the end time of the last cue.
func (t TimedText) Duration() time.Duration {
	if len(t.Cues) == 0 {
		return 0
	}
	return t.Cues[len(t.Cues)-1].End
}

// Empty reports whether the transcript carries no text at all.
func (t TimedText) Empty() bool {
	for _, c := range t.Cues {
		if c.Text != "" {
			return false
		}
	}
	return true
}

// Transcriber converts a local audio asset into a timed transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (TimedText, error)
}
