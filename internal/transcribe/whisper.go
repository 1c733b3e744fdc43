package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Transcribe runs whisper over a 16kHz mono WAV file and parses the
// resulting SRT into a timed transcript.
func (t *implTranscriber) Transcribe(ctx context.Context, audioPath string) (TimedText, error) {
	outputPrefix := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))

	t.logger.Info(ctx, "Starting transcription with %d threads: %s",
		t.cfg.Whisper.Threads, audioPath)

	// -osrt: SRT output with timestamps
	// -l: force language to prevent hallucination
	// -ml/-mc 0: no segment length or context limits
	// -bo 5: best-of-5 decoding for accuracy
	args := []string{
		"-m", t.cfg.Whisper.ModelPath,
		"-f", audioPath,
		"-osrt",
		"-l", t.cfg.Whisper.Language,
		"-t", strconv.Itoa(t.cfg.Whisper.Threads),
		"-ml", "0",
		"-mc", "0",
		"-bo", "5",
		"--output-file", outputPrefix,
	}
	if t.cfg.Whisper.Prompt != "" {
		args = append(args, "--prompt", t.cfg.Whisper.Prompt)
	}

	if _, err := t.executor.Execute(ctx, t.cfg.Whisper.BinaryPath, args...); err != nil {
		return TimedText{}, fmt.Errorf("whisper transcribe: %w", err)
	}

	srtPath := outputPrefix + ".srt"
	defer os.Remove(srtPath)

	data, err := os.ReadFile(srtPath)
	if err != nil {
		return TimedText{}, fmt.Errorf("read transcript: %w", err)
	}

	text, err := ParseSRT(string(data))
	if err != nil {
		return TimedText{}, fmt.Errorf("parse transcript: %w", err)
	}

	t.logger.Info(ctx, "Transcription completed: %d cues, %s total",
		len(text.Cues), text.Duration())
	return text, nil
}
