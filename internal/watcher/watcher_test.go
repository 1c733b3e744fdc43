package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...interface{}) {}
func (nopLogger) Info(context.Context, string, ...interface{})  {}
func (nopLogger) Warn(context.Context, string, ...interface{})  {}
func (nopLogger) Error(context.Context, string, ...interface{}) {}

func TestIsJobFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/in/talk.url", true},
		{"/in/TALK.URL", true},
		{"/in/.hidden.url", false},
		{"/in/video.mp4", false},
		{"/in/notes.txt", false},
	}
	for _, tt := range tests {
		if got := isJobFile(tt.path); got != tt.want {
			t.Errorf("isJobFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestReadJobFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "job.url")
	if err := os.WriteFile(path, []byte("\n  https://youtu.be/dQw4w9WgXcQ  \nignored\n"), 0644); err != nil {
		t.Fatal(err)
	}

	url, err := readJobFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://youtu.be/dQw4w9WgXcQ" {
		t.Errorf("got %q", url)
	}

	empty := filepath.Join(dir, "empty.url")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := readJobFile(empty); err == nil {
		t.Error("expected error for empty job file")
	}
}

func TestWatcherHandlesDroppedJob(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var handled []string
	handler := func(_ context.Context, url string) error {
		mu.Lock()
		handled = append(handled, url)
		mu.Unlock()
		return nil
	}

	w, err := New(dir, handler, nopLogger{}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	path := filepath.Join(dir, "job.url")
	if err := os.WriteFile(path, []byte("https://youtu.be/dQw4w9WgXcQ\n"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		n := len(handled)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("job was never handled")
		case <-time.After(50 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Start returned %v, want context.Canceled", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if handled[0] != "https://youtu.be/dQw4w9WgXcQ" {
		t.Errorf("handled %q", handled[0])
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("job file not removed after handling")
	}
}
