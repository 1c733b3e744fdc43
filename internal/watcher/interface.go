package watcher

import "context"

// Watcher defines the interface for file system monitoring
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// JobHandler processes one queued video URL dropped into the input
// directory.
type JobHandler func(ctx context.Context, url string) error
