package segment

import (
	"github.com/vidsum/vidsum/internal/logger"
)

type implSegmenter struct {
	logger logger.Logger
}

// New creates a Segmenter instance
func New(log logger.Logger) Segmenter {
	return &implSegmenter{logger: log}
}
