package report

import "time"

// SegmentSummary is one summarized transcript segment of the report.
type SegmentSummary struct {
	Start     time.Duration `json:"start"`
	End       time.Duration `json:"end"`
	Summary   string        `json:"summary"`
	KeyPoints []string      `json:"key_points,omitempty"`
	Provider  string        `json:"provider,omitempty"`
	Fallback  bool          `json:"fallback,omitempty"`
}

// Overall is the video-level synthesis.
type Overall struct {
	Summary   string   `json:"summary"`
	Themes    []string `json:"themes,omitempty"`
	Takeaways []string `json:"takeaways,omitempty"`
}

// Report is the complete output of one pipeline run.
type Report struct {
	Title       string           `json:"title"`
	SourceURL   string           `json:"source_url"`
	Uploader    string           `json:"uploader,omitempty"`
	Duration    time.Duration    `json:"duration"`
	GeneratedAt time.Time        `json:"generated_at"`
	Overall     Overall          `json:"overall"`
	Segments    []SegmentSummary `json:"segments"`
	Partial     bool             `json:"partial,omitempty"`
}
