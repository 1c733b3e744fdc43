package report

import (
	"strings"
	"testing"
	"time"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{42 * time.Second, "00:42"},
		{5*time.Minute + 3*time.Second, "05:03"},
		{59*time.Minute + 59*time.Second, "59:59"},
		{time.Hour, "01:00:00"},
		{2*time.Hour + 15*time.Minute + 7*time.Second, "02:15:07"},
		{-time.Second, "00:00"},
	}

	for _, tt := range tests {
		if got := FormatTimestamp(tt.d); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestMarkdown(t *testing.T) {
	r := &Report{
		Title:       "Intro to Raft",
		SourceURL:   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Duration:    75 * time.Minute,
		GeneratedAt: time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC),
		Overall: Overall{
			Summary:   "A walkthrough of the Raft consensus algorithm.",
			Themes:    []string{"Consensus", "Replication"},
			Takeaways: []string{"Leaders simplify reasoning"},
		},
		Segments: []SegmentSummary{
			{
				Start:     0,
				End:       60 * time.Second,
				Summary:   "Motivation for consensus.",
				KeyPoints: []string{"Paxos is hard to teach"},
			},
			{
				Start:   70 * time.Minute,
				End:     71 * time.Minute,
				Summary: "Closing remarks.",
			},
		},
	}

	md := r.Markdown()

	for _, want := range []string{
		"# Intro to Raft",
		"## Overall Summary",
		"A walkthrough of the Raft consensus algorithm.",
		"### Main Themes",
		"- Consensus",
		"### Key Takeaways",
		"## Segment Summaries",
		"### 00:00 - 01:00",
		"- Paxos is hard to teach",
		"### 01:10:00 - 01:11:00",
		"Duration: 01:15:00",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}

	if strings.Contains(md, "Note:") {
		t.Error("non-partial report should not carry the partial note")
	}
}

func TestMarkdownPartialNote(t *testing.T) {
	r := &Report{
		Title:       "Talk",
		GeneratedAt: time.Now(),
		Overall:     Overall{Summary: "s"},
		Partial:     true,
	}
	if !strings.Contains(r.Markdown(), "without an AI provider") {
		t.Error("partial report missing note")
	}
}
