package segment

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/vidsum/vidsum/internal/transcribe"
)

// topTermCount bounds how many of a window's highest-weighted terms
// contribute to its score; long windows should not win on volume alone.
const topTermCount = 10

// Segment partitions the transcript into contiguous windows, scores
// each window with TF-IDF over the whole transcript as corpus, and
// returns the top maxSegments windows re-sorted chronologically.
// Equal scores break toward the earlier window.
func (s *implSegmenter) Segment(ctx context.Context, text transcribe.TimedText, window time.Duration, maxSegments int) ([]Segment, error) {
	if text.Empty() || window <= 0 || maxSegments <= 0 {
		return nil, ErrInvalidInput
	}

	windows := buildWindows(text, window)
	scoreWindows(windows)

	s.logger.Debug(ctx, "Scored %d windows of %s each", len(windows), window)

	if maxSegments >= len(windows) {
		// Everything qualifies; scores stay attached for display.
		return windows, nil
	}

	// Rank by score; the input is chronological and the sort is stable,
	// so equal scores keep the earlier window first.
	ranked := make([]Segment, len(windows))
	copy(ranked, windows)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	selected := ranked[:maxSegments]

	// Reading order for downstream summarization and display.
	sort.Slice(selected, func(i, j int) bool {
		return selected[i].Start < selected[j].Start
	})

	return selected, nil
}

// buildWindows partitions [0, duration) into fixed-size windows; the
// last window is truncated to the transcript end, never dropped. A cue
// belongs to the window containing its start time.
func buildWindows(text transcribe.TimedText, window time.Duration) []Segment {
	duration := text.Duration()
	if duration <= window {
		return []Segment{{
			Start: 0,
			End:   duration,
			Text:  joinCues(text.Cues),
		}}
	}

	count := int((duration + window - 1) / window)
	windows := make([]Segment, count)
	for i := range windows {
		start := time.Duration(i) * window
		end := start + window
		if end > duration {
			end = duration
		}
		windows[i] = Segment{Start: start, End: end}
	}

	var parts = make([][]string, count)
	for _, cue := range text.Cues {
		idx := int(cue.Start / window)
		if idx >= count {
			idx = count - 1
		}
		if cue.Text != "" {
			parts[idx] = append(parts[idx], cue.Text)
		}
	}
	for i := range windows {
		windows[i].Text = strings.Join(parts[i], " ")
	}

	return windows
}

// scoreWindows assigns each window an importance score in [0,1]:
// the mean TF-IDF weight of its top terms, normalized so the highest
// scoring window is exactly 1. The normalization is position-neutral.
func scoreWindows(windows []Segment) {
	docs := make([][]string, len(windows))
	df := make(map[string]int)
	for i, w := range windows {
		docs[i] = tokenize(w.Text)
		seen := make(map[string]bool)
		for _, term := range docs[i] {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	n := float64(len(windows))
	raw := make([]float64, len(windows))
	var maxScore float64

	for i, terms := range docs {
		if len(terms) == 0 {
			continue
		}
		tf := make(map[string]float64)
		for _, term := range terms {
			tf[term]++
		}
		weights := make([]float64, 0, len(tf))
		for term, count := range tf {
			idf := math.Log(n/float64(df[term])) + 1
			weights = append(weights, count/float64(len(terms))*idf)
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(weights)))
		if len(weights) > topTermCount {
			weights = weights[:topTermCount]
		}
		var sum float64
		for _, w := range weights {
			sum += w
		}
		raw[i] = sum / float64(len(weights))
		if raw[i] > maxScore {
			maxScore = raw[i]
		}
	}

	for i := range windows {
		if maxScore > 0 {
			windows[i].Score = raw[i] / maxScore
		}
	}
}

// tokenize lowercases, strips punctuation and drops stopwords.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})

	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if len(f) < 2 || stopwords[f] {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

func joinCues(cues []transcribe.Cue) string {
	parts := make([]string, 0, len(cues))
	for _, c := range cues {
		if c.Text != "" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, " ")
}
