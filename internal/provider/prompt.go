package provider

import (
	"fmt"
	"regexp"
	"strings"
)

const segmentPromptTemplate = `You are summarizing one segment of a video transcript.

Transcript segment:
%s

Respond in exactly this format:
SUMMARY: <a concise 2-3 sentence summary of this segment>
KEY_POINTS:
- <first key point>
- <second key point>
- <third key point>`

const synthesisPromptTemplate = `You are writing the overall summary of a video titled %q based on its per-segment summaries.

Segment summaries:
%s

Respond in exactly this format:
OVERALL_SUMMARY: <a 3-5 sentence summary of the whole video>
MAIN_THEMES:
- <first theme>
- <second theme>
KEY_TAKEAWAYS:
- <first takeaway>
- <second takeaway>`

func segmentPrompt(text string) string {
	return fmt.Sprintf(segmentPromptTemplate, text)
}

func synthesisPrompt(title string, summaries []string) string {
	var b strings.Builder
	for i, s := range summaries {
		fmt.Fprintf(&b, "Segment %d: %s\n", i+1, s)
	}
	return fmt.Sprintf(synthesisPromptTemplate, title, strings.TrimRight(b.String(), "\n"))
}

var (
	reSummary   = regexp.MustCompile(`(?s)SUMMARY:\s*(.*?)\s*(?:KEY_POINTS:|$)`)
	reOverall   = regexp.MustCompile(`(?s)OVERALL_SUMMARY:\s*(.*?)\s*(?:MAIN_THEMES:|KEY_TAKEAWAYS:|$)`)
	reThemes    = regexp.MustCompile(`(?s)MAIN_THEMES:\s*(.*?)\s*(?:KEY_TAKEAWAYS:|$)`)
	reTakeaways = regexp.MustCompile(`(?s)KEY_TAKEAWAYS:\s*(.*)`)
	reBullet    = regexp.MustCompile(`^\s*(?:[-*\x{2022}]|\d+[.)])\s*(.+)$`)
)

// parseSegmentResponse extracts the structured summary from a model
// response. Models do not always honor the format, so a response with
// no SUMMARY marker falls back to treating the whole text as the
// summary.
func parseSegmentResponse(response string) (summary string, keyPoints []string) {
	if m := reSummary.FindStringSubmatch(response); m != nil && strings.TrimSpace(m[1]) != "" {
		summary = strings.TrimSpace(m[1])
	} else {
		summary = strings.TrimSpace(response)
	}
	keyPoints = parseBullets(afterMarker(response, "KEY_POINTS:"))
	return summary, keyPoints
}

func parseSynthesisResponse(response string) (overall string, themes, takeaways []string) {
	if m := reOverall.FindStringSubmatch(response); m != nil && strings.TrimSpace(m[1]) != "" {
		overall = strings.TrimSpace(m[1])
	} else {
		overall = strings.TrimSpace(response)
	}
	if m := reThemes.FindStringSubmatch(response); m != nil {
		themes = parseBullets(m[1])
	}
	if m := reTakeaways.FindStringSubmatch(response); m != nil {
		takeaways = parseBullets(m[1])
	}
	return overall, themes, takeaways
}

func afterMarker(s, marker string) string {
	idx := strings.Index(s, marker)
	if idx < 0 {
		return ""
	}
	return s[idx+len(marker):]
}

func parseBullets(block string) []string {
	var points []string
	for _, line := range strings.Split(block, "\n") {
		if m := reBullet.FindStringSubmatch(line); m != nil {
			if p := strings.TrimSpace(m[1]); p != "" {
				points = append(points, p)
			}
		}
	}
	return points
}

var reSentence = regexp.MustCompile(`[^.!?]+[.!?]`)

// ExtractiveFallback builds a crude summary from the opening sentences
// of the segment itself, used when every provider call failed and
// partial results are allowed.
func ExtractiveFallback(text string, sentences int) string {
	matches := reSentence.FindAllString(text, sentences)
	if len(matches) == 0 {
		const limit = 300
		if len(text) > limit {
			return strings.TrimSpace(text[:limit]) + "..."
		}
		return strings.TrimSpace(text)
	}
	var b strings.Builder
	for _, m := range matches {
		b.WriteString(strings.TrimSpace(m))
		b.WriteString(" ")
	}
	return strings.TrimSpace(b.String())
}
