package transcribe

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reSrtIndex = regexp.MustCompile(`^\d+$`)
	reSrtTime  = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})[,.](\d{3})`)
)

// ParseSRT converts SRT subtitle content into a timed transcript.
// Consecutive text lines of one cue are joined with spaces.
func ParseSRT(content string) (TimedText, error) {
	var (
		text    TimedText
		current *Cue
	)

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			if current != nil {
				text.Cues = append(text.Cues, *current)
				current = nil
			}
			continue
		}

		if m := reSrtTime.FindStringSubmatch(trimmed); m != nil {
			start, err := srtTimestamp(m[1], m[2], m[3], m[4])
			if err != nil {
				return TimedText{}, err
			}
			end, err := srtTimestamp(m[5], m[6], m[7], m[8])
			if err != nil {
				return TimedText{}, err
			}
			current = &Cue{Start: start, End: end}
			continue
		}

		// Sequence numbers only count before a timestamp line
		if current == nil && reSrtIndex.MatchString(trimmed) {
			continue
		}

		if current != nil {
			if current.Text != "" {
				current.Text += " "
			}
			current.Text += trimmed
		}
	}

	if current != nil {
		text.Cues = append(text.Cues, *current)
	}

	return text, nil
}

func srtTimestamp(h, m, s, ms string) (time.Duration, error) {
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("bad SRT timestamp hour %q", h)
	}
	mins, _ := strconv.Atoi(m)
	secs, _ := strconv.Atoi(s)
	millis, _ := strconv.Atoi(ms)

	return time.Duration(hours)*time.Hour +
		time.Duration(mins)*time.Minute +
		time.Duration(secs)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}
