package report

import (
	"fmt"
	"strings"
	"time"
)

// FormatTimestamp renders a position as MM:SS, or HH:MM:SS once the
// video is an hour or longer.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Markdown renders the report as a markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	fmt.Fprintf(&b, "_%s_\n\n", r.GeneratedAt.Format("2006-01-02 15:04"))
	if r.SourceURL != "" {
		fmt.Fprintf(&b, "Source: %s\n\n", r.SourceURL)
	}
	if r.Uploader != "" {
		fmt.Fprintf(&b, "Uploader: %s\n\n", r.Uploader)
	}
	if r.Duration > 0 {
		fmt.Fprintf(&b, "Duration: %s\n\n", FormatTimestamp(r.Duration))
	}
	if r.Partial {
		b.WriteString("> Note: parts of this summary were generated without an AI provider.\n\n")
	}

	b.WriteString("## Overall Summary\n\n")
	fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(r.Overall.Summary))

	if len(r.Overall.Themes) > 0 {
		b.WriteString("### Main Themes\n\n")
		for _, t := range r.Overall.Themes {
			fmt.Fprintf(&b, "- %s\n", t)
		}
		b.WriteString("\n")
	}
	if len(r.Overall.Takeaways) > 0 {
		b.WriteString("### Key Takeaways\n\n")
		for _, t := range r.Overall.Takeaways {
			fmt.Fprintf(&b, "- %s\n", t)
		}
		b.WriteString("\n")
	}

	if len(r.Segments) > 0 {
		b.WriteString("## Segment Summaries\n\n")
		for _, seg := range r.Segments {
			fmt.Fprintf(&b, "### %s - %s\n\n", FormatTimestamp(seg.Start), FormatTimestamp(seg.End))
			fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(seg.Summary))
			for _, p := range seg.KeyPoints {
				fmt.Fprintf(&b, "- %s\n", p)
			}
			if len(seg.KeyPoints) > 0 {
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}
