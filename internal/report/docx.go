package report

import (
	"fmt"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	fontName = "Calibri"
	fontSize = 11
)

// WriteDocx renders the report as a styled Word document.
func (r *Report) WriteDocx(outputPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	addStyledRun(doc.AddParagraph(""), r.Title, true, 16)

	meta := r.GeneratedAt.Format("2006-01-02 15:04")
	if r.Duration > 0 {
		meta += "  |  " + FormatTimestamp(r.Duration)
	}
	addStyledRun(doc.AddParagraph(""), meta, false, fontSize)
	if r.SourceURL != "" {
		addStyledRun(doc.AddParagraph(""), r.SourceURL, false, fontSize)
	}
	if r.Partial {
		addStyledRun(doc.AddParagraph(""),
			"Note: parts of this summary were generated without an AI provider.", false, fontSize)
	}
	doc.AddParagraph("")

	addStyledRun(doc.AddParagraph(""), "Overall Summary", true, 14)
	addStyledRun(doc.AddParagraph(""), r.Overall.Summary, false, fontSize)
	doc.AddParagraph("")

	if len(r.Overall.Themes) > 0 {
		addStyledRun(doc.AddParagraph(""), "Main Themes", true, 13)
		for _, t := range r.Overall.Themes {
			addStyledRun(doc.AddParagraph(""), "• "+t, false, fontSize)
		}
		doc.AddParagraph("")
	}
	if len(r.Overall.Takeaways) > 0 {
		addStyledRun(doc.AddParagraph(""), "Key Takeaways", true, 13)
		for _, t := range r.Overall.Takeaways {
			addStyledRun(doc.AddParagraph(""), "• "+t, false, fontSize)
		}
		doc.AddParagraph("")
	}

	if len(r.Segments) > 0 {
		addStyledRun(doc.AddParagraph(""), "Segment Summaries", true, 14)
		for _, seg := range r.Segments {
			heading := FormatTimestamp(seg.Start) + " - " + FormatTimestamp(seg.End)
			addStyledRun(doc.AddParagraph(""), heading, true, 12)
			addStyledRun(doc.AddParagraph(""), seg.Summary, false, fontSize)
			for _, p := range seg.KeyPoints {
				addStyledRun(doc.AddParagraph(""), "• "+p, false, fontSize)
			}
			doc.AddParagraph("")
		}
	}

	if err := doc.SaveTo(outputPath); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func addStyledRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}
