package segment

// Defaults for Options.
const (
	DefaultPagesPerChapter  = 20
	DefaultSmartSamplePages = 20

	// SmartMinChars is the trimmed length a sampled page must exceed to be
	// handed to the boundary detector.
	SmartMinChars = 5
)

// Options control a single run.
type Options struct {
	// OutputDir receives chapter artifacts and the report.
	OutputDir string

	PagesPerChapter   int
	UseOCR            bool
	ForceOCR          bool
	UseSmartDetection bool

	// MinChapterPages and MaxChapterPages are derived from PagesPerChapter
	// when zero.
	MinChapterPages int
	MaxChapterPages int

	// SmartSamplePages bounds how many leading pages are read for detection.
	SmartSamplePages int

	// WriteText writes a text artifact per chapter on the text path. The OCR
	// path always writes them.
	WriteText bool

	// DetailedClassification runs image analysis for documents without text.
	DetailedClassification bool
}

// ChapterBounds derives chapter size limits from a target chapter length:
// min = max(5, p/2) and max = min(50, 2p), with max raised to min if needed.
func ChapterBounds(pagesPerChapter int) (minPages, maxPages int) {
	minPages = max(5, pagesPerChapter/2)
	maxPages = min(50, pagesPerChapter*2)
	if maxPages < minPages {
		maxPages = minPages
	}
	return minPages, maxPages
}

func (o Options) withDefaults() Options {
	if o.PagesPerChapter <= 0 {
		o.PagesPerChapter = DefaultPagesPerChapter
	}
	if o.SmartSamplePages <= 0 {
		o.SmartSamplePages = DefaultSmartSamplePages
	}
	minPages, maxPages := ChapterBounds(o.PagesPerChapter)
	if o.MinChapterPages <= 0 {
		o.MinChapterPages = minPages
	}
	if o.MaxChapterPages <= 0 {
		o.MaxChapterPages = maxPages
	}
	if o.MaxChapterPages < o.MinChapterPages {
		o.MaxChapterPages = o.MinChapterPages
	}
	if o.OutputDir == "" {
		o.OutputDir = "."
	}
	return o
}
