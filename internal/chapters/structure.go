package chapters

import (
	"unicode/utf8"

	"github.com/jackzampolin/folio/internal/types"
)

// Structure summarises a dry run of chapter detection over a document.
type Structure struct {
	TotalPages       int             `json:"total_pages" yaml:"total_pages"`
	DetectedChapters int             `json:"detected_chapters" yaml:"detected_chapters"`
	Boundaries       []int           `json:"chapter_boundaries" yaml:"chapter_boundaries"`
	Chapters         []types.Chapter `json:"chapters" yaml:"chapters"`

	// DetectionMethod is "smart" when more than one boundary was found.
	DetectionMethod types.SplitMethod `json:"detection_method" yaml:"detection_method"`
	Method          Method            `json:"method" yaml:"method"`
	Candidates      int               `json:"candidates" yaml:"candidates"`
	Confidence      float64           `json:"confidence" yaml:"confidence"`

	TextStatistics TextStats `json:"text_statistics" yaml:"text_statistics"`
}

// TextStats describes the page texts a detection ran over.
type TextStats struct {
	PagesAnalyzed int     `json:"total_pages_analyzed" yaml:"total_pages_analyzed"`
	TotalChars    int     `json:"total_characters" yaml:"total_characters"`
	AvgChars      float64 `json:"avg_characters_per_page" yaml:"avg_characters_per_page"`
	MaxChars      int     `json:"max_characters_per_page" yaml:"max_characters_per_page"`
	// MinChars ignores pages without text.
	MinChars int `json:"min_characters_per_page" yaml:"min_characters_per_page"`
}

// Analyze runs detection and reports chapters with titles and text statistics.
func (d *Detector) Analyze(pageTexts map[int]string, totalPages int) Structure {
	res := d.Detect(pageTexts, totalPages)
	chapters := Split(res.Boundaries, totalPages)
	for i := range chapters {
		if text, ok := pageTexts[chapters[i].StartPage]; ok {
			chapters[i].Title = Title(text, chapters[i].Number)
		}
	}

	method := types.SplitFixed
	if len(res.Boundaries) > 1 {
		method = types.SplitSmart
	}

	return Structure{
		TotalPages:       totalPages,
		DetectedChapters: len(chapters),
		Boundaries:       res.Boundaries,
		Chapters:         chapters,
		DetectionMethod:  method,
		Method:           res.Method,
		Candidates:       len(res.Candidates),
		Confidence:       res.Confidence,
		TextStatistics:   Stats(pageTexts),
	}
}

// Stats computes character statistics over pageTexts.
func Stats(pageTexts map[int]string) TextStats {
	var s TextStats
	if len(pageTexts) == 0 {
		return s
	}
	s.PagesAnalyzed = len(pageTexts)
	for _, text := range pageTexts {
		n := utf8.RuneCountInString(text)
		s.TotalChars += n
		s.MaxChars = max(s.MaxChars, n)
		if n > 0 && (s.MinChars == 0 || n < s.MinChars) {
			s.MinChars = n
		}
	}
	s.AvgChars = float64(s.TotalChars) / float64(s.PagesAnalyzed)
	return s
}
