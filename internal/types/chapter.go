// Package types provides shared types used across multiple packages.
// This package has no dependencies on other folio packages to avoid import cycles.
package types

// DocumentType is the classification label for a document's content.
type DocumentType string

const (
	// DocumentText indicates pages carry machine-readable embedded text.
	DocumentText DocumentType = "text"
	// DocumentScanned indicates page content exists only as images.
	DocumentScanned DocumentType = "scanned"
	// DocumentUnknown indicates the classifier could not decide.
	DocumentUnknown DocumentType = "unknown"
)

// Classification is the result of document type detection.
type Classification struct {
	Type           DocumentType `json:"type" yaml:"type"`
	Confidence     float64      `json:"confidence" yaml:"confidence"`
	Recommendation string       `json:"recommendation" yaml:"recommendation"`

	SampledPages   int     `json:"sampled_pages" yaml:"sampled_pages"`
	TextPages      int     `json:"text_pages" yaml:"text_pages"`
	FailedPages    int     `json:"failed_pages" yaml:"failed_pages"`
	TextPageRatio  float64 `json:"text_page_ratio" yaml:"text_page_ratio"`
	AvgTextPerPage float64 `json:"avg_text_per_page" yaml:"avg_text_per_page"`

	// ScannedProbability is set only when image analysis ran.
	ScannedProbability *float64 `json:"scanned_probability,omitempty" yaml:"scanned_probability,omitempty"`
}

// BoundaryCandidate is a page proposed as the start of a chapter.
type BoundaryCandidate struct {
	Page       int     `json:"page" yaml:"page"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Reason     string  `json:"reason" yaml:"reason"`
	Preview    string  `json:"preview" yaml:"preview"`
}

// Chapter is one contiguous page range of the source document.
// EndPage is exclusive; pages are 0-indexed.
type Chapter struct {
	Number    int    `json:"chapter_number" yaml:"chapter_number"`
	StartPage int    `json:"start_page" yaml:"start_page"`
	EndPage   int    `json:"end_page" yaml:"end_page"`
	PageCount int    `json:"page_count" yaml:"page_count"`
	Title     string `json:"title" yaml:"title"`

	File     string `json:"filename,omitempty" yaml:"filename,omitempty"`
	TextFile string `json:"text_filename,omitempty" yaml:"text_filename,omitempty"`
}

// SplitMethod records how chapter boundaries were chosen.
type SplitMethod string

const (
	SplitFixed SplitMethod = "fixed"
	SplitSmart SplitMethod = "smart"
	SplitOCR   SplitMethod = "ocr"
)

// ProcessingMode records which extraction path produced the chapters.
type ProcessingMode string

const (
	ModeText          ProcessingMode = "text"
	ModeOCR           ProcessingMode = "ocr"
	ModeBasicFallback ProcessingMode = "basic_fallback"
)
