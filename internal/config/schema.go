package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/folio/internal/ocr"
	"github.com/jackzampolin/folio/internal/segment"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid config")

// Config holds folio configuration.
// Stored at: {home}/folio.yaml
type Config struct {
	LogLevel  string     `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	OutputDir string     `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"` // Empty means {home}/chapters
	Segment   SegmentCfg `mapstructure:"segment" yaml:"segment" json:"segment"`
	OCR       OCRCfg     `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	Batch     BatchCfg   `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// SegmentCfg configures chapter splitting.
type SegmentCfg struct {
	PagesPerChapter        int  `mapstructure:"pages_per_chapter" yaml:"pages_per_chapter" json:"pages_per_chapter"`
	SmartDetection         bool `mapstructure:"smart_detection" yaml:"smart_detection" json:"smart_detection"`
	SmartSamplePages       int  `mapstructure:"smart_sample_pages" yaml:"smart_sample_pages" json:"smart_sample_pages"`
	MinChapterPages        int  `mapstructure:"min_chapter_pages" yaml:"min_chapter_pages" json:"min_chapter_pages"` // 0 derives from pages_per_chapter
	MaxChapterPages        int  `mapstructure:"max_chapter_pages" yaml:"max_chapter_pages" json:"max_chapter_pages"` // 0 derives from pages_per_chapter
	WriteText              bool `mapstructure:"write_text" yaml:"write_text" json:"write_text"`
	DetailedClassification bool `mapstructure:"detailed_classification" yaml:"detailed_classification" json:"detailed_classification"`
}

// OCRCfg configures the OCR path.
type OCRCfg struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"` // Use OCR when a document classifies as scanned
	Force       bool   `mapstructure:"force" yaml:"force" json:"force"`
	Languages   string `mapstructure:"languages" yaml:"languages" json:"languages"` // '+'-joined tesseract languages
	DPI         int    `mapstructure:"dpi" yaml:"dpi" json:"dpi"`
	AnalysisDPI int    `mapstructure:"analysis_dpi" yaml:"analysis_dpi" json:"analysis_dpi"`
	Preprocess  bool   `mapstructure:"preprocess" yaml:"preprocess" json:"preprocess"`
	Pdftotext   bool   `mapstructure:"pdftotext" yaml:"pdftotext" json:"pdftotext"` // poppler fallback for page text
}

// BatchCfg configures batch and inbox processing.
type BatchCfg struct {
	Workers       int     `mapstructure:"workers" yaml:"workers" json:"workers"` // 0 means one per CPU
	SettleSeconds float64 `mapstructure:"settle_seconds" yaml:"settle_seconds" json:"settle_seconds"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Segment: SegmentCfg{
			PagesPerChapter:  segment.DefaultPagesPerChapter,
			SmartDetection:   true,
			SmartSamplePages: segment.DefaultSmartSamplePages,
		},
		OCR: OCRCfg{
			Enabled:     true,
			Languages:   ocr.DefaultLanguages,
			DPI:         ocr.DefaultDPI,
			AnalysisDPI: ocr.DefaultAnalysisDPI,
			Preprocess:  true,
			Pdftotext:   true,
		},
		Batch: BatchCfg{
			SettleSeconds: 2,
		},
	}
}

// Validate checks settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	var problems []string
	if c.Segment.PagesPerChapter < 1 {
		problems = append(problems, "segment.pages_per_chapter must be at least 1")
	}
	if c.Segment.MinChapterPages < 0 || c.Segment.MaxChapterPages < 0 {
		problems = append(problems, "chapter page bounds must not be negative")
	}
	if c.Segment.MinChapterPages > 0 && c.Segment.MaxChapterPages > 0 &&
		c.Segment.MaxChapterPages < c.Segment.MinChapterPages {
		problems = append(problems, "segment.max_chapter_pages is below segment.min_chapter_pages")
	}
	if c.OCR.DPI < 0 || c.OCR.AnalysisDPI < 0 {
		problems = append(problems, "ocr dpi must not be negative")
	}
	if c.Batch.Workers < 0 {
		problems = append(problems, "batch.workers must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// SegmentOptions maps the config onto orchestrator options.
// Chapter bounds left at zero are derived from pages_per_chapter.
func (c *Config) SegmentOptions() segment.Options {
	s := c.Segment
	minPages, maxPages := segment.ChapterBounds(s.PagesPerChapter)
	if s.MinChapterPages > 0 {
		minPages = s.MinChapterPages
	}
	if s.MaxChapterPages > 0 {
		maxPages = s.MaxChapterPages
	}
	if maxPages < minPages {
		maxPages = minPages
	}
	return segment.Options{
		OutputDir:              c.OutputDir,
		PagesPerChapter:        s.PagesPerChapter,
		UseOCR:                 c.OCR.Enabled,
		ForceOCR:               c.OCR.Force,
		UseSmartDetection:      s.SmartDetection,
		MinChapterPages:        minPages,
		MaxChapterPages:        maxPages,
		SmartSamplePages:       s.SmartSamplePages,
		WriteText:              s.WriteText,
		DetailedClassification: s.DetailedClassification,
	}
}

// OCRConfig returns the engine settings. Capabilities and the logger are
// left for the caller to fill.
func (c *Config) OCRConfig() ocr.Config {
	return ocr.Config{
		Languages:   c.OCR.Languages,
		DPI:         c.OCR.DPI,
		AnalysisDPI: c.OCR.AnalysisDPI,
		Preprocess:  c.OCR.Preprocess,
	}
}

// ParseLevel converts a log level name to a slog.Level.
// Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
