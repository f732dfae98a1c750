// Package classify labels a document as text, scanned or unknown.
package classify

import (
	"context"
	"log/slog"
	"math"

	"github.com/jackzampolin/folio/internal/extract"
	"github.com/jackzampolin/folio/internal/ocr"
	"github.com/jackzampolin/folio/internal/types"
)

// Thresholds used by Classify.
const (
	DefaultSampleSize = 3

	// TextPageChars is the non-whitespace count above which a sampled page has text.
	TextPageChars = 10

	TextRatioThreshold = 0.7
	AvgTextThreshold   = 100.0

	// ScannedThreshold is the scanned probability above which a document is a scan.
	ScannedThreshold = 0.6

	// AnalysisSamplePages is the number of pages rasterised in detailed mode.
	AnalysisSamplePages = 3
)

// Document is the view of a document the classifier needs.
type Document interface {
	extract.TextSource
	Path() string
}

// Analyzer estimates the scanned probability of a document from page images.
type Analyzer interface {
	Available() bool
	Analyze(ctx context.Context, path string, samplePages int) ocr.Analysis
}

// Config configures a Classifier.
type Config struct {
	SampleSize int
	// Analyzer is optional; without it detailed classification behaves like simple.
	Analyzer  Analyzer
	Extractor *extract.Extractor
	Logger    *slog.Logger
}

// Classifier decides whether a document carries embedded text.
type Classifier struct {
	sampleSize int
	analyzer   Analyzer
	extractor  *extract.Extractor
	logger     *slog.Logger
}

// New creates a Classifier.
func New(cfg Config) *Classifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = DefaultSampleSize
	}
	if cfg.Extractor == nil {
		cfg.Extractor = extract.New(logger)
	}
	return &Classifier{
		sampleSize: cfg.SampleSize,
		analyzer:   cfg.Analyzer,
		extractor:  cfg.Extractor,
		logger:     logger.With("component", "classify"),
	}
}

// Classify samples the first pages of doc. It never fails; undecidable
// documents are reported as unknown.
func (c *Classifier) Classify(ctx context.Context, doc Document, detailed bool) types.Classification {
	n := min(c.sampleSize, doc.PageCount())
	result := types.Classification{Type: types.DocumentUnknown, SampledPages: n}
	if n <= 0 {
		result.Recommendation = "document has no pages"
		return result
	}

	pages := make([]int, n)
	for i := range pages {
		pages[i] = i
	}

	totalChars := 0
	for _, p := range c.extractor.Sample(ctx, doc, pages) {
		if p.Failed {
			result.FailedPages++
			continue
		}
		chars := extract.CountNonSpace(p.Text)
		totalChars += chars
		if chars > TextPageChars {
			result.TextPages++
		}
	}

	if result.FailedPages == n {
		result.Recommendation = "text extraction failed on every sampled page"
		c.logger.Warn("classification undecided", "reason", result.Recommendation)
		return result
	}

	// Decisions use the exact values; only the reported ones are rounded.
	ratio := float64(result.TextPages) / float64(n)
	avg := float64(totalChars) / float64(n)
	result.TextPageRatio = round3(ratio)
	result.AvgTextPerPage = math.Round(avg*10) / 10

	switch {
	case ratio > TextRatioThreshold || avg > AvgTextThreshold:
		result.Type = types.DocumentText
		result.Confidence = math.Max(ratio, math.Min(1, avg/200))
		result.Recommendation = "embedded text found: process directly"

	case detailed && c.analyzer != nil && c.analyzer.Available():
		a := c.analyzer.Analyze(ctx, doc.Path(), AnalysisSamplePages)
		if a.AnalyzedPages == 0 {
			simpleScanned(&result, ratio)
			break
		}
		prob := a.ScannedProbability
		result.ScannedProbability = &prob
		result.Recommendation = a.Recommendation
		if prob > ScannedThreshold {
			result.Type = types.DocumentScanned
			result.Confidence = prob
		} else {
			result.Type = types.DocumentUnknown
			result.Confidence = 1 - prob
		}

	default:
		simpleScanned(&result, ratio)
	}

	result.Confidence = clamp01(round3(result.Confidence))
	c.logger.Info("document classified",
		"type", result.Type,
		"confidence", result.Confidence,
		"text_page_ratio", result.TextPageRatio,
		"avg_text_per_page", result.AvgTextPerPage)
	return result
}

// simpleScanned labels a document without embedded text as scanned, with
// confidence growing as fewer sampled pages carry text.
func simpleScanned(r *types.Classification, ratio float64) {
	r.Type = types.DocumentScanned
	r.Confidence = 1 - ratio
	r.Recommendation = "little embedded text: use OCR mode"
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
