// Package ocr rasterises document pages and recognises their text.
//
// The Engine composes three independent capabilities (rasterisation,
// recognition and image processing). They are checked once when the engine
// is built; when any is missing every call degrades to an empty result.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// ErrUnavailable is returned when a required OCR capability is missing.
var ErrUnavailable = errors.New("ocr unavailable")

// Rasterizer renders one page of a document to an image.
type Rasterizer interface {
	Check() error
	Rasterize(ctx context.Context, path string, page, dpi int) (image.Image, error)
}

// Recognizer turns an encoded image into text.
type Recognizer interface {
	Check(languages []string) error
	Recognize(ctx context.Context, img []byte, languages []string) (string, error)
}

// ImageProcessor supplies the preprocessing stages run before recognition.
type ImageProcessor interface {
	Check() error
	Stages() []Stage
}

// PageCounter returns the number of pages in the document at path.
type PageCounter func(path string) (int, error)

// Config configures an Engine.
type Config struct {
	Rasterizer Rasterizer
	Recognizer Recognizer
	Processor  ImageProcessor

	// PageCount is used by Analyze to bound the sample.
	PageCount PageCounter

	// Languages is a '+'-joined tesseract language list, e.g. "eng+chi_sim".
	Languages   string
	DPI         int
	Preprocess  bool
	AnalysisDPI int

	Logger *slog.Logger
}

// Defaults applied by New.
const (
	DefaultLanguages   = "eng+chi_sim"
	DefaultDPI         = 200
	DefaultAnalysisDPI = 100
)

// Capability describes one dependency of the engine.
type Capability struct {
	Name      string `json:"name" yaml:"name"`
	Available bool   `json:"available" yaml:"available"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Engine runs OCR over document pages.
type Engine struct {
	raster     Rasterizer
	recognizer Recognizer
	processor  ImageProcessor
	pageCount  PageCounter

	languages   []string
	dpi         int
	preprocess  bool
	analysisDPI int

	caps   []Capability
	logger *slog.Logger
}

// New creates an Engine and checks each capability once.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Languages == "" {
		cfg.Languages = DefaultLanguages
	}
	if cfg.DPI <= 0 {
		cfg.DPI = DefaultDPI
	}
	if cfg.AnalysisDPI <= 0 {
		cfg.AnalysisDPI = DefaultAnalysisDPI
	}

	e := &Engine{
		raster:      cfg.Rasterizer,
		recognizer:  cfg.Recognizer,
		processor:   cfg.Processor,
		pageCount:   cfg.PageCount,
		languages:   Languages(cfg.Languages),
		dpi:         cfg.DPI,
		preprocess:  cfg.Preprocess,
		analysisDPI: cfg.AnalysisDPI,
		logger:      logger.With("component", "ocr"),
	}

	e.caps = []Capability{
		e.check("rasterizer", func() error {
			if e.raster == nil {
				return errors.New("no rasterizer configured")
			}
			return e.raster.Check()
		}),
		e.check("recognizer", func() error {
			if e.recognizer == nil {
				return errors.New("no recognizer configured")
			}
			return e.recognizer.Check(e.languages)
		}),
		e.check("image_processor", func() error {
			if e.processor == nil {
				return errors.New("no image processor configured")
			}
			return e.processor.Check()
		}),
	}
	return e
}

func (e *Engine) check(name string, fn func() error) Capability {
	c := Capability{Name: name, Available: true}
	if err := fn(); err != nil {
		c.Available = false
		c.Error = err.Error()
		e.logger.Warn("ocr capability unavailable", "capability", name, "error", err)
	}
	return c
}

// Languages splits a '+'-joined language list.
func Languages(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "+") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Available reports whether every capability is present.
func (e *Engine) Available() bool {
	for _, c := range e.caps {
		if !c.Available {
			return false
		}
	}
	return true
}

// Status lists each capability and why it is missing, if it is.
func (e *Engine) Status() []Capability {
	out := make([]Capability, len(e.caps))
	copy(out, e.caps)
	return out
}

// Err returns ErrUnavailable wrapped with the missing capabilities, or nil.
func (e *Engine) Err() error {
	var missing []string
	for _, c := range e.caps {
		if !c.Available {
			missing = append(missing, fmt.Sprintf("%s (%s)", c.Name, c.Error))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnavailable, strings.Join(missing, ", "))
}

// Languages returns the configured recognition languages.
func (e *Engine) Languages() []string {
	return append([]string(nil), e.languages...)
}

// ExtractPage OCRs one 0-indexed page. Failures yield "".
func (e *Engine) ExtractPage(ctx context.Context, path string, page, dpi int, preprocess bool) string {
	text, err := e.extractPage(ctx, path, page, dpi, preprocess)
	if err != nil {
		e.logger.Warn("ocr failed", "page", page, "error", err)
		return ""
	}
	return text
}

func (e *Engine) extractPage(ctx context.Context, path string, page, dpi int, preprocess bool) (string, error) {
	if err := e.Err(); err != nil {
		return "", err
	}
	if dpi <= 0 {
		dpi = e.dpi
	}

	img, err := e.raster.Rasterize(ctx, path, page, dpi)
	if err != nil {
		return "", fmt.Errorf("rasterize page %d: %w", page, err)
	}
	if preprocess {
		img = RunStages(img, e.processor.Stages(), e.logger)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode page %d: %w", page, err)
	}

	text, err := e.recognizer.Recognize(ctx, buf.Bytes(), e.languages)
	if err != nil {
		return "", fmt.Errorf("recognize page %d: %w", page, err)
	}
	text = strings.TrimSpace(text)
	e.logger.Debug("ocr page complete", "page", page, "chars", utf8.RuneCountInString(text))
	return text, nil
}

// Batch is the outcome of OCR over several pages.
type Batch struct {
	Texts      map[int]string
	Pages      int
	NonEmpty   int
	TotalChars int
	Failed     []int
}

// AvgChars returns the mean characters per processed page.
func (b Batch) AvgChars() float64 {
	if b.Pages == 0 {
		return 0
	}
	return float64(b.TotalChars) / float64(b.Pages)
}

// ExtractMany OCRs pages sequentially using the engine's DPI and preprocessing
// setting. A failed page maps to "" and is listed in Failed.
func (e *Engine) ExtractMany(ctx context.Context, path string, pages []int) Batch {
	b := Batch{Texts: make(map[int]string, len(pages))}
	if err := e.Err(); err != nil {
		e.logger.Warn("skipping batch ocr", "error", err)
		return b
	}

	for _, p := range pages {
		text, err := e.extractPage(ctx, path, p, e.dpi, e.preprocess)
		b.Pages++
		if err != nil {
			e.logger.Warn("ocr failed", "page", p, "error", err)
			b.Texts[p] = ""
			b.Failed = append(b.Failed, p)
			continue
		}
		b.Texts[p] = text
		b.TotalChars += utf8.RuneCountInString(text)
		if text != "" {
			b.NonEmpty++
		}
	}

	e.logger.Info("batch ocr complete",
		"pages", b.Pages,
		"non_empty", b.NonEmpty,
		"total_chars", b.TotalChars,
		"failed", len(b.Failed))
	return b
}
