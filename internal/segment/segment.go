// Package segment turns a PDF into chapter sub-documents.
//
// A run classifies the document, picks the text or OCR path, chooses chapter
// boundaries, writes one sub-document per chapter and produces a report. OCR
// path failures fall back to the text path; the fallback is recorded in the
// report.
package segment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/folio/internal/chapters"
	"github.com/jackzampolin/folio/internal/classify"
	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/extract"
	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/ocr"
	"github.com/jackzampolin/folio/internal/report"
	"github.com/jackzampolin/folio/internal/types"
)

var (
	// ErrInputNotFound is returned when the input file does not exist.
	ErrInputNotFound = errors.New("input not found")

	// ErrUnsupportedFormat is returned when the input is not a readable PDF.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrEmptyDocument is returned for documents with no pages.
	ErrEmptyDocument = errors.New("empty document")

	// ErrIOFailure is returned when output artifacts cannot be written.
	ErrIOFailure = errors.New("output write failed")

	errNoOCRText = errors.New("ocr produced no text")
)

// Document is a page-addressable source document.
type Document interface {
	Path() string
	PageCount() int
	PageText(ctx context.Context, page int) (string, error)
}

// Opener opens the document at path.
type Opener func(path string) (Document, error)

// RangeWriter writes pages [start, end) of src to dst.
type RangeWriter interface {
	WriteRange(ctx context.Context, src string, start, end int, dst string) error
}

// OCR is the OCR capability used by the OCR path.
type OCR interface {
	Err() error
	ExtractMany(ctx context.Context, path string, pages []int) ocr.Batch
}

// Classifier labels documents.
type Classifier interface {
	Classify(ctx context.Context, doc classify.Document, detailed bool) types.Classification
}

// Config configures an Orchestrator. Only Open and Writer have no default.
type Config struct {
	Open   Opener
	Writer RangeWriter

	// OCR may be nil, in which case the OCR path always falls back.
	OCR        OCR
	Classifier Classifier
	Extractor  *extract.Extractor

	Logger *slog.Logger
}

// Orchestrator runs segmentation. It keeps no per-run state and can be
// shared across goroutines.
type Orchestrator struct {
	open       Opener
	writer     RangeWriter
	ocr        OCR
	classifier Classifier
	extractor  *extract.Extractor
	base       *slog.Logger
	logger     *slog.Logger
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Open == nil {
		cfg.Open = func(path string) (Document, error) {
			return document.Open(path, document.Options{Pdftotext: true, Logger: logger})
		}
	}
	if cfg.Writer == nil {
		cfg.Writer = document.RangeWriter{}
	}
	if cfg.Extractor == nil {
		cfg.Extractor = extract.New(logger)
	}
	if cfg.Classifier == nil {
		ccfg := classify.Config{Extractor: cfg.Extractor, Logger: logger}
		if a, ok := cfg.OCR.(classify.Analyzer); ok {
			ccfg.Analyzer = a
		}
		cfg.Classifier = classify.New(ccfg)
	}

	return &Orchestrator{
		open:       cfg.Open,
		writer:     cfg.Writer,
		ocr:        cfg.OCR,
		classifier: cfg.Classifier,
		extractor:  cfg.Extractor,
		base:       logger,
		logger:     logger.With("component", "segment"),
	}
}

// plan is the outcome of a processing path, before anything is written.
type plan struct {
	boundaries []int
	method     types.SplitMethod
	mode       types.ProcessingMode
	writeText  bool

	// pageText returns a page's text and whether extraction failed.
	pageText func(page int) (string, bool)

	detection *report.Detection
	ocrStats  *report.OCRStats
}

// Run segments the document at input. The returned report is never nil; on
// structural failure it carries success=false and the error is returned too.
// The report file is written only for successful runs.
func (o *Orchestrator) Run(ctx context.Context, input string, opts Options) (*report.Report, error) {
	opts = opts.withDefaults()
	start := time.Now()
	logger := o.logger.With("input", filepath.Base(input))

	var states trail
	states.enter(StateStart)

	rep := &report.Report{
		RunID:           uuid.New().String(),
		InputFile:       input,
		OutputDir:       opts.OutputDir,
		StartTime:       start,
		PagesPerChapter: opts.PagesPerChapter,
	}

	fail := func(err error) (*report.Report, error) {
		states.enter(StateFail)
		rep.Success = false
		rep.Error = err.Error()
		rep.ErrorKind = ErrorKind(err)
		rep.ChapterDetails = nil
		rep.States = states.strings()
		rep.Finish(time.Now())
		logger.Error("segmentation failed", "error", err, "kind", rep.ErrorKind)
		return rep, err
	}

	doc, err := o.openDocument(input)
	if err != nil {
		return fail(err)
	}
	total := doc.PageCount()
	rep.TotalPages = total
	if total == 0 {
		return fail(fmt.Errorf("%w: %s", ErrEmptyDocument, input))
	}

	out := home.NewOutput(opts.OutputDir, input)

	states.enter(StateClassify)
	cls := o.classifyDocument(ctx, doc, opts)
	rep.Classification = &cls

	var p *plan
	if useOCR(opts, cls) {
		states.enter(StateOCRPath)
		p, err = o.ocrPath(ctx, doc, opts)
		if err != nil {
			logger.Warn("ocr path failed, falling back to text", "error", err)
			rep.FallbackReason = err.Error()
		}
	}
	if p == nil {
		states.enter(StateTextPath)
		p = o.textPath(ctx, doc, opts)
		if rep.FallbackReason != "" {
			p.mode = types.ModeBasicFallback
		}
	}

	states.enter(StateSplit)
	chs := chapters.Split(p.boundaries, total)
	for i := range chs {
		text, failed := p.pageText(chs[i].StartPage)
		if !failed {
			chs[i].Title = chapters.Title(text, chs[i].Number)
		}
	}

	if err := out.EnsureExists(); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrIOFailure, err))
	}
	written, err := o.materialize(ctx, doc, out, chs, p)
	if err != nil {
		return fail(err)
	}

	states.enter(StateReport)
	rep.Success = true
	rep.ChapterDetails = chs
	rep.Boundaries = p.boundaries
	rep.SplitMethod = p.method
	rep.ProcessingMode = p.mode
	rep.Detection = p.detection
	rep.OCR = p.ocrStats

	// The written report already records DONE; a failed write turns the run into FAIL.
	rep.States = append(states.strings(), string(StateDone))
	rep.Finish(time.Now())
	if err := report.Write(out.ReportPath(), rep); err != nil {
		removeAll(written)
		return fail(fmt.Errorf("%w: %v", ErrIOFailure, err))
	}

	logger.Info("segmentation complete",
		"pages", total,
		"chapters", len(chs),
		"mode", p.mode,
		"split", p.method,
		"duration", time.Since(start))
	return rep, nil
}

func (o *Orchestrator) openDocument(input string) (Document, error) {
	doc, err := o.open(input)
	switch {
	case err == nil:
		return doc, nil
	case errors.Is(err, document.ErrNotFound), errors.Is(err, ErrInputNotFound):
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, input)
	case errors.Is(err, document.ErrUnsupportedFormat), errors.Is(err, ErrUnsupportedFormat):
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
}

func (o *Orchestrator) classifyDocument(ctx context.Context, doc Document, opts Options) types.Classification {
	if opts.ForceOCR {
		return types.Classification{
			Type:           types.DocumentUnknown,
			Recommendation: "classification skipped: OCR forced",
		}
	}
	return o.classifier.Classify(ctx, doc, opts.DetailedClassification)
}

func useOCR(opts Options, cls types.Classification) bool {
	switch {
	case opts.ForceOCR:
		return true
	case cls.Type == types.DocumentScanned:
		return true
	case cls.Type == types.DocumentUnknown && opts.UseOCR:
		return true
	default:
		return false
	}
}

// ocrPath OCRs every page and chooses boundaries over the recognised text.
func (o *Orchestrator) ocrPath(ctx context.Context, doc Document, opts Options) (*plan, error) {
	if o.ocr == nil {
		return nil, fmt.Errorf("%w: no OCR engine configured", ocr.ErrUnavailable)
	}
	if err := o.ocr.Err(); err != nil {
		return nil, err
	}

	total := doc.PageCount()
	pages := make([]int, total)
	for i := range pages {
		pages[i] = i
	}
	batch := o.ocr.ExtractMany(ctx, doc.Path(), pages)
	if batch.NonEmpty == 0 {
		return nil, fmt.Errorf("%w: %d pages processed, %d failed", errNoOCRText, batch.Pages, len(batch.Failed))
	}

	failed := make(map[int]bool, len(batch.Failed))
	for _, f := range batch.Failed {
		failed[f] = true
	}

	p := &plan{
		method:    types.SplitOCR,
		mode:      types.ModeOCR,
		writeText: true,
		pageText: func(page int) (string, bool) {
			return batch.Texts[page], failed[page]
		},
		ocrStats: &report.OCRStats{
			Pages:           batch.Pages,
			NonEmptyPages:   batch.NonEmpty,
			TotalTextChars:  batch.TotalChars,
			AvgCharsPerPage: batch.AvgChars(),
			FailedPages:     batch.Failed,
		},
	}

	if opts.UseSmartDetection {
		texts := make(map[int]string)
		for page, text := range batch.Texts {
			if t := strings.TrimSpace(text); len([]rune(t)) > SmartMinChars {
				texts[page] = t
			}
		}
		res := o.detector(opts).Detect(texts, total)
		p.detection = &report.Detection{Candidates: len(res.Candidates), Method: string(res.Method), Confidence: res.Confidence}
		if len(res.Boundaries) > 1 {
			p.boundaries = res.Boundaries
			return p, nil
		}
	}
	p.boundaries = chapters.FixedBoundaries(total, opts.PagesPerChapter)
	return p, nil
}

// textPath chooses boundaries from embedded text.
func (o *Orchestrator) textPath(ctx context.Context, doc Document, opts Options) *plan {
	total := doc.PageCount()
	cache := make(map[int]string)
	p := &plan{
		method:    types.SplitFixed,
		mode:      types.ModeText,
		writeText: opts.WriteText,
		pageText: func(page int) (string, bool) {
			if t, ok := cache[page]; ok {
				return t, false
			}
			return o.extractor.Extract(ctx, doc, page), false
		},
	}

	if opts.UseSmartDetection {
		texts := o.extractor.NonTrivial(ctx, doc, opts.SmartSamplePages, SmartMinChars)
		for page, text := range texts {
			cache[page] = text
		}
		res := o.detector(opts).Detect(texts, total)
		p.detection = &report.Detection{Candidates: len(res.Candidates), Method: string(res.Method), Confidence: res.Confidence}
		if len(res.Boundaries) > 1 {
			p.boundaries = res.Boundaries
			p.method = types.SplitSmart
			return p
		}
	}
	p.boundaries = chapters.FixedBoundaries(total, opts.PagesPerChapter)
	return p
}

func (o *Orchestrator) detector(opts Options) *chapters.Detector {
	return chapters.New(chapters.Config{
		MinChapterPages: opts.MinChapterPages,
		MaxChapterPages: opts.MaxChapterPages,
		Logger:          o.base,
	})
}

// materialize writes chapter sub-documents and text artifacts. On failure
// everything written so far is removed.
func (o *Orchestrator) materialize(ctx context.Context, doc Document, out *home.Output, chs []types.Chapter, p *plan) ([]string, error) {
	var written []string
	abort := func(err error) ([]string, error) {
		removeAll(written)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}

	for i := range chs {
		ch := &chs[i]

		pdfPath := out.ChapterPDFPath(ch.Number)
		if err := o.writer.WriteRange(ctx, doc.Path(), ch.StartPage, ch.EndPage, pdfPath); err != nil {
			return abort(err)
		}
		written = append(written, pdfPath)
		ch.File = filepath.Base(pdfPath)

		if p.writeText {
			textPath := out.ChapterTextPath(ch.Number)
			if err := os.WriteFile(textPath, []byte(chapterText(ch, p.pageText)), 0o644); err != nil {
				return abort(err)
			}
			written = append(written, textPath)
			ch.TextFile = filepath.Base(textPath)
		}

		o.logger.Debug("chapter written",
			"chapter", ch.Number,
			"pages", fmt.Sprintf("%d-%d", ch.StartPage+1, ch.EndPage),
			"title", ch.Title)
	}
	return written, nil
}

// chapterText joins a chapter's pages, each preceded by a 1-based page marker.
func chapterText(ch *types.Chapter, pageText func(int) (string, bool)) string {
	var b strings.Builder
	for page := ch.StartPage; page < ch.EndPage; page++ {
		text, failed := pageText(page)
		if failed {
			fmt.Fprintf(&b, "\n--- Page %d [OCR failed] ---\n", page+1)
			continue
		}
		fmt.Fprintf(&b, "\n--- Page %d ---\n%s\n", page+1, text)
	}
	return b.String()
}

func removeAll(paths []string) {
	for _, p := range paths {
		os.Remove(p)
	}
}

// ErrorKind maps a run error to the report's error_kind.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInputNotFound):
		return "input_not_found"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrEmptyDocument):
		return "empty_document"
	case errors.Is(err, ErrIOFailure):
		return "io_failure"
	default:
		return "internal"
	}
}
