package main

import (
	"github.com/jackzampolin/folio/internal/batch"
	"github.com/jackzampolin/folio/internal/classify"
	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/extract"
	"github.com/jackzampolin/folio/internal/ocr"
	"github.com/jackzampolin/folio/internal/ocr/tesseract"
	"github.com/jackzampolin/folio/internal/segment"
)

// newOCREngine builds the engine from poppler, tesseract and the
// in-process image stages.
func newOCREngine(cfg *config.Config) *ocr.Engine {
	oc := cfg.OCRConfig()
	oc.Rasterizer = ocr.Pdftoppm{}
	oc.Recognizer = tesseract.New()
	oc.Processor = ocr.Processor{}
	oc.PageCount = document.PageCount
	oc.Logger = logger
	return ocr.New(oc)
}

func openDocument(cfg *config.Config, path string) (*document.PDF, error) {
	return document.Open(path, document.Options{Pdftotext: cfg.OCR.Pdftotext, Logger: logger})
}

func newClassifier(engine *ocr.Engine) *classify.Classifier {
	return classify.New(classify.Config{
		Analyzer:  engine,
		Extractor: extract.New(logger),
		Logger:    logger,
	})
}

func newOrchestrator(cfg *config.Config, engine *ocr.Engine) *segment.Orchestrator {
	return segment.New(segment.Config{
		Open: func(path string) (segment.Document, error) {
			doc, err := openDocument(cfg, path)
			if err != nil {
				return nil, err
			}
			return doc, nil
		},
		Writer:     document.RangeWriter{},
		OCR:        engine,
		Classifier: newClassifier(engine),
		Logger:     logger,
	})
}

func newBatchRunner(cfg *config.Config, workers int) *batch.Runner {
	if workers <= 0 {
		workers = cfg.Batch.Workers
	}
	return batch.New(batch.Config{
		Segmenter: newOrchestrator(cfg, newOCREngine(cfg)),
		Workers:   workers,
		Logger:    logger,
	})
}
