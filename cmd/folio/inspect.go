package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/chapters"
	"github.com/jackzampolin/folio/internal/extract"
	"github.com/jackzampolin/folio/internal/ocr"
	"github.com/jackzampolin/folio/internal/segment"
	"github.com/jackzampolin/folio/internal/types"
)

// DetectTypeOutput is printed by detect-type.
type DetectTypeOutput struct {
	File           string               `json:"file"`
	TotalPages     int                  `json:"total_pages"`
	Classification types.Classification `json:"classification"`
}

var detectTypeCmd = &cobra.Command{
	Use:   "detect-type <pdf>",
	Short: "Classify a PDF as text, scanned or unknown",
	Long: `Classify a PDF by sampling its embedded text. When the sample has no
text and OCR tooling is installed, page images are analysed as well.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cfgMgr.Get()
		doc, err := openDocument(cfg, args[0])
		if err != nil {
			return err
		}

		cls := newClassifier(newOCREngine(cfg)).Classify(cmd.Context(), doc, true)
		return api.Output(DetectTypeOutput{
			File:           doc.Path(),
			TotalPages:     doc.PageCount(),
			Classification: cls,
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <pdf>",
	Short: "Dry-run chapter detection and print the structure found",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := segmentConfig(cmd)
		if err != nil {
			return err
		}
		doc, err := openDocument(cfg, args[0])
		if err != nil {
			return err
		}

		opts := cfg.SegmentOptions()
		texts := extract.New(logger).NonTrivial(cmd.Context(), doc, opts.SmartSamplePages, segment.SmartMinChars)
		det := chapters.New(chapters.Config{
			MinChapterPages: opts.MinChapterPages,
			MaxChapterPages: opts.MaxChapterPages,
			Disabled:        !opts.UseSmartDetection,
			Logger:          logger,
		})
		return api.Output(det.Analyze(texts, doc.PageCount()))
	},
}

// OCRStatusOutput is printed by ocr-status.
type OCRStatusOutput struct {
	Available    bool             `json:"available"`
	Languages    []string         `json:"languages"`
	DPI          int              `json:"dpi"`
	Preprocess   bool             `json:"preprocess"`
	Capabilities []ocr.Capability `json:"capabilities"`
}

var ocrStatusCmd = &cobra.Command{
	Use:   "ocr-status",
	Short: "Report whether the OCR toolchain is usable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cfgMgr.Get()
		engine := newOCREngine(cfg)
		return api.Output(OCRStatusOutput{
			Available:    engine.Available(),
			Languages:    engine.Languages(),
			DPI:          cfg.OCR.DPI,
			Preprocess:   cfg.OCR.Preprocess,
			Capabilities: engine.Status(),
		})
	},
}

func init() {
	addSegmentFlags(analyzeCmd)
}
