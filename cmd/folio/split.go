package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/config"
)

var segFlags struct {
	pages        int
	ocr          bool
	forceOCR     bool
	ocrLang      string
	noPreprocess bool
	dpi          int
	smart        bool
	out          string
	writeText    bool
	detailed     bool
}

var splitCmd = &cobra.Command{
	Use:   "split <pdf>",
	Short: "Split a PDF into chapters",
	Long: `Split a PDF into chapter sub-documents.

Chapters are written as <name>_chapter_NNN.pdf into the output directory
together with <name>_processing_report.json. Flags override the matching
config settings for this run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := segmentConfig(cmd)
		if err != nil {
			return err
		}

		opts := cfg.SegmentOptions()
		opts.OutputDir = outputDir(segFlags.out)

		orch := newOrchestrator(cfg, newOCREngine(cfg))
		rep, runErr := orch.Run(cmd.Context(), args[0], opts)
		if rep != nil {
			if outErr := api.Output(rep); outErr != nil {
				return outErr
			}
		}
		if runErr != nil {
			return fmt.Errorf("split %s: %w", args[0], runErr)
		}
		return nil
	},
}

func init() {
	addSegmentFlags(splitCmd)
	splitCmd.Flags().StringVar(&segFlags.out, "out", "", "output directory (default: ~/.folio/chapters)")
}

// addSegmentFlags registers the per-run overrides shared by split, batch and watch.
func addSegmentFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVarP(&segFlags.pages, "pages", "p", 20, "target pages per chapter")
	f.BoolVar(&segFlags.ocr, "ocr", true, "use OCR for documents classified as scanned")
	f.BoolVar(&segFlags.forceOCR, "force-ocr", false, "always take the OCR path")
	f.StringVar(&segFlags.ocrLang, "ocr-lang", "", "tesseract languages joined with '+' (default from config)")
	f.BoolVar(&segFlags.noPreprocess, "no-preprocess", false, "skip image preprocessing before OCR")
	f.IntVar(&segFlags.dpi, "dpi", 0, "OCR rasterisation resolution (default from config)")
	f.BoolVar(&segFlags.smart, "smart", true, "detect chapter headings instead of fixed-size splits")
	f.BoolVar(&segFlags.writeText, "write-text", false, "write a text file per chapter on the text path")
	f.BoolVar(&segFlags.detailed, "detailed", false, "use page image analysis when classifying")
}

// segmentConfig returns a copy of the loaded config with the flags the user
// set applied on top.
func segmentConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := *cfgMgr.Get()
	f := cmd.Flags()
	if f.Changed("pages") {
		cfg.Segment.PagesPerChapter = segFlags.pages
		cfg.Segment.MinChapterPages = 0
		cfg.Segment.MaxChapterPages = 0
	}
	if f.Changed("ocr") {
		cfg.OCR.Enabled = segFlags.ocr
	}
	if f.Changed("force-ocr") {
		cfg.OCR.Force = segFlags.forceOCR
	}
	if f.Changed("ocr-lang") {
		cfg.OCR.Languages = segFlags.ocrLang
	}
	if f.Changed("no-preprocess") {
		cfg.OCR.Preprocess = !segFlags.noPreprocess
	}
	if f.Changed("dpi") {
		cfg.OCR.DPI = segFlags.dpi
	}
	if f.Changed("smart") {
		cfg.Segment.SmartDetection = segFlags.smart
	}
	if f.Changed("write-text") {
		cfg.Segment.WriteText = segFlags.writeText
	}
	if f.Changed("detailed") {
		cfg.Segment.DetailedClassification = segFlags.detailed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
