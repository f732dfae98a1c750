package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/batch"
	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/report"
)

var (
	batchOut     string
	batchWorkers int
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Split every PDF in a directory",
	Long: `Split every PDF directly inside a directory. Each document gets its own
subdirectory of the output directory, and batch_processing_report.json
summarises the run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := segmentConfig(cmd)
		if err != nil {
			return err
		}

		runner := newBatchRunner(cfg, batchWorkers)
		b, runErr := runner.Run(cmd.Context(), args[0], outputDir(batchOut), cfg.SegmentOptions())
		if b != nil {
			if err := api.Output(b); err != nil {
				return err
			}
		}
		if runErr != nil {
			return fmt.Errorf("batch %s: %w", args[0], runErr)
		}
		if b.Failed > 0 {
			return fmt.Errorf("%d of %d files failed", b.Failed, b.TotalFiles)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Split PDFs as they are dropped into an inbox directory",
	Long: `Watch a directory and split each PDF once it stops changing. PDFs
already present are processed first. Config file changes (segmentation,
OCR, output_dir and batch workers) apply to files that arrive afterwards;
the settle delay is fixed at startup. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := segmentConfig(cmd)
		if err != nil {
			return err
		}

		var mu sync.RWMutex
		target := watchTarget(cfg)

		if cfgMgr.File() != "" {
			cfgMgr.OnChange(func(_ *config.Config) {
				next, err := segmentConfig(cmd)
				if err != nil {
					logger.Warn("ignoring config change", "error", err)
					return
				}
				t := watchTarget(next)
				mu.Lock()
				target = t
				mu.Unlock()
				logger.Info("config reloaded",
					"pages_per_chapter", next.Segment.PagesPerChapter,
					"ocr", next.OCR.Enabled,
					"output", t.OutputDir)
			})
			cfgMgr.OnError(func(err error) {
				logger.Warn("config reload failed", "error", err)
			})
			cfgMgr.WatchConfig()
		}

		w := batch.NewWatcher(batch.WatchConfig{
			Inbox:  args[0],
			Settle: time.Duration(cfg.Batch.SettleSeconds * float64(time.Second)),
			Target: func() batch.Target {
				mu.RLock()
				defer mu.RUnlock()
				return target
			},
			Logger: logger,
			OnRound: func(b *report.BatchReport) {
				logger.Info("inbox round complete",
					"total", b.TotalFiles, "succeeded", b.Succeeded, "failed", b.Failed)
			},
		})

		err = w.Run(cmd.Context())
		if b := w.Report(); b != nil {
			if outErr := api.Output(b); outErr != nil {
				return outErr
			}
		}
		return err
	},
}

func init() {
	for _, cmd := range []*cobra.Command{batchCmd, watchCmd} {
		addSegmentFlags(cmd)
		cmd.Flags().StringVar(&batchOut, "out", "", "output directory (default: ~/.folio/chapters)")
		cmd.Flags().IntVar(&batchWorkers, "workers", 0, "documents processed in parallel (default from config, 0 = one per CPU)")
	}
}

// watchTarget builds the runner and options one watch round uses. The OCR
// engine and orchestrator are rebuilt so reloaded OCR settings take effect.
func watchTarget(cfg *config.Config) batch.Target {
	return batch.Target{
		Runner:    newBatchRunner(cfg, batchWorkers),
		OutputDir: outputDir(batchOut),
		Options:   cfg.SegmentOptions(),
	}
}
