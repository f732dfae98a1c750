// Package batch segments many documents at once, either from a directory
// listing or from an inbox watched for new files.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/report"
	"github.com/jackzampolin/folio/internal/segment"
)

// ErrNoInputs is returned when a directory holds no PDF files.
var ErrNoInputs = errors.New("no PDF files found")

// Segmenter runs the segmentation pipeline for one document.
type Segmenter interface {
	Run(ctx context.Context, input string, opts segment.Options) (*report.Report, error)
}

// Config configures a Runner.
type Config struct {
	Segmenter Segmenter
	Workers   int
	Logger    *slog.Logger
}

// Runner processes independent documents on a worker pool.
type Runner struct {
	segmenter Segmenter
	workers   int
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Runner.
func New(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		segmenter: cfg.Segmenter,
		workers:   cfg.Workers,
		logger:    logger.With("component", "batch"),
		now:       time.Now,
	}
}

// Run segments every PDF in inputDir. Each document gets its own
// subdirectory of outputDir named after the file stem, and the batch
// report is written to outputDir.
func (r *Runner) Run(ctx context.Context, inputDir, outputDir string, opts segment.Options) (*report.BatchReport, error) {
	files, err := FindPDFs(inputDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputs, inputDir)
	}

	r.logger.Info("starting batch", "input", inputDir, "output", outputDir, "files", len(files))

	b := r.Process(ctx, files, outputDir, opts)
	b.InputDir = inputDir

	if err := r.writeReport(b); err != nil {
		return b, err
	}

	r.logger.Info("batch complete",
		"batch_id", b.BatchID,
		"succeeded", b.Succeeded,
		"failed", b.Failed,
		"chapters", b.ChaptersCreated,
		"seconds", b.ProcessingTimeSeconds)
	return b, ctx.Err()
}

// Process segments files in the given order and returns the batch report
// without writing it. Files not reached before ctx is cancelled are
// recorded as failed.
func (r *Runner) Process(ctx context.Context, files []string, outputDir string, opts segment.Options) *report.BatchReport {
	b := &report.BatchReport{
		BatchID:   uuid.New().String(),
		OutputDir: outputDir,
		StartTime: r.now(),
	}

	if len(files) == 0 {
		b.Finish(r.now())
		return b
	}

	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := NewPool(PoolConfig{
		Name:        "batch",
		Logger:      r.logger,
		WorkerCount: r.workers,
		QueueSize:   len(files),
		Handler:     r.handler(opts),
	})
	pool.Start(poolCtx)

	for i, path := range files {
		unit := &Unit{
			Index:     i,
			Path:      path,
			OutputDir: filepath.Join(outputDir, home.Stem(path)),
		}
		if err := pool.Submit(unit); err != nil {
			r.logger.Error("failed to queue file", "file", path, "error", err)
		}
	}

	results := make([]*Result, len(files))
	received := 0
collect:
	for received < len(files) {
		select {
		case res := <-pool.Results():
			results[res.Unit.Index] = &res
			received++
		case <-ctx.Done():
			break collect
		}
	}
	cancel()
	pool.Close()

	for i, path := range files {
		res := results[i]
		if res == nil {
			err := ctx.Err()
			if err == nil {
				err = errors.New("not processed")
			}
			res = &Result{
				Unit: &Unit{Index: i, Path: path, OutputDir: filepath.Join(outputDir, home.Stem(path))},
				Err:  err,
			}
		}
		b.Add(entry(res))
	}

	b.Finish(r.now())
	return b
}

func (r *Runner) handler(opts segment.Options) Handler {
	return func(ctx context.Context, unit *Unit) Result {
		o := opts
		o.OutputDir = unit.OutputDir

		log := r.logger.With("file", filepath.Base(unit.Path), "series", SeriesName(unit.Path))
		log.Info("processing document")

		rep, err := r.segmenter.Run(ctx, unit.Path, o)
		if err != nil {
			log.Warn("document failed", "error", err)
		} else {
			log.Info("document done", "chapters", rep.ChaptersCreated)
		}
		return Result{Unit: unit, Report: rep, Err: err}
	}
}

func entry(res *Result) report.BatchEntry {
	e := report.BatchEntry{
		File:      res.Unit.Path,
		Success:   res.Err == nil,
		OutputDir: res.Unit.OutputDir,
	}
	if res.Err != nil {
		e.Error = res.Err.Error()
	}
	if rep := res.Report; rep != nil {
		e.TotalPages = rep.TotalPages
		e.ChaptersCreated = rep.ChaptersCreated
		e.ProcessingMode = rep.ProcessingMode
		e.SplitMethod = rep.SplitMethod
		if res.Err == nil {
			e.ReportFile = home.NewOutput(res.Unit.OutputDir, res.Unit.Path).ReportPath()
		}
	}
	return e
}

func (r *Runner) writeReport(b *report.BatchReport) error {
	if err := os.MkdirAll(b.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create batch output directory: %w", err)
	}
	path := home.BatchReportPath(b.OutputDir)
	if err := report.WriteBatch(path, b); err != nil {
		return fmt.Errorf("failed to write batch report: %w", err)
	}
	r.logger.Info("batch report written", "path", path)
	return nil
}
