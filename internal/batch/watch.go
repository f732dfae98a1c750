package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/report"
	"github.com/jackzampolin/folio/internal/segment"
)

// DefaultSettle is how long a file must go without events before it is processed.
const DefaultSettle = 2 * time.Second

// Target is what a watch round segments files with.
type Target struct {
	Runner    *Runner
	OutputDir string
	Options   segment.Options
}

// WatchConfig configures a Watcher.
type WatchConfig struct {
	Inbox string

	// Target is called before every round so configuration reloads take
	// effect for files that arrive later.
	Target func() Target

	Settle time.Duration
	Logger *slog.Logger

	// OnRound is called with the cumulative report after each round.
	OnRound func(*report.BatchReport)
}

// Watcher segments PDFs as they appear in an inbox directory.
type Watcher struct {
	inbox   string
	target  func() Target
	settle  time.Duration
	logger  *slog.Logger
	onRound func(*report.BatchReport)

	mu      sync.Mutex
	pending map[string]time.Time
	seen    map[string]time.Time
	total   *report.BatchReport
}

// NewWatcher creates a Watcher.
func NewWatcher(cfg WatchConfig) *Watcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	settle := cfg.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{
		inbox:   cfg.Inbox,
		target:  cfg.Target,
		settle:  settle,
		logger:  logger.With("component", "watch", "inbox", cfg.Inbox),
		onRound: cfg.OnRound,
		pending: make(map[string]time.Time),
		seen:    make(map[string]time.Time),
	}
}

// Run watches the inbox until ctx is cancelled. PDFs already present when
// it starts are processed first. A file is processed again only when its
// modification time changes.
func (w *Watcher) Run(ctx context.Context) error {
	if w.target == nil {
		return fmt.Errorf("watch %s: no target configured", w.inbox)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.inbox); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.inbox, err)
	}

	existing, err := FindPDFs(w.inbox)
	if err != nil {
		return err
	}
	for _, path := range existing {
		w.mark(path, time.Time{})
	}

	w.logger.Info("watching inbox", "existing", len(existing), "settle", w.settle)

	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	w.round(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if !document.IsPDF(event.Name) {
				continue
			}
			w.logger.Debug("inbox event", "file", event.Name, "op", event.Op.String())
			w.mark(event.Name, time.Now())

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case now := <-ticker.C:
			w.round(ctx, now)
		}
	}
}

// Report returns a copy of the cumulative report, or nil before the first round.
func (w *Watcher) Report() *report.BatchReport {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.total == nil {
		return nil
	}
	out := *w.total
	out.Results = append([]report.BatchEntry(nil), w.total.Results...)
	return &out
}

func (w *Watcher) mark(path string, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = at
}

// ready removes and returns pending files that have settled and changed
// since they were last processed.
func (w *Watcher) ready(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var files []string
	for path, at := range w.pending {
		if now.Sub(at) < w.settle {
			continue
		}
		delete(w.pending, path)

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if last, ok := w.seen[path]; ok && last.Equal(info.ModTime()) {
			continue
		}
		w.seen[path] = info.ModTime()
		files = append(files, path)
	}
	return SortPDFsByNumber(files)
}

// round processes every settled file and folds the outcome into the
// cumulative report.
func (w *Watcher) round(ctx context.Context, now time.Time) {
	files := w.ready(now)
	if len(files) == 0 {
		return
	}

	t := w.target()
	w.logger.Info("processing inbox files", "files", len(files), "output", t.OutputDir)
	b := t.Runner.Process(ctx, files, t.OutputDir, t.Options)

	w.mu.Lock()
	if w.total == nil {
		w.total = &report.BatchReport{
			BatchID:   b.BatchID,
			InputDir:  w.inbox,
			StartTime: b.StartTime,
		}
	}
	w.total.OutputDir = t.OutputDir
	for _, e := range b.Results {
		w.total.Add(e)
	}
	w.total.Finish(b.EndTime)
	snapshot := *w.total
	snapshot.Results = append([]report.BatchEntry(nil), w.total.Results...)
	w.mu.Unlock()

	if err := t.Runner.writeReport(&snapshot); err != nil {
		w.logger.Error("failed to write inbox report", "error", err)
	}
	if w.onRound != nil {
		w.onRound(&snapshot)
	}
}
