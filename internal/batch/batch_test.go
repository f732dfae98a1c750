package batch

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/report"
	"github.com/jackzampolin/folio/internal/segment"
	"github.com/jackzampolin/folio/internal/testutil"
	"github.com/jackzampolin/folio/internal/types"
)

type fakeSegmenter struct {
	mu    sync.Mutex
	calls map[string]segment.Options
	fail  map[string]error
	block chan struct{}
}

func newFakeSegmenter() *fakeSegmenter {
	return &fakeSegmenter{
		calls: make(map[string]segment.Options),
		fail:  make(map[string]error),
	}
}

func (f *fakeSegmenter) Run(ctx context.Context, input string, opts segment.Options) (*report.Report, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	f.calls[filepath.Base(input)] = opts
	err := f.fail[filepath.Base(input)]
	f.mu.Unlock()

	rep := &report.Report{InputFile: input, OutputDir: opts.OutputDir, TotalPages: 12}
	if err != nil {
		rep.Error = err.Error()
		return rep, err
	}
	rep.Success = true
	rep.ChaptersCreated = 3
	rep.ProcessingMode = types.ModeText
	rep.SplitMethod = types.SplitFixed
	return rep, nil
}

func (f *fakeSegmenter) called(name string) (segment.Options, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.calls[name]
	return o, ok
}

func writeInputs(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRunner_Run(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	writeInputs(t, in, "vol-2.pdf", "vol-1.pdf", "broken.pdf", "readme.md")

	seg := newFakeSegmenter()
	seg.fail["broken.pdf"] = errors.New("unsupported format")

	r := New(Config{Segmenter: seg, Workers: 2, Logger: testutil.DiscardLogger()})
	b, err := r.Run(context.Background(), in, out, segment.Options{PagesPerChapter: 7})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if b.TotalFiles != 3 || b.Succeeded != 2 || b.Failed != 1 {
		t.Errorf("unexpected totals: %+v", b)
	}
	if b.ChaptersCreated != 6 {
		t.Errorf("expected 6 chapters, got %d", b.ChaptersCreated)
	}
	if b.BatchID == "" {
		t.Error("expected batch id")
	}

	order := []string{"broken.pdf", "vol-1.pdf", "vol-2.pdf"}
	for i, name := range order {
		e := b.Results[i]
		if filepath.Base(e.File) != name {
			t.Errorf("result %d: got %s, want %s", i, filepath.Base(e.File), name)
		}
		wantDir := filepath.Join(out, home.Stem(name))
		if e.OutputDir != wantDir {
			t.Errorf("result %d: output dir %s, want %s", i, e.OutputDir, wantDir)
		}
	}

	failed := b.Results[0]
	if failed.Success || failed.Error == "" || failed.ReportFile != "" {
		t.Errorf("unexpected failed entry: %+v", failed)
	}
	ok := b.Results[1]
	if !ok.Success || ok.ReportFile == "" || ok.ChaptersCreated != 3 || ok.SplitMethod != types.SplitFixed {
		t.Errorf("unexpected success entry: %+v", ok)
	}

	opts, called := seg.called("vol-1.pdf")
	if !called {
		t.Fatal("vol-1.pdf not processed")
	}
	if opts.PagesPerChapter != 7 || opts.OutputDir != filepath.Join(out, "vol-1") {
		t.Errorf("unexpected options %+v", opts)
	}

	data, err := os.ReadFile(home.BatchReportPath(out))
	if err != nil {
		t.Fatalf("batch report not written: %v", err)
	}
	var decoded report.BatchReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("batch report is not valid JSON: %v", err)
	}
	if decoded.TotalFiles != 3 || decoded.InputDir != in {
		t.Errorf("unexpected decoded report: %+v", decoded)
	}
}

func TestRunner_NoInputs(t *testing.T) {
	in := t.TempDir()
	writeInputs(t, in, "notes.txt")

	r := New(Config{Segmenter: newFakeSegmenter(), Logger: testutil.DiscardLogger()})
	_, err := r.Run(context.Background(), in, t.TempDir(), segment.Options{})
	if !errors.Is(err, ErrNoInputs) {
		t.Errorf("expected ErrNoInputs, got %v", err)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	in := t.TempDir()
	writeInputs(t, in, "a.pdf", "b.pdf")

	seg := newFakeSegmenter()
	seg.block = make(chan struct{})

	r := New(Config{Segmenter: seg, Workers: 1, Logger: testutil.DiscardLogger()})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	files, err := FindPDFs(in)
	if err != nil {
		t.Fatal(err)
	}
	b := r.Process(ctx, files, t.TempDir(), segment.Options{})
	if b.TotalFiles != 2 || b.Failed != 2 {
		t.Errorf("expected both files recorded as failed, got %+v", b)
	}
	for _, e := range b.Results {
		if e.Error == "" {
			t.Errorf("expected error for %s", e.File)
		}
	}
}

func TestRunner_ProcessEmpty(t *testing.T) {
	r := New(Config{Segmenter: newFakeSegmenter(), Logger: testutil.DiscardLogger()})
	b := r.Process(context.Background(), nil, t.TempDir(), segment.Options{})
	if b.TotalFiles != 0 || b.EndTime.IsZero() {
		t.Errorf("unexpected empty batch %+v", b)
	}
}
