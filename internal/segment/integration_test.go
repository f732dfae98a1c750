package segment

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/testutil"
	"github.com/jackzampolin/folio/internal/types"
)

func TestRun_RealPDF(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteTextPDF(t, dir, "manual.pdf", []string{
		"Chapter 1\nGetting started with the manual",
		"Installation steps are described here",
		"Chapter 2\nConfiguring the application",
		"Configuration keys and their defaults",
		"Chapter 3\nTroubleshooting common problems",
	})
	out := filepath.Join(dir, "out")

	o := New(Config{Logger: testutil.DiscardLogger()})
	rep, err := o.Run(context.Background(), input, Options{OutputDir: out, PagesPerChapter: 2})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rep.Classification.Type != types.DocumentText {
		t.Errorf("expected text classification, got %+v", rep.Classification)
	}
	if rep.TotalPages != 5 || rep.ChaptersCreated != 3 {
		t.Fatalf("unexpected totals: pages=%d chapters=%d", rep.TotalPages, rep.ChaptersCreated)
	}

	want := []int{2, 2, 1}
	for i, c := range rep.ChapterDetails {
		n, err := document.PageCount(filepath.Join(out, c.File))
		if err != nil {
			t.Fatalf("chapter %d unreadable: %v", c.Number, err)
		}
		if n != want[i] {
			t.Errorf("chapter %d has %d pages, want %d", c.Number, n, want[i])
		}
	}
	for _, c := range rep.ChapterDetails {
		if c.Title == "" {
			t.Errorf("chapter %d has no title", c.Number)
		}
	}
}
