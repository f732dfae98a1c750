package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/folio/internal/testutil"
)

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Open(filepath.Join(dir, "missing.pdf"), Options{})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("wrong extension", func(t *testing.T) {
		path := filepath.Join(dir, "notes.txt")
		if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Open(path, Options{})
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("directory", func(t *testing.T) {
		sub := filepath.Join(dir, "folder.pdf")
		if err := os.Mkdir(sub, 0o755); err != nil {
			t.Fatal(err)
		}
		_, err := Open(sub, Options{})
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("garbage with pdf extension", func(t *testing.T) {
		path := filepath.Join(dir, "broken.pdf")
		if err := os.WriteFile(path, []byte("not a pdf at all"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Open(path, Options{})
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
		}
	})
}

func TestIsPDF(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"book.pdf", true},
		{"BOOK.PDF", true},
		{"/a/b/c.Pdf", true},
		{"book.txt", false},
		{"pdf", false},
	}
	for _, tt := range tests {
		if got := IsPDF(tt.path); got != tt.want {
			t.Errorf("IsPDF(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestPDF_PageText(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteTextPDF(t, dir, "book.pdf", []string{
		"Chapter 1\nThe beginning of the story",
		"Second page body",
		"Chapter 2\nThe middle",
	})

	doc, err := Open(path, Options{Logger: testutil.DiscardLogger()})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if doc.PageCount() != 3 {
		t.Fatalf("expected 3 pages, got %d", doc.PageCount())
	}
	if doc.Path() != path {
		t.Errorf("unexpected path %s", doc.Path())
	}

	ctx := context.Background()
	text, err := doc.PageText(ctx, 0)
	if err != nil {
		t.Fatalf("PageText failed: %v", err)
	}
	if !strings.Contains(text, "Chapter 1") {
		t.Errorf("expected page 0 to contain heading, got %q", text)
	}

	if _, err := doc.PageText(ctx, 3); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("expected ErrPageOutOfRange, got %v", err)
	}
	if _, err := doc.PageText(ctx, -1); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("expected ErrPageOutOfRange, got %v", err)
	}
}

func TestRangeWriter_WriteRange(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteTextPDF(t, dir, "source.pdf", []string{"one", "two", "three", "four", "five"})
	before, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "source_chapter_002.pdf")
	var w RangeWriter
	if err := w.WriteRange(context.Background(), src, 2, 5, dst); err != nil {
		t.Fatalf("WriteRange failed: %v", err)
	}

	count, err := PageCount(dst)
	if err != nil {
		t.Fatalf("PageCount on output failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 pages in sub-document, got %d", count)
	}

	after, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("source document was modified")
	}
}

func TestRangeWriter_InvalidRange(t *testing.T) {
	var w RangeWriter
	if err := w.WriteRange(context.Background(), "in.pdf", 3, 3, "out.pdf"); err == nil {
		t.Error("expected error for empty range")
	}
	if err := w.WriteRange(context.Background(), "in.pdf", -1, 2, "out.pdf"); err == nil {
		t.Error("expected error for negative start")
	}
}
