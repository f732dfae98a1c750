package batch

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSortPDFsByNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "already sorted",
			input:    []string{"book-1.pdf", "book-2.pdf", "book-3.pdf"},
			expected: []string{"book-1.pdf", "book-2.pdf", "book-3.pdf"},
		},
		{
			name:     "reverse order",
			input:    []string{"book-3.pdf", "book-2.pdf", "book-1.pdf"},
			expected: []string{"book-1.pdf", "book-2.pdf", "book-3.pdf"},
		},
		{
			name:     "mixed with double digits",
			input:    []string{"book-10.pdf", "book-2.pdf", "book-1.pdf"},
			expected: []string{"book-1.pdf", "book-2.pdf", "book-10.pdf"},
		},
		{
			name:     "numbered and unnumbered",
			input:    []string{"book-2.pdf", "book.pdf", "book-1.pdf"},
			expected: []string{"book.pdf", "book-1.pdf", "book-2.pdf"},
		},
		{
			name:     "unnumbered alphabetical",
			input:    []string{"zeta.pdf", "alpha.pdf"},
			expected: []string{"alpha.pdf", "zeta.pdf"},
		},
		{
			name:     "upper case extension",
			input:    []string{"scan-2.PDF", "scan-1.pdf"},
			expected: []string{"scan-1.pdf", "scan-2.PDF"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SortPDFsByNumber(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("length mismatch: got %d, want %d", len(result), len(tt.expected))
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("index %d: got %q, want %q", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestSortPDFsByNumber_DoesNotModifyInput(t *testing.T) {
	input := []string{"b-2.pdf", "b-1.pdf"}
	SortPDFsByNumber(input)
	if input[0] != "b-2.pdf" {
		t.Error("input slice was reordered")
	}
}

func TestSeriesName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/path/to/annual-report.pdf", "annual-report"},
		{"/path/to/scan-1.pdf", "scan"},
		{"/path/to/scan-10.pdf", "scan"},
		{"simple.pdf", "simple"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SeriesName(tt.input); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFindPDFs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"vol-2.pdf", "vol-1.pdf", "notes.txt", "cover.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := FindPDFs(dir)
	if err != nil {
		t.Fatalf("FindPDFs failed: %v", err)
	}
	want := []string{"cover.pdf", "vol-1.pdf", "vol-2.pdf"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if filepath.Base(got[i]) != want[i] {
			t.Errorf("index %d: got %s, want %s", i, filepath.Base(got[i]), want[i])
		}
	}

	if _, err := FindPDFs(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}
