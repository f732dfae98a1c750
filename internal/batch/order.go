package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jackzampolin/folio/internal/document"
)

var (
	numberSuffix = regexp.MustCompile(`-(\d+)\.pdf$`)
	trailingPart = regexp.MustCompile(`-\d+$`)
)

// FindPDFs lists the PDF files directly inside dir in processing order.
// Subdirectories are not searched.
func FindPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !document.IsPDF(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return SortPDFsByNumber(paths), nil
}

// SortPDFsByNumber sorts PDF paths by their numeric suffix.
// e.g., ["book-2.pdf", "book-1.pdf", "book-10.pdf"] -> ["book-1.pdf", "book-2.pdf", "book-10.pdf"]
func SortPDFsByNumber(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)

	sort.SliceStable(sorted, func(i, j int) bool {
		ni, okI := suffixNumber(sorted[i])
		nj, okJ := suffixNumber(sorted[j])

		// If both have numbers, sort numerically
		if okI && okJ {
			if ni != nj {
				return ni < nj
			}
			return sorted[i] < sorted[j]
		}

		// Files without numbers come first
		if okI {
			return false
		}
		if okJ {
			return true
		}

		// Both without numbers: alphabetical
		return sorted[i] < sorted[j]
	})

	return sorted
}

func suffixNumber(path string) (int, bool) {
	m := numberSuffix.FindStringSubmatch(strings.ToLower(path))
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SeriesName extracts the shared name of a numbered PDF series.
// e.g., "annual-report.pdf" -> "annual-report"
// e.g., "scan-3.pdf" -> "scan"
func SeriesName(pdfPath string) string {
	base := filepath.Base(pdfPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return trailingPart.ReplaceAllString(name, "")
}
