// Package document provides page-addressable access to PDF files.
//
// Every operation opens the file, does its work and closes it again; no
// handle is cached between calls.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var (
	// ErrNotFound is returned when the input file does not exist.
	ErrNotFound = errors.New("input not found")

	// ErrUnsupportedFormat is returned for inputs that are not PDF files.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrPageOutOfRange is returned for page indices outside [0, PageCount).
	ErrPageOutOfRange = errors.New("page out of range")
)

// Options configures how a PDF is read.
type Options struct {
	// Pdftotext enables the poppler pdftotext fallback when the Go parser fails on a page.
	Pdftotext bool
	Logger    *slog.Logger
}

// PDF is a read-only handle description for a PDF file.
// Pages are 0-indexed.
type PDF struct {
	path      string
	pageCount int
	pdftotext bool
	logger    *slog.Logger
}

// Open validates path and reads its page count.
func Open(path string, opts Options) (*PDF, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnsupportedFormat, path)
	}
	if !IsPDF(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	pageCount, err := PageCount(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	return &PDF{
		path:      path,
		pageCount: pageCount,
		pdftotext: opts.Pdftotext,
		logger:    logger.With("pdf", filepath.Base(path)),
	}, nil
}

// IsPDF reports whether path has a .pdf extension.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	count, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return count, nil
}

// Path returns the file path.
func (p *PDF) Path() string {
	return p.path
}

// PageCount returns the number of pages.
func (p *PDF) PageCount() int {
	return p.pageCount
}

// PageText returns the embedded text of one page, one text row per line.
// Pages without embedded text return "" and no error.
func (p *PDF) PageText(ctx context.Context, page int) (string, error) {
	if page < 0 || page >= p.pageCount {
		return "", fmt.Errorf("%w: %d (pages: %d)", ErrPageOutOfRange, page, p.pageCount)
	}

	text, err := readPageText(p.path, page+1)
	if err == nil {
		return text, nil
	}
	if !p.pdftotext {
		return "", err
	}

	p.logger.Debug("go parser failed, trying pdftotext", "page", page, "error", err)
	text, fbErr := pdftotextPage(ctx, p.path, page+1)
	if fbErr != nil {
		return "", fmt.Errorf("%w (pdftotext: %v)", err, fbErr)
	}
	return text, nil
}

// readPageText extracts text from a 1-indexed page with ledongthuc/pdf.
// The parser panics on some malformed inputs; that is reported as an error.
func readPageText(path string, pageNum int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic on page %d: %v", pageNum, r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	if pageNum > reader.NumPage() {
		return "", fmt.Errorf("%w: %d", ErrPageOutOfRange, pageNum-1)
	}

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		return "", fmt.Errorf("failed to read text rows: %w", err)
	}

	var b strings.Builder
	for _, row := range rows {
		for _, word := range row.Content {
			b.WriteString(word.S)
		}
		b.WriteByte('\n')
	}
	if b.Len() > 0 {
		return b.String(), nil
	}

	// Some producers emit text the row grouper misses.
	plain, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("failed to read plain text: %w", err)
	}
	return plain, nil
}

// pdftotextPage extracts a 1-indexed page with poppler's pdftotext.
func pdftotextPage(ctx context.Context, path string, pageNum int) (string, error) {
	pageStr := strconv.Itoa(pageNum)
	cmd := exec.CommandContext(ctx, "pdftotext",
		"-f", pageStr,
		"-l", pageStr,
		"-layout",
		path,
		"-",
	)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
