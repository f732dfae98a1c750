// Package extract pulls embedded text out of individual document pages.
//
// Extraction never fails from the caller's point of view: a page whose text
// cannot be read yields an empty string and is logged.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// TextSource is a document whose pages can be read independently.
type TextSource interface {
	PageCount() int
	PageText(ctx context.Context, page int) (string, error)
}

// Page is the outcome of extracting one page.
type Page struct {
	Index  int
	Text   string
	Failed bool
}

// Extractor wraps a TextSource's text capability.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger.With("component", "extract")}
}

// Extract returns the NFKC-normalised text of one page, or "" on any failure.
func (e *Extractor) Extract(ctx context.Context, src TextSource, page int) string {
	return e.extract(ctx, src, page).Text
}

// Sample extracts each listed page, reporting failures separately from empty pages.
func (e *Extractor) Sample(ctx context.Context, src TextSource, pages []int) []Page {
	out := make([]Page, 0, len(pages))
	for _, p := range pages {
		out = append(out, e.extract(ctx, src, p))
	}
	return out
}

// NonTrivial reads the first limit pages and keeps those whose trimmed text is
// longer than minChars runes. The result is keyed by page index.
func (e *Extractor) NonTrivial(ctx context.Context, src TextSource, limit, minChars int) map[int]string {
	n := src.PageCount()
	if limit > 0 && limit < n {
		n = limit
	}

	texts := make(map[int]string)
	for i := 0; i < n; i++ {
		text := strings.TrimSpace(e.Extract(ctx, src, i))
		if utf8.RuneCountInString(text) > minChars {
			texts[i] = text
		}
	}
	e.logger.Debug("collected page texts", "sampled", n, "kept", len(texts))
	return texts
}

func (e *Extractor) extract(ctx context.Context, src TextSource, page int) (result Page) {
	result.Index = page
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("text extraction panicked", "page", page, "panic", fmt.Sprint(r))
			result.Text = ""
			result.Failed = true
		}
	}()

	text, err := src.PageText(ctx, page)
	if err != nil {
		e.logger.Debug("text extraction failed", "page", page, "error", err)
		result.Failed = true
		return result
	}
	result.Text = norm.NFKC.String(text)
	return result
}

// CountNonSpace returns the number of non-whitespace runes in s.
func CountNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// FirstLine returns the first trimmed line of text longer than minRunes
// runes, or "" when there is none.
func FirstLine(text string, minRunes int) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); utf8.RuneCountInString(line) > minRunes {
			return line
		}
	}
	return ""
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
