// Package chapters detects chapter boundaries and partitions documents into
// page-range chapters.
package chapters

import (
	"log/slog"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/folio/internal/extract"
	"github.com/jackzampolin/folio/internal/types"
)

// Defaults for chapter sizing.
const (
	DefaultMinChapterPages = 5
	DefaultMaxChapterPages = 50

	// AcceptThreshold is the confidence a candidate must exceed to become a boundary.
	AcceptThreshold = 0.7

	// MinPageChars is the trimmed length below which a page is not evaluated.
	MinPageChars = 10

	// PreviewRunes bounds BoundaryCandidate.Preview.
	PreviewRunes = 100
)

// Method names how a boundary list was produced.
type Method string

const (
	MethodPattern  Method = "pattern"
	MethodFallback Method = "fallback"
)

// Config configures a Detector.
type Config struct {
	MinChapterPages int
	MaxChapterPages int

	// Patterns defaults to DefaultPatterns(). Ignored when Rules is set.
	Patterns []Pattern
	// Rules defaults to DefaultRules(Patterns).
	Rules []Rule

	// Disabled forces the fixed-interval fallback.
	Disabled bool

	Logger *slog.Logger
}

// Detector proposes and selects chapter boundaries from page text.
// It holds no mutable state and is safe for concurrent use.
type Detector struct {
	min, max int
	rules    []Rule
	disabled bool
	logger   *slog.Logger
}

// New creates a Detector. Non-positive sizes fall back to the defaults and a
// max below min is raised to min.
func New(cfg Config) *Detector {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinChapterPages <= 0 {
		cfg.MinChapterPages = DefaultMinChapterPages
	}
	if cfg.MaxChapterPages <= 0 {
		cfg.MaxChapterPages = DefaultMaxChapterPages
	}
	if cfg.MaxChapterPages < cfg.MinChapterPages {
		cfg.MaxChapterPages = cfg.MinChapterPages
	}

	rules := cfg.Rules
	if rules == nil {
		patterns := cfg.Patterns
		if patterns == nil {
			patterns = DefaultPatterns()
		}
		rules = DefaultRules(patterns)
	}

	return &Detector{
		min:      cfg.MinChapterPages,
		max:      cfg.MaxChapterPages,
		rules:    slices.Clone(rules),
		disabled: cfg.Disabled,
		logger:   logger.With("component", "chapters"),
	}
}

// MinChapterPages returns the configured minimum chapter length.
func (d *Detector) MinChapterPages() int { return d.min }

// MaxChapterPages returns the configured maximum chapter length.
func (d *Detector) MaxChapterPages() int { return d.max }

// FallbackInterval is the fixed chapter length used when nothing is detected.
func (d *Detector) FallbackInterval() int {
	return (d.min + d.max) / 2
}

// Result is the outcome of Detect.
type Result struct {
	Boundaries []int                     `json:"boundaries" yaml:"boundaries"`
	Candidates []types.BoundaryCandidate `json:"candidates" yaml:"candidates"`
	Method     Method                    `json:"method" yaml:"method"`
	Confidence float64                   `json:"confidence" yaml:"confidence"`
}

// Candidates evaluates the rules on every page of pageTexts inside
// [0, totalPages) and returns the matches ordered by page.
func (d *Detector) Candidates(pageTexts map[int]string, totalPages int) []types.BoundaryCandidate {
	pages := make([]int, 0, len(pageTexts))
	for p := range pageTexts {
		if p >= 0 && p < totalPages {
			pages = append(pages, p)
		}
	}
	sort.Ints(pages)

	var out []types.BoundaryCandidate
	for _, p := range pages {
		text := strings.TrimSpace(pageTexts[p])
		if utf8.RuneCountInString(text) < MinPageChars {
			continue
		}
		for _, r := range d.rules {
			ok, reason := r.Match(p, text)
			if !ok {
				continue
			}
			out = append(out, types.BoundaryCandidate{
				Page:       p,
				Confidence: r.Confidence,
				Reason:     reason,
				Preview:    extract.Truncate(text, PreviewRunes),
			})
			break
		}
	}
	return out
}

// Detect returns the boundary list for a document of totalPages pages.
// pageTexts may cover any subset of the pages.
func (d *Detector) Detect(pageTexts map[int]string, totalPages int) Result {
	if totalPages <= 0 {
		return Result{Method: MethodFallback}
	}

	var candidates []types.BoundaryCandidate
	if !d.disabled {
		candidates = d.Candidates(pageTexts, totalPages)
	}

	if len(candidates) == 0 {
		b := FixedBoundaries(totalPages, d.FallbackInterval())
		d.logger.Info("no chapter headings found, using fixed interval",
			"interval", d.FallbackInterval(), "chapters", len(b))
		return Result{
			Boundaries: b,
			Method:     MethodFallback,
			Confidence: Confidence(b, totalPages),
		}
	}

	b := d.selectBoundaries(candidates, totalPages)
	d.logger.Info("chapter boundaries detected",
		"candidates", len(candidates), "chapters", len(b), "boundaries", b)
	return Result{
		Boundaries: b,
		Candidates: candidates,
		Method:     MethodPattern,
		Confidence: Confidence(b, totalPages),
	}
}

// selectBoundaries accepts high-confidence candidates whose distance from the
// last accepted boundary lies in [min, max], then back-fills the tail.
func (d *Detector) selectBoundaries(candidates []types.BoundaryCandidate, totalPages int) []int {
	ordered := slices.Clone(candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Confidence != ordered[j].Confidence {
			return ordered[i].Confidence > ordered[j].Confidence
		}
		return ordered[i].Page < ordered[j].Page
	})

	selected := []int{0}
	for _, c := range ordered {
		if c.Confidence <= AcceptThreshold {
			break
		}
		gap := c.Page - selected[len(selected)-1]
		if gap < d.min || gap > d.max {
			d.logger.Debug("candidate rejected", "page", c.Page, "gap", gap)
			continue
		}
		selected = append(selected, c.Page)
	}

	last := selected[len(selected)-1]
	for last+d.max < totalPages {
		last += d.max
		selected = append(selected, last)
	}

	return Normalize(selected, totalPages)
}

// Normalize sorts and deduplicates boundaries, drops those outside
// [0, totalPages) and ensures the list starts at 0.
func Normalize(boundaries []int, totalPages int) []int {
	if totalPages <= 0 {
		return nil
	}
	out := []int{0}
	for _, b := range boundaries {
		if b > 0 && b < totalPages {
			out = append(out, b)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// FixedBoundaries returns 0, interval, 2*interval, ... below totalPages.
func FixedBoundaries(totalPages, interval int) []int {
	if interval < 1 {
		interval = 1
	}
	var out []int
	for p := 0; p < totalPages; p += interval {
		out = append(out, p)
	}
	return out
}

// Split partitions [0, totalPages) at boundaries. Chapter i spans
// [boundaries[i], boundaries[i+1]) and the last extends to totalPages.
func Split(boundaries []int, totalPages int) []types.Chapter {
	b := Normalize(boundaries, totalPages)
	chapters := make([]types.Chapter, 0, len(b))
	for i, start := range b {
		end := totalPages
		if i+1 < len(b) {
			end = b[i+1]
		}
		chapters = append(chapters, types.Chapter{
			Number:    i + 1,
			StartPage: start,
			EndPage:   end,
			PageCount: end - start,
			Title:     DefaultTitle(i + 1),
		})
	}
	return chapters
}

// Confidence scores how plausible a boundary list is: consistent chapter
// lengths and a reasonable density score higher. A single chapter scores 0.3.
func Confidence(boundaries []int, totalPages int) float64 {
	if len(boundaries) <= 1 || totalPages <= 0 {
		return 0.3
	}

	chapters := Split(boundaries, totalPages)
	var sum float64
	for _, c := range chapters {
		sum += float64(c.PageCount)
	}
	mean := sum / float64(len(chapters))
	var variance float64
	for _, c := range chapters {
		d := float64(c.PageCount) - mean
		variance += d * d
	}
	variance /= float64(len(chapters))
	cv := math.Sqrt(variance) / mean

	consistency := 1 / (1 + cv)
	density := math.Min(1, float64(len(chapters))*20/float64(totalPages))

	score := 0.3 + 0.5*consistency + 0.2*density
	return math.Round(math.Min(math.Max(score, 0), 1)*1000) / 1000
}

// MinTitleRunes is the length a line must exceed to be used as a title.
const MinTitleRunes = 3

// MaxTitleRunes bounds chapter titles.
const MaxTitleRunes = 50

// Title derives a chapter title from the first line of its start page
// longer than MinTitleRunes, so leading page numbers are skipped.
func Title(text string, number int) string {
	line := extract.FirstLine(text, MinTitleRunes)
	if line == "" {
		return DefaultTitle(number)
	}
	return extract.Truncate(line, MaxTitleRunes)
}

// DefaultTitle is the title of a chapter with no usable heading.
func DefaultTitle(number int) string {
	return "Chapter " + strconv.Itoa(number)
}
