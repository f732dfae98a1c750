package chapters

import (
	"fmt"
	"regexp"
)

// Pattern is one entry of the heading catalogue.
type Pattern struct {
	Name string
	re   *regexp.Regexp
}

// NewPattern compiles a heading pattern. Patterns are matched against a
// single trimmed line.
func NewPattern(name, expr string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid pattern %s: %w", name, err)
	}
	return Pattern{Name: name, re: re}, nil
}

// Find returns the matched text, or "" when line does not match.
func (p Pattern) Find(line string) string {
	if p.re == nil {
		return ""
	}
	return p.re.FindString(line)
}

// String returns the pattern's expression.
func (p Pattern) String() string {
	if p.re == nil {
		return ""
	}
	return p.re.String()
}

var defaultPatternSource = []struct{ name, expr string }{
	// CJK
	{"cjk_chapter", `^第[零一二三四五六七八九十百千万\d]+章`},
	{"cjk_section", `^第[零一二三四五六七八九十百千万\d]+节`},
	{"cjk_enumeration", `^[零一二三四五六七八九十]、`},

	// Enumerated headings
	{"numbered", `^\d+[.、]`},
	{"lettered", `^[A-Z]\.`},

	// English
	{"chapter_number", `^(?i:chapter)\s+\d+`},
	{"chapter_roman", `^(?i:chapter)\s+[IVXLCDM]+\b`},
	{"section_number", `^(?i:section)\s+\d+`},
	{"part_number", `^(?i:part)\s+\d+`},
	{"roman_heading", `^[IVXLCDM]+\.\s+\S`},

	// Generic
	{"leading_digit", `^\d+\s+\p{Lu}`},
	{"leading_capital", `^[A-Z]\s+\p{Lu}`},
}

var defaultPatterns = func() []Pattern {
	out := make([]Pattern, 0, len(defaultPatternSource))
	for _, s := range defaultPatternSource {
		out = append(out, Pattern{Name: s.name, re: regexp.MustCompile(s.expr)})
	}
	return out
}()

// DefaultPatterns returns a copy of the built-in heading catalogue.
func DefaultPatterns() []Pattern {
	out := make([]Pattern, len(defaultPatterns))
	copy(out, defaultPatterns)
	return out
}
