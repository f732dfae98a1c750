package chapters

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rule is one boundary heuristic. Rules are evaluated in order and the first
// match decides a page's confidence.
type Rule struct {
	Name       string
	Confidence float64
	// Match reports whether text (trimmed page text) looks like a chapter
	// start, with a short reason.
	Match func(page int, text string) (bool, string)
}

// Rule confidences.
const (
	PatternConfidence     = 0.8
	FrontMatterConfidence = 0.7
	HeadingConfidence     = 0.6
)

// HeadingLines is the number of leading non-empty lines searched for a heading.
const HeadingLines = 3

// FrontMatterPages bounds the pages on which front-matter keywords count.
const FrontMatterPages = 5

// FrontMatterKeywords mark tables of contents, prefaces and abstracts.
var FrontMatterKeywords = []string{
	"目录", "前言", "引言", "摘要",
	"abstract", "contents", "table of contents", "preface",
}

// DefaultRules returns the structural pattern, heading-shape and front-matter
// rules, in that order.
func DefaultRules(patterns []Pattern) []Rule {
	return []Rule{
		PatternRule(patterns),
		HeadingShapeRule(),
		FrontMatterRule(FrontMatterKeywords),
	}
}

// PatternRule matches any catalogue pattern on the first HeadingLines lines.
func PatternRule(patterns []Pattern) Rule {
	return Rule{
		Name:       "pattern",
		Confidence: PatternConfidence,
		Match: func(_ int, text string) (bool, string) {
			for _, line := range leadingLines(text, HeadingLines) {
				for _, p := range patterns {
					if m := p.Find(line); m != "" {
						return true, "pattern " + p.Name + ": " + m
					}
				}
			}
			return false, ""
		},
	}
}

// HeadingShapeRule matches a short first line with at least two heading traits.
func HeadingShapeRule() Rule {
	return Rule{
		Name:       "heading_shape",
		Confidence: HeadingConfidence,
		Match: func(_ int, text string) (bool, string) {
			lines := strings.Split(text, "\n")
			first := strings.TrimSpace(lines[0])
			n := utf8.RuneCountInString(first)
			if n <= 5 || n >= 100 {
				return false, ""
			}

			traits := 0
			if r, _ := utf8.DecodeRuneInString(first); unicode.IsDigit(r) || unicode.IsUpper(r) {
				traits++
			}
			if !strings.Contains(first, ".") {
				traits++
			}
			if len(lines) <= 3 {
				traits++
			}
			if traits < 2 {
				return false, ""
			}
			return true, "heading shape"
		},
	}
}

// FrontMatterRule matches early pages mentioning one of keywords.
func FrontMatterRule(keywords []string) Rule {
	return Rule{
		Name:       "front_matter",
		Confidence: FrontMatterConfidence,
		Match: func(page int, text string) (bool, string) {
			if page >= FrontMatterPages {
				return false, ""
			}
			lower := strings.ToLower(text)
			for _, k := range keywords {
				if strings.Contains(lower, k) {
					return true, "front matter: " + k
				}
			}
			return false, ""
		},
	}
}

func leadingLines(text string, n int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == n {
			break
		}
	}
	return out
}
