package chapters

import (
	"strings"
	"testing"
)

func TestDefaultPatterns(t *testing.T) {
	tests := []struct {
		line    string
		pattern string
	}{
		{"第十二章 总结", "cjk_chapter"},
		{"第3章 方法", "cjk_chapter"},
		{"第二节 背景", "cjk_section"},
		{"一、概述", "cjk_enumeration"},
		{"1. Introduction", "numbered"},
		{"2、研究方法", "numbered"},
		{"A. Appendix", "lettered"},
		{"Chapter 4", "chapter_number"},
		{"CHAPTER 12 The End", "chapter_number"},
		{"Chapter IV", "chapter_roman"},
		{"section 2", "section_number"},
		{"Part 3", "part_number"},
		{"IV. Results", "roman_heading"},
		{"3 Methods", "leading_digit"},
		{"B Methods", "leading_capital"},
	}

	patterns := DefaultPatterns()
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			for _, p := range patterns {
				if p.Find(tt.line) != "" {
					if p.Name != tt.pattern {
						t.Errorf("matched %s first, want %s", p.Name, tt.pattern)
					}
					return
				}
			}
			t.Errorf("no pattern matched %q", tt.line)
		})
	}
}

func TestDefaultPatterns_NoMatch(t *testing.T) {
	lines := []string{
		"the chapter 5 results were discussed",
		"In the beginning there was text",
		"I went home after the meeting",
		"2020 was a good year",
		"as shown in part 3 of the report",
		"apple.",
		"a. lowercase list item",
		"iv. lowercase numeral",
		"see A. Smith for details",
		"一些内容",
	}
	for _, line := range lines {
		for _, p := range DefaultPatterns() {
			if m := p.Find(line); m != "" {
				t.Errorf("pattern %s unexpectedly matched %q (%q)", p.Name, line, m)
			}
		}
	}
}

func TestDefaultPatterns_ReturnsCopy(t *testing.T) {
	a := DefaultPatterns()
	a[0] = Pattern{Name: "changed"}
	if DefaultPatterns()[0].Name != "cjk_chapter" {
		t.Error("mutating the returned slice must not affect the catalogue")
	}
}

func TestNewPattern(t *testing.T) {
	p, err := NewPattern("appendix", `^Appendix\s+[A-Z]`)
	if err != nil {
		t.Fatalf("NewPattern failed: %v", err)
	}
	if p.Find("Appendix B") != "Appendix B" {
		t.Error("expected custom pattern to match")
	}
	if _, err := NewPattern("bad", `(`); err == nil {
		t.Error("expected error for invalid expression")
	}
	if (Pattern{}).Find("anything") != "" {
		t.Error("zero pattern should match nothing")
	}
}

func TestPatternRule_FirstThreeLines(t *testing.T) {
	rule := PatternRule(DefaultPatterns())

	ok, reason := rule.Match(0, "\n\nsome preface text\n\nChapter 2\nbody")
	if !ok || !strings.Contains(reason, "Chapter 2") {
		t.Errorf("expected match on second non-empty line, got %v %q", ok, reason)
	}

	ok, _ = rule.Match(0, "line one\nline two\nline three\nChapter 2")
	if ok {
		t.Error("headings below the third line must not match")
	}
}

func TestHeadingShapeRule(t *testing.T) {
	rule := HeadingShapeRule()
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"short capitalised line", "Results And Discussion", true},
		{"lowercase without period on short page", "results and discussion", true},
		{"lowercase sentence on long page", "a sentence. with periods\nmore\nlines\nhere", false},
		{"too short", "Intro", false},
		{"too long", strings.Repeat("Word ", 30), false},
		{"capitalised sentence on long page", "The results. are in\nline\nline\nline", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := rule.Match(10, tt.text)
			if got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestFrontMatterRule(t *testing.T) {
	rule := FrontMatterRule(FrontMatterKeywords)
	text := "本书目录如下，请参阅各部分内容。\n一些内容\n更多内容\n还有内容"

	if ok, _ := rule.Match(0, text); !ok {
		t.Error("expected front matter on an early page")
	}
	if ok, _ := rule.Match(FrontMatterPages, text); ok {
		t.Error("front matter only applies to the first pages")
	}
	if ok, _ := rule.Match(1, "Table Of CONTENTS follows"); !ok {
		t.Error("keywords should match case-insensitively")
	}

	// First match wins: the same page is only a front-matter candidate.
	d := newDetector(5, 50)
	c := d.Candidates(map[int]string{0: text}, 10)
	if len(c) != 1 || c[0].Confidence != FrontMatterConfidence {
		t.Errorf("expected a front-matter candidate, got %+v", c)
	}
}
