package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/jackzampolin/folio/internal/testutil"
)

type fakeSource struct {
	pages  []string
	errs   map[int]error
	panics map[int]bool
}

func (f *fakeSource) PageCount() int { return len(f.pages) }

func (f *fakeSource) PageText(_ context.Context, page int) (string, error) {
	if f.panics[page] {
		panic("corrupt content stream")
	}
	if err := f.errs[page]; err != nil {
		return "", err
	}
	return f.pages[page], nil
}

func TestExtractor_Extract(t *testing.T) {
	src := &fakeSource{
		pages:  []string{"Chapter 1", "broken", "boom", "ｃｈａｐｔｅｒ １２"},
		errs:   map[int]error{1: errors.New("bad xref")},
		panics: map[int]bool{2: true},
	}
	e := New(testutil.DiscardLogger())
	ctx := context.Background()

	tests := []struct {
		name string
		page int
		want string
	}{
		{"plain page", 0, "Chapter 1"},
		{"error yields empty", 1, ""},
		{"panic yields empty", 2, ""},
		{"full-width normalised", 3, "chapter 12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Extract(ctx, src, tt.page); got != tt.want {
				t.Errorf("Extract(%d) = %q, want %q", tt.page, got, tt.want)
			}
		})
	}
}

func TestExtractor_Sample(t *testing.T) {
	src := &fakeSource{
		pages: []string{"text", "", "more"},
		errs:  map[int]error{2: errors.New("unreadable")},
	}
	e := New(nil)

	got := e.Sample(context.Background(), src, []int{0, 1, 2})
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if got[0].Failed || got[0].Text != "text" {
		t.Errorf("unexpected page 0 result: %+v", got[0])
	}
	if got[1].Failed || got[1].Text != "" {
		t.Errorf("empty page should not be a failure: %+v", got[1])
	}
	if !got[2].Failed || got[2].Index != 2 {
		t.Errorf("expected page 2 to be marked failed: %+v", got[2])
	}
}

func TestExtractor_NonTrivial(t *testing.T) {
	src := &fakeSource{
		pages: []string{"  Chapter One  ", "abc", "", "Introduction text", "late page"},
	}
	e := New(testutil.DiscardLogger())

	got := e.NonTrivial(context.Background(), src, 4, 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 pages kept, got %d: %v", len(got), got)
	}
	if got[0] != "Chapter One" {
		t.Errorf("expected trimmed text, got %q", got[0])
	}
	if _, ok := got[4]; ok {
		t.Error("page beyond the limit should not be sampled")
	}

	all := e.NonTrivial(context.Background(), src, 0, 5)
	if _, ok := all[4]; !ok {
		t.Error("limit 0 should sample every page")
	}
}

func TestHelpers(t *testing.T) {
	if n := CountNonSpace(" a b\n\tc "); n != 3 {
		t.Errorf("CountNonSpace = %d, want 3", n)
	}
	if got := FirstLine("\n  \n  Title here \nbody", 0); got != "Title here" {
		t.Errorf("FirstLine = %q", got)
	}
	if got := FirstLine("12\n  iv \nIntroduction\nbody", 3); got != "Introduction" {
		t.Errorf("FirstLine skipping short lines = %q", got)
	}
	if got := FirstLine("1\n2\n", 3); got != "" {
		t.Errorf("FirstLine without a long line = %q", got)
	}
	if got := Truncate("第一章 总论", 3); got != "第一章" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
}
