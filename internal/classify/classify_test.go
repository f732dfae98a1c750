package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackzampolin/folio/internal/ocr"
	"github.com/jackzampolin/folio/internal/testutil"
	"github.com/jackzampolin/folio/internal/types"
)

type fakeDoc struct {
	pages []string
	fail  bool
}

func (d *fakeDoc) Path() string   { return "fake.pdf" }
func (d *fakeDoc) PageCount() int { return len(d.pages) }
func (d *fakeDoc) PageText(_ context.Context, page int) (string, error) {
	if d.fail {
		return "", errors.New("broken stream")
	}
	return d.pages[page], nil
}

type fakeAnalyzer struct {
	available bool
	analysis  ocr.Analysis
	calls     int
}

func (a *fakeAnalyzer) Available() bool { return a.available }
func (a *fakeAnalyzer) Analyze(context.Context, string, int) ocr.Analysis {
	a.calls++
	return a.analysis
}

func scanned(p float64) ocr.Analysis {
	return ocr.Analysis{AnalyzedPages: 3, ScannedProbability: p, Recommendation: ocr.Recommend(p)}
}

func TestClassifier_Classify(t *testing.T) {
	long := strings.Repeat("word ", 60)

	// 30 pages where only the first carries text, totalling chars.
	sparse := func(chars int) *fakeDoc {
		pages := make([]string, 30)
		pages[0] = strings.Repeat("x", chars)
		return &fakeDoc{pages: pages}
	}

	tests := []struct {
		name       string
		doc        *fakeDoc
		sampleSize int
		analyzer   *fakeAnalyzer
		detailed   bool
		wantType   types.DocumentType
		wantConf   float64
	}{
		{
			name:     "text document",
			doc:      &fakeDoc{pages: []string{long, long, long, ""}},
			wantType: types.DocumentText,
			wantConf: 1,
		},
		{
			name:     "high average with low ratio is text",
			doc:      &fakeDoc{pages: []string{strings.Repeat("x", 420), "", ""}},
			wantType: types.DocumentText,
			wantConf: 0.7,
		},
		{
			name:       "average just above threshold is text",
			doc:        sparse(3001),
			sampleSize: 30,
			wantType:   types.DocumentText,
			wantConf:   0.5,
		},
		{
			name:       "average exactly at threshold is not text",
			doc:        sparse(3000),
			sampleSize: 30,
			wantType:   types.DocumentScanned,
			wantConf:   0.967,
		},
		{
			name:     "empty pages are scanned in simple mode",
			doc:      &fakeDoc{pages: []string{"", "", ""}},
			wantType: types.DocumentScanned,
			wantConf: 1,
		},
		{
			name:     "one text page of three",
			doc:      &fakeDoc{pages: []string{"this page has some text", "", ""}},
			wantType: types.DocumentScanned,
			wantConf: 0.667,
		},
		{
			name:     "every page fails extraction",
			doc:      &fakeDoc{pages: []string{"a", "b", "c"}, fail: true},
			wantType: types.DocumentUnknown,
			wantConf: 0,
		},
		{
			name:     "no pages",
			doc:      &fakeDoc{},
			wantType: types.DocumentUnknown,
			wantConf: 0,
		},
		{
			name:     "detailed with high scanned probability",
			doc:      &fakeDoc{pages: []string{"", "", ""}},
			analyzer: &fakeAnalyzer{available: true, analysis: scanned(0.85)},
			detailed: true,
			wantType: types.DocumentScanned,
			wantConf: 0.85,
		},
		{
			name:     "detailed with low scanned probability",
			doc:      &fakeDoc{pages: []string{"", "", ""}},
			analyzer: &fakeAnalyzer{available: true, analysis: scanned(0.45)},
			detailed: true,
			wantType: types.DocumentUnknown,
			wantConf: 0.55,
		},
		{
			name:     "detailed with unavailable analyzer",
			doc:      &fakeDoc{pages: []string{"", "", ""}},
			analyzer: &fakeAnalyzer{available: false},
			detailed: true,
			wantType: types.DocumentScanned,
			wantConf: 1,
		},
		{
			name:     "detailed with nothing analysed",
			doc:      &fakeDoc{pages: []string{"", "", ""}},
			analyzer: &fakeAnalyzer{available: true},
			detailed: true,
			wantType: types.DocumentScanned,
			wantConf: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{SampleSize: tt.sampleSize, Logger: testutil.DiscardLogger()}
			if tt.analyzer != nil {
				cfg.Analyzer = tt.analyzer
			}
			c := New(cfg)

			got := c.Classify(context.Background(), tt.doc, tt.detailed)
			if got.Type != tt.wantType {
				t.Errorf("type = %s, want %s", got.Type, tt.wantType)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("confidence = %f, want %f", got.Confidence, tt.wantConf)
			}
			if got.Confidence < 0 || got.Confidence > 1 {
				t.Errorf("confidence %f out of range", got.Confidence)
			}
			if got.ScannedProbability != nil && (*got.ScannedProbability < 0 || *got.ScannedProbability > 1) {
				t.Errorf("scanned probability %f out of range", *got.ScannedProbability)
			}
			if got.Recommendation == "" {
				t.Error("expected a recommendation")
			}
		})
	}
}

func TestClassifier_SampleSize(t *testing.T) {
	doc := &fakeDoc{pages: []string{"", "", "", "", "", ""}}
	got := New(Config{SampleSize: 5, Logger: testutil.DiscardLogger()}).Classify(context.Background(), doc, false)
	if got.SampledPages != 5 {
		t.Errorf("expected 5 sampled pages, got %d", got.SampledPages)
	}

	short := &fakeDoc{pages: []string{"only page with text"}}
	got = New(Config{Logger: testutil.DiscardLogger()}).Classify(context.Background(), short, false)
	if got.SampledPages != 1 {
		t.Errorf("expected sample bounded by page count, got %d", got.SampledPages)
	}
	if got.Type != types.DocumentText {
		t.Errorf("expected text, got %s", got.Type)
	}
}

func TestClassifier_DetailedSkipsAnalysisForText(t *testing.T) {
	a := &fakeAnalyzer{available: true, analysis: scanned(0.9)}
	doc := &fakeDoc{pages: []string{strings.Repeat("text ", 50)}}
	got := New(Config{Analyzer: a, Logger: testutil.DiscardLogger()}).Classify(context.Background(), doc, true)
	if got.Type != types.DocumentText {
		t.Errorf("expected text, got %s", got.Type)
	}
	if a.calls != 0 {
		t.Error("analyzer should not run for text documents")
	}
	if got.ScannedProbability != nil {
		t.Error("scanned probability should be unset when analysis did not run")
	}
}
