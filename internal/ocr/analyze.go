package ocr

import (
	"context"
	"image"
	"math"
)

// Analysis holds scanned-page statistics averaged over the sampled pages.
type Analysis struct {
	TotalPages    int `json:"total_pages" yaml:"total_pages"`
	SampledPages  int `json:"sampled_pages" yaml:"sampled_pages"`
	AnalyzedPages int `json:"analyzed_pages" yaml:"analyzed_pages"`

	ScannedProbability float64 `json:"scanned_probability" yaml:"scanned_probability"`
	Metrics            Metrics `json:"metrics" yaml:"metrics"`
	Recommendation     string  `json:"recommendation" yaml:"recommendation"`
}

// Metrics are raw image statistics for one page or an average over pages.
type Metrics struct {
	TextDensity  float64 `json:"text_density" yaml:"text_density"`
	ImageQuality float64 `json:"image_quality" yaml:"image_quality"`
	NoiseLevel   float64 `json:"noise_level" yaml:"noise_level"`
	Contrast     float64 `json:"contrast" yaml:"contrast"`
}

// Recommendation thresholds on the scanned probability.
const (
	LikelyScannedThreshold   = 0.7
	PossiblyScannedThreshold = 0.4
)

// MaxAnalysisSide caps the longest side of an analysis raster in pixels.
const MaxAnalysisSide = 1600

// Analyze rasterises the first samplePages pages at the analysis DPI and
// estimates how likely the document is a scan. When nothing could be
// analysed, AnalyzedPages is 0 and the probability is 0.
func (e *Engine) Analyze(ctx context.Context, path string, samplePages int) Analysis {
	var a Analysis
	if err := e.Err(); err != nil {
		e.logger.Warn("skipping scanned analysis", "error", err)
		return a
	}

	a.SampledPages = samplePages
	if e.pageCount != nil {
		total, err := e.pageCount(path)
		if err != nil {
			e.logger.Warn("failed to read page count for analysis", "error", err)
			return Analysis{}
		}
		a.TotalPages = total
		a.SampledPages = min(samplePages, total)
	}

	var sum Metrics
	for i := 0; i < a.SampledPages; i++ {
		img, err := e.raster.Rasterize(ctx, path, i, e.analysisDPI)
		if err != nil {
			e.logger.Warn("failed to analyse page", "page", i, "error", err)
			continue
		}
		m := PageMetrics(Grayscale(Downscale(img, MaxAnalysisSide)))
		sum.TextDensity += m.TextDensity
		sum.ImageQuality += m.ImageQuality
		sum.NoiseLevel += m.NoiseLevel
		sum.Contrast += m.Contrast
		a.AnalyzedPages++
	}
	if a.AnalyzedPages == 0 {
		return a
	}

	n := float64(a.AnalyzedPages)
	avg := Metrics{
		TextDensity:  sum.TextDensity / n,
		ImageQuality: sum.ImageQuality / n,
		NoiseLevel:   sum.NoiseLevel / n,
		Contrast:     sum.Contrast / n,
	}
	a.ScannedProbability = ScannedProbability(avg)
	a.Metrics = Metrics{
		TextDensity:  round3(avg.TextDensity),
		ImageQuality: round3(avg.ImageQuality),
		NoiseLevel:   round3(avg.NoiseLevel),
		Contrast:     round3(avg.Contrast),
	}
	a.Recommendation = Recommend(a.ScannedProbability)

	e.logger.Info("scanned analysis complete",
		"analyzed", a.AnalyzedPages,
		"probability", a.ScannedProbability,
		"text_density", a.Metrics.TextDensity,
		"image_quality", a.Metrics.ImageQuality)
	return a
}

// ScannedProbability combines averaged metrics: low edge density and high
// pixel variance suggest a scan. The result is in [0,1], rounded to 3 places.
func ScannedProbability(m Metrics) float64 {
	textScore := 1 - math.Min(math.Max(m.TextDensity, 0), 1)
	qualityScore := math.Min(math.Max(m.ImageQuality, 0), 1)
	p := 0.6*textScore + 0.4*qualityScore
	return round3(math.Min(math.Max(p, 0), 1))
}

// Recommend describes what to do with a document of the given scanned probability.
func Recommend(p float64) string {
	switch {
	case p > LikelyScannedThreshold:
		return "likely scanned: use OCR mode"
	case p > PossiblyScannedThreshold:
		return "may contain scanned pages: try OCR"
	default:
		return "likely text: process directly"
	}
}

// PageMetrics computes raw statistics for one grayscale page.
func PageMetrics(g *image.Gray) Metrics {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return Metrics{}
	}

	var m Metrics

	// Edge density: mean absolute horizontal difference.
	if w > 1 {
		var diff float64
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X-1; x++ {
				d := int(g.GrayAt(x+1, y).Y) - int(g.GrayAt(x, y).Y)
				if d < 0 {
					d = -d
				}
				diff += float64(d)
			}
		}
		m.TextDensity = diff / float64((w-1)*h) / 255
	}

	lo, hi, variance := stats(g, b)
	m.ImageQuality = variance / 10000
	if hi > lo {
		m.Contrast = float64(hi-lo) / 255
	}

	if w > 50 && h > 50 {
		corner := image.Rect(b.Min.X, b.Min.Y, b.Min.X+50, b.Min.Y+50)
		_, _, v := stats(g, corner)
		m.NoiseLevel = v / 1000
	}
	return m
}

// stats returns min, max and population variance of the pixels in r.
func stats(g *image.Gray, r image.Rectangle) (uint8, uint8, float64) {
	lo, hi := uint8(255), uint8(0)
	var sum, sumSq float64
	n := float64(r.Dx() * r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			v := g.GrayAt(x, y).Y
			lo = min(lo, v)
			hi = max(hi, v)
			f := float64(v)
			sum += f
			sumSq += f * f
		}
	}
	if n == 0 {
		return 0, 0, 0
	}
	mean := sum / n
	return lo, hi, sumSq/n - mean*mean
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
