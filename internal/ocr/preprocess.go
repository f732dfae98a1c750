package ocr

import (
	"fmt"
	"image"
	"log/slog"

	"golang.org/x/image/draw"
)

// Stage is one step of the preprocessing pipeline.
type Stage struct {
	Name  string
	Apply func(image.Image) (image.Image, error)
}

// RunStages applies stages in order. A stage that errors or panics is skipped
// and the previous stage's output carries on.
func RunStages(img image.Image, stages []Stage, logger *slog.Logger) image.Image {
	if logger == nil {
		logger = slog.Default()
	}
	for _, s := range stages {
		out, err := applyStage(s, img)
		if err != nil {
			logger.Debug("preprocessing stage skipped", "stage", s.Name, "error", err)
			continue
		}
		img = out
	}
	return img
}

func applyStage(s Stage, img image.Image) (out image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("stage %s panicked: %v", s.Name, r)
		}
	}()
	out, err = s.Apply(img)
	if err == nil && out == nil {
		err = fmt.Errorf("stage %s returned no image", s.Name)
	}
	return out, err
}

// Processor is the built-in ImageProcessor: grayscale, 3x3 median denoise,
// histogram equalisation and median-threshold binarisation.
type Processor struct{}

// Check always succeeds; the stages are pure Go.
func (Processor) Check() error { return nil }

// Stages returns the default pipeline.
func (Processor) Stages() []Stage {
	return []Stage{
		{Name: "grayscale", Apply: func(img image.Image) (image.Image, error) { return Grayscale(img), nil }},
		{Name: "denoise", Apply: func(img image.Image) (image.Image, error) { return Median3(Grayscale(img)), nil }},
		{Name: "equalize", Apply: func(img image.Image) (image.Image, error) { return Equalize(Grayscale(img)), nil }},
		{Name: "binarize", Apply: func(img image.Image) (image.Image, error) { return Binarize(Grayscale(img)), nil }},
	}
}

// Grayscale converts img to 8-bit grayscale. Gray inputs are returned as is.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// Downscale shrinks img so its longest side is at most maxSide, keeping the
// aspect ratio. Images already within bounds are returned unchanged.
func Downscale(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	long := max(w, h)
	if maxSide <= 0 || long <= maxSide {
		return img
	}
	nw := max(1, w*maxSide/long)
	nh := max(1, h*maxSide/long)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Median3 applies a 3x3 median filter with clamped edges.
func Median3(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	var win [9]uint8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				yy := clamp(y+dy, 0, h-1)
				for dx := -1; dx <= 1; dx++ {
					xx := clamp(x+dx, 0, w-1)
					win[n] = src.GrayAt(b.Min.X+xx, b.Min.Y+yy).Y
					n++
				}
			}
			dst.Pix[y*dst.Stride+x] = median9(win)
		}
	}
	return dst
}

func median9(v [9]uint8) uint8 {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j] < v[j-1]; j-- {
			v[j], v[j-1] = v[j-1], v[j]
		}
	}
	return v[4]
}

// Equalize spreads the intensity histogram over the full 0-255 range.
func Equalize(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	total := w * h
	if total == 0 {
		return dst
	}

	var hist [256]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hist[src.GrayAt(b.Min.X+x, b.Min.Y+y).Y]++
		}
	}

	cdfMin := 0
	for _, c := range hist {
		if c > 0 {
			cdfMin = c
			break
		}
	}

	var lut [256]uint8
	if total == cdfMin {
		// Single intensity; nothing to spread.
		for i := range lut {
			lut[i] = uint8(i)
		}
	} else {
		cdf := 0
		for i, c := range hist {
			cdf += c
			v := (cdf - cdfMin) * 255 / (total - cdfMin)
			lut[i] = uint8(clamp(v, 0, 255))
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Pix[y*dst.Stride+x] = lut[src.GrayAt(b.Min.X+x, b.Min.Y+y).Y]
		}
	}
	return dst
}

// Binarize maps pixels above the median intensity to white and the rest to black.
func Binarize(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	threshold := MedianIntensity(src)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if float64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y) > threshold {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}

// MedianIntensity returns the median pixel value, averaging the two middle
// values for an even pixel count.
func MedianIntensity(src *image.Gray) float64 {
	b := src.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	var hist [256]int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[src.GrayAt(x, y).Y]++
		}
	}
	lo := nth(hist, (total-1)/2)
	hi := nth(hist, total/2)
	return (float64(lo) + float64(hi)) / 2
}

// nth returns the k-th smallest (0-indexed) value described by hist.
func nth(hist [256]int, k int) int {
	seen := 0
	for v, c := range hist {
		seen += c
		if seen > k {
			return v
		}
	}
	return 255
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
