package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
)

// Pdftoppm rasterises pages with poppler's pdftoppm.
type Pdftoppm struct {
	// Binary defaults to "pdftoppm" on PATH.
	Binary   string
	Attempts uint
	Delay    time.Duration
}

// Defaults for Pdftoppm retries.
const (
	DefaultRasterAttempts = 3
	DefaultRasterDelay    = 200 * time.Millisecond
)

func (p Pdftoppm) binary() string {
	if p.Binary == "" {
		return "pdftoppm"
	}
	return p.Binary
}

// Check verifies that pdftoppm can be found.
func (p Pdftoppm) Check() error {
	if _, err := exec.LookPath(p.binary()); err != nil {
		return fmt.Errorf("%s not found: %w", p.binary(), err)
	}
	return nil
}

// Rasterize renders a 0-indexed page at dpi, retrying transient failures.
func (p Pdftoppm) Rasterize(ctx context.Context, path string, page, dpi int) (image.Image, error) {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = DefaultRasterAttempts
	}
	delay := p.Delay
	if delay == 0 {
		delay = DefaultRasterDelay
	}

	var img image.Image
	err := retry.Do(
		func() error {
			var err error
			img, err = p.render(ctx, path, page+1, dpi)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// render runs pdftoppm for one 1-indexed page into a temp dir and decodes the result.
func (p Pdftoppm) render(ctx context.Context, path string, pageNum, dpi int) (image.Image, error) {
	tmpDir, err := os.MkdirTemp("", "folio-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")

	// -singlefile: don't add page number suffix
	pageStr := strconv.Itoa(pageNum)
	cmd := exec.CommandContext(ctx, p.binary(),
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.Itoa(dpi),
		"-singlefile",
		path,
		outputPrefix,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	// pdftoppm with -singlefile creates: <prefix>.png
	f, err := os.Open(outputPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rendered page: %w", err)
	}
	return img, nil
}
