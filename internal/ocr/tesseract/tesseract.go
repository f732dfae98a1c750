// Package tesseract implements ocr.Recognizer with the gosseract client.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer runs tesseract through gosseract. Each call uses its own client.
type Recognizer struct {
	clientFactory func() *gosseract.Client
}

// New constructs a Recognizer.
func New() *Recognizer {
	return &Recognizer{clientFactory: gosseract.NewClient}
}

// Check verifies that tesseract loads and every requested language is installed.
func (r *Recognizer) Check(languages []string) error {
	installed, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return fmt.Errorf("tesseract languages: %w", err)
	}
	have := make(map[string]bool, len(installed))
	for _, l := range installed {
		have[l] = true
	}
	var missing []string
	for _, l := range languages {
		if !have[l] {
			missing = append(missing, l)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("tesseract languages not installed: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Recognize returns the text in an encoded image.
func (r *Recognizer) Recognize(ctx context.Context, img []byte, languages []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := r.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
