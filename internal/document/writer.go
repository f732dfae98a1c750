package document

import (
	"context"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// RangeWriter writes page-range sub-documents with pdfcpu.
type RangeWriter struct{}

// WriteRange copies pages [start, end) of src into a new PDF at dst.
// The source file is only read.
func (RangeWriter) WriteRange(ctx context.Context, src string, start, end int, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if start < 0 || end <= start {
		return fmt.Errorf("invalid page range [%d, %d)", start, end)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	// pdfcpu selections are 1-indexed and inclusive.
	selection := []string{fmt.Sprintf("%d-%d", start+1, end)}
	if err := api.TrimFile(src, dst, selection, conf); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to write pages %d-%d to %s: %w", start+1, end, dst, err)
	}
	return nil
}
