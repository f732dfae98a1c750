// Package report builds and persists processing reports.
package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jackzampolin/folio/internal/types"
)

//go:embed schema.json
var schemaJSON []byte

// ErrInvalid is returned when a report does not match the report schema.
var ErrInvalid = errors.New("invalid report")

// Report is the structured result of one segmentation run.
type Report struct {
	RunID     string `json:"run_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`

	InputFile string `json:"input_file"`
	OutputDir string `json:"output_dir"`

	TotalPages      int             `json:"total_pages"`
	ChaptersCreated int             `json:"chapters_created"`
	ChapterDetails  []types.Chapter `json:"chapter_details"`
	Boundaries      []int           `json:"boundaries"`

	SplitMethod    types.SplitMethod    `json:"split_method,omitempty"`
	ProcessingMode types.ProcessingMode `json:"processing_mode,omitempty"`
	FallbackReason string               `json:"fallback_reason,omitempty"`

	Classification *types.Classification `json:"classification,omitempty"`
	Detection      *Detection            `json:"detection,omitempty"`
	OCR            *OCRStats             `json:"ocr,omitempty"`

	States []string `json:"states"`

	StartTime             time.Time `json:"start_time"`
	EndTime               time.Time `json:"end_time"`
	ProcessingTimeSeconds float64   `json:"processing_time_seconds"`
	PagesPerChapter       int       `json:"pages_per_chapter"`
}

// Detection summarises smart boundary detection.
type Detection struct {
	Candidates int     `json:"candidates"`
	Method     string  `json:"method"`
	Confidence float64 `json:"confidence"`
}

// OCRStats summarises OCR over a document.
type OCRStats struct {
	Pages           int     `json:"pages"`
	NonEmptyPages   int     `json:"non_empty_pages"`
	TotalTextChars  int     `json:"total_text_chars"`
	AvgCharsPerPage float64 `json:"avg_chars_per_page"`
	FailedPages     []int   `json:"failed_pages,omitempty"`
}

// Finish stamps the end time and duration.
func (r *Report) Finish(end time.Time) {
	r.EndTime = end
	r.ProcessingTimeSeconds = end.Sub(r.StartTime).Seconds()
	r.ChaptersCreated = len(r.ChapterDetails)
}

// Marshal encodes r as indented JSON after checking it against the schema.
func (r *Report) Marshal() ([]byte, error) {
	out := *r
	if out.ChapterDetails == nil {
		out.ChapterDetails = []types.Chapter{}
	}
	if out.Boundaries == nil {
		out.Boundaries = []int{}
	}
	if out.States == nil {
		out.States = []string{}
	}

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Write validates r and writes it to path.
func Write(path string, r *Report) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// Read loads a report from path.
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("report.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("failed to load report schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("report.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("failed to compile report schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// Validate checks an encoded report against the report schema.
func Validate(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// writeFile writes data next to path and renames it into place.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
