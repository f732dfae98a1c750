package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackzampolin/folio/internal/types"
)

// BatchReport summarises a run over many documents.
type BatchReport struct {
	BatchID   string `json:"batch_id"`
	InputDir  string `json:"input_dir"`
	OutputDir string `json:"output_dir"`

	TotalFiles      int `json:"total_files"`
	Succeeded       int `json:"succeeded"`
	Failed          int `json:"failed"`
	ChaptersCreated int `json:"chapters_created"`

	Results []BatchEntry `json:"results"`

	StartTime             time.Time `json:"start_time"`
	EndTime               time.Time `json:"end_time"`
	ProcessingTimeSeconds float64   `json:"processing_time_seconds"`
}

// BatchEntry is one document's outcome within a batch.
type BatchEntry struct {
	File            string               `json:"file"`
	Success         bool                 `json:"success"`
	Error           string               `json:"error,omitempty"`
	OutputDir       string               `json:"output_dir"`
	ReportFile      string               `json:"report_file,omitempty"`
	TotalPages      int                  `json:"total_pages"`
	ChaptersCreated int                  `json:"chapters_created"`
	ProcessingMode  types.ProcessingMode `json:"processing_mode,omitempty"`
	SplitMethod     types.SplitMethod    `json:"split_method,omitempty"`
}

// Add records one document's result.
func (b *BatchReport) Add(e BatchEntry) {
	b.Results = append(b.Results, e)
	b.TotalFiles++
	if e.Success {
		b.Succeeded++
		b.ChaptersCreated += e.ChaptersCreated
	} else {
		b.Failed++
	}
}

// Finish stamps the end time and duration.
func (b *BatchReport) Finish(end time.Time) {
	b.EndTime = end
	b.ProcessingTimeSeconds = end.Sub(b.StartTime).Seconds()
}

// WriteBatch writes b to path as indented JSON.
func WriteBatch(path string, b *BatchReport) error {
	out := *b
	if out.Results == nil {
		out.Results = []BatchEntry{}
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode batch report: %w", err)
	}
	return writeFile(path, data)
}
