package home

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultDirName is the default name for the folio home directory.
	DefaultDirName = ".folio"

	// OutputDirName is the subdirectory for chapter output when no --out is given.
	OutputDirName = "chapters"

	// ConfigFileName is the default config file name.
	ConfigFileName = "folio.yaml"

	// BatchReportName is the file name of the report written by batch runs.
	BatchReportName = "batch_processing_report.json"
)

// Dir represents the folio home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.folio).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// OutputPath returns the default chapter output directory.
func (d *Dir) OutputPath() string {
	return filepath.Join(d.path, OutputDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	// Create output directory (this also creates the parent)
	if err := os.MkdirAll(d.OutputPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// Output names the artifacts produced for one input document.
// All names derive from the input file's stem so reruns overwrite in place.
type Output struct {
	dir  string
	stem string
}

// NewOutput returns the artifact layout for inputPath rooted at dir.
func NewOutput(dir, inputPath string) *Output {
	return &Output{dir: dir, stem: Stem(inputPath)}
}

// Stem returns the file name of path without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Dir returns the output directory.
func (o *Output) Dir() string {
	return o.dir
}

// Stem returns the input stem used for every artifact name.
func (o *Output) Stem() string {
	return o.stem
}

// ChapterName returns the base name shared by a chapter's artifacts.
// Chapter numbers are 1-indexed.
func (o *Output) ChapterName(number int) string {
	return fmt.Sprintf("%s_chapter_%03d", o.stem, number)
}

// ChapterPDFPath returns the path of a chapter's sub-document.
func (o *Output) ChapterPDFPath(number int) string {
	return filepath.Join(o.dir, o.ChapterName(number)+".pdf")
}

// ChapterTextPath returns the path of a chapter's plain-text artifact.
func (o *Output) ChapterTextPath(number int) string {
	return filepath.Join(o.dir, o.ChapterName(number)+".txt")
}

// ReportPath returns the path of the processing report.
func (o *Output) ReportPath() string {
	return filepath.Join(o.dir, o.stem+"_processing_report.json")
}

// EnsureExists creates the output directory.
func (o *Output) EnsureExists() error {
	return os.MkdirAll(o.dir, 0o755)
}

// BatchReportPath returns the batch report path inside dir.
func BatchReportPath(dir string) string {
	return filepath.Join(dir, BatchReportName)
}
