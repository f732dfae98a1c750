// Package api renders command results as YAML or JSON.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for output formats other than yaml and json.
var ErrUnknownFormat = errors.New("unknown output format")

// Format is the encoding used for structured output.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// DefaultFormat is used until SetFormat is called.
const DefaultFormat = FormatYAML

var (
	mu           sync.RWMutex
	globalFormat           = DefaultFormat
	stdout       io.Writer = os.Stdout
)

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatYAML, FormatJSON:
		return f, nil
	case "":
		return DefaultFormat, nil
	default:
		return "", fmt.Errorf("%w: %s (want yaml or json)", ErrUnknownFormat, s)
	}
}

// SetFormat sets the format used by Output. It is called once by the
// root command before any subcommand runs.
func SetFormat(f Format) {
	mu.Lock()
	defer mu.Unlock()
	globalFormat = f
}

// CurrentFormat returns the format used by Output.
func CurrentFormat() Format {
	mu.RLock()
	defer mu.RUnlock()
	return globalFormat
}

// Output writes data to stdout in the configured format.
func Output(data any) error {
	return Encode(stdout, CurrentFormat(), data)
}

// Encode writes data to w in the given format.
func Encode(w io.Writer, format Format, data any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(toYAMLValue(data))
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// toYAMLValue round-trips structs through JSON so the YAML output uses the
// same field names as the JSON output and the on-disk reports.
func toYAMLValue(data any) any {
	raw, err := json.Marshal(data)
	if err != nil {
		return data
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return data
	}
	if len(node.Content) != 1 {
		return data
	}
	root := node.Content[0]
	blockStyle(root)
	return root
}

// blockStyle drops the flow and quoting styles carried over from JSON.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
