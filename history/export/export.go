// Package export writes persisted sessions to portable formats.
package export

import (
	"fmt"
	"io"

	"github.com/ollamate/core/history"
)

// Exporter writes a session to an output stream in one format.
type Exporter interface {
	Export(session *history.Session, w io.Writer) error
	Extension() string
}

// New returns the exporter for a format name.
func New(format string) (Exporter, error) {
	switch format {
	case "json":
		return &JSONExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, yaml)", format)
	}
}
