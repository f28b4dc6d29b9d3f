package export

import (
	"encoding/json"
	"io"

	"github.com/ollamate/core/history"
)

// JSONExporter exports sessions as indented JSON.
type JSONExporter struct{}

func (e *JSONExporter) Export(session *history.Session, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(session)
}

func (e *JSONExporter) Extension() string {
	return "json"
}
