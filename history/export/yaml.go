package export

import (
	"io"

	"github.com/ollamate/core/history"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports sessions as YAML documents.
type YAMLExporter struct{}

func (e *YAMLExporter) Export(session *history.Session, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(session)
}

func (e *YAMLExporter) Extension() string {
	return "yaml"
}
