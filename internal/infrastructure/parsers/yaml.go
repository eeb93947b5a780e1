package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
)

// YAMLParser parses an inspection aggregate from YAML. The document has the
// same shape as the JSON export; context_json and data_json may be written
// as nested mappings.
type YAMLParser struct{}

// Parse reads one YAML document from the reader.
func (p *YAMLParser) Parse(r io.Reader) (*entities.Inspection, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	// timestamps stay strings in an untyped decode and must be RFC 3339
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	return (&JSONParser{}).Parse(bytes.NewReader(data))
}
