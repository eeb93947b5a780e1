package parsers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
)

// JSONParser parses an inspection aggregate from JSON.
type JSONParser struct{}

// Parse reads one JSON object from the reader. Unknown fields are rejected.
func (p *JSONParser) Parse(r io.Reader) (*entities.Inspection, error) {
	var insp entities.Inspection

	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&insp); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("parsing JSON: unexpected data after inspection object")
	}

	assignIDs(&insp)
	return &insp, nil
}
