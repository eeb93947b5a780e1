package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
)

// CSVParser parses a flat checklist export: one row per item, with the
// inspection columns repeated on every row.
// Expected columns: inspection_id, number, title, path, label, type, value, notes, require_photo
type CSVParser struct{}

// Parse reads CSV from the reader and returns the inspection it describes.
func (p *CSVParser) Parse(r io.Reader) (*entities.Inspection, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	insp, err := p.readRecords(reader, colIndex)
	if err != nil {
		return nil, err
	}
	assignIDs(insp)
	return insp, nil
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	requiredCols := []string{"inspection_id", "path", "label"}
	for _, col := range requiredCols {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// readRecords reads all data rows into a single inspection.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) (*entities.Inspection, error) {
	var insp *entities.Inspection
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		id := getColumn(record, colIndex, "inspection_id")
		if insp == nil {
			insp = &entities.Inspection{
				ID:     id,
				Number: getColumn(record, colIndex, "number"),
				Title:  getColumn(record, colIndex, "title"),
			}
		} else if id != insp.ID {
			return nil, fmt.Errorf("line %d: inspection_id %q differs from %q", lineNum, id, insp.ID)
		}

		item, err := p.parseRecord(record, colIndex, lineNum)
		if err != nil {
			return nil, err
		}
		insp.Items = append(insp.Items, item)
	}

	if insp == nil {
		return nil, fmt.Errorf("no item rows")
	}
	return insp, nil
}

// parseRecord converts a CSV record to an InspectionItem.
func (p *CSVParser) parseRecord(record []string, colIndex map[string]int, lineNum int) (entities.InspectionItem, error) {
	item := entities.InspectionItem{
		Path:  getColumn(record, colIndex, "path"),
		Label: getColumn(record, colIndex, "label"),
		Type:  getColumn(record, colIndex, "type"),
	}

	if v := getColumn(record, colIndex, "value"); v != "" {
		value := entities.ItemValue(strings.ToLower(v))
		item.Value = &value
	}
	if n := getColumn(record, colIndex, "notes"); n != "" {
		item.Notes = &n
	}

	if rp := getColumn(record, colIndex, "require_photo"); rp != "" {
		b, err := strconv.ParseBool(rp)
		if err != nil {
			return entities.InspectionItem{}, fmt.Errorf("line %d: invalid require_photo value %q: %w", lineNum, rp, err)
		}
		item.RequirePhoto = b
	}

	return item, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
