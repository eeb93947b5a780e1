package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/infrastructure/parsers"
)

func exportFixture() *entities.Inspection {
	ok := entities.ItemOK
	pending := entities.ItemPending
	notes := "small crack, left side"
	return &entities.Inspection{
		ID:     "INS-7",
		Number: "2026-0007",
		Title:  "Apartment 12 | move-in",
		Status: entities.InspectionSigned,
		Items: []entities.InspectionItem{
			{Path: "kitchen.sink", Label: "Sink", Type: "check", Value: &ok},
			{Path: "kitchen.window", Label: "Window", Type: "check", Value: &pending, Notes: &notes, RequirePhoto: true},
			{Path: "hall.light", Label: "Light", Type: "check"},
		},
		Signatures: []entities.Signature{
			{Role: entities.RoleInspector, SignedByName: "Ana Souza", SignedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)},
		},
	}
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, formatJSON(&buf, exportFixture()))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "INS-7", parsed["id"])
	assert.Equal(t, "signed", parsed["status"])
	assert.Len(t, parsed["items"], 3)
}

func TestFormatCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, formatCSV(&buf, exportFixture()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "inspection_id,number,title,path,label,type,value,notes,require_photo", lines[0])
	assert.Equal(t, "INS-7,2026-0007,Apartment 12 | move-in,kitchen.sink,Sink,check,ok,,false", lines[1])
	assert.Contains(t, lines[2], `"small crack, left side"`)
	assert.True(t, strings.HasSuffix(lines[3], ",,,false"))
}

func TestFormatCSV_ImportsAgain(t *testing.T) {
	original := exportFixture()

	var buf bytes.Buffer
	require.NoError(t, formatCSV(&buf, original))

	parsed, err := (&parsers.CSVParser{}).Parse(&buf)
	require.NoError(t, err)

	assert.Equal(t, original.ID, parsed.ID)
	assert.Equal(t, original.Number, parsed.Number)
	assert.Equal(t, original.Title, parsed.Title)
	require.Len(t, parsed.Items, len(original.Items))
	for i, item := range original.Items {
		got := parsed.Items[i]
		assert.Equal(t, item.Path, got.Path)
		assert.Equal(t, item.Label, got.Label)
		assert.Equal(t, itemValue(item), itemValue(got))
		assert.Equal(t, itemNotes(item), itemNotes(got))
		assert.Equal(t, item.RequirePhoto, got.RequirePhoto)
	}
}

func TestFormatMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, formatMarkdown(&buf, exportFixture()))

	result := buf.String()
	assert.Contains(t, result, `# 2026-0007 Apartment 12 \| move-in`)
	assert.Contains(t, result, "Status: signed")
	assert.Contains(t, result, "| kitchen.sink | Sink | ok |  |")
	assert.Contains(t, result, "| hall.light | Light | - |  |")
	assert.Contains(t, result, "- inspector: Ana Souza (2026-05-01 12:00 UTC)")
}

func TestFormatMarkdown_NoSignatures(t *testing.T) {
	insp := exportFixture()
	insp.Signatures = nil

	var buf bytes.Buffer
	require.NoError(t, formatMarkdown(&buf, insp))
	assert.NotContains(t, buf.String(), "## Signatures")
}

func TestExportInspection_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	var stdout bytes.Buffer
	require.NoError(t, exportInspection(&stdout, exportFixture(), exportFlags{format: "csv", output: path}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "inspection_id,"))
	assert.Equal(t, "Exported INS-7 (3 items) to "+path+"\n", stdout.String())
}

func TestFormatInspection_UnknownFormat(t *testing.T) {
	err := formatInspection(&bytes.Buffer{}, exportFixture(), "xml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "pipe escaped",
			input:    "value|with|pipes",
			expected: "value\\|with\\|pipes",
		},
		{
			name:     "newline replaced",
			input:    "line1\nline2",
			expected: "line1 line2",
		},
		{
			name:     "no change needed",
			input:    "simple text",
			expected: "simple text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, escapeMarkdown(tt.input))
		})
	}
}
