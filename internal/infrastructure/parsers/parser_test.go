package parsers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
)

const inspectionJSON = `{
	"id": "INS-1",
	"number": "2026-0001",
	"title": "Apartment move-out",
	"organization_id": "org-1",
	"status": "signed",
	"context_json": {"address": "Rua A, 10"},
	"data_json": {"a": "ok", "b": "pending"},
	"created_at": "2026-03-01T09:00:00Z",
	"updated_at": "2026-03-01T09:00:00Z",
	"items": [
		{"id": "item-a", "path": "a", "label": "Walls", "type": "boolean", "value": "ok"},
		{"path": "b", "label": "Windows", "type": "boolean", "value": "pending", "notes": "scratched"}
	],
	"photos": [
		{"item_path": "b", "file_ref": "INS-1/photos/1.jpg", "filename": "1.jpg", "created_at": "2026-03-01T09:05:00Z"}
	],
	"signatures": [
		{"id": "sig-i", "role": "inspector", "signed_by_name": "Ana", "signed_at": "2026-03-01T10:00:00Z", "file_ref": "INS-1/inspector/1.png"}
	]
}`

func TestJSONParser_Parse(t *testing.T) {
	parser := &JSONParser{}
	insp, err := parser.Parse(strings.NewReader(inspectionJSON))
	require.NoError(t, err)

	assert.Equal(t, "INS-1", insp.ID)
	assert.Equal(t, entities.InspectionSigned, insp.Status)
	assert.JSONEq(t, `{"address":"Rua A, 10"}`, string(insp.Context))
	assert.JSONEq(t, `{"a":"ok","b":"pending"}`, string(insp.Data))
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), insp.CreatedAt.UTC())

	require.Len(t, insp.Items, 2)
	assert.Equal(t, "item-a", insp.Items[0].ID)
	assert.NotEmpty(t, insp.Items[1].ID, "missing ids are assigned")
	require.NotNil(t, insp.Items[1].Notes)
	assert.Equal(t, "scratched", *insp.Items[1].Notes)

	require.Len(t, insp.Photos, 1)
	assert.NotEmpty(t, insp.Photos[0].ID)
	require.Len(t, insp.Signatures, 1)
	assert.Equal(t, entities.RoleInspector, insp.Signatures[0].Role)
}

func TestJSONParser_Parse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "malformed", input: `{"id": `},
		{name: "array instead of object", input: `[{"id": "INS-1"}]`},
		{name: "unknown field", input: `{"id": "INS-1", "colour": "blue"}`},
		{name: "trailing object", input: `{"id": "INS-1"} {"id": "INS-2"}`},
		{name: "bad timestamp", input: `{"id": "INS-1", "created_at": "yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &JSONParser{}
			_, err := parser.Parse(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestYAMLParser_Parse(t *testing.T) {
	input := `
id: INS-7
number: "2026-0007"
title: House delivery
status: awaiting_sign
context_json:
  address: Rua B, 20
  rooms: 3
data_json:
  a: ok
created_at: "2026-04-01T08:00:00Z"
items:
  - path: a
    label: Roof
    type: boolean
    value: ok
    require_photo: true
`
	parser := &YAMLParser{}
	insp, err := parser.Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "INS-7", insp.ID)
	assert.Equal(t, "2026-0007", insp.Number)
	assert.Equal(t, entities.InspectionAwaitingSign, insp.Status)
	assert.JSONEq(t, `{"address":"Rua B, 20","rooms":3}`, string(insp.Context))
	assert.Equal(t, time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC), insp.CreatedAt.UTC())
	require.Len(t, insp.Items, 1)
	assert.True(t, insp.Items[0].RequirePhoto)
	assert.NotEmpty(t, insp.Items[0].ID)
}

func TestYAMLParser_Parse_Errors(t *testing.T) {
	parser := &YAMLParser{}

	_, err := parser.Parse(strings.NewReader("id: [unclosed"))
	assert.Error(t, err)

	_, err = parser.Parse(strings.NewReader("id: INS-1\nunknown: 1\n"))
	assert.Error(t, err)
}

func TestCSVParser_Parse(t *testing.T) {
	input := "inspection_id,number,title,path,label,type,value,notes,require_photo\n" +
		"INS-2,2026-0002,Office,a,Walls,boolean,OK,,false\n" +
		"INS-2,2026-0002,Office,b,Windows,boolean,pending,cracked,true\n"

	parser := &CSVParser{}
	insp, err := parser.Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "INS-2", insp.ID)
	assert.Equal(t, "Office", insp.Title)
	require.Len(t, insp.Items, 2)

	a := insp.ItemByPath("a")
	require.NotNil(t, a)
	assert.Equal(t, entities.ItemOK, *a.Value)
	assert.Nil(t, a.Notes)

	b := insp.ItemByPath("b")
	require.NotNil(t, b)
	assert.True(t, b.RequirePhoto)
	assert.Equal(t, "cracked", *b.Notes)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCSVParser_Parse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "missing column", input: "inspection_id,label\nINS-1,Walls\n", wantErr: "missing required column: path"},
		{name: "no rows", input: "inspection_id,path,label\n", wantErr: "no item rows"},
		{name: "mixed inspections", input: "inspection_id,path,label\nINS-1,a,A\nINS-2,b,B\n", wantErr: "differs"},
		{name: "bad bool", input: "inspection_id,path,label,require_photo\nINS-1,a,A,maybe\n", wantErr: "require_photo"},
		{name: "empty input", input: "", wantErr: "reading CSV header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &CSVParser{}
			_, err := parser.Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format   string
		expected Parser
	}{
		{"json", &JSONParser{}},
		{"JSON", &JSONParser{}},
		{"yaml", &YAMLParser{}},
		{"yml", &YAMLParser{}},
		{"csv", &CSVParser{}},
		{"xml", nil},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.expected, ForFormat(tt.format))
		})
	}
}

func TestForFile(t *testing.T) {
	assert.IsType(t, &JSONParser{}, ForFile("export/INS-1.json"))
	assert.IsType(t, &YAMLParser{}, ForFile("INS-1.YAML"))
	assert.IsType(t, &CSVParser{}, ForFile("checklist.csv"))
	assert.Nil(t, ForFile("notes.txt"))
	assert.Nil(t, ForFile("noext"))
}
