package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vistoria/vistoria-core/internal/domain/errclass"
	"github.com/vistoria/vistoria-core/internal/domain/mocks"
	"github.com/vistoria/vistoria-core/internal/domain/services"
)

const importJSON = `{
	"id": "INS-7",
	"number": "2026-0007",
	"title": "House check-in",
	"items": [
		{"path": "kitchen.sink", "label": "Sink", "type": "boolean", "value": "ok"},
		{"path": "kitchen.floor", "label": "Floor", "type": "boolean"}
	],
	"photos": [{"item_path": "kitchen.sink", "file_ref": "INS-7/photos/1.jpg", "filename": "1.jpg"}]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newImportHandler() (*ImportHandler, *mocks.RelationalDB) {
	db := mocks.NewRelationalDB()
	return NewImportHandler(services.NewInspectionService(db)), db
}

func TestImportHandler_Handle_JSONFile(t *testing.T) {
	handler, db := newImportHandler()

	result, err := handler.Handle(context.Background(), writeFile(t, "inspection.json", importJSON), ImportOptions{})

	require.NoError(t, err)
	assert.Equal(t, "INS-7", result.InspectionID)
	assert.Equal(t, 2, result.Items)
	assert.Equal(t, 1, result.Photos)
	assert.False(t, result.DryRun)

	stored, err := db.FindInspection(context.Background(), "INS-7")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Len(t, stored.Items, 2)
}

func TestImportHandler_Handle_YAMLFile(t *testing.T) {
	handler, _ := newImportHandler()
	content := `
id: INS-8
number: "2026-0008"
items:
  - path: a
    label: Walls
    value: ok
`
	result, err := handler.Handle(context.Background(), writeFile(t, "inspection.yaml", content), ImportOptions{Format: "auto"})

	require.NoError(t, err)
	assert.Equal(t, "INS-8", result.InspectionID)
	assert.Equal(t, 1, result.Items)
}

func TestImportHandler_Handle_CSVFile(t *testing.T) {
	handler, _ := newImportHandler()
	content := "inspection_id,number,path,label,value\nINS-9,2026-0009,a,Walls,ok\nINS-9,2026-0009,b,Doors,NA\n"

	result, err := handler.Handle(context.Background(), writeFile(t, "checklist.csv", content), ImportOptions{})

	require.NoError(t, err)
	assert.Equal(t, "INS-9", result.InspectionID)
	assert.Equal(t, 2, result.Items)
}

func TestImportHandler_Handle_ExplicitFormat(t *testing.T) {
	handler, _ := newImportHandler()

	result, err := handler.Handle(context.Background(), writeFile(t, "export.txt", importJSON), ImportOptions{Format: "json"})

	require.NoError(t, err)
	assert.Equal(t, "INS-7", result.InspectionID)
}

func TestImportHandler_Handle_DryRun(t *testing.T) {
	handler, db := newImportHandler()

	result, err := handler.Handle(context.Background(), writeFile(t, "inspection.json", importJSON), ImportOptions{DryRun: true})

	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 0, db.Calls("SaveInspection"))
}

func TestImportHandler_Handle_Errors(t *testing.T) {
	handler, _ := newImportHandler()
	ctx := context.Background()

	_, err := handler.Handle(ctx, writeFile(t, "inspection.xml", "<x/>"), ImportOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")

	_, err = handler.Handle(ctx, filepath.Join(t.TempDir(), "missing.json"), ImportOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening file")

	_, err = handler.Handle(ctx, writeFile(t, "broken.json", `{"id": `), ImportOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing file")

	dup := `{"id": "INS-1", "items": [{"path": "a"}, {"path": "a"}]}`
	_, err = handler.Handle(ctx, writeFile(t, "dup.json", dup), ImportOptions{DryRun: true})
	assert.ErrorIs(t, err, errclass.ErrInvalidArgument)
}
