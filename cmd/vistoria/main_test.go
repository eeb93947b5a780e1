package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/infrastructure/config"
)

const inspectionFixture = `{
	"id": "INS-42",
	"number": "2026-0042",
	"title": "Apartment move-out",
	"status": "awaiting_sign",
	"data_json": {"walls": "ok"},
	"items": [
		{"path": "living.walls", "label": "Walls", "type": "boolean", "value": "ok"},
		{"path": "living.windows", "label": "Windows", "type": "boolean", "value": "pending"}
	]
}`

// isolateEnv keeps config overrides and .env exports from leaking between tests.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvDatabaseDriver, config.EnvDatabaseDSN, config.EnvSigningKey,
		config.EnvPublicBaseURL, config.EnvLogLevel, config.EnvAddr,
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

// vistoria runs the CLI in dir and returns stdout.
func vistoria(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--dir", dir, "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := vistoria(t, dir, args...)
	require.NoError(t, err, "vistoria %v: %s", args, out)
	return out
}

func TestCLI_EndToEnd(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	out := mustRun(t, dir, "init")
	assert.Contains(t, out, "Vistoria initialized successfully!")
	assert.Contains(t, out, "Generated download signing key")

	_, err := vistoria(t, dir, "init")
	assert.Error(t, err, "second init fails")

	inspectionFile := filepath.Join(dir, "inspection.json")
	require.NoError(t, os.WriteFile(inspectionFile, []byte(inspectionFixture), 0644))
	out = mustRun(t, dir, "import", inspectionFile)
	assert.Contains(t, out, "Imported inspection INS-42")

	_, err = vistoria(t, dir, "generate", "INS-42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E_SIGNATURES_MISSING")

	png := filepath.Join(dir, "signature.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\nsignature"), 0644))
	mustRun(t, dir, "sign", "INS-42", "--role", "inspector", "--name", "Ana", "--image", png,
		"--share-location", "--lat", "-23.55", "--lon", "-46.63")
	mustRun(t, dir, "sign", "INS-42", "--role", "client", "--name", "Bruno", "--image", png)

	out = mustRun(t, dir, "--json", "generate", "INS-42", "--max-views", "5")
	var generated struct {
		Record          entities.IntegrityRecord `json:"record"`
		Link            entities.PublicLink      `json:"link"`
		VerificationURL string                   `json:"verification_url"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &generated))
	assert.Len(t, generated.Record.SHA256, 64)
	assert.Len(t, generated.Link.Token, 32)
	assert.FileExists(t, filepath.Join(dir, ".vistoria", "files", filepath.FromSlash(generated.Record.FileRef)))

	out = mustRun(t, dir, "verify", generated.VerificationURL)
	assert.Contains(t, out, "Status: verified")
	assert.Contains(t, out, "/files/INS-42/")

	mustRun(t, dir, "item", "set", "INS-42", "living.windows", "ok", "--notes", "fixed")
	out = mustRun(t, dir, "verify", generated.Link.Token)
	assert.Contains(t, out, "Status: verified", "edits do not affect earlier reports")

	out = mustRun(t, dir, "history", "INS-42")
	assert.Contains(t, out, generated.Record.SHA256)

	out = mustRun(t, dir, "links", "list", "INS-42")
	assert.Contains(t, out, "active")
	assert.Contains(t, out, "2/5")

	mustRun(t, dir, "links", "revoke", generated.Link.Token)
	out, err = vistoria(t, dir, "verify", generated.Link.Token)
	require.Error(t, err)
	assert.Contains(t, out, "Status: expired")

	out, err = vistoria(t, dir, "verify", "not-a-token")
	require.Error(t, err)
	assert.Contains(t, out, "Status: invalid")
}

func TestCLI_RequiresInit(t *testing.T) {
	isolateEnv(t)
	_, err := vistoria(t, t.TempDir(), "inspections", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vistoria init")
}

func TestCLI_InspectionsList(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	mustRun(t, dir, "init")

	out := mustRun(t, dir, "inspections", "list")
	assert.Contains(t, out, msgNoInspections)

	inspectionFile := filepath.Join(dir, "inspection.json")
	require.NoError(t, os.WriteFile(inspectionFile, []byte(inspectionFixture), 0644))
	mustRun(t, dir, "import", inspectionFile)

	out = mustRun(t, dir, "inspections", "list")
	assert.Contains(t, out, "INS-42")

	out = mustRun(t, dir, "inspections", "show", "INS-42")
	assert.Contains(t, out, "living.windows")

	out = mustRun(t, dir, "export", "INS-42", "--format", "csv")
	assert.Contains(t, out, "INS-42,2026-0042,Apartment move-out,living.windows,Windows,boolean,pending,,false")

	_, err := vistoria(t, dir, "export", "INS-42", "--format", "xml")
	assert.ErrorContains(t, err, "invalid format")
}

func TestSignRequiresCoordinates(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	_, err := vistoria(t, dir, "sign", "INS-1", "--role", "client", "--name", "X", "--image", "x.png", "--share-location")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--lat and --lon")
}

func TestFixedLocator(t *testing.T) {
	loc := fixedLocator{point: entities.GeoPoint{Latitude: -23.5, Longitude: -46.6}}
	p, err := loc.Locate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, -23.5, p.Latitude, 1e-9)

	_, err = fixedLocator{point: entities.GeoPoint{Latitude: 91}}.Locate(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = loc.Locate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmno", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
