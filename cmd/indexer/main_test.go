package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSVFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "top.sv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_EmitsIndexJSON(t *testing.T) {
	path := writeSVFile(t, "module top;\nendmodule\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{path}, &stdout, &stderr)

	require.Equal(t, exitOK, code)

	var dump indexDump
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &dump))
	assert.NotNil(t, dump.Hier)
	assert.Len(t, dump.Files, 1)
}

func TestRun_WritesToOutputFile(t *testing.T) {
	path := writeSVFile(t, "module top;\nendmodule\n")
	outPath := filepath.Join(t.TempDir(), "out.json")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-o", outPath, path}, &stdout, &stderr)

	require.Equal(t, exitOK, code)
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"hier\"")
}

func TestRun_NoFilesIsOptionError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(nil, &stdout, &stderr)
	assert.Equal(t, exitOption, code)
}

func TestRun_UnreadableFileIsOptionError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"/nonexistent/path/top.sv"}, &stdout, &stderr)
	assert.Equal(t, exitOption, code)
}
