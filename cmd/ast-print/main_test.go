package main

import (
	"bytes"
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

func TestRun_PrintsModuleDecl(t *testing.T) {
	path := writeSVFile(t, "module top;\nendmodule\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{path}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "module-decl")
	assert.Contains(t, stdout.String(), `"top"`)
}

func TestRun_ParseFailureExitsOne(t *testing.T) {
	path := writeSVFile(t, "module top(\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{path}, &stdout, &stderr)

	assert.Equal(t, 1, code)
}

func TestRun_MissingArgument(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(nil, &stdout, &stderr)
	assert.Equal(t, 1, code)
}

func TestRun_UnreadableFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"/nonexistent/path/top.sv"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
}
