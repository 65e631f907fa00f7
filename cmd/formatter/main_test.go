package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "top.sv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_FormatsValidFile(t *testing.T) {
	path := writeTempFile(t, "module top (\n  input logic [3:0] a,\n  output logic b\n);\nendmodule\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{path}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "input")
	assert.Contains(t, stdout.String(), "output")
}

func TestRun_ParseFailureExitsOne(t *testing.T) {
	path := writeTempFile(t, "module top(\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{path}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "parse failed")
}

func TestRun_MissingFileArgument(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(nil, &stdout, &stderr)
	assert.Equal(t, 1, code)
}

func TestRun_UnreadableFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"/nonexistent/path/top.sv"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
}
