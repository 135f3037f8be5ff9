package sidecar

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMergeJoinsPagesWithFormFeed(t *testing.T) {
	dir := t.TempDir()
	p1 := writeTempFile(t, dir, "p1.txt", "hello\f")
	p2 := writeTempFile(t, dir, "p2.txt", "world")

	var out strings.Builder
	err := Merge(&out, []string{p1, p2})
	require.NoError(t, err)
	assert.Equal(t, "hello\fworld", out.String())
}

func TestMergeSkippedPageUsesSentinel(t *testing.T) {
	dir := t.TempDir()
	p1 := writeTempFile(t, dir, "p1.txt", "first page")

	var out strings.Builder
	err := Merge(&out, []string{p1, ""})
	require.NoError(t, err)
	assert.Equal(t, "first page\f[OCR skipped on page 2]", out.String())
}

func TestMergeSinglePageTrimsTrailingFormFeed(t *testing.T) {
	dir := t.TempDir()
	p1 := writeTempFile(t, dir, "p1.txt", "only page\f")

	var out strings.Builder
	err := Merge(&out, []string{p1})
	require.NoError(t, err)
	assert.Equal(t, "only page", out.String())
}

func TestMergeToFileWritesFile(t *testing.T) {
	dir := t.TempDir()
	p1 := writeTempFile(t, dir, "p1.txt", "page one")
	outPath := filepath.Join(dir, "out.txt")

	require.NoError(t, MergeToFile(outPath, []string{p1}))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "page one", string(data))
}

func TestMergeMissingFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	var out strings.Builder
	err := Merge(&out, []string{filepath.Join(dir, "missing.txt")})
	assert.Error(t, err)
}
