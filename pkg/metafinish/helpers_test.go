package metafinish

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFileCopiesContent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.pdf")
	dst := filepath.Join(dir, "dst.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.7 fake"), 0o644))

	require.NoError(t, copyFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 fake", string(data))
}

func TestFileSizeMB(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 2*1024*1024), 0o644))
	assert.InDelta(t, 2.0, fileSizeMB(path), 0.01)
}

func TestFileSizeMBMissingFileIsZero(t *testing.T) {
	assert.Equal(t, 0.0, fileSizeMB(filepath.Join(t.TempDir(), "missing.bin")))
}

func TestRemoveIfExistsSwallowsMissing(t *testing.T) {
	assert.NotPanics(t, func() {
		removeIfExists(filepath.Join(t.TempDir(), "missing.bin"))
	})
}

func TestShouldLinearizeThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 3*1024*1024), 0o644))

	assert.True(t, shouldLinearize(path, 2))
	assert.False(t, shouldLinearize(path, 10))
	assert.False(t, shouldLinearize(path, 0))
}

func TestClaimsPDFADetectsMarker(t *testing.T) {
	dir := t.TempDir()
	withMarker := filepath.Join(dir, "a.pdf")
	withoutMarker := filepath.Join(dir, "b.pdf")
	require.NoError(t, os.WriteFile(withMarker, []byte("...GTS_PDFA1..."), 0o644))
	require.NoError(t, os.WriteFile(withoutMarker, []byte("no marker here"), 0o644))

	ok, err := claimsPDFA(withMarker)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = claimsPDFA(withoutMarker)
	require.NoError(t, err)
	assert.False(t, ok)
}
