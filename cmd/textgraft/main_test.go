package main

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveJobsUsesExplicitValue(t *testing.T) {
	assert.Equal(t, 4, effectiveJobs(4))
}

func TestEffectiveJobsFallsBackToCPUCount(t *testing.T) {
	assert.Equal(t, defaultJobs(), effectiveJobs(0))
}

func TestDefaultJobsIsAtLeastOne(t *testing.T) {
	assert.GreaterOrEqual(t, defaultJobs(), 1)
	assert.Equal(t, runtime.NumCPU(), defaultJobs())
}

func TestResolveStdinPassesThroughRealPath(t *testing.T) {
	got, err := resolveStdin("/tmp/some-input.pdf", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/some-input.pdf", got)
}

func TestResolveStdinFailsWhenWorkDirMissing(t *testing.T) {
	_, err := resolveStdin("-", filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestMakeWorkDirCreatesUniqueDirectory(t *testing.T) {
	a, err := makeWorkDir()
	require.NoError(t, err)
	defer os.RemoveAll(a)
	b, err := makeWorkDir()
	require.NoError(t, err)
	defer os.RemoveAll(b)

	assert.NotEqual(t, a, b)
	info, err := os.Stat(a)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
