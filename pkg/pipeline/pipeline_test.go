package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textgraft/textgraft/pkg/ocrerr"
)

func TestWorkerCountCapsAtMaxWorkers(t *testing.T) {
	assert.Equal(t, 2, workerCount(4, 2))
}

func TestWorkerCountFollowsOneplusQuarterRule(t *testing.T) {
	assert.Equal(t, 3, workerCount(8, 16)) // 1 + ceil(8/4) = 3
}

func TestWorkerCountNeverZero(t *testing.T) {
	assert.Equal(t, 1, workerCount(0, 0))
}

func TestAsOcrerrUnwrapsWrappedError(t *testing.T) {
	base := ocrerr.New(ocrerr.KindBadArgs, "bad")
	wrapped := fmt.Errorf("page 3: %w", base)

	var target *ocrerr.Error
	ok := asOcrerr(wrapped, &target)
	require.True(t, ok)
	assert.Equal(t, ocrerr.KindBadArgs, target.Kind)
}

func TestAsOcrerrFalseForPlainError(t *testing.T) {
	var target *ocrerr.Error
	ok := asOcrerr(errors.New("plain"), &target)
	assert.False(t, ok)
}

func TestTriageInputPassesThroughPDF(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.7\n%%EOF"), 0o644))

	got, err := triageInput(src, dir)
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestTriageInputRejectsUnrecognizedFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.bin")
	require.NoError(t, os.WriteFile(src, []byte("not a pdf or an image"), 0o644))

	_, err := triageInput(src, dir)
	assert.Error(t, err)
}

func TestPublishWritesOutputFile(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "final.pdf")
	require.NoError(t, os.WriteFile(final, []byte("content"), 0o644))

	out := filepath.Join(dir, "out.pdf")
	require.NoError(t, publish(final, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}
