package orient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOSDExtractsAngleAndConfidence(t *testing.T) {
	out := []byte("Page number: 0\nOrientation in degrees: 90\nRotate: 270\nOrientation confidence: 18.50\nScript: 1\n")
	res := parseOSD(out)
	assert.Equal(t, 90, res.AngleDeg)
	assert.InDelta(t, 18.50, res.Confidence, 1e-9)
}

func TestParseOSDIgnoresUnknownLines(t *testing.T) {
	res := parseOSD([]byte("garbage line\nno colon here either"))
	assert.Equal(t, Result{}, res)
}

func TestNormalizeAngleWrapsNegativeAndOver360(t *testing.T) {
	assert.Equal(t, 270, normalizeAngle(-90))
	assert.Equal(t, 0, normalizeAngle(360))
	assert.Equal(t, 45, normalizeAngle(45))
}

func TestDecideRejectsZeroAngle(t *testing.T) {
	_, applied := Decide(Result{AngleDeg: 0, Confidence: 99}, 14)
	assert.False(t, applied)
}

func TestDecideRejectsLowConfidence(t *testing.T) {
	_, applied := Decide(Result{AngleDeg: 90, Confidence: 5}, 14)
	assert.False(t, applied)
}

func TestDecideAppliesConfidentCorrection(t *testing.T) {
	deg, applied := Decide(Result{AngleDeg: 180, Confidence: 20}, 14)
	assert.True(t, applied)
	assert.Equal(t, 180, deg)
}
