package weave

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripInvisibleTextRemovesRenderMode3(t *testing.T) {
	content := []byte("q 1 0 0 1 0 0 cm BT /F1 12 Tf 3 Tr (hidden) Tj ET Q")
	out := string(StripInvisibleText(content))
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "cm")
}

func TestStripInvisibleTextKeepsVisibleText(t *testing.T) {
	content := []byte("BT /F1 12 Tf 0 Tr (visible) Tj ET")
	out := string(StripInvisibleText(content))
	assert.Contains(t, out, "visible")
}

func TestStripInvisibleTextDefaultsToVisibleWithoutTr(t *testing.T) {
	content := []byte("BT /F1 12 Tf (no tr operator) Tj ET")
	out := string(StripInvisibleText(content))
	assert.Contains(t, out, "no tr operator")
}

func TestStripInvisibleTextHandlesMultipleTextObjects(t *testing.T) {
	content := []byte("BT 3 Tr (hidden one) Tj ET BT 0 Tr (kept) Tj ET BT 3 Tr (hidden two) Tj ET")
	out := string(StripInvisibleText(content))
	assert.NotContains(t, out, "hidden one")
	assert.NotContains(t, out, "hidden two")
	assert.Contains(t, out, "kept")
}

func TestStripInvisibleTextPassesThroughNonTextOperators(t *testing.T) {
	content := []byte("1 0 0 RG 100 100 50 50 re f")
	out := string(StripInvisibleText(content))
	assert.Contains(t, out, "re")
	assert.Contains(t, out, "f")
}

func TestTokenizeHandlesParenLiteralsWithEscapes(t *testing.T) {
	toks := tokenize([]byte(`(a \) b) Tj`))
	assert.Len(t, toks, 2)
	assert.Equal(t, `(a \) b)`, toks[0].text)
	assert.True(t, toks[1].isOperator)
}

func TestTokenizeHandlesNestedDict(t *testing.T) {
	toks := tokenize([]byte(`<< /Type /Font >> Do`))
	assert.Len(t, toks, 2)
	assert.Equal(t, "<< /Type /Font >>", toks[0].text)
}
