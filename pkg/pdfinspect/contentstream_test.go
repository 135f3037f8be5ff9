package pdfinspect

import (
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textgraft/textgraft/pkg/pdfmodel"
)

// runContent interprets a raw content stream in isolation, the way a page
// with no XObjects would, and returns the resulting interpreter state.
func runContent(t *testing.T, content string) *interpState {
	t.Helper()
	st := &interpState{}
	require.NoError(t, st.run([]byte(content), types.Dict{}, pdfmodel.Identity(), 0))
	return st
}

func TestShowTextRecordsVisibleBoxForNormalRenderMode(t *testing.T) {
	st := runContent(t, "BT /F1 12 Tf 72 700 Td (Hello) Tj ET")

	require.Len(t, st.textBoxes, 1)
	box := st.textBoxes[0]
	assert.True(t, box.Visible)
	assert.False(t, box.Corrupt)
	assert.InDelta(t, 72, box.BBox.Left, 1e-6)
	assert.InDelta(t, 700-0.2*12, box.BBox.Bottom, 1e-6)
	assert.InDelta(t, 700+0.8*12, box.BBox.Top, 1e-6)
	assert.Greater(t, box.BBox.Right, box.BBox.Left)
	assert.True(t, st.hasText)
}

func TestShowTextMarksTr3RunsInvisible(t *testing.T) {
	st := runContent(t, "BT /F1 12 Tf 3 Tr 72 700 Td (Secret) Tj ET")

	require.Len(t, st.textBoxes, 1)
	assert.False(t, st.textBoxes[0].Visible)
	assert.False(t, st.hasText, "invisible-only page should not report hasText")
}

// TestRedoOCRPageMixesVisibleAndInvisibleBoxes exercises the scenario a
// --redo-ocr pass sees: a page already carrying OCR'd text where the real
// page content is visible but a prior OCR layer's text is rendered
// invisibly (Tr 3). Only the visible box should be masked before re-OCR.
func TestRedoOCRPageMixesVisibleAndInvisibleBoxes(t *testing.T) {
	content := `
BT
/F1 12 Tf
72 700 Td
(Printed heading) Tj
ET
BT
/F1 10 Tf
3 Tr
72 600 Td
(stale ocr text) Tj
ET
`
	st := runContent(t, content)

	require.Len(t, st.textBoxes, 2)
	assert.True(t, st.textBoxes[0].Visible)
	assert.False(t, st.textBoxes[1].Visible)

	visible := 0
	for _, tb := range st.textBoxes {
		if tb.Visible {
			visible++
		}
	}
	assert.Equal(t, 1, visible, "redo-ocr masking must only cover the visible box")
}

func TestShowTextAdvancesTextMatrixBetweenCalls(t *testing.T) {
	st := runContent(t, "BT /F1 12 Tf 72 700 Td (AA) Tj (BB) Tj ET")

	require.Len(t, st.textBoxes, 2)
	assert.Greater(t, st.textBoxes[1].BBox.Left, st.textBoxes[0].BBox.Left,
		"second Tj should start where the first one's advance left off")
}

func TestTJArrayIgnoresKerningNumbersInLengthEstimate(t *testing.T) {
	st := runContent(t, "BT /F1 12 Tf 72 700 Td [(AB)-250(CD)] TJ ET")

	require.Len(t, st.textBoxes, 1)
	// Width should reflect 4 shown characters (AB + CD), not the bracket or
	// the -250 kerning adjustment leaking into the character count.
	assert.InDelta(t, 72+4*12*0.5, st.textBoxes[0].BBox.Right, 1e-6)
}
