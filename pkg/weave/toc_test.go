package weave

import (
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
)

func refTo(objNr int) types.IndirectRef {
	return types.IndirectRef{ObjectNumber: types.Integer(objNr)}
}

func TestRemapDestRewritesFirstArrayEntry(t *testing.T) {
	remap := PageRefRemap{5: refTo(99)}
	dest := types.Array{refTo(5), types.Name("Fit")}

	remapDest(nil, dest, remap)

	got, ok := dest[0].(types.IndirectRef)
	assert.True(t, ok)
	assert.Equal(t, 99, got.ObjectNumber.Value())
}

func TestRemapDestLeavesUnmappedPageAlone(t *testing.T) {
	remap := PageRefRemap{5: refTo(99)}
	dest := types.Array{refTo(7), types.Name("Fit")}

	remapDest(nil, dest, remap)

	got, ok := dest[0].(types.IndirectRef)
	assert.True(t, ok)
	assert.Equal(t, 7, got.ObjectNumber.Value())
}

func TestRemapDestIgnoresNonArrayDest(t *testing.T) {
	assert.NotPanics(t, func() {
		remapDest(nil, types.Name("Fit"), PageRefRemap{5: refTo(99)})
	})
}

func TestRemapDestIgnoresEmptyArray(t *testing.T) {
	dest := types.Array{}
	assert.NotPanics(t, func() {
		remapDest(nil, dest, PageRefRemap{5: refTo(99)})
	})
}
