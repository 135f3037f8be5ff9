package weave

import (
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcsetArrayContainsFixedEntries(t *testing.T) {
	arr := procsetArray()
	names := make([]string, len(arr))
	for i, o := range arr {
		names[i] = string(o.(types.Name))
	}
	assert.Equal(t, []string{"PDF", "Text", "ImageB", "ImageC", "ImageI"}, names)
}

func TestAsDictPassesThroughDirectDict(t *testing.T) {
	d := types.Dict{"Type": types.Name("Font")}
	got, err := asDict(nil, d)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestAsDictRejectsNonDict(t *testing.T) {
	_, err := asDict(nil, types.Integer(5))
	assert.Error(t, err)
}

func TestResourcesDictDefaultsToEmpty(t *testing.T) {
	pageDict := types.Dict{}
	got, err := resourcesDict(nil, pageDict)
	require.NoError(t, err)
	assert.Equal(t, types.Dict{}, got)
}

func TestDictEntryReturnsExistingSubdict(t *testing.T) {
	resDict := types.Dict{"Font": types.Dict{"F1": types.Name("fontref")}}
	got, err := dictEntry(nil, resDict, "Font")
	require.NoError(t, err)
	assert.Equal(t, types.Dict{"F1": types.Name("fontref")}, got)
}

func TestUpdatePageResourcesAddsFontAndProcSet(t *testing.T) {
	pageDict := types.Dict{}
	err := updatePageResources(nil, pageDict, "F9", types.Name("fontref"))
	require.NoError(t, err)

	resDict := pageDict["Resources"].(types.Dict)
	fontDict := resDict["Font"].(types.Dict)
	assert.Equal(t, types.Name("fontref"), fontDict["F9"])
	assert.Equal(t, procsetArray(), resDict["ProcSet"])
}

func TestUpdatePageResourcesKeepsExistingFontKey(t *testing.T) {
	pageDict := types.Dict{
		"Resources": types.Dict{"Font": types.Dict{"F9": types.Name("original")}},
	}
	err := updatePageResources(nil, pageDict, "F9", types.Name("replacement"))
	require.NoError(t, err)

	resDict := pageDict["Resources"].(types.Dict)
	fontDict := resDict["Font"].(types.Dict)
	assert.Equal(t, types.Name("original"), fontDict["F9"])
}

func TestFirstFontResourceReturnsAnEntry(t *testing.T) {
	pageDict := types.Dict{
		"Resources": types.Dict{"Font": types.Dict{"F1": types.Name("only")}},
	}
	key, ref, err := firstFontResource(nil, pageDict)
	require.NoError(t, err)
	assert.Equal(t, "F1", key)
	assert.Equal(t, types.Name("only"), ref)
}

func TestFirstFontResourceEmptyWhenNoFonts(t *testing.T) {
	pageDict := types.Dict{}
	key, ref, err := firstFontResource(nil, pageDict)
	require.NoError(t, err)
	assert.Equal(t, "", key)
	assert.Nil(t, ref)
}
