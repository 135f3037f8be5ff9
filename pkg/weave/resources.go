package weave

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// procsetArray is the fixed /ProcSet pkg/weave assigns to any page it
// grafts a text layer onto, matching _weave.py's `[ /PDF /Text /ImageB
// /ImageC /ImageI ]` (obsolete in modern PDF but cheap to provide for old
// viewers).
func procsetArray() types.Array {
	return types.Array{types.Name("PDF"), types.Name("Text"), types.Name("ImageB"), types.Name("ImageC"), types.Name("ImageI")}
}

// updatePageResources ensures the page's /Resources/Font dict contains
// fontKey -> fontRef and sets /ProcSet, creating /Resources and /Font as
// needed.
func updatePageResources(xref *model.XRefTable, pageDict types.Dict, fontKey string, fontRef types.Object) error {
	resDict, err := resourcesDict(xref, pageDict)
	if err != nil {
		return err
	}

	fontDict, err := dictEntry(xref, resDict, "Font")
	if err != nil {
		return err
	}
	if _, exists := fontDict[fontKey]; !exists {
		fontDict[fontKey] = fontRef
	}
	resDict["Font"] = fontDict
	resDict["ProcSet"] = procsetArray()
	pageDict["Resources"] = resDict
	return nil
}

func resourcesDict(xref *model.XRefTable, pageDict types.Dict) (types.Dict, error) {
	obj, ok := pageDict["Resources"]
	if !ok {
		d := types.Dict{}
		return d, nil
	}
	return asDict(xref, obj)
}

func dictEntry(xref *model.XRefTable, d types.Dict, key string) (types.Dict, error) {
	obj, ok := d[key]
	if !ok {
		return types.Dict{}, nil
	}
	return asDict(xref, obj)
}

func asDict(xref *model.XRefTable, obj types.Object) (types.Dict, error) {
	if ref, ok := obj.(types.IndirectRef); ok {
		resolved, err := xref.Dereference(ref)
		if err != nil {
			return nil, err
		}
		obj = resolved
	}
	d, ok := obj.(types.Dict)
	if !ok {
		return nil, fmt.Errorf("expected dict, got %T", obj)
	}
	return d, nil
}

// firstFontResource returns the first entry of a one-page PDF's
// /Resources/Font dict, used to locate the glyphless font pkg/textlayer
// embedded so it can be copied into the base document for each page a
// text layer is grafted onto.
func firstFontResource(xref *model.XRefTable, pageDict types.Dict) (key string, ref types.Object, err error) {
	resDict, err := resourcesDict(xref, pageDict)
	if err != nil || resDict == nil {
		return "", nil, err
	}
	fontDict, err := dictEntry(xref, resDict, "Font")
	if err != nil {
		return "", nil, err
	}
	for k, v := range fontDict {
		return k, v, nil
	}
	return "", nil, nil
}
