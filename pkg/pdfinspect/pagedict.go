package pdfinspect

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/textgraft/textgraft/pkg/pdfmodel"
)

// inheritedEntry looks up key on d, walking the /Parent chain of Pages
// nodes when the page dict itself does not carry it — MediaBox, Resources
// and Rotate are all inheritable page attributes per the PDF spec.
func inheritedEntry(xref *model.XRefTable, d types.Dict, key string) (types.Object, error) {
	seen := map[int]bool{}
	cur := d
	for i := 0; i < 64; i++ { // guard against a malformed /Parent cycle
		if v, ok := cur[key]; ok {
			return v, nil
		}
		parentObj, ok := cur["Parent"]
		if !ok {
			return nil, nil
		}
		ref, ok := parentObj.(types.IndirectRef)
		if !ok {
			return nil, nil
		}
		objNr := ref.ObjectNumber.Value()
		if seen[objNr] {
			return nil, fmt.Errorf("cyclic /Parent chain at object %d", objNr)
		}
		seen[objNr] = true
		obj, err := xref.Dereference(ref)
		if err != nil {
			return nil, err
		}
		pd, ok := obj.(types.Dict)
		if !ok {
			return nil, nil
		}
		cur = pd
	}
	return nil, fmt.Errorf("parent chain too deep")
}

func numericArray(xref *model.XRefTable, v types.Object) ([]float64, error) {
	arr, ok := v.(types.Array)
	if !ok {
		if ref, isRef := v.(types.IndirectRef); isRef {
			deref, err := xref.Dereference(ref)
			if err != nil {
				return nil, err
			}
			arr, ok = deref.(types.Array)
		}
		if !ok {
			return nil, fmt.Errorf("expected array, got %T", v)
		}
	}
	out := make([]float64, 0, len(arr))
	for _, e := range arr {
		obj := e
		if ref, isRef := obj.(types.IndirectRef); isRef {
			d, err := xref.Dereference(ref)
			if err != nil {
				return nil, err
			}
			obj = d
		}
		switch n := obj.(type) {
		case types.Float:
			out = append(out, n.Value())
		case types.Integer:
			out = append(out, float64(n.Value()))
		default:
			return nil, fmt.Errorf("expected number, got %T", obj)
		}
	}
	return out, nil
}

func pageMediaBox(xref *model.XRefTable, d types.Dict, _ *model.InheritedPageAttrs) (pdfmodel.BBox, error) {
	v, err := inheritedEntry(xref, d, "MediaBox")
	if err != nil {
		return pdfmodel.BBox{}, err
	}
	if v == nil {
		// Fall back to US Letter when the page (and its ancestry) somehow
		// omit MediaBox — malformed but not worth failing the whole run.
		return pdfmodel.BBox{Left: 0, Bottom: 0, Right: 612, Top: 792}, nil
	}
	nums, err := numericArray(xref, v)
	if err != nil || len(nums) != 4 {
		return pdfmodel.BBox{}, fmt.Errorf("invalid MediaBox: %v", err)
	}
	return pdfmodel.BBox{Left: nums[0], Bottom: nums[1], Right: nums[2], Top: nums[3]}, nil
}

func pageUserUnit(d types.Dict, _ *model.InheritedPageAttrs) float64 {
	v, ok := d["UserUnit"]
	if !ok {
		return 1
	}
	switch n := v.(type) {
	case types.Float:
		return n.Value()
	case types.Integer:
		return float64(n.Value())
	default:
		return 1
	}
}

func pageRotation(d types.Dict, _ *model.InheritedPageAttrs) int {
	v, ok := d["Rotate"]
	if !ok {
		return 0
	}
	var r int
	switch n := v.(type) {
	case types.Integer:
		r = n.Value()
	case types.Float:
		r = int(n.Value())
	default:
		return 0
	}
	r %= 360
	if r < 0 {
		r += 360
	}
	return r
}

func pageResources(xref *model.XRefTable, d types.Dict) (types.Dict, error) {
	v, err := inheritedEntry(xref, d, "Resources")
	if err != nil || v == nil {
		return types.Dict{}, err
	}
	if ref, ok := v.(types.IndirectRef); ok {
		obj, err := xref.Dereference(ref)
		if err != nil {
			return types.Dict{}, err
		}
		v = obj
	}
	rd, ok := v.(types.Dict)
	if !ok {
		return types.Dict{}, nil
	}
	return rd, nil
}

func dereferenceDict(xref *model.XRefTable, v types.Object) (types.Dict, error) {
	if ref, ok := v.(types.IndirectRef); ok {
		obj, err := xref.Dereference(ref)
		if err != nil {
			return nil, err
		}
		v = obj
	}
	d, ok := v.(types.Dict)
	if !ok {
		return nil, fmt.Errorf("expected dict, got %T", v)
	}
	return d, nil
}

func dereferenceStream(xref *model.XRefTable, v types.Object) (*types.StreamDict, error) {
	if ref, ok := v.(types.IndirectRef); ok {
		obj, err := xref.Dereference(ref)
		if err != nil {
			return nil, err
		}
		v = obj
	}
	sd, ok := v.(types.StreamDict)
	if !ok {
		return nil, fmt.Errorf("expected stream, got %T", v)
	}
	return &sd, nil
}

func nameOf(v types.Object) (string, bool) {
	switch n := v.(type) {
	case types.Name:
		return n.Value(), true
	case types.StringLiteral:
		return string(n), true
	default:
		return "", false
	}
}

func numberOf(v types.Object) (float64, bool) {
	switch n := v.(type) {
	case types.Float:
		return n.Value(), true
	case types.Integer:
		return float64(n.Value()), true
	default:
		return 0, false
	}
}
