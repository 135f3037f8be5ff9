package weave

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// CopyObject deep-copies obj (resolving any IndirectRef against srcXref)
// into dstXref, recreating every indirect object it touches there and
// returning the copy. This is the primitive page/resource grafting across
// two independently opened pdfcpu contexts builds on, since pdfcpu has no
// cross-context object importer of its own below api.MergeCreateFile's
// whole-document granularity.
func CopyObject(srcXref, dstXref *model.XRefTable, obj types.Object) (types.Object, error) {
	return copyObjectSeen(srcXref, dstXref, obj, map[int]types.IndirectRef{})
}

func copyObjectSeen(src, dst *model.XRefTable, obj types.Object, seen map[int]types.IndirectRef) (types.Object, error) {
	switch o := obj.(type) {
	case types.IndirectRef:
		objNr := o.ObjectNumber.Value()
		if ref, ok := seen[objNr]; ok {
			return ref, nil
		}
		resolved, err := src.Dereference(o)
		if err != nil {
			return nil, fmt.Errorf("dereference object %d: %w", objNr, err)
		}
		// Reserve the new object number before recursing so cyclic
		// references (e.g. /Parent back-pointers) terminate.
		placeholder, err := dst.IndRefForNewObject(types.Dict{})
		if err != nil {
			return nil, err
		}
		seen[objNr] = *placeholder
		copied, err := copyObjectSeen(src, dst, resolved, seen)
		if err != nil {
			return nil, err
		}
		newObjNr := placeholder.ObjectNumber.Value()
		if entry, found := dst.Table[newObjNr]; found {
			entry.Object = copied
		}
		return *placeholder, nil

	case types.Dict:
		out := types.Dict{}
		for k, v := range o {
			cv, err := copyObjectSeen(src, dst, v, seen)
			if err != nil {
				return nil, err
			}
			out[k] = cv
		}
		return out, nil

	case types.Array:
		out := make(types.Array, len(o))
		for i, v := range o {
			cv, err := copyObjectSeen(src, dst, v, seen)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil

	case types.StreamDict:
		newDict := types.Dict{}
		for k, v := range o.Dict {
			cv, err := copyObjectSeen(src, dst, v, seen)
			if err != nil {
				return nil, err
			}
			newDict[k] = cv
		}
		sd := types.NewStreamDict(newDict, 0, nil, nil, nil)
		sd.Content = o.Content
		sd.Raw = o.Raw
		return sd, nil

	default:
		return obj, nil
	}
}
