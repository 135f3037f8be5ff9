package weave

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PageRefRemap maps an old page object number to its replacement, recorded
// whenever weave replaces a page wholesale (which assigns the new page a
// fresh object number and invalidates any /Dest or /A-GoTo bookmark
// pointing at the old one).
type PageRefRemap map[int]types.IndirectRef

var tocLinkKeys = []string{"Parent", "First", "Last", "Prev", "Next"}

// traverseToc walks the /Outlines tree from the document catalog, visiting
// each node exactly once (tracked by object number, since outline graphs
// are not always strict trees), and invokes visit on every node found.
func traverseToc(xref *model.XRefTable, visit func(node types.Dict)) error {
	root := xref.RootDict
	if root == nil {
		return nil
	}
	outlinesObj, ok := root["Outlines"]
	if !ok {
		return nil
	}
	ref, ok := outlinesObj.(types.IndirectRef)
	if !ok {
		return nil
	}

	visited := map[int]bool{}
	queue := []types.IndirectRef{ref}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		objNr := cur.ObjectNumber.Value()
		if visited[objNr] {
			continue
		}
		visited[objNr] = true

		obj, err := xref.Dereference(cur)
		if err != nil {
			continue
		}
		node, ok := obj.(types.Dict)
		if !ok {
			continue
		}

		for _, key := range tocLinkKeys {
			item, ok := node[key]
			if !ok {
				continue
			}
			if nref, ok := item.(types.IndirectRef); ok && !visited[nref.ObjectNumber.Value()] {
				queue = append(queue, nref)
			}
		}

		if visit != nil {
			visit(node)
		}
	}
	return nil
}

// fixToc rewrites every /Dest or /A /GoTo bookmark pointing at a page that
// was replaced during weaving, using remap to find its new object
// reference.
func fixToc(xref *model.XRefTable, remap PageRefRemap) error {
	if len(remap) == 0 {
		return nil
	}
	return traverseToc(xref, func(node types.Dict) {
		if dest, ok := node["Dest"]; ok {
			remapDest(xref, dest, remap)
		} else if action, ok := node["A"].(types.Dict); ok {
			if subtype, ok := action["S"].(types.Name); ok && subtype == "GoTo" {
				if d, ok := action["D"]; ok {
					remapDest(xref, d, remap)
				}
			}
		}
	})
}

func remapDest(xref *model.XRefTable, dest types.Object, remap PageRefRemap) {
	arr, ok := dest.(types.Array)
	if !ok || len(arr) == 0 {
		return
	}
	pageRef, ok := arr[0].(types.IndirectRef)
	if !ok {
		return
	}
	if newRef, found := remap[pageRef.ObjectNumber.Value()]; found {
		arr[0] = newRef
	}
}
