package pdfinspect

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PriorOCRInfo reports whether the input PDF already carries an optional
// content group whose name suggests an earlier OCR pass, supplementing the
// content-stream-derived HasText signal with the same layer-name heuristic
// the teacher used for whole-document detection.
type PriorOCRInfo struct {
	HasOCGLayer bool
	LayerNames  []string
	Warnings    []string
}

// DetectPriorOCR inspects the document catalog's /OCProperties dict first
// (a real object-graph read, now that pdfcpu gives us one) and falls back to
// a regex scan over the raw bytes for PDFs whose /OCProperties structure
// pdfcpu cannot fully resolve.
func DetectPriorOCR(inputPath string, ctx *model.Context, layerName string) (PriorOCRInfo, error) {
	var info PriorOCRInfo

	names, err := ocgLayerNamesFromCatalog(ctx)
	if err == nil && len(names) > 0 {
		info.LayerNames = names
	} else {
		raw, rerr := rawPDFBytes(inputPath)
		if rerr == nil {
			names, _ = ocgLayerNamesFromBytes(raw)
			info.LayerNames = names
		}
	}

	pageLayerPattern := regexp.MustCompile(fmt.Sprintf(`^%s\s*\(Page\s*\d+.*`, regexp.QuoteMeta(layerName)))
	for _, l := range info.LayerNames {
		if l == layerName || pageLayerPattern.MatchString(l) {
			info.HasOCGLayer = true
			continue
		}
		if strings.Contains(strings.ToLower(l), "ocr") && !strings.HasPrefix(l, layerName) {
			info.Warnings = append(info.Warnings, fmt.Sprintf("existing layer that might contain OCR: %s", l))
		}
	}
	return info, nil
}

func ocgLayerNamesFromCatalog(ctx *model.Context) ([]string, error) {
	root := ctx.XRefTable.RootDict
	if root == nil {
		return nil, fmt.Errorf("no catalog")
	}
	ocp, ok := root["OCProperties"]
	if !ok {
		return nil, nil
	}
	ocpDict, err := dereferenceDict(ctx.XRefTable, ocp)
	if err != nil {
		return nil, err
	}
	ocgsObj, ok := ocpDict["OCGs"]
	if !ok {
		return nil, nil
	}
	arr, err := arrayOf(ctx.XRefTable, ocgsObj)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range arr {
		d, err := dereferenceDict(ctx.XRefTable, e)
		if err != nil {
			continue
		}
		if n, ok := d["Name"]; ok {
			if s, ok2 := nameOf(n); ok2 {
				names = append(names, s)
			}
		}
	}
	return names, nil
}

func arrayOf(xref *model.XRefTable, v types.Object) (types.Array, error) {
	if ref, ok := v.(types.IndirectRef); ok {
		obj, err := xref.Dereference(ref)
		if err != nil {
			return nil, err
		}
		v = obj
	}
	arr, ok := v.(types.Array)
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", v)
	}
	return arr, nil
}

var ocgPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/Type\s*/OCG\s*/Name\s*\(([^)]+)\)`),
	regexp.MustCompile(`/OCG\s*<<[^>]*?/Name\s*\(([^)]+)\)`),
	regexp.MustCompile(`/Name\s*\(([^)]+)\)[^>]{1,50}/Type\s*/OCG`),
}

// ocgLayerNamesFromBytes is the raw-byte regex fallback, grounded on the
// teacher's detectPDFLayers, kept for PDFs pdfcpu can open but not fully
// resolve the /OCProperties graph of.
func ocgLayerNamesFromBytes(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty PDF data")
	}
	content := string(data)
	var names []string
	for _, re := range ocgPatterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			if len(m) >= 2 {
				names = append(names, m[1])
			}
		}
	}
	seen := map[string]bool{}
	unique := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			unique = append(unique, n)
		}
	}
	return unique, nil
}

func rawPDFBytes(path string) ([]byte, error) {
	return os.ReadFile(path)
}
