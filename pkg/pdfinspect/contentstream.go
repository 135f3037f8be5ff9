package pdfinspect

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/textgraft/textgraft/pkg/pdfmodel"
	"github.com/textgraft/textgraft/pkg/textlog"
)

// vectorOps are the stroke/fill operators that mark a page as carrying
// vector content.
var vectorOps = map[string]bool{
	"S": true, "s": true, "f": true, "F": true, "f*": true,
	"B": true, "B*": true, "b": true, "b*": true,
}

type interpState struct {
	xref       *model.XRefTable
	mediaBox   pdfmodel.BBox
	detailed   bool
	log        *textlog.Logger
	images     []pdfmodel.ImageInfo
	textBoxes  []pdfmodel.TextBox
	hasVector  bool
	hasText    bool
	renderMode int          // current Tr value, reset at BT
	textMatrix pdfmodel.CTM // Tm, text space -> user space
	lineMatrix pdfmodel.CTM // Tlm, the line-start matrix Td/TD/T* advance
	fontSize   float64      // Tf operand, text-space units
	leading    float64      // TL operand, used by T*, ' and "
}

// interpretPageContent walks a page's content stream (recursing into Form
// XObjects) and returns the image inventory plus vector/text presence,
// following the same operator whitelist and stack rules as OCRmyPDF's
// _interpret_contents.
func interpretPageContent(xref *model.XRefTable, d types.Dict, inh *model.InheritedPageAttrs, mediaBox pdfmodel.BBox, detailed bool, log *textlog.Logger) ([]pdfmodel.ImageInfo, pdfmodel.HasVector, pdfmodel.HasText, []pdfmodel.TextBox, error) {
	content, err := pageContentBytes(xref, d)
	if err != nil {
		return nil, pdfmodel.HasVectorUnknown, pdfmodel.HasTextUnknown, nil, err
	}
	resources, err := pageResources(xref, d)
	if err != nil {
		return nil, pdfmodel.HasVectorUnknown, pdfmodel.HasTextUnknown, nil, err
	}

	st := &interpState{xref: xref, mediaBox: mediaBox, detailed: detailed, log: log}
	if err := st.run(content, resources, pdfmodel.Identity(), 0); err != nil {
		return nil, pdfmodel.HasVectorUnknown, pdfmodel.HasTextUnknown, nil, err
	}

	hv := pdfmodel.HasVectorNo
	if st.hasVector {
		hv = pdfmodel.HasVectorYes
	}
	ht := pdfmodel.HasTextNo
	if st.hasText {
		ht = pdfmodel.HasTextYes
	}
	return st.images, hv, ht, st.textBoxes, nil
}

func pageContentBytes(xref *model.XRefTable, d types.Dict) ([]byte, error) {
	c, ok := d["Contents"]
	if !ok {
		return nil, nil
	}
	var buf bytes.Buffer
	appendOne := func(obj types.Object) error {
		sd, err := dereferenceStream(xref, obj)
		if err != nil {
			return err
		}
		if err := sd.Decode(); err != nil && len(sd.Content) == 0 {
			return err
		}
		buf.Write(sd.Content)
		buf.WriteByte('\n')
		return nil
	}
	switch v := c.(type) {
	case types.IndirectRef:
		if err := appendOne(v); err != nil {
			return nil, err
		}
	case types.Array:
		for _, e := range v {
			if err := appendOne(e); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unsupported Contents type %T", c)
	}
	return buf.Bytes(), nil
}

// run interprets content against resources starting from baseCTM, with a
// stack that already has depth baseDepth pushed onto it by the caller (used
// when recursing into a Form XObject, whose own q/Q balance is local but
// whose recursion depth still counts toward the hard/soft limits).
func (st *interpState) run(content []byte, resources types.Dict, baseCTM pdfmodel.CTM, baseDepth int) error {
	stack := []pdfmodel.CTM{baseCTM}
	depth := baseDepth
	warnedSoft := false

	toks := newTokenizer(content)
	var operands []token

	for {
		t, ok := toks.next()
		if !ok {
			break
		}
		if t.isOperator {
			op := t.text
			switch op {
			case "q":
				stack = append(stack, stack[len(stack)-1])
				depth++
				if depth > HardStackLimit {
					return fmt.Errorf("CTM stack depth exceeded hard limit %d", HardStackLimit)
				}
				if depth > SoftStackLimit && !warnedSoft {
					warnedSoft = true
					if st.log != nil {
						st.log.Warnf("CTM stack depth %d exceeds soft limit %d", depth, SoftStackLimit)
					}
				}
			case "Q":
				if len(stack) > 1 {
					stack = stack[:len(stack)-1]
					depth--
				}
				// unmatched Q: non-fatal, CTM unchanged
			case "cm":
				if len(operands) >= 6 {
					m := ctmFromOperands(operands[len(operands)-6:])
					top := stack[len(stack)-1]
					stack[len(stack)-1] = top.Multiply(m)
				}
			case "Do":
				if len(operands) >= 1 {
					name := operands[len(operands)-1].text
					if err := st.doXObject(name, resources, stack[len(stack)-1], depth, len(stack) == 1); err != nil {
						return err
					}
				}
			case "BT":
				st.renderMode = 0
				st.textMatrix = pdfmodel.Identity()
				st.lineMatrix = pdfmodel.Identity()
			case "Tr":
				if len(operands) >= 1 {
					if n, err := strconv.Atoi(operands[len(operands)-1].text); err == nil {
						st.renderMode = n
					}
				}
			case "Tf":
				if len(operands) >= 2 {
					if v, err := strconv.ParseFloat(operands[len(operands)-1].text, 64); err == nil {
						st.fontSize = v
					}
				}
			case "Tm":
				if len(operands) >= 6 {
					m := ctmFromOperands(operands[len(operands)-6:])
					st.textMatrix = m
					st.lineMatrix = m
				}
			case "Td":
				if len(operands) >= 2 {
					st.advanceLine(operands[len(operands)-2:])
				}
			case "TD":
				if len(operands) >= 2 {
					ty, _ := strconv.ParseFloat(operands[len(operands)-1].text, 64)
					st.leading = -ty
					st.advanceLine(operands[len(operands)-2:])
				}
			case "TL":
				if len(operands) >= 1 {
					if v, err := strconv.ParseFloat(operands[len(operands)-1].text, 64); err == nil {
						st.leading = v
					}
				}
			case "T*":
				st.nextLine()
			case "Tj", "TJ":
				st.showText(operands, stack[len(stack)-1])
			case "'", "\"":
				st.nextLine()
				st.showText(operands, stack[len(stack)-1])
			case "BI":
				// inline image: the tokenizer already collapsed BI..ID..EI
				// into a single token event; inline images aren't tracked
				// in the per-page image inventory (they carry no XObject
				// name resources can resolve), matching the whitelist's
				// "collapsed into a single inline image event" rule.
			default:
				if vectorOps[op] {
					st.hasVector = true
				}
			}
			operands = operands[:0]
		} else {
			operands = append(operands, t)
		}
	}
	return nil
}

func ctmFromOperands(ops []token) pdfmodel.CTM {
	vals := make([]float64, 6)
	for i, o := range ops {
		v, _ := strconv.ParseFloat(o.text, 64)
		vals[i] = v
	}
	return pdfmodel.CTM{A: vals[0], B: vals[1], C: vals[2], D: vals[3], E: vals[4], F: vals[5]}
}

// advanceLine applies a Td/TD-style translation to the line matrix and
// resets the text matrix to match, per the PDF text-positioning model.
func (st *interpState) advanceLine(ops []token) {
	tx, _ := strconv.ParseFloat(ops[0].text, 64)
	ty, _ := strconv.ParseFloat(ops[1].text, 64)
	st.lineMatrix = st.lineMatrix.Multiply(pdfmodel.CTM{A: 1, D: 1, E: tx, F: ty})
	st.textMatrix = st.lineMatrix
}

// nextLine implements T* and the implicit line break ' and " perform before
// showing their string.
func (st *interpState) nextLine() {
	st.lineMatrix = st.lineMatrix.Multiply(pdfmodel.CTM{A: 1, D: 1, F: -st.leading})
	st.textMatrix = st.lineMatrix
}

// showText records the bounding box and visibility of a text-showing
// operator's string operand(s), then advances the text matrix past it.
// Width is approximated from character count rather than real glyph
// widths, since the interpreter never parses font Widths arrays; this is
// close enough for the mask coverage and text-presence signals it feeds.
func (st *interpState) showText(operands []token, ctm pdfmodel.CTM) {
	visible := st.renderMode != 3
	if visible {
		st.hasText = true
	}

	chars := textRunLength(operands)
	if chars == 0 {
		return
	}
	fontSize := st.fontSize
	if fontSize == 0 {
		fontSize = 1
	}
	const avgGlyphWidth = 0.5 // fraction of font size per character
	advance := float64(chars) * fontSize * avgGlyphWidth

	combined := ctm.Multiply(st.textMatrix)
	textSpace := pdfmodel.BBox{Left: 0, Bottom: -0.2 * fontSize, Right: advance, Top: 0.8 * fontSize}
	st.textBoxes = append(st.textBoxes, pdfmodel.TextBox{
		BBox:    projectBBox(textSpace, combined),
		Visible: visible,
	})

	st.textMatrix = st.textMatrix.Multiply(pdfmodel.CTM{A: 1, D: 1, E: advance})
}

// textRunLength sums the rune count of the string operands in a Tj/TJ/'/"
// operand list, skipping the kerning-adjustment numbers TJ interleaves.
func textRunLength(operands []token) int {
	n := 0
	for _, o := range operands {
		if o.isString {
			n += len([]rune(o.text))
		}
	}
	return n
}

// projectBBox maps an axis-aligned text-space box through m into page
// space and returns its axis-aligned enclosing box.
func projectBBox(b pdfmodel.BBox, m pdfmodel.CTM) pdfmodel.BBox {
	corners := [4][2]float64{
		{b.Left, b.Bottom}, {b.Right, b.Bottom}, {b.Right, b.Top}, {b.Left, b.Top},
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		x := c[0]*m.A + c[1]*m.C + m.E
		y := c[0]*m.B + c[1]*m.D + m.F
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return pdfmodel.BBox{Left: minX, Bottom: minY, Right: maxX, Top: maxY}
}

func isUnitSquare(m pdfmodel.CTM) bool {
	const eps = 1e-3
	return math.Abs(m.A-1) < eps && math.Abs(m.B) < eps &&
		math.Abs(m.C) < eps && math.Abs(m.D-1) < eps &&
		math.Abs(m.E) < eps && math.Abs(m.F) < eps
}

func (st *interpState) doXObject(name string, resources types.Dict, ctm pdfmodel.CTM, depth int, stackAtZero bool) error {
	xobjs, err := dictLookup(st.xref, resources, "XObject")
	if err != nil || xobjs == nil {
		return nil
	}
	ref, ok := xobjs[name]
	if !ok {
		return nil
	}
	sd, err := dereferenceStream(st.xref, ref)
	if err != nil {
		return nil // unresolvable XObject is logged upstream, not fatal
	}
	subtype, _ := nameOf(sd.Dict["Subtype"])
	switch subtype {
	case "Image":
		st.recordImage(name, sd, ctm, stackAtZero)
	case "Form":
		formCTM := ctm
		if mtx, ok := sd.Dict["Matrix"]; ok {
			if nums, err := numericArray(st.xref, mtx); err == nil && len(nums) == 6 {
				m := pdfmodel.CTM{A: nums[0], B: nums[1], C: nums[2], D: nums[3], E: nums[4], F: nums[5]}
				formCTM = ctm.Multiply(m)
			}
		}
		formResources := resources
		if r, ok := sd.Dict["Resources"]; ok {
			if rd, err := dereferenceDict(st.xref, r); err == nil {
				formResources = rd
			}
		}
		if err := sd.Decode(); err != nil && len(sd.Content) == 0 {
			return nil
		}
		depth++
		if depth > HardStackLimit {
			return fmt.Errorf("form XObject recursion exceeded hard limit %d", HardStackLimit)
		}
		return st.run(sd.Content, formResources, formCTM, depth)
	}
	return nil
}

func dictLookup(xref *model.XRefTable, d types.Dict, key string) (types.Dict, error) {
	v, ok := d[key]
	if !ok {
		return nil, nil
	}
	return dereferenceDict(xref, v)
}

func (st *interpState) recordImage(name string, sd *types.StreamDict, ctm pdfmodel.CTM, stackAtZero bool) {
	w, _ := intEntry(sd.Dict, "Width")
	h, _ := intEntry(sd.Dict, "Height")
	bpc, _ := intEntry(sd.Dict, "BitsPerComponent")
	if bpc == 0 {
		bpc = 8
	}

	imgType := pdfmodel.ImageKindImage
	if v, ok := sd.Dict["ImageMask"]; ok {
		if b, ok2 := v.(types.Boolean); ok2 && bool(b) {
			imgType = pdfmodel.ImageKindStencilMask
		}
	}

	cs := classifyColorspace(st.xref, sd.Dict)
	enc := classifyEncoding(sd.Dict)

	drawnW := math.Hypot(ctm.A, ctm.B)
	drawnH := math.Hypot(ctm.C, ctm.D)
	dpiX, dpiY := math.Inf(1), math.Inf(1)
	if drawnW > 0 {
		dpiX = float64(w) / drawnW * 72
	}
	if drawnH > 0 {
		dpiY = float64(h) / drawnH * 72
	}

	st.images = append(st.images, pdfmodel.ImageInfo{
		Name:             name,
		Type:             imgType,
		Width:            w,
		Height:           h,
		BitsPerComponent: bpc,
		Colorspace:       cs,
		Encoding:         enc,
		ShorthandCTM:     ctm,
		DPIX:             dpiX,
		DPIY:             dpiY,
		DPIExcluded:      stackAtZero && isUnitSquare(ctm),
	})
}

func intEntry(d types.Dict, key string) (int, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	n, ok := numberOf(v)
	return int(n), ok
}

func classifyColorspace(xref *model.XRefTable, d types.Dict) pdfmodel.Colorspace {
	v, ok := d["ColorSpace"]
	if !ok {
		return pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceGray}
	}
	if ref, isRef := v.(types.IndirectRef); isRef {
		if deref, err := xref.Dereference(ref); err == nil {
			v = deref
		}
	}
	switch o := v.(type) {
	case types.Name:
		switch o.Value() {
		case "DeviceGray", "CalGray", "G":
			return pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceGray}
		case "DeviceRGB", "CalRGB", "RGB":
			return pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceRGB}
		case "DeviceCMYK", "CMYK":
			return pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceCMYK}
		default:
			return pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceUnknown, Unknown: o.Value()}
		}
	case types.Array:
		if len(o) == 0 {
			return pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceUnknown, Unknown: "empty"}
		}
		family, _ := nameOf(o[0])
		switch family {
		case "ICCBased":
			comps := 0
			if len(o) > 1 {
				if sd, err := dereferenceStream(xref, o[1]); err == nil {
					if n, ok := intEntry(sd.Dict, "N"); ok {
						comps = n
					}
				}
			}
			return pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceICC, Components: comps}
		case "Indexed":
			return pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceIndexed}
		case "Separation":
			return pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceSeparation}
		case "DeviceN":
			return pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceDeviceN}
		case "Lab":
			return pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceLab}
		case "Pattern":
			return pdfmodel.Colorspace{Kind: pdfmodel.ColorspacePattern}
		default:
			return pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceUnknown, Unknown: family}
		}
	default:
		return pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceUnknown, Unknown: fmt.Sprintf("%T", v)}
	}
}

func classifyEncoding(d types.Dict) pdfmodel.Encoding {
	v, ok := d["Filter"]
	if !ok {
		return pdfmodel.Encoding{Kind: pdfmodel.EncodingNone}
	}
	var last string
	switch o := v.(type) {
	case types.Name:
		last = o.Value()
	case types.Array:
		if len(o) == 0 {
			return pdfmodel.Encoding{Kind: pdfmodel.EncodingNone}
		}
		last, _ = nameOf(o[len(o)-1])
	}
	switch last {
	case "CCITTFaxDecode":
		return pdfmodel.Encoding{Kind: pdfmodel.EncodingCCITT}
	case "DCTDecode":
		return pdfmodel.Encoding{Kind: pdfmodel.EncodingJPEG}
	case "JPXDecode":
		return pdfmodel.Encoding{Kind: pdfmodel.EncodingJPEG2000}
	case "JBIG2Decode":
		return pdfmodel.Encoding{Kind: pdfmodel.EncodingJBIG2}
	case "FlateDecode":
		return pdfmodel.Encoding{Kind: pdfmodel.EncodingFlate}
	case "LZWDecode":
		return pdfmodel.Encoding{Kind: pdfmodel.EncodingLZW}
	case "ASCIIHexDecode":
		return pdfmodel.Encoding{Kind: pdfmodel.EncodingASCIIHex}
	case "ASCII85Decode":
		return pdfmodel.Encoding{Kind: pdfmodel.EncodingASCII85}
	case "RunLengthDecode":
		return pdfmodel.Encoding{Kind: pdfmodel.EncodingRunLength}
	case "":
		return pdfmodel.Encoding{Kind: pdfmodel.EncodingNone}
	default:
		return pdfmodel.Encoding{Kind: pdfmodel.EncodingUnknown, Unknown: last}
	}
}

// --- minimal content-stream tokenizer ---

type token struct {
	text       string
	isOperator bool
	isString   bool // literal or hex string operand, e.g. a Tj/TJ show operand
}

type tokenizer struct {
	r *bufio.Reader
}

func newTokenizer(b []byte) *tokenizer {
	return &tokenizer{r: bufio.NewReader(bytes.NewReader(b))}
}

func (t *tokenizer) next() (token, bool) {
	t.skipSpace()
	b, err := t.r.ReadByte()
	if err != nil {
		return token{}, false
	}
	switch {
	case b == '%':
		for {
			c, err := t.r.ReadByte()
			if err != nil || c == '\n' || c == '\r' {
				break
			}
		}
		return t.next()
	case b == '(':
		s := t.readLiteralString()
		return token{text: s, isOperator: false, isString: true}, true
	case b == '<':
		nb, _ := t.r.Peek(1)
		if len(nb) > 0 && nb[0] == '<' {
			t.r.ReadByte()
			t.skipDict()
			return token{text: "", isOperator: false}, true
		}
		s := t.readHexString()
		return token{text: s, isOperator: false, isString: true}, true
	case b == '[' || b == ']' || b == '{' || b == '}':
		return token{text: string(b), isOperator: false}, true
	case b == '/':
		name := t.readRegular()
		return token{text: "/" + name, isOperator: false}, true
	case isNumChar(b):
		rest := t.readRegular()
		return token{text: string(b) + rest, isOperator: false}, true
	default:
		rest := t.readRegular()
		op := string(b) + rest
		if op == "BI" {
			t.skipInlineImage()
		}
		return token{text: op, isOperator: true}, true
	}
}

func (t *tokenizer) skipSpace() {
	for {
		b, err := t.r.ReadByte()
		if err != nil {
			return
		}
		if !isSpace(b) {
			t.r.UnreadByte()
			return
		}
	}
}

func (t *tokenizer) readRegular() string {
	var buf bytes.Buffer
	for {
		b, err := t.r.ReadByte()
		if err != nil {
			break
		}
		if isSpace(b) || isDelim(b) {
			t.r.UnreadByte()
			break
		}
		buf.WriteByte(b)
	}
	return buf.String()
}

// readLiteralString consumes a (...) string operand, honoring nested
// parens and backslash escapes, and returns its content verbatim
// (escape sequences are not decoded; callers only need rune length).
func (t *tokenizer) readLiteralString() string {
	var buf bytes.Buffer
	depth := 1
	for depth > 0 {
		b, err := t.r.ReadByte()
		if err != nil {
			return buf.String()
		}
		switch b {
		case '\\':
			if esc, err := t.r.ReadByte(); err == nil {
				buf.WriteByte(esc)
			}
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return buf.String()
			}
		}
		buf.WriteByte(b)
	}
	return buf.String()
}

// readHexString consumes a <...> string operand and returns its decoded
// bytes (odd trailing nibbles are padded with 0 per the PDF spec).
func (t *tokenizer) readHexString() string {
	var hex bytes.Buffer
	for {
		b, err := t.r.ReadByte()
		if err != nil || b == '>' {
			break
		}
		if isSpace(b) {
			continue
		}
		hex.WriteByte(b)
	}
	raw, err := parseHexDigits(hex.Bytes())
	if err != nil {
		return ""
	}
	return string(raw)
}

// parseHexDigits decodes a run of ASCII hex digits into bytes, padding an
// odd final digit with a trailing zero nibble.
func parseHexDigits(digits []byte) ([]byte, error) {
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := 0; i < len(out); i++ {
		v, err := strconv.ParseUint(string(digits[2*i:2*i+2]), 16, 8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}

func (t *tokenizer) skipDict() {
	depth := 1
	for depth > 0 {
		b, err := t.r.ReadByte()
		if err != nil {
			return
		}
		if b == '(' {
			t.r.UnreadByte()
			// not unread-able generically; literal strings inside dict
			// values are rare in content-stream dict operands (BDC/DP),
			// best-effort skip.
			t.r.ReadByte()
			t.readLiteralString()
			continue
		}
		if b == '<' {
			nb, _ := t.r.Peek(1)
			if len(nb) > 0 && nb[0] == '<' {
				t.r.ReadByte()
				depth++
			} else {
				t.readHexString()
			}
			continue
		}
		if b == '>' {
			nb, _ := t.r.Peek(1)
			if len(nb) > 0 && nb[0] == '>' {
				t.r.ReadByte()
				depth--
			}
		}
	}
}

// skipInlineImage consumes a BI ... ID <binary> EI block as a single event,
// per the operator whitelist's "inline image collapsed into one event" rule.
func (t *tokenizer) skipInlineImage() {
	// advance to "ID"
	for {
		b, err := t.r.ReadByte()
		if err != nil {
			return
		}
		if b == 'I' {
			nb, _ := t.r.Peek(1)
			if len(nb) > 0 && nb[0] == 'D' {
				t.r.ReadByte()
				break
			}
		}
	}
	// one whitespace byte separates ID from binary data
	t.r.ReadByte()
	// scan for "EI" preceded by whitespace
	window := make([]byte, 0, 2)
	for {
		b, err := t.r.ReadByte()
		if err != nil {
			return
		}
		window = append(window, b)
		if len(window) > 2 {
			window = window[1:]
		}
		if len(window) == 2 && window[0] == 'E' && window[1] == 'I' {
			return
		}
	}
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isDelim(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isNumChar(b byte) bool {
	return (b >= '0' && b <= '9') || b == '+' || b == '-' || b == '.'
}
