package metafinish

import (
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/textgraft/textgraft/pkg/ocrerr"
)

// embedXMP reads srcPath, builds an XMP packet mirroring props, inserts it
// as a /Metadata stream on the document catalog, and writes the result to
// dstPath.
func embedXMP(srcPath, dstPath string, props map[string]string) error {
	ctx, err := api.ReadContextFile(srcPath)
	if err != nil {
		return ocrerr.Wrap(ocrerr.KindInvalidOutputPdf, "read document for XMP embed", err)
	}
	xref := ctx.XRefTable

	packet := buildXMPPacket(props)
	sd := types.NewStreamDict(types.Dict{
		"Type":    types.Name("Metadata"),
		"Subtype": types.Name("XML"),
	}, int64(len(packet)), nil, nil, nil)
	sd.Content = []byte(packet)
	sd.Raw = []byte(packet)

	ref, err := xref.IndRefForNewObject(sd)
	if err != nil {
		return ocrerr.Wrap(ocrerr.KindInvalidOutputPdf, "allocate XMP stream object", err)
	}

	root := xref.RootDict
	if root == nil {
		return ocrerr.New(ocrerr.KindInvalidOutputPdf, "document has no catalog")
	}
	root["Metadata"] = *ref

	if err := api.WriteContextFile(ctx, dstPath); err != nil {
		return ocrerr.Wrap(ocrerr.KindInvalidOutputPdf, "write document with XMP", err)
	}
	return nil
}

// buildXMPPacket renders a minimal Dublin Core + pdf + xmp XMP packet,
// mirroring docinfo the way spec.md §4.K's XMP sync requires: if
// xmp:CreateDate is absent it is set equal to xmp:ModifyDate.
func buildXMPPacket(props map[string]string) string {
	createDate := props["CreationDate"]
	modifyDate := props["ModDate"]
	if createDate == "" {
		createDate = modifyDate
	}

	var b strings.Builder
	b.WriteString(`<?xpacket begin="` + "\xef\xbb\xbf" + `" id="W5M0MpCehiHzreSzNTczkc9d"?>` + "\n")
	b.WriteString(`<x:xmpmeta xmlns:x="adobe:ns:meta/">` + "\n")
	b.WriteString(`  <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` + "\n")
	b.WriteString(`    <rdf:Description rdf:about="" xmlns:dc="http://purl.org/dc/elements/1.1/">` + "\n")
	if title := props["Title"]; title != "" {
		fmt.Fprintf(&b, "      <dc:title><rdf:Alt><rdf:li xml:lang=\"x-default\">%s</rdf:li></rdf:Alt></dc:title>\n", xmlEscape(title))
	}
	if author := props["Author"]; author != "" {
		fmt.Fprintf(&b, "      <dc:creator><rdf:Seq><rdf:li>%s</rdf:li></rdf:Seq></dc:creator>\n", xmlEscape(author))
	}
	if subject := props["Subject"]; subject != "" {
		fmt.Fprintf(&b, "      <dc:description><rdf:Alt><rdf:li xml:lang=\"x-default\">%s</rdf:li></rdf:Alt></dc:description>\n", xmlEscape(subject))
	}
	b.WriteString("    </rdf:Description>\n")
	b.WriteString(`    <rdf:Description rdf:about="" xmlns:pdf="http://ns.adobe.com/pdf/1.3/">` + "\n")
	fmt.Fprintf(&b, "      <pdf:Producer>%s</pdf:Producer>\n", xmlEscape(props["Producer"]))
	if kw := props["Keywords"]; kw != "" {
		fmt.Fprintf(&b, "      <pdf:Keywords>%s</pdf:Keywords>\n", xmlEscape(kw))
	}
	b.WriteString("    </rdf:Description>\n")
	b.WriteString(`    <rdf:Description rdf:about="" xmlns:xmp="http://ns.adobe.com/xap/1.0/">` + "\n")
	fmt.Fprintf(&b, "      <xmp:CreatorTool>%s</xmp:CreatorTool>\n", xmlEscape(props["Creator"]))
	fmt.Fprintf(&b, "      <xmp:CreateDate>%s</xmp:CreateDate>\n", xmlEscape(createDate))
	fmt.Fprintf(&b, "      <xmp:ModifyDate>%s</xmp:ModifyDate>\n", xmlEscape(modifyDate))
	b.WriteString("    </rdf:Description>\n")
	b.WriteString("  </rdf:RDF>\n")
	b.WriteString("</x:xmpmeta>\n")
	b.WriteString(`<?xpacket end="w"?>`)
	return b.String()
}

func xmlEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}
