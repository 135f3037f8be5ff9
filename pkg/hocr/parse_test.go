package hocr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHOCR = `<!DOCTYPE html>
<html>
<head>
<title>Sample</title>
<meta charset="utf-8">
</head>
<body>
<div class="ocr_page" id="page_1" title="bbox 0 0 612 792; image sample.png; ppageno 0">
<div class="ocr_carea" id="block_1_1" title="bbox 10 10 600 100">
<p class="ocr_par" id="par_1_1" title="bbox 10 10 600 100">
<span class="ocr_line" id="line_1_1" title="bbox 10 10 600 40">
<span class="ocrx_word" id="word_1_1" title="bbox 10 10 60 40; x_wconf 95">Hello</span>
<span class="ocrx_word" id="word_1_2" title="bbox 65 10 130 40; x_wconf 88">World</span>
</span>
</p>
</div>
</div>
</body>
</html>`

func TestParseHOCRExtractsPageAndWords(t *testing.T) {
	doc, err := ParseHOCR([]byte(sampleHOCR))
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)

	page := doc.Pages[0]
	assert.Equal(t, "page_1", page.ID)
	assert.Equal(t, "sample.png", page.ImageName)
	assert.Equal(t, BoundingBox{X1: 0, Y1: 0, X2: 612, Y2: 792}, page.BBox)

	require.Len(t, page.Areas, 1)
	require.Len(t, page.Areas[0].Paragraphs, 1)
	require.Len(t, page.Areas[0].Paragraphs[0].Lines, 1)
	words := page.Areas[0].Paragraphs[0].Lines[0].Words
	require.Len(t, words, 2)
	assert.Equal(t, "Hello", words[0].Text)
	assert.Equal(t, "World", words[1].Text)
	assert.Equal(t, BoundingBox{X1: 10, Y1: 10, X2: 60, Y2: 40}, words[0].BBox)
}

func TestParseHOCRRejectsDataWithNoPages(t *testing.T) {
	_, err := ParseHOCR([]byte("<html><body><p>no pages here</p></body></html>"))
	assert.Error(t, err)
}

func TestParseTitleSplitsKeyValuePairs(t *testing.T) {
	props := ParseTitle("bbox 100 200 300 400; x_wconf 95")
	assert.Equal(t, []string{"100", "200", "300", "400"}, props["bbox"])
	assert.Equal(t, []string{"95"}, props["x_wconf"])
}

func TestParseBoundingBoxFromTitleExtractsRect(t *testing.T) {
	bbox := ParseBoundingBoxFromTitle("bbox 1 2 3 4")
	require.NotNil(t, bbox)
	assert.Equal(t, BoundingBox{X1: 1, Y1: 2, X2: 3, Y2: 4}, *bbox)
}

func TestParseBoundingBoxFromTitleReturnsNilWithoutBBox(t *testing.T) {
	assert.Nil(t, ParseBoundingBoxFromTitle("x_wconf 95"))
}

func TestExtractHOCRTextJoinsWords(t *testing.T) {
	doc, err := ParseHOCR([]byte(sampleHOCR))
	require.NoError(t, err)
	text := ExtractHOCRText(&doc)
	assert.True(t, strings.Contains(text, "Hello"))
	assert.True(t, strings.Contains(text, "World"))
}

func TestMeanConfidenceAveragesAcrossWords(t *testing.T) {
	doc, err := ParseHOCR([]byte(sampleHOCR))
	require.NoError(t, err)
	assert.InDelta(t, 91.5, doc.Pages[0].MeanConfidence(), 1e-9)
}

func TestMeanConfidenceZeroForPageWithNoWords(t *testing.T) {
	assert.Equal(t, 0.0, Page{}.MeanConfidence())
}

func TestLowConfidenceWordCountCountsBelowThreshold(t *testing.T) {
	doc, err := ParseHOCR([]byte(sampleHOCR))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Pages[0].LowConfidenceWordCount(90))
	assert.Equal(t, 0, doc.Pages[0].LowConfidenceWordCount(50))
}

func TestGenerateHOCRDocumentRoundTripsPage(t *testing.T) {
	doc := &HOCR{
		Title: "Sample",
		Pages: []Page{
			{
				ID:   "page_1",
				BBox: NewBoundingBox(0, 0, 612, 792),
				Lines: []Line{
					{Words: []Word{{Text: "Hello", BBox: NewBoundingBox(10, 10, 60, 40)}}},
				},
			},
		},
	}

	out, err := GenerateHOCRDocument(doc)
	require.NoError(t, err)
	assert.Contains(t, out, "ocr_page")
	assert.Contains(t, out, "Hello")

	reparsed, err := ParseHOCR([]byte(out))
	require.NoError(t, err)
	require.Len(t, reparsed.Pages, 1)
}
