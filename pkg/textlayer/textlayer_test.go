package textlayer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textgraft/textgraft/pkg/hocr"
)

func TestWalkWordsVisitsWordsAtEveryNestingLevel(t *testing.T) {
	page := hocr.Page{
		Lines: []hocr.Line{{Words: []hocr.Word{{Text: "direct-line"}}}},
		Paragraphs: []hocr.Paragraph{
			{Words: []hocr.Word{{Text: "par-word"}}},
			{Lines: []hocr.Line{{Words: []hocr.Word{{Text: "par-line-word"}}}}},
		},
		Areas: []hocr.Area{
			{
				Words: []hocr.Word{{Text: "area-word"}},
				Lines: []hocr.Line{{Words: []hocr.Word{{Text: "area-line-word"}}}},
				Paragraphs: []hocr.Paragraph{
					{Words: []hocr.Word{{Text: "area-par-word"}}},
					{Lines: []hocr.Line{{Words: []hocr.Word{{Text: "area-par-line-word"}}}}},
				},
			},
		},
	}

	var seen []string
	walkWords(page, func(w hocr.Word) { seen = append(seen, w.Text) })

	assert.ElementsMatch(t, []string{
		"direct-line", "par-word", "par-line-word",
		"area-word", "area-line-word", "area-par-word", "area-par-line-word",
	}, seen)
}

func TestWalkWordsEmptyPageVisitsNothing(t *testing.T) {
	var seen []string
	walkWords(hocr.Page{}, func(w hocr.Word) { seen = append(seen, w.Text) })
	assert.Empty(t, seen)
}

func TestRenderProducesNonEmptyPDF(t *testing.T) {
	page := hocr.Page{
		BBox: hocr.NewBoundingBox(0, 0, 612, 792),
		Lines: []hocr.Line{{
			Words: []hocr.Word{
				{Text: "hello", BBox: hocr.NewBoundingBox(10, 10, 60, 30)},
			},
		}},
	}

	data, err := Render(page, Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestRenderFailsOnExcessiveEncodingErrors(t *testing.T) {
	page := hocr.Page{
		BBox: hocr.NewBoundingBox(0, 0, 200, 100),
	}
	var words []hocr.Word
	for i := 0; i < 10; i++ {
		words = append(words, hocr.Word{Text: "日本語", BBox: hocr.NewBoundingBox(0, 0, 10, 10)})
	}
	page.Lines = []hocr.Line{{Words: words}}

	_, err := Render(page, Options{})
	assert.Error(t, err)
}
