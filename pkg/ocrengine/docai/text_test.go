package docai

import (
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/stretchr/testify/assert"
)

func TestTextFromProtoReturnsDocumentText(t *testing.T) {
	doc := &documentaipb.Document{Text: "hello world"}
	assert.Equal(t, "hello world", textFromProto(doc))
}

func TestTextFromProtoHandlesNilDocument(t *testing.T) {
	assert.Equal(t, "", textFromProto(nil))
}

func TestTextFromLayoutHandlesNilLayout(t *testing.T) {
	assert.Equal(t, "", textFromLayout(nil, "hello"))
}

func TestTextFromLayoutExtractsSingleSegment(t *testing.T) {
	layout := &documentaipb.Document_Page_Layout{
		TextAnchor: &documentaipb.Document_TextAnchor{
			TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{
				{StartIndex: 6, EndIndex: 11},
			},
		},
	}
	assert.Equal(t, "world", textFromLayout(layout, "hello world"))
}

func TestTextFromLayoutConcatenatesMultipleSegments(t *testing.T) {
	layout := &documentaipb.Document_Page_Layout{
		TextAnchor: &documentaipb.Document_TextAnchor{
			TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{
				{StartIndex: 0, EndIndex: 5},
				{StartIndex: 6, EndIndex: 11},
			},
		},
	}
	assert.Equal(t, "helloworld", textFromLayout(layout, "hello world"))
}

func TestTextFromLayoutClampsOutOfRangeIndices(t *testing.T) {
	layout := &documentaipb.Document_Page_Layout{
		TextAnchor: &documentaipb.Document_TextAnchor{
			TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{
				{StartIndex: 3, EndIndex: 1000},
			},
		},
	}
	assert.Equal(t, "lo", textFromLayout(layout, "hello"))
}
