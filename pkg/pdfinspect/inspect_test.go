package pdfinspect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/textgraft/textgraft/pkg/ocrerr"
)

func TestContainsAnyIsCaseInsensitive(t *testing.T) {
	assert.True(t, containsAny("This PDF Requires A PASSWORD", "password"))
	assert.True(t, containsAny("stream is Encrypted", "encrypt"))
	assert.False(t, containsAny("unexpected end of stream", "password", "encrypt"))
}

func TestClassifyOpenErrorDetectsEncryption(t *testing.T) {
	err := classifyOpenError(errors.New("pdfcpu: this document requires a password"))
	var oerr *ocrerr.Error
	assert.ErrorAs(t, err, &oerr)
	assert.Equal(t, ocrerr.KindEncryptedPdf, oerr.Kind)
}

func TestClassifyOpenErrorDefaultsToInputFileError(t *testing.T) {
	err := classifyOpenError(errors.New("xref table corrupt"))
	var oerr *ocrerr.Error
	assert.ErrorAs(t, err, &oerr)
	assert.Equal(t, ocrerr.KindInputFile, oerr.Kind)
}

func TestOCGLayerNamesFromBytesMatchesEachPattern(t *testing.T) {
	data := []byte(`
<< /Type /OCG /Name (OCR Text) >>
<< /OCG << /Foo 1 /Name (Background) >> >>
<< /Name (Notes) /Whatever 2 /Type /OCG >>
`)
	names, err := ocgLayerNamesFromBytes(data)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"OCR Text", "Background", "Notes"}, names)
}

func TestOCGLayerNamesFromBytesDedupes(t *testing.T) {
	data := []byte(`<< /Type /OCG /Name (OCR Text) >> << /Type /OCG /Name (OCR Text) >>`)
	names, err := ocgLayerNamesFromBytes(data)
	assert.NoError(t, err)
	assert.Equal(t, []string{"OCR Text"}, names)
}

func TestOCGLayerNamesFromBytesEmptyInputErrors(t *testing.T) {
	_, err := ocgLayerNamesFromBytes(nil)
	assert.Error(t, err)
}
