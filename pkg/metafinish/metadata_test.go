package metafinish

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPDFDateFormatsOffset(t *testing.T) {
	loc := time.FixedZone("", -5*3600-30*60) // -05'30'
	got := pdfDate(time.Date(2026, 3, 4, 9, 8, 7, 0, loc))
	assert.Equal(t, "D:20260304090807-05'30'", got)
}

func TestPDFDateUTCIsPositiveZero(t *testing.T) {
	got := pdfDate(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.Equal(t, "D:20260102030405+00'00'", got)
}

func TestMergePropertiesAppliesOverridesAndStampsCreator(t *testing.T) {
	now = func() time.Time { return time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC) }
	defer func() { now = time.Now }()

	current := map[string]string{"Title": "Old Title", "Author": "Someone"}
	opts := Options{
		ProgramName: "textgraft", ProgramVersion: "1.0",
		EngineName: "tesseract", EngineVersion: "5.3",
		Overrides: Overrides{Title: "New Title"},
	}

	out := mergeProperties(current, opts)
	assert.Equal(t, "New Title", out["Title"])
	assert.Equal(t, "Someone", out["Author"])
	assert.Equal(t, "textgraft 1.0 / tesseract 5.3", out["Creator"])
	assert.Equal(t, out["Creator"], out["Producer"])
	assert.Equal(t, "D:20260731120000+00'00'", out["ModDate"])
	assert.Equal(t, out["ModDate"], out["CreationDate"])
}

func TestMergePropertiesKeepsExistingCreationDate(t *testing.T) {
	current := map[string]string{"CreationDate": "D:20200101000000+00'00'"}
	out := mergeProperties(current, Options{})
	assert.Equal(t, "D:20200101000000+00'00'", out["CreationDate"])
}

func TestStripNULRemovesEmbeddedNULs(t *testing.T) {
	assert.Equal(t, "clean", stripNUL("cle\x00an"))
}

func TestValidateMetadataSkippedForPlainPDF(t *testing.T) {
	props := map[string]string{"Title": string(rune(0xE000))} // private-use
	assert.NoError(t, validateMetadata(props, OutputPDF))
}

func TestValidateMetadataRejectsPrivateUseForPDFA(t *testing.T) {
	props := map[string]string{"Title": string(rune(0xE000))}
	err := validateMetadata(props, OutputPDFA2)
	assert.Error(t, err)
}

func TestValidateMetadataRejectsSupplementaryPlaneForPDFA(t *testing.T) {
	props := map[string]string{"Title": string(rune(0x1F600))}
	err := validateMetadata(props, OutputPDFA1)
	assert.Error(t, err)
}

func TestValidateMetadataAllowsPlainBMPTextForPDFA(t *testing.T) {
	props := map[string]string{"Title": "Ordinary Title"}
	assert.NoError(t, validateMetadata(props, OutputPDFA3))
}

func TestConformancePart(t *testing.T) {
	assert.Equal(t, "1", conformancePart(OutputPDFA1))
	assert.Equal(t, "2", conformancePart(OutputPDFA2))
	assert.Equal(t, "3", conformancePart(OutputPDFA3))
}
