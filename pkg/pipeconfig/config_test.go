package pipeconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textgraft/textgraft/pkg/metafinish"
	"github.com/textgraft/textgraft/pkg/pdfmodel"
)

func TestValidateRejectsMultipleModes(t *testing.T) {
	cfg := Defaults()
	cfg.ForceOCR = true
	cfg.SkipText = true
	assert.Error(t, cfg.Validate())
}

func TestValidateAllowsSingleMode(t *testing.T) {
	cfg := Defaults()
	cfg.RedoOCR = true
	assert.NoError(t, cfg.Validate())
}

func TestModeMapsFlagsToPageMode(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, pdfmodel.ModeNormal, cfg.Mode())
	cfg.ForceOCR = true
	assert.Equal(t, pdfmodel.ModeForceOCR, cfg.Mode())
}

func TestLanguageListSplitsOnPlus(t *testing.T) {
	cfg := Defaults()
	cfg.Languages = "eng+deu+fra"
	assert.Equal(t, []string{"eng", "deu", "fra"}, cfg.LanguageList())
}

func TestTessConfigsListSplitsOnComma(t *testing.T) {
	cfg := Defaults()
	cfg.TessConfigs = "hocr,txt"
	assert.Equal(t, []string{"hocr", "txt"}, cfg.TessConfigsList())
}

func TestTessConfigsListEmptyIsNil(t *testing.T) {
	cfg := Defaults()
	assert.Nil(t, cfg.TessConfigsList())
}

func TestUseDocAIRequiresAllThreeFields(t *testing.T) {
	cfg := &PipelineConfig{}
	assert.False(t, cfg.UseDocAI())
	cfg.DocAIProjectID = "proj"
	cfg.DocAILocation = "us"
	assert.False(t, cfg.UseDocAI())
	cfg.DocAIProcessorID = "abc123"
	assert.True(t, cfg.UseDocAI())
}

func TestParseOutputTypeKnownValues(t *testing.T) {
	cases := map[string]metafinish.OutputType{
		"":       metafinish.OutputPDFA2,
		"pdfa":   metafinish.OutputPDFA2,
		"pdfa-1": metafinish.OutputPDFA1,
		"pdfa-3": metafinish.OutputPDFA3,
		"pdf":    metafinish.OutputPDF,
		"none":   metafinish.OutputNone,
	}
	for in, want := range cases {
		got, err := ParseOutputType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseOutputTypeRejectsUnknown(t *testing.T) {
	_, err := ParseOutputType("bogus")
	assert.Error(t, err)
}

func TestParsePageRangesRejectsBareDash(t *testing.T) {
	_, err := ParsePageRanges("-")
	assert.Error(t, err)
}

func TestParsePageRangesParsesMixedList(t *testing.T) {
	ranges, err := ParsePageRanges("1-3,5,7-")
	require.NoError(t, err)
	require.Len(t, ranges, 3)
	assert.Equal(t, PageRange{Lo: 1, Hi: 3}, ranges[0])
	assert.Equal(t, PageRange{Lo: 5, Hi: 5}, ranges[1])
	assert.Equal(t, PageRange{Lo: 7, OpenEnded: true}, ranges[2])
}

func TestParsePageRangesRejectsMalformed(t *testing.T) {
	_, err := ParsePageRanges("abc")
	assert.Error(t, err)
}

func TestExpandOpenEndedRangeReachesPageCount(t *testing.T) {
	ranges, err := ParsePageRanges("7-")
	require.NoError(t, err)
	set := Expand(ranges, 10)
	assert.False(t, set[6])
	assert.True(t, set[7])
	assert.True(t, set[10])
	assert.False(t, set[11])
}

func TestExpandSwapsReversedRange(t *testing.T) {
	set := Expand([]PageRange{{Lo: 5, Hi: 2}}, 10)
	for p := 2; p <= 5; p++ {
		assert.True(t, set[p])
	}
}

func TestExpandNilRangesMeansAllPages(t *testing.T) {
	assert.Nil(t, Expand(nil, 10))
}

func TestLoadFileOverlaysYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("force_ocr: true\nlanguages: deu\n"), 0o644))

	cfg := Defaults()
	require.NoError(t, LoadFile(cfg, path))
	assert.True(t, cfg.ForceOCR)
	assert.Equal(t, "deu", cfg.Languages)
}

func TestRegisterFlagsUsesFileValueAsDefault(t *testing.T) {
	cfg := Defaults()
	cfg.Languages = "deu"
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, cfg)
	require.NoError(t, fs.Parse(nil))
	assert.Equal(t, "deu", cfg.Languages)
}

func TestRegisterFlagsCommandLineOverridesFile(t *testing.T) {
	cfg := Defaults()
	cfg.Languages = "deu"
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, cfg)
	require.NoError(t, fs.Parse([]string{"--language", "fra"}))
	assert.Equal(t, "fra", cfg.Languages)
}
