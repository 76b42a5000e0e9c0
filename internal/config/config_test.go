package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, []string{"ATIS", "SNIPS"}, cfg.Datasets)
	assert.Equal(t, 3, cfg.Segmenter.PrevMinWords)
	assert.Equal(t, 5, cfg.Segmenter.PieceMinWords)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, `
data_dir: /data
save_dir: /out
datasets: [SNIPS]
segmenter:
  piece_min_words: 4
paraphrase:
  retry_delay: 2s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, []string{"SNIPS"}, cfg.Datasets)
	assert.Equal(t, 4, cfg.Segmenter.PieceMinWords)
	assert.Equal(t, 3, cfg.Segmenter.PrevMinWords)
	assert.Equal(t, 2*time.Second, cfg.Paraphrase.RetryDelay)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownField(t *testing.T) {
	_, err := Load(writeFile(t, "data_dirr: /data\n"))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APIBLEND_SAVE_DIR", "/env-out")
	t.Setenv("APIBLEND_SPLITS", "test,dev")
	t.Setenv("APIBLEND_SEGMENTER_PREV_MIN_WORDS", "2")
	t.Setenv("APIBLEND_OUTPUT_CATALOG", "false")

	cfg, err := Load(writeFile(t, "save_dir: /yaml-out\n"))
	require.NoError(t, err)

	assert.Equal(t, "/env-out", cfg.SaveDir)
	assert.Equal(t, []string{"test", "dev"}, cfg.Splits)
	assert.Equal(t, 2, cfg.Segmenter.PrevMinWords)
	assert.False(t, cfg.Output.Catalog)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data_dir is required")

	cfg.DataDir, cfg.SaveDir = "/d", "/s"
	require.NoError(t, cfg.Validate())

	cfg.Parser.Kind = "conllu"
	assert.ErrorContains(t, cfg.Validate(), "parser.conllu")

	cfg.Parser.Kind = "spacy"
	assert.ErrorContains(t, cfg.Validate(), "unknown parser kind")

	cfg.Parser.Kind = "heuristic"
	cfg.Parser.SentenceModel = "model.onnx"
	assert.ErrorContains(t, cfg.Validate(), "set together")
}

func TestValidateTopV2(t *testing.T) {
	t.Setenv("APIBLEND_TOPV2_DOMAINS", "weather,alarm")

	cfg, err := Load(writeFile(t, "data_dir: /d\nsave_dir: /s\ntopv2:\n  splits: [eval]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"weather", "alarm"}, cfg.TopV2.Domains)
	assert.Equal(t, []string{"eval"}, cfg.TopV2.Splits)
	assert.ErrorContains(t, cfg.ValidateTopV2(), "topv2.parses is required")

	cfg.TopV2.Parses = "parses.jsonl"
	assert.NoError(t, cfg.ValidateTopV2())

	cfg.TopV2.Domains = nil
	assert.ErrorContains(t, cfg.ValidateTopV2(), "domain")
}
