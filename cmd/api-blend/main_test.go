package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/IBM/API-BLEND/internal/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSegmentCommand(t *testing.T) {
	out, err := execute(t, "segment", "--log-level", "error",
		"--intents", "PlayMusic#GetWeather",
		"play some jazz and what is the weather like")
	require.NoError(t, err)
	assert.Contains(t, out, "2 clause(s) via delimiter")
	assert.Contains(t, out, "play some jazz")
	assert.Contains(t, out, "GetWeather")
}

func TestSeqCommand(t *testing.T) {
	data := t.TempDir()
	save := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(filepath.Join(data, "SNIPS"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "SNIPS", "test.txt"),
		[]byte("play O\njazz B-genre\nPlayMusic\n"), 0o644))

	db := filepath.Join(t.TempDir(), "runs.db")
	metrics := filepath.Join(t.TempDir(), "apiblend.prom")
	out, err := execute(t, "seq", "--log-level", "error",
		"--data-dir", data, "--save-dir", save,
		"--datasets", "SNIPS", "--splits", "test",
		"--sqlite", db, "--metrics-file", metrics)
	require.NoError(t, err)
	assert.Contains(t, out, "Conversion summary")

	assert.FileExists(t, filepath.Join(save, "SeqSNIPS", "test.json"))
	assert.FileExists(t, filepath.Join(save, "SeqSNIPS", "api_spec.json"))
	assert.FileExists(t, db)

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `apiblend_records_written_total{dataset="SNIPS",split="test"} 1`)

	out, err = execute(t, "catalog", "--save-dir", save, "--datasets", "SNIPS")
	require.NoError(t, err)
	assert.Contains(t, out, "PlayMusic(genre)")
}

func TestSeqCommand_StoresLoggedRunID(t *testing.T) {
	data := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(data, "SNIPS"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "SNIPS", "test.txt"),
		[]byte("play O\njazz B-genre\nPlayMusic\n"), 0o644))

	db := filepath.Join(t.TempDir(), "runs.db")
	logFile := filepath.Join(t.TempDir(), "run.log")
	_, err := execute(t, "seq", "--log-level", "error", "--log-file", logFile,
		"--data-dir", data, "--save-dir", filepath.Join(t.TempDir(), "out"),
		"--datasets", "SNIPS", "--splits", "test", "--sqlite", db)
	require.NoError(t, err)

	logs, err := os.ReadFile(logFile)
	require.NoError(t, err)
	first, _, _ := strings.Cut(string(logs), "\n")
	runID := gjson.Get(first, "run_id").String()
	require.NotEmpty(t, runID)

	s, err := store.Open(db)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	run, err := s.GetRun(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, "seq", run.Command)
	assert.NotNil(t, run.FinishedAt)
}

func TestSeqCommand_MissingInput(t *testing.T) {
	_, err := execute(t, "seq", "--log-level", "error",
		"--data-dir", t.TempDir(), "--save-dir", t.TempDir())
	assert.ErrorContains(t, err, "missing input")
}

func TestSentencesCommand(t *testing.T) {
	data := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(data, "ATIS"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "ATIS", "train.txt"),
		[]byte("fly O\nhome. O\nbook O\nhotel O\natis_flight#atis_hotel\nsolo O\natis_flight\n"), 0o644))

	out, err := execute(t, "sentences", "--data-dir", data, "--datasets", "ATIS", "--splits", "train")
	require.NoError(t, err)
	assert.Equal(t, "fly home.\nbook hotel\n", out)
}

func TestTopV2Command(t *testing.T) {
	data := t.TempDir()
	save := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(filepath.Join(data, "weather_test.tsv"),
		[]byte("domain\tutterance\tsemantic_parse\nweather\tweather in boston\t[IN:GET_WEATHER [SL:LOCATION boston ] ]\n"), 0o644))
	parses := filepath.Join(t.TempDir(), "parses.jsonl")
	require.NoError(t, os.WriteFile(parses, []byte(`{"annotation": "[IN:GET_WEATHER [SL:LOCATION boston ] ]", "frames": [{"intent": "GET_WEATHER", "slots": ["LOCATION"]}], "slots": [{"name": "LOCATION", "value": "boston"}]}`+"\n"), 0o644))

	db := filepath.Join(t.TempDir(), "runs.db")
	out, err := execute(t, "topv2", "--log-level", "error",
		"--data-dir", data, "--save-dir", save, "--parses", parses,
		"--domains", "weather", "--splits", "test", "--sqlite", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Conversion summary")
	assert.Contains(t, out, "ontology")

	examples, err := os.ReadFile(filepath.Join(save, "SeqTopV2", "weather_test.json"))
	require.NoError(t, err)
	assert.Equal(t, `GET_WEATHER(LOCATION = "boston")`, gjson.GetBytes(examples, "0.apis.0").String())

	out, err = execute(t, "catalog", "--save-dir", save, "--datasets", "TopV2")
	require.NoError(t, err)
	assert.Contains(t, out, "GET_WEATHER(LOCATION)")
}

func TestTopV2Command_RequiresParses(t *testing.T) {
	_, err := execute(t, "topv2", "--data-dir", t.TempDir(), "--save-dir", t.TempDir())
	assert.ErrorContains(t, err, "topv2.parses is required")
}
