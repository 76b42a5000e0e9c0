package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IBM/API-BLEND/api"
	"github.com/IBM/API-BLEND/internal/stats"
	"github.com/IBM/API-BLEND/slot"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	id, err := s.BeginRun(ctx, "", "seq")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	run, err := s.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "seq", run.Command)
	assert.Nil(t, run.FinishedAt)

	require.NoError(t, s.FinishRun(ctx, id))
	run, err = s.GetRun(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, run.FinishedAt)

	assert.ErrorIs(t, s.FinishRun(ctx, "missing"), ErrUnknownRun)

	given, err := s.BeginRun(ctx, "7f1c0a52-run", "sgd")
	require.NoError(t, err)
	assert.Equal(t, "7f1c0a52-run", given)
	run, err = s.GetRun(ctx, given)
	require.NoError(t, err)
	assert.Equal(t, "sgd", run.Command)

	_, err = s.BeginRun(ctx, given, "sgd")
	assert.Error(t, err, "run IDs are unique")
	_, err = s.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownRun)
}

func TestRecords_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	id, err := s.BeginRun(ctx, "", "seq")
	require.NoError(t, err)

	p := slot.NewParameterSet()
	p.Add("city", "boston")
	p.Add("date", "monday")

	records := []Record{
		{RunID: id, Dataset: "ATIS", Split: "test", Position: 1, Text: "second",
			APIs: []api.Call{{API: "atis_airfare", Parameters: slot.NewParameterSet()}}, Strategy: "whole", Matched: true},
		{RunID: id, Dataset: "ATIS", Split: "test", Position: 0, Text: "first",
			APIs: []api.Call{{API: "atis_flight", Parameters: p}}, Strategy: "delimiter", Matched: true},
		{RunID: id, Dataset: "ATIS", Split: "dev", Position: 0, Text: "other split"},
	}
	require.NoError(t, s.SaveRecords(ctx, records))
	require.NoError(t, s.SaveRecords(ctx, nil))

	got, err := s.Records(ctx, id, "ATIS", "test")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, "second", got[1].Text)

	require.Len(t, got[0].APIs, 1)
	assert.Equal(t, "atis_flight", got[0].APIs[0].API)
	assert.Equal(t, []string{"city", "date"}, got[0].APIs[0].Parameters.Names())
	assert.Equal(t, []string{"monday"}, got[0].APIs[0].Parameters.Get("date"))
}

func TestSaveStats_Upsert(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	id, err := s.BeginRun(ctx, "", "seq")
	require.NoError(t, err)

	st := stats.Split{
		Dataset:         "SNIPS",
		Split:           "train",
		Examples:        3,
		Written:         2,
		Dropped:         1,
		IntentHistogram: map[int]int{1: 2, 2: 1},
		Strategies:      map[string]int{"whole": 2},
		DropReasons:     map[string]int{"slot: malformed tag": 1},
	}
	require.NoError(t, s.SaveStats(ctx, id, st))

	st.Written = 3
	require.NoError(t, s.SaveStats(ctx, id, st))

	rows, err := s.Stats(ctx, id)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].Written)
	assert.Equal(t, map[int]int{1: 2, 2: 1}, rows[0].IntentHistogram)
	assert.Equal(t, 1, rows[0].DropReasons["slot: malformed tag"])
}
