package stats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counts(t *testing.T) {
	acc := New()
	rec := acc.Begin("ATIS", "train")

	rec.Example(1)
	rec.Converted("whole", true, 0)
	rec.Example(2)
	rec.Converted("dependency+merge", false, 1)
	rec.Example(2)
	rec.Dropped(fmt.Errorf("clause 0: %w", errors.New("slot: malformed tag")))
	rec.Malformed(3, true)

	s := rec.Snapshot()
	assert.Equal(t, 3, s.Examples)
	assert.Equal(t, 2, s.Written)
	assert.Equal(t, 1, s.Dropped)
	assert.Equal(t, 1, s.Mismatches)
	assert.Equal(t, 1, s.DroppedCalls)
	assert.Equal(t, 3, s.MalformedLines)
	assert.Equal(t, 1, s.Unterminated)
	assert.Equal(t, map[int]int{1: 1, 2: 2}, s.IntentHistogram)
	assert.Equal(t, map[string]int{"whole": 1, "dependency+merge": 1}, s.Strategies)
	assert.Equal(t, map[string]int{"slot: malformed tag": 1}, s.DropReasons)

	labels := prometheus.Labels{"dataset": "ATIS", "split": "train"}
	assert.Equal(t, 3.0, testutil.ToFloat64(acc.metrics.examples.With(labels)))
	assert.Equal(t, 1.0, testutil.ToFloat64(acc.metrics.mismatches.With(labels)))
	assert.Equal(t, 2.0, testutil.ToFloat64(acc.metrics.intents.MustCurryWith(labels).WithLabelValues("2")))
}

func TestAccumulator_ReportOrder(t *testing.T) {
	acc := New()
	for _, ds := range []string{"SNIPS", "ATIS"} {
		for _, sp := range []string{"test", "extra", "train", "dev"} {
			acc.Begin(ds, sp).Example(1)
		}
	}

	var got []string
	for _, s := range acc.Report("train", "dev", "test") {
		got = append(got, s.Dataset+"/"+s.Split)
	}
	assert.Equal(t, []string{
		"ATIS/train", "ATIS/dev", "ATIS/test", "ATIS/extra",
		"SNIPS/train", "SNIPS/dev", "SNIPS/test", "SNIPS/extra",
	}, got)
}

func TestAccumulator_SnapshotIsCopy(t *testing.T) {
	acc := New()
	rec := acc.Begin("ATIS", "dev")
	rec.Example(1)

	s := rec.Snapshot()
	s.IntentHistogram[1] = 99
	assert.Equal(t, 1, rec.Snapshot().IntentHistogram[1])
}

func TestAccumulator_Concurrent(t *testing.T) {
	acc := New()
	var wg sync.WaitGroup
	for _, sp := range []string{"train", "dev", "test"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := acc.Begin("ATIS", sp)
			for range 100 {
				rec.Example(2)
				rec.Converted("delimiter", true, 0)
			}
		}()
	}
	wg.Wait()

	for _, s := range acc.Report() {
		assert.Equal(t, 100, s.Written)
	}
}

func TestAccumulator_WriteTextfile(t *testing.T) {
	acc := New()
	acc.Begin("SNIPS", "test").Example(1)

	path := filepath.Join(t.TempDir(), "apiblend.prom")
	require.NoError(t, acc.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `apiblend_examples_total{dataset="SNIPS",split="test"} 1`))
}

func TestReason(t *testing.T) {
	base := errors.New("slot: malformed tag")
	assert.Equal(t, "slot: malformed tag", Reason(fmt.Errorf("a: %w", fmt.Errorf("b: %w", base))))
	assert.Equal(t, "", Reason(nil))
}
