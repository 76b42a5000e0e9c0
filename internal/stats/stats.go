// Package stats accumulates per-split conversion statistics.
//
// An Accumulator is created per run and threaded through the driver. Every
// update is mirrored to Prometheus counters on the accumulator's own
// registry so a run can be exported as a node-exporter textfile.
package stats

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Split holds the counts for one dataset split.
type Split struct {
	Dataset string
	Split   string

	Examples       int
	Written        int
	Dropped        int
	MalformedLines int
	Unterminated   int
	Mismatches     int
	DroppedCalls   int

	// IntentHistogram maps the number of intents per example to a count.
	IntentHistogram map[int]int
	// Strategies maps the winning segmentation strategy to a count.
	Strategies map[string]int
	// DropReasons maps a short error description to a count.
	DropReasons map[string]int
}

func (s *Split) clone() Split {
	c := *s
	c.IntentHistogram = cloneMap(s.IntentHistogram)
	c.Strategies = cloneMap(s.Strategies)
	c.DropReasons = cloneMap(s.DropReasons)
	return c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type metrics struct {
	examples   *prometheus.CounterVec
	written    *prometheus.CounterVec
	dropped    *prometheus.CounterVec
	malformed  *prometheus.CounterVec
	mismatches *prometheus.CounterVec
	calls      *prometheus.CounterVec
	strategies *prometheus.CounterVec
	intents    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	labels := []string{"dataset", "split"}
	counter := func(name, help string, extra ...string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apiblend",
			Name:      name,
			Help:      help,
		}, append(slices.Clone(labels), extra...))
	}
	return &metrics{
		examples:   counter("examples_total", "Examples read."),
		written:    counter("records_written_total", "Records converted and written."),
		dropped:    counter("examples_dropped_total", "Examples dropped after a conversion error."),
		malformed:  counter("malformed_lines_total", "Annotation lines skipped."),
		mismatches: counter("segmentation_mismatches_total", "Examples whose clause count differs from the intent count."),
		calls:      counter("dropped_calls_total", "Clauses or intents left unpaired."),
		strategies: counter("strategy_total", "Winning segmentation strategy.", "strategy"),
		intents:    counter("intents_per_example_total", "Examples by number of intents.", "intents"),
	}
}

// Accumulator collects statistics for every split of a run.
type Accumulator struct {
	mu       sync.Mutex
	splits   map[string]*Split
	registry *prometheus.Registry
	metrics  *metrics
}

// New returns an empty Accumulator with its own Prometheus registry.
func New() *Accumulator {
	reg := prometheus.NewRegistry()
	return &Accumulator{
		splits:   make(map[string]*Split),
		registry: reg,
		metrics:  newMetrics(reg),
	}
}

// Registry returns the registry holding the mirrored counters.
func (a *Accumulator) Registry() *prometheus.Registry { return a.registry }

// Recorder updates one split. It is not safe for concurrent use; each
// split is processed by a single goroutine.
type Recorder struct {
	split  *Split
	mu     *sync.Mutex
	m      *metrics
	labels prometheus.Labels
}

// Begin returns the recorder for dataset/split, creating it on first use.
func (a *Accumulator) Begin(dataset, split string) *Recorder {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := dataset + "/" + split
	s, ok := a.splits[key]
	if !ok {
		s = &Split{
			Dataset:         dataset,
			Split:           split,
			IntentHistogram: make(map[int]int),
			Strategies:      make(map[string]int),
			DropReasons:     make(map[string]int),
		}
		a.splits[key] = s
	}
	return &Recorder{
		split:  s,
		mu:     &a.mu,
		m:      a.metrics,
		labels: prometheus.Labels{"dataset": dataset, "split": split},
	}
}

func (r *Recorder) update(f func(s *Split)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f(r.split)
}

// Example records one example read with k intents.
func (r *Recorder) Example(k int) {
	r.update(func(s *Split) {
		s.Examples++
		s.IntentHistogram[k]++
	})
	r.m.examples.With(r.labels).Inc()
	r.m.intents.MustCurryWith(r.labels).WithLabelValues(strconv.Itoa(k)).Inc()
}

// Converted records a converted example.
func (r *Recorder) Converted(strategy string, matched bool, droppedCalls int) {
	r.update(func(s *Split) {
		s.Written++
		s.Strategies[strategy]++
		if !matched {
			s.Mismatches++
		}
		s.DroppedCalls += droppedCalls
	})
	r.m.written.With(r.labels).Inc()
	r.m.strategies.MustCurryWith(r.labels).WithLabelValues(strategy).Inc()
	if !matched {
		r.m.mismatches.With(r.labels).Inc()
	}
	r.m.calls.With(r.labels).Add(float64(droppedCalls))
}

// Dropped records an example skipped because of err.
func (r *Recorder) Dropped(err error) {
	reason := Reason(err)
	r.update(func(s *Split) {
		s.Dropped++
		s.DropReasons[reason]++
	})
	r.m.dropped.With(r.labels).Inc()
}

// Malformed records n skipped annotation lines and whether the input ended
// inside an example.
func (r *Recorder) Malformed(n int, unterminated bool) {
	r.update(func(s *Split) {
		s.MalformedLines += n
		if unterminated {
			s.Unterminated++
		}
	})
	r.m.malformed.With(r.labels).Add(float64(n))
}

// Snapshot returns a copy of the split's counts.
func (r *Recorder) Snapshot() Split {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.split.clone()
}

// Report returns copies of every split, ordered by dataset then split name
// in the order given by splitOrder. Unknown split names sort last.
func (a *Accumulator) Report(splitOrder ...string) []Split {
	a.mu.Lock()
	out := make([]Split, 0, len(a.splits))
	for _, s := range a.splits {
		out = append(out, s.clone())
	}
	a.mu.Unlock()

	rank := func(name string) int {
		if i := slices.Index(splitOrder, name); i >= 0 {
			return i
		}
		return len(splitOrder)
	}
	slices.SortFunc(out, func(x, y Split) int {
		if c := strings.Compare(x.Dataset, y.Dataset); c != 0 {
			return c
		}
		if c := rank(x.Split) - rank(y.Split); c != 0 {
			return c
		}
		return strings.Compare(x.Split, y.Split)
	})
	return out
}

// WriteTextfile writes the mirrored counters in Prometheus text format.
func (a *Accumulator) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// Reason reduces an error to the innermost message of its wrap chain,
// which is stable across examples.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
