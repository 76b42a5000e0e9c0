// Package topv2 converts TOPv2 task-oriented parses into sequenced API
// calls.
//
// The bracketed semantic parse of each utterance is analysed by a Parser
// into frames (one per intent, with the slot names it owns) and the slot
// values in the order their spans close. The Converter turns every supported
// frame into a call such as
//
//	GET_WEATHER(LOCATION = "boston", DATE_TIME = "tomorrow")
//
// and orders calls so nested intents come before the intents that consume
// them.
package topv2

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/IBM/API-BLEND/api"
	"github.com/IBM/API-BLEND/slot"
)

// UnsupportedMarker marks intents outside the TOPv2 ontology. Frames whose
// intent contains it produce no call.
const UnsupportedMarker = "UNSUPPORTED_"

var (
	// ErrNoParse indicates the parser has no analysis for an annotation.
	ErrNoParse = errors.New("topv2: no parse for annotation")

	// ErrMissingSlot indicates a frame names a slot with no value left to
	// assign. The example is dropped.
	ErrMissingSlot = errors.New("topv2: slot has no value")

	// ErrUnsupported indicates every intent of an example is unsupported.
	ErrUnsupported = errors.New("topv2: no supported intent")
)

// Domains are the TOPv2 domains, in conversion order.
var Domains = []string{"navigation", "alarm", "event", "messaging", "music", "reminder", "timer", "weather"}

// Splits are the TOPv2 split names.
var Splits = []string{"train", "eval", "test"}

// Frame is one intent of a parse and the slot names directly under it, in
// first-seen order.
type Frame struct {
	Intent string
	Slots  []string
}

// SlotValue is the text of one slot span. When the span holds a nested
// intent, Value is that intent's name.
type SlotValue struct {
	Name  string
	Value string
}

// Parse is the analysis of one bracketed annotation.
type Parse struct {
	// Frames in the order their intents open.
	Frames []Frame
	// Slots in the order their spans close.
	Slots []SlotValue
}

// Parser analyses a bracketed TOPv2 annotation.
type Parser interface {
	Parse(ctx context.Context, annotation string) (Parse, error)
}

// Example is one converted utterance.
type Example struct {
	Input string   `json:"input"`
	APIs  []string `json:"apis"`
}

// Result is the conversion of one row.
type Result struct {
	Example Example
	Calls   []api.Call
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// Converter maps TOPv2 rows to API calls.
type Converter struct {
	parser Parser
	logger *slog.Logger
}

// New returns a Converter using p to analyse annotations.
func New(p Parser, opts ...Option) *Converter {
	c := &Converter{parser: p, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert builds the calls of row. Each frame takes, for every slot it
// names, the earliest unused value of that slot.
func (c *Converter) Convert(ctx context.Context, row Row) (Result, error) {
	parse, err := c.parser.Parse(ctx, row.Annotation)
	if err != nil {
		return Result{}, fmt.Errorf("parsing annotation: %w", err)
	}

	values := make(map[string][]string)
	for _, s := range parse.Slots {
		values[s.Name] = append(values[s.Name], s.Value)
	}

	type placed struct {
		call   api.Call
		offset int
	}
	var calls []placed
	for _, f := range mergeFrames(parse.Frames) {
		if strings.Contains(f.Intent, UnsupportedMarker) {
			c.logger.Debug("skipping unsupported intent", "intent", f.Intent)
			continue
		}
		params := slot.NewParameterSet()
		for _, name := range f.Slots {
			queue := values[name]
			if len(queue) == 0 {
				return Result{}, fmt.Errorf("%w: %s in %s", ErrMissingSlot, name, f.Intent)
			}
			params.Add(name, queue[0])
			values[name] = queue[1:]
		}
		calls = append(calls, placed{
			call:   api.Call{API: f.Intent, Parameters: params},
			offset: intentOffset(row.Annotation, f.Intent),
		})
	}
	if len(calls) == 0 {
		return Result{}, ErrUnsupported
	}

	// Innermost intents open last and run first.
	slices.SortStableFunc(calls, func(a, b placed) int { return cmp.Compare(b.offset, a.offset) })

	res := Result{Example: Example{Input: row.Utterance}}
	for _, p := range calls {
		res.Calls = append(res.Calls, p.call)
		res.Example.APIs = append(res.Example.APIs, FormatCall(p.call))
	}
	return res, nil
}

// FormatCall renders call as Intent(slot = "value", ...).
func FormatCall(call api.Call) string {
	args := lo.FlatMap(call.Parameters.Names(), func(name string, _ int) []string {
		return lo.Map(call.Parameters.Get(name), func(v string, _ int) string {
			return fmt.Sprintf(`%s = "%s"`, name, v)
		})
	})
	return call.API + "(" + strings.Join(args, ", ") + ")"
}

// mergeFrames folds repeated intents into their first frame.
func mergeFrames(frames []Frame) []Frame {
	var out []Frame
	index := make(map[string]int)
	for _, f := range frames {
		i, ok := index[f.Intent]
		if !ok {
			index[f.Intent] = len(out)
			out = append(out, Frame{Intent: f.Intent, Slots: lo.Uniq(f.Slots)})
			continue
		}
		out[i].Slots = append(out[i].Slots, lo.Without(lo.Uniq(f.Slots), out[i].Slots...)...)
	}
	return out
}

// intentOffset returns the byte offset of the first "IN:<intent>" label in
// annotation, or -1.
func intentOffset(annotation, intent string) int {
	label := "IN:" + intent
	for from := 0; ; {
		i := strings.Index(annotation[from:], label)
		if i < 0 {
			return -1
		}
		end := from + i + len(label)
		if end == len(annotation) || annotation[end] == ' ' || annotation[end] == ']' {
			return from + i
		}
		from = end
	}
}
