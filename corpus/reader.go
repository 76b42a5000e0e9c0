// Package corpus reads flat per-token slot annotation files.
//
// A file holds one "token tag" pair per line. A line with a single field
// closes the current example and carries its intent labels, joined by '#'
// for multi-intent utterances and optionally prefixed by a domain
// ("domain/intent"):
//
//	book O
//	a O
//	flight O
//	to O
//	boston B-toloc.city_name
//	and O
//	find O
//	a O
//	hotel O
//	atis/atis_flight#atis_hotel
package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// IntentSeparator joins the intent labels of a multi-intent example.
const IntentSeparator = "#"

var (
	// ErrMalformedLine indicates a line with an unexpected field count.
	ErrMalformedLine = errors.New("corpus: malformed line")

	// ErrUnterminated indicates the input ended inside an example.
	ErrUnterminated = errors.New("corpus: unterminated example")
)

// Example is one annotated utterance.
type Example struct {
	Tokens  []string
	Tags    []string
	Intents []string
}

// Text returns the utterance with tokens joined by single spaces.
func (e Example) Text() string {
	return strings.Join(e.Tokens, " ")
}

// K returns the number of intents, which is the number of clauses the
// utterance must be split into.
func (e Example) K() int {
	return len(e.Intents)
}

// Reader decodes examples from an annotation stream.
type Reader struct {
	scanner *bufio.Scanner
	logger  *slog.Logger
	line    int

	tokens []string
	tags   []string

	malformed    int
	unterminated bool
}

// NewReader returns a Reader over r. A nil logger discards diagnostics.
func NewReader(r io.Reader, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{scanner: sc, logger: logger}
}

// Read returns the next example. It returns io.EOF once the stream is
// exhausted. Malformed lines are skipped and counted, never returned.
func (r *Reader) Read() (Example, error) {
	for r.scanner.Scan() {
		r.line++
		fields := strings.Fields(r.scanner.Text())

		switch len(fields) {
		case 0:
			continue
		case 1:
			ex := Example{
				Tokens:  r.tokens,
				Tags:    r.tags,
				Intents: ParseIntents(fields[0]),
			}
			r.tokens, r.tags = nil, nil
			return ex, nil
		case 2:
			r.tokens = append(r.tokens, norm.NFC.String(fields[0]))
			r.tags = append(r.tags, fields[1])
		default:
			r.malformed++
			r.logger.Debug("skipping line",
				"line", r.line,
				"fields", len(fields),
				"error", ErrMalformedLine)
		}
	}

	if err := r.scanner.Err(); err != nil {
		return Example{}, fmt.Errorf("scanning line %d: %w", r.line+1, err)
	}

	if len(r.tokens) > 0 && !r.unterminated {
		r.unterminated = true
		r.logger.Debug("dropping trailing tokens",
			"tokens", len(r.tokens),
			"error", ErrUnterminated)
	}
	return Example{}, io.EOF
}

// ReadAll reads every remaining example in file order.
func (r *Reader) ReadAll() ([]Example, error) {
	var out []Example
	for {
		ex, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, ex)
	}
}

// Malformed returns the number of lines skipped so far.
func (r *Reader) Malformed() int { return r.malformed }

// Unterminated reports whether the stream ended with tokens that were never
// closed by an intent line.
func (r *Reader) Unterminated() bool { return r.unterminated }

// ParseIntents splits a terminator field into its intent labels. A
// "domain/intent" label keeps only the part after the first '/'.
func ParseIntents(field string) []string {
	if _, after, ok := strings.Cut(field, "/"); ok {
		field, _, _ = strings.Cut(after, "/")
	}
	return strings.Split(field, IntentSeparator)
}
