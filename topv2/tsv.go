package topv2

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Row is one line of a TOPv2 split file.
type Row struct {
	Domain     string
	Utterance  string
	Annotation string
}

// Reader streams rows from a tab-separated TOPv2 file whose first line is
// a header. Rows with fewer than three columns are counted and skipped.
type Reader struct {
	r         *csv.Reader
	logger    *slog.Logger
	header    bool
	malformed int
}

// NewReader returns a Reader over r. A nil logger discards messages.
func NewReader(r io.Reader, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return &Reader{r: cr, logger: logger}
}

// Read returns the next row, or io.EOF.
func (r *Reader) Read() (Row, error) {
	for {
		rec, err := r.r.Read()
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				r.malformed++
				r.logger.Debug("skipping row", "line", perr.Line, "error", perr.Err)
				continue
			}
			return Row{}, fmt.Errorf("topv2: reading rows: %w", err)
		}
		if !r.header {
			r.header = true
			continue
		}
		if len(rec) < 3 {
			r.malformed++
			line, _ := r.r.FieldPos(0)
			r.logger.Debug("skipping row", "line", line, "fields", len(rec))
			continue
		}
		return Row{
			Domain:     strings.TrimSpace(rec[0]),
			Utterance:  rec[1],
			Annotation: rec[2],
		}, nil
	}
}

// Malformed returns the number of rows skipped so far.
func (r *Reader) Malformed() int { return r.malformed }
