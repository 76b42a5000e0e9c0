package topv2

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

// Parses serves analyses precomputed by an external TOPv2 parser, stored as
// JSON lines:
//
//	{"annotation": "[IN:GET_WEATHER [SL:LOCATION boston ] ]",
//	 "frames": [{"intent": "GET_WEATHER", "slots": ["LOCATION"]}],
//	 "slots": [{"name": "LOCATION", "value": "boston"}]}
//
// Annotations are looked up with whitespace collapsed. Misses go to
// Fallback when it is set.
type Parses struct {
	parses   map[string]Parse
	Fallback Parser
}

// LoadParses reads the parse file at path.
func LoadParses(path string) (*Parses, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening parses: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadParses(f)
}

// ReadParses reads JSON-lines parses from r. Blank lines are ignored.
func ReadParses(r io.Reader) (*Parses, error) {
	p := &Parses{parses: make(map[string]Parse)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !gjson.Valid(line) {
			return nil, fmt.Errorf("topv2: line %d: invalid JSON", lineNo)
		}
		doc := gjson.Parse(line)
		annotation := doc.Get("annotation").String()
		if annotation == "" {
			return nil, fmt.Errorf("topv2: line %d: missing annotation", lineNo)
		}

		var parse Parse
		for _, f := range doc.Get("frames").Array() {
			frame := Frame{Intent: f.Get("intent").String()}
			if frame.Intent == "" {
				return nil, fmt.Errorf("topv2: line %d: frame without intent", lineNo)
			}
			for _, s := range f.Get("slots").Array() {
				frame.Slots = append(frame.Slots, s.String())
			}
			parse.Frames = append(parse.Frames, frame)
		}
		for _, s := range doc.Get("slots").Array() {
			parse.Slots = append(parse.Slots, SlotValue{
				Name:  s.Get("name").String(),
				Value: s.Get("value").String(),
			})
		}
		p.parses[key(annotation)] = parse
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("topv2: reading parses: %w", err)
	}
	return p, nil
}

// Len returns the number of stored parses.
func (p *Parses) Len() int { return len(p.parses) }

// Parse implements Parser.
func (p *Parses) Parse(ctx context.Context, annotation string) (Parse, error) {
	if err := ctx.Err(); err != nil {
		return Parse{}, err
	}
	if parse, ok := p.parses[key(annotation)]; ok {
		return parse, nil
	}
	if p.Fallback != nil {
		return p.Fallback.Parse(ctx, annotation)
	}
	return Parse{}, ErrNoParse
}

func key(annotation string) string {
	return strings.Join(strings.Fields(annotation), " ")
}
