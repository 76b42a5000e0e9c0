package depparse

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CoNLLU serves parses precomputed by an external parser and stored in
// CoNLL-U format. Sentences are looked up by their space-joined word forms.
// Misses go to Fallback when it is set.
type CoNLLU struct {
	trees    map[string]*Tree
	Fallback Parser
}

// LoadCoNLLU reads every sentence in the file at path.
func LoadCoNLLU(path string) (*CoNLLU, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening parses: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadCoNLLU(f)
}

// ReadCoNLLU parses CoNLL-U sentences from r. Multiword token ranges and
// empty nodes are skipped.
func ReadCoNLLU(r io.Reader) (*CoNLLU, error) {
	c := &CoNLLU{trees: make(map[string]*Tree)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		cur    []Token
		lineNo int
	)
	flush := func() {
		if len(cur) > 0 {
			t := &Tree{Tokens: cur}
			c.trees[key(t.Words())] = t
		}
		cur = nil
	}

	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		cols := strings.Split(line, "\t")
		if len(cols) != 10 {
			return nil, fmt.Errorf("line %d: expected 10 columns, got %d", lineNo, len(cols))
		}
		if strings.ContainsAny(cols[0], "-.") {
			continue
		}
		id, err := strconv.Atoi(cols[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad id %q: %w", lineNo, cols[0], err)
		}
		if id != len(cur)+1 {
			return nil, fmt.Errorf("line %d: id %d out of sequence", lineNo, id)
		}
		head, err := strconv.Atoi(cols[6])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad head %q: %w", lineNo, cols[6], err)
		}
		cur = append(cur, Token{
			Text: cols[1],
			POS:  cols[3],
			Head: head - 1,
			Rel:  baseRel(cols[7]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading parses: %w", err)
	}
	flush()

	return c, nil
}

// Len returns the number of stored sentences.
func (c *CoNLLU) Len() int { return len(c.trees) }

// Parse implements Parser.
func (c *CoNLLU) Parse(ctx context.Context, words []string) (*Tree, error) {
	if t, ok := c.trees[key(words)]; ok {
		return t, nil
	}
	if c.Fallback != nil {
		return c.Fallback.Parse(ctx, words)
	}
	return nil, fmt.Errorf("%w: %q", ErrNoParse, key(words))
}

// WriteSentences writes one tokenized sentence per line, the input format
// expected by most external dependency parsers.
func WriteSentences(w io.Writer, sentences [][]string) error {
	bw := bufio.NewWriter(w)
	for _, s := range sentences {
		if _, err := bw.WriteString(key(s) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func key(words []string) string {
	return strings.Join(words, " ")
}

// baseRel drops relation subtypes, so "conj:and" becomes "conj".
func baseRel(rel string) string {
	base, _, _ := strings.Cut(rel, ":")
	return strings.ToLower(base)
}
