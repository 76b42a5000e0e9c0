package clause

import (
	"context"
	"sort"
	"strings"

	"github.com/IBM/API-BLEND/depparse"
	"github.com/IBM/API-BLEND/sentence"
)

// Whole keeps a single-intent sentence as one clause.
type Whole struct{}

// Name implements Strategy.
func (Whole) Name() string { return "whole" }

// Split implements Strategy.
func (Whole) Split(_ context.Context, words []string, k int) ([]Piece, error) {
	if k != 1 {
		return nil, nil
	}
	return []Piece{{Text: strings.Join(words, " "), Width: len(words)}}, nil
}

// Delimiter cuts at delimiter tokens, left to right, making at most k-1
// cuts so later delimiters stay inside the last piece. Delimiters are
// matched as whole tokens, ignoring case, longest first. A delimiter's
// tokens count toward the following piece's width but not its text.
type Delimiter struct {
	name   string
	delims [][]string
}

// NewDelimiter returns a Delimiter strategy. Each delimiter may span
// several words, such as "and then".
func NewDelimiter(name string, delimiters ...string) *Delimiter {
	d := &Delimiter{name: name}
	for _, s := range delimiters {
		if f := strings.Fields(s); len(f) > 0 {
			d.delims = append(d.delims, f)
		}
	}
	sort.SliceStable(d.delims, func(i, j int) bool {
		return len(d.delims[i]) > len(d.delims[j])
	})
	return d
}

// Name implements Strategy.
func (d *Delimiter) Name() string { return d.name }

// Split implements Strategy.
func (d *Delimiter) Split(_ context.Context, words []string, k int) ([]Piece, error) {
	if k < 2 || len(d.delims) == 0 {
		return nil, nil
	}

	var (
		pieces []Piece
		cur    pieceBuilder
	)
	cut := func() {
		pieces = append(pieces, cur.piece())
		cur = pieceBuilder{}
	}

	for i := 0; i < len(words); {
		if n := d.match(words[i:]); n > 0 {
			switch {
			case cur.hasText() && len(pieces) < k-1:
				cut()
				cur.width = n
			case !cur.hasText() && len(pieces) > 0:
				// Runs of delimiters all lead the same piece.
				cur.width += n
			default:
				cur.add(words[i : i+n]...)
			}
			i += n
			continue
		}
		if w, ok := d.attachedComma(words[i]); ok && len(pieces) < k-1 {
			cur.add(w)
			cut()
			i++
			continue
		}
		cur.add(words[i])
		i++
	}

	if !cur.hasText() && len(pieces) > 0 {
		// A trailing delimiter does not make a piece of its own.
		pieces[len(pieces)-1].Width += cur.width
		return pieces, nil
	}
	return append(pieces, cur.piece()), nil
}

func (d *Delimiter) match(words []string) int {
	for _, delim := range d.delims {
		if len(delim) > len(words) {
			continue
		}
		ok := true
		for j, w := range delim {
			if !strings.EqualFold(words[j], w) {
				ok = false
				break
			}
		}
		if ok {
			return len(delim)
		}
	}
	return 0
}

// attachedComma splits "boston," into "boston" when comma is a delimiter.
func (d *Delimiter) attachedComma(word string) (string, bool) {
	if len(word) < 2 || !strings.HasSuffix(word, ",") {
		return "", false
	}
	if d.match([]string{","}) != 1 {
		return "", false
	}
	return strings.TrimSuffix(word, ","), true
}

type pieceBuilder struct {
	words []string
	width int
}

func (b *pieceBuilder) add(words ...string) {
	b.words = append(b.words, words...)
	b.width += len(words)
}

func (b *pieceBuilder) hasText() bool { return len(b.words) > 0 }

func (b *pieceBuilder) piece() Piece {
	return Piece{Text: strings.Join(b.words, " "), Width: b.width}
}

// Dependency chunks each sentence by its dependency parse: one chunk per
// coordinate conjunct of the root, plus one chunk for the tokens no
// conjunct claims. Chunks are ordered by the position of their head. A
// conjunct's leading cc and punct dependents count toward its width but not
// its text, like delimiters. When the chunk count misses k and Repair is
// set, chunks ending with the Repair artifact are merged into their
// successor.
type Dependency struct {
	Sentences sentence.Splitter
	Parser    depparse.Parser
	Repair    string
}

// Name implements Strategy.
func (d *Dependency) Name() string { return "dependency" }

type chunk struct {
	head  int
	width int
	words []string
}

// Split implements Strategy.
func (d *Dependency) Split(ctx context.Context, words []string, k int) ([]Piece, error) {
	if k < 2 || d.Parser == nil {
		return nil, nil
	}

	spans := []sentence.Span{{Start: 0, End: len(words)}}
	if d.Sentences != nil {
		var err error
		if spans, err = d.Sentences.Split(ctx, words); err != nil {
			return nil, err
		}
	}

	var chunks []chunk
	for _, span := range spans {
		tree, err := d.Parser.Parse(ctx, words[span.Start:span.End])
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, clauseChunks(tree, span.Start)...)
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].head < chunks[j].head
	})

	pieces := make([]Piece, len(chunks))
	for i, c := range chunks {
		pieces[i] = Piece{Text: strings.Join(c.words, " "), Width: c.width}
	}

	if len(pieces) != k && d.Repair != "" {
		pieces = RepairDuplicateConjunction(pieces, d.Repair)
	}
	return pieces, nil
}

func clauseChunks(tree *depparse.Tree, offset int) []chunk {
	root := tree.Root()
	if root < 0 {
		return []chunk{{head: offset, width: len(tree.Tokens), words: tree.Words()}}
	}

	seen := make([]bool, len(tree.Tokens))
	var chunks []chunk
	for _, head := range tree.Conjuncts() {
		c := chunk{head: offset + head}
		leading := true
		for _, i := range tree.Subtree(head) {
			seen[i] = true
			c.width++
			tok := tree.Tokens[i]
			if leading && i < head && tok.Head == head && (tok.Rel == depparse.RelCC || tok.Rel == depparse.RelPunct) {
				continue
			}
			leading = false
			c.words = append(c.words, tok.Text)
		}
		chunks = append(chunks, c)
	}

	rest := chunk{head: offset + root}
	for i, tok := range tree.Tokens {
		if !seen[i] {
			rest.width++
			rest.words = append(rest.words, tok.Text)
		}
	}
	if rest.width > 0 {
		chunks = append(chunks, rest)
	}
	return chunks
}
