// Package depparse provides dependency parses of tokenized sentences.
//
// The clause segmenter only needs a sentence root, the root's coordinate
// conjuncts and their subtrees, so a Tree stores one head pointer per token
// in the style of CoNLL-U.
package depparse

import (
	"context"
	"errors"
	"sort"
)

// Relation names used by the segmenter.
const (
	RelRoot  = "root"
	RelConj  = "conj"
	RelCC    = "cc"
	RelPunct = "punct"
)

// ErrNoParse indicates the parser has no analysis for a sentence.
var ErrNoParse = errors.New("depparse: no parse for sentence")

// Token is one node of a dependency tree. Head is the index of the
// governing token, or -1 for the root.
type Token struct {
	Text string
	POS  string
	Head int
	Rel  string
}

// Tree is the dependency analysis of a single sentence.
type Tree struct {
	Tokens []Token
}

// Parser produces a dependency tree for one tokenized sentence.
type Parser interface {
	Parse(ctx context.Context, tokens []string) (*Tree, error)
}

// Root returns the index of the first root token, or -1 if there is none.
func (t *Tree) Root() int {
	for i, tok := range t.Tokens {
		if tok.Head < 0 {
			return i
		}
	}
	return -1
}

// Children returns the direct dependents of head in token order.
func (t *Tree) Children(head int) []int {
	var out []int
	for i, tok := range t.Tokens {
		if tok.Head == head && i != head {
			out = append(out, i)
		}
	}
	return out
}

// Conjuncts returns the root's dependents attached with the conj relation.
func (t *Tree) Conjuncts() []int {
	root := t.Root()
	if root < 0 {
		return nil
	}
	var out []int
	for _, c := range t.Children(root) {
		if t.Tokens[c].Rel == RelConj {
			out = append(out, c)
		}
	}
	return out
}

// Subtree returns head and all its transitive dependents, sorted.
func (t *Tree) Subtree(head int) []int {
	var out []int
	for i := range t.Tokens {
		if t.dominates(head, i) {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

func (t *Tree) dominates(head, i int) bool {
	// Bounded walk so malformed cyclic input terminates.
	for range len(t.Tokens) + 1 {
		if i == head {
			return true
		}
		if i < 0 || i >= len(t.Tokens) {
			return false
		}
		i = t.Tokens[i].Head
	}
	return false
}

// Words returns the token texts.
func (t *Tree) Words() []string {
	out := make([]string, len(t.Tokens))
	for i, tok := range t.Tokens {
		out[i] = tok.Text
	}
	return out
}
