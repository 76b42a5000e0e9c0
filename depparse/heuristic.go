package depparse

import (
	"context"
	"regexp"
	"strings"
)

type posRule struct {
	pattern *regexp.Regexp
	tag     string
}

// posRules is checked in order; the first match wins.
var posRules = []posRule{
	{regexp.MustCompile(`^(?:and|or|but|nor|&)$`), "CC"},
	{regexp.MustCompile(`^[,;:.!?]+$`), "PUNCT"},
	{regexp.MustCompile(`^(?:also|then|please|too|additionally|afterwards|next|finally)$`), "RB"},
	{regexp.MustCompile(`^(?:what|what's|whats|which|who|whose|where|when|how|is|are|does|do|can|could|would|will)$`), "WH"},
	{regexp.MustCompile(`^(?:i|i'd|i'm|i'll|we|we'd|you|let's|lets)$`), "PRP"},
	{regexp.MustCompile(`^(?:book|find|show|list|give|get|tell|play|add|put|rate|search|look|set|check|display|need|want|reserve|schedule|send|open|start|make|help|remind|wake|turn|buy|locate|include|insert|pull|bring|read|listen|choose|select|create|cancel)$`), "VB"},
	{regexp.MustCompile(`^(?:a|an|the|this|that|these|those|my|your|our|some|any|all)$`), "DT"},
	{regexp.MustCompile(`^(?:to|from|in|on|at|for|with|by|of|into|onto|between|after|before|around|near|during|via|than)$`), "IN"},
	{regexp.MustCompile(`^[0-9][0-9:.,/]*(?:am|pm)?$`), "CD"},
	{regexp.MustCompile(`^[a-z]+ing$`), "VBG"},
	{regexp.MustCompile(`^[a-z]+ly$`), "RB"},
	{regexp.MustCompile(`^[a-z]+s$`), "NNS"},
}

// Tag assigns a coarse part-of-speech tag to a single word.
func Tag(word string) string {
	w := strings.ToLower(word)
	for _, r := range posRules {
		if r.pattern.MatchString(w) {
			return r.tag
		}
	}
	return "NN"
}

// isOpener reports whether a tag can start a new coordinate clause.
func isOpener(tag string) bool {
	return tag == "VB" || tag == "WH" || tag == "PRP"
}

// Heuristic is a rule-based parser for short requests. The first clause
// opener (verb, question word or pronoun) is the root. Every coordinator or
// comma followed, after optional adverbs, by a clause opener starts a
// conjunct clause attached to the root.
//
// As in UD v2, the coordinator or comma attaches to the conjunct it
// introduces (cc or punct), and so do the adverbs between it and the
// opener. Remaining tokens attach to the nearest preceding clause head, so
// every clause is a contiguous run of tokens.
type Heuristic struct{}

// NewHeuristic returns a Heuristic parser.
func NewHeuristic() *Heuristic { return &Heuristic{} }

// Parse implements Parser. It never fails on non-empty input.
func (Heuristic) Parse(ctx context.Context, words []string) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, ErrNoParse
	}

	tree := &Tree{Tokens: make([]Token, len(words))}
	for i, w := range words {
		tree.Tokens[i] = Token{Text: w, POS: Tag(w), Head: -2}
	}

	root := 0
	for i, tok := range tree.Tokens {
		if isOpener(tok.POS) {
			root = i
			break
		}
	}
	tree.Tokens[root].Head = -1
	tree.Tokens[root].Rel = RelRoot

	// Find conjunct openers: CC or comma, then adverbs, then an opener.
	type conj struct{ link, head int }
	var conjs []conj
	for i := root + 1; i < len(words); i++ {
		pos := tree.Tokens[i].POS
		if pos != "CC" && words[i] != "," {
			continue
		}
		j := i + 1
		for j < len(words) && (tree.Tokens[j].POS == "RB" || tree.Tokens[j].POS == "CC") {
			j++
		}
		if j < len(words) && j != root && isOpener(tree.Tokens[j].POS) {
			conjs = append(conjs, conj{link: i, head: j})
			i = j
		}
	}

	for _, c := range conjs {
		tree.Tokens[c.link].Head = c.head
		tree.Tokens[c.link].Rel = RelCC
		if tree.Tokens[c.link].POS == "PUNCT" {
			tree.Tokens[c.link].Rel = RelPunct
		}
		tree.Tokens[c.head].Head = root
		tree.Tokens[c.head].Rel = RelConj
		for k := c.link + 1; k < c.head; k++ {
			tree.Tokens[k].Head = c.head
			tree.Tokens[k].Rel = "advmod"
		}
	}

	// Everything else hangs off the closest clause head to its left.
	head := root
	next := 0
	for i := range tree.Tokens {
		if next < len(conjs) && i == conjs[next].head {
			head = conjs[next].head
			next++
		}
		if tree.Tokens[i].Head != -2 {
			continue
		}
		h := head
		if i < root {
			h = root
		}
		tree.Tokens[i].Head = h
		tree.Tokens[i].Rel = "dep"
	}

	return tree, nil
}
