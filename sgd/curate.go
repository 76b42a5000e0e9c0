package sgd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
)

// Paraphraser maps API strings to natural-language commands.
type Paraphraser interface {
	Paraphrase(ctx context.Context, apis []string) (map[string]string, error)
}

// Example is one curated input/output pair.
type Example struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Curate paraphrases the API strings of turns and builds one example per
// dialogue. For each intent of a dialogue, in first-seen order, the longest
// API string of that intent is kept; its paraphrase becomes part of the
// input and the API string part of the output.
func Curate(ctx context.Context, turns []Turn, p Paraphraser) ([]Example, error) {
	var order []string
	byDialogue := make(map[string][]string)
	var all []string

	for _, t := range turns {
		if t.Output == "" || strings.Contains(t.Output, noIntent+"(") {
			continue
		}
		if _, ok := byDialogue[t.DialogueID]; !ok {
			order = append(order, t.DialogueID)
		}
		apis := SplitAPIs(t.Output)
		byDialogue[t.DialogueID] = append(byDialogue[t.DialogueID], apis...)
		all = append(all, apis...)
	}
	if len(all) == 0 {
		return nil, nil
	}

	phrases, err := p.Paraphrase(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("paraphrasing: %w", err)
	}

	var out []Example
	for _, id := range order {
		var inputs, outputs []string
		for _, api := range longestPerIntent(byDialogue[id]) {
			phrase, ok := phrases[api]
			if !ok {
				continue
			}
			inputs = append(inputs, normalizePhrase(phrase))
			outputs = append(outputs, api)
		}
		if len(inputs) > 0 {
			out = append(out, Example{
				Input:  strings.Join(inputs, " "),
				Output: strings.Join(outputs, Separator),
			})
		}
	}
	return out, nil
}

func longestPerIntent(apis []string) []string {
	intents := lo.Uniq(lo.Map(apis, func(api string, _ int) string { return IntentOf(api) }))
	return lo.Map(intents, func(intent string, _ int) string {
		same := lo.Filter(apis, func(api string, _ int) bool { return IntentOf(api) == intent })
		return lo.MaxBy(same, func(a, b string) bool { return len(a) > len(b) })
	})
}

func normalizePhrase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasSuffix(s, ".") {
		s += "."
	}
	return s
}

// WriteJSONL writes one JSON object per line to path.
func WriteJSONL(path string, examples []Example) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, ex := range examples {
		if err := enc.Encode(ex); err != nil {
			_ = f.Close()
			return fmt.Errorf("encoding %s: %w", path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Generator curates every split of one dialogue corpus.
type Generator struct {
	DataDir     string
	SaveDir     string
	Name        string
	Splits      []string
	Paraphraser Paraphraser
	Logger      *slog.Logger
}

// OutputPath returns the curated file of split.
func (g *Generator) OutputPath(split string) string {
	return filepath.Join(g.SaveDir, fmt.Sprintf("%s-processed-%s.jsonl", g.Name, split))
}

// Run reads <DataDir>/<split>/, curates it and writes OutputPath(split)
// for each split. It returns the number of examples written per split.
func (g *Generator) Run(ctx context.Context) (map[string]int, error) {
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}
	splits := g.Splits
	if len(splits) == 0 {
		splits = []string{"train", "test", "dev"}
	}

	counts := make(map[string]int, len(splits))
	for _, split := range splits {
		turns, err := ReadDialogues(filepath.Join(g.DataDir, split))
		if err != nil {
			return counts, err
		}
		examples, err := Curate(ctx, turns, g.Paraphraser)
		if err != nil {
			return counts, fmt.Errorf("%s: %w", split, err)
		}
		out := g.OutputPath(split)
		if err := WriteJSONL(out, examples); err != nil {
			return counts, err
		}
		counts[split] = len(examples)
		logger.Info("split curated", "split", split, "turns", len(turns), "examples", len(examples), "output", out)
	}
	return counts, nil
}
