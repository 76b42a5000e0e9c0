// Package sgd builds paraphrased command datasets from schema-guided
// dialogue corpora.
//
// Each user turn's dialogue state is rendered as API strings of the form
// "Intent(slot = value ; other = value)". The strings are paraphrased into
// imperative sentences and regrouped per dialogue into input/output pairs.
package sgd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	// Separator joins the API strings of one turn or one example.
	Separator = " [SEP] "

	// SchemaFile is skipped when reading a dialogue directory.
	SchemaFile = "schema.json"

	// SpeakerUser marks user turns.
	SpeakerUser = "USER"

	noIntent = "NONE"
)

// ErrInvalidDialogue indicates a dialogue file that is not a JSON array.
var ErrInvalidDialogue = errors.New("sgd: invalid dialogue file")

// Turn is one utterance with the API strings of its dialogue state.
type Turn struct {
	DialogueID string
	Speaker    string
	Input      string
	// Output is empty for system turns and for user turns without an
	// active intent.
	Output string
}

// ReadDialogues reads every *.json file in dir except the schema, in
// file-name order.
func ReadDialogues(dir string) ([]Turn, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var turns []Turn
	for _, e := range entries {
		if e.IsDir() || e.Name() == SchemaFile || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		ts, err := ParseDialogues(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		turns = append(turns, ts...)
	}
	return turns, nil
}

// ParseDialogues decodes one file holding a JSON array of dialogues.
func ParseDialogues(data []byte) ([]Turn, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidDialogue)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of dialogues", ErrInvalidDialogue)
	}

	var turns []Turn
	doc.ForEach(func(_, dialogue gjson.Result) bool {
		id := dialogue.Get("dialogue_id").String()
		dialogue.Get("turns").ForEach(func(_, t gjson.Result) bool {
			turn := Turn{
				DialogueID: id,
				Speaker:    t.Get("speaker").String(),
				Input:      t.Get("utterance").String(),
			}
			if turn.Speaker == SpeakerUser {
				turn.Output = turnAPIs(t.Get("frames"))
			}
			turns = append(turns, turn)
			return true
		})
		return true
	})
	return turns, nil
}

func turnAPIs(frames gjson.Result) string {
	var apis []string
	frames.ForEach(func(_, f gjson.Result) bool {
		intent := f.Get("state.active_intent").String()
		values := f.Get("state.slot_values")
		if intent == noIntent || !hasEntries(values) {
			return true
		}

		var slots []string
		values.ForEach(func(name, vals gjson.Result) bool {
			slots = append(slots, name.String()+" = "+vals.Get("0").String())
			return true
		})
		apis = append(apis, intent+"("+strings.Join(slots, " ; ")+")")
		return true
	})
	return strings.Join(apis, Separator)
}

func hasEntries(obj gjson.Result) bool {
	if !obj.IsObject() {
		return false
	}
	found := false
	obj.ForEach(func(_, _ gjson.Result) bool {
		found = true
		return false
	})
	return found
}

// SplitAPIs splits a Separator-joined string into trimmed API strings.
func SplitAPIs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, strings.TrimSpace(Separator)) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IntentOf returns the intent name of an API string.
func IntentOf(api string) string {
	if i := strings.IndexByte(api, '('); i >= 0 {
		return api[:i]
	}
	return api
}
