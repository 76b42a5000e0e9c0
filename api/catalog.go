package api

import (
	"bytes"
	"fmt"
	"slices"
	"sync"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
)

// Spec describes one API in a catalog.
type Spec struct {
	Description string   `json:"description"`
	Parameters  []string `json:"parameters"`
}

// Catalog collects the parameter names seen for each intent. It is safe
// for concurrent use.
type Catalog struct {
	mu    sync.Mutex
	specs map[string][]string
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{specs: make(map[string][]string)}
}

// Observe records the intent and parameter names of each call.
func (c *Catalog) Observe(calls ...Call) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, call := range calls {
		names := c.specs[call.API]
		for _, n := range call.Parameters.Names() {
			if !lo.Contains(names, n) {
				names = append(names, n)
			}
		}
		c.specs[call.API] = names
	}
}

// Merge folds other into c. Parameters new to c are appended in other's
// order.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil || other == c {
		return
	}
	for _, intent := range other.Intents() {
		spec, _ := other.Spec(intent)

		c.mu.Lock()
		names, ok := c.specs[intent]
		if !ok {
			names = []string{}
		}
		c.specs[intent] = append(names, lo.Without(spec.Parameters, names...)...)
		c.mu.Unlock()
	}
}

// Intents returns the observed intents, sorted.
func (c *Catalog) Intents() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := lo.Keys(c.specs)
	slices.Sort(keys)
	return keys
}

// Spec returns the catalog entry for intent.
func (c *Catalog) Spec(intent string) (Spec, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	names, ok := c.specs[intent]
	if !ok {
		return Spec{}, false
	}
	return Spec{Parameters: append([]string{}, names...)}, true
}

// MarshalJSON encodes the catalog as an object keyed by intent, in sorted
// order, with parameters in first-seen order.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, intent := range c.Intents() {
		spec, _ := c.Spec(intent)
		key, err := json.MarshalNoEscape(intent)
		if err != nil {
			return nil, err
		}
		val, err := json.MarshalNoEscape(spec)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseCatalog decodes a catalog written by MarshalJSON.
func ParseCatalog(data []byte) (map[string]Spec, error) {
	out := make(map[string]Spec)
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("api: decoding catalog: %w", err)
	}
	return out, nil
}
