package slot

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// ParameterSet maps slot names to their values in first-seen order.
// The zero value is ready to use.
type ParameterSet struct {
	names  []string
	values map[string][]string
}

// NewParameterSet returns an empty ParameterSet.
func NewParameterSet() *ParameterSet {
	return &ParameterSet{values: make(map[string][]string)}
}

// Add appends value to the list for name.
func (p *ParameterSet) Add(name, value string) {
	p.declare(name)
	p.values[name] = append(p.values[name], value)
}

// declare registers name with an empty value list if it is new.
func (p *ParameterSet) declare(name string) {
	if p.values == nil {
		p.values = make(map[string][]string)
	}
	if _, ok := p.values[name]; !ok {
		p.names = append(p.names, name)
		p.values[name] = []string{}
	}
}

// Get returns the values recorded for name.
func (p *ParameterSet) Get(name string) []string {
	if p == nil {
		return nil
	}
	return p.values[name]
}

// Names returns slot names in first-seen order.
func (p *ParameterSet) Names() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.names...)
}

// Len returns the number of distinct slot names.
func (p *ParameterSet) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}

// MarshalJSON encodes the set as an object whose keys keep first-seen order.
func (p *ParameterSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if p != nil {
		for i, name := range p.names {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.MarshalNoEscape(name)
			if err != nil {
				return nil, err
			}
			vals, err := json.MarshalNoEscape(p.values[name])
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(vals)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of string lists, keeping key order.
func (p *ParameterSet) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("slot: invalid parameter set JSON")
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return fmt.Errorf("slot: parameter set must be an object, got %s", res.Type)
	}
	*p = ParameterSet{values: make(map[string][]string)}
	res.ForEach(func(key, value gjson.Result) bool {
		p.declare(key.String())
		for _, v := range value.Array() {
			p.Add(key.String(), v.String())
		}
		return true
	})
	return nil
}
