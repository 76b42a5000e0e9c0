package slot

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameterSet_MarshalKeepsOrder(t *testing.T) {
	p := NewParameterSet()
	p.Add("toloc", "boston")
	p.Add("date", "monday")
	p.Add("toloc", "denver")

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `{"toloc":["boston","denver"],"date":["monday"]}`, string(data))
}

func TestParameterSet_MarshalEmpty(t *testing.T) {
	data, err := json.Marshal(NewParameterSet())
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))

	var zero ParameterSet
	zero.Add("a", "b")
	assert.Equal(t, 1, zero.Len())
}

func TestParameterSet_Unmarshal(t *testing.T) {
	var p ParameterSet
	require.NoError(t, json.Unmarshal([]byte(`{"z":["1"],"a":["2","3"]}`), &p))

	assert.Equal(t, []string{"z", "a"}, p.Names())
	assert.Equal(t, []string{"2", "3"}, p.Get("a"))

	assert.Error(t, json.Unmarshal([]byte(`["z"]`), &p))
}

func TestParameterSet_UnmarshalKeepsEmptyLists(t *testing.T) {
	var p ParameterSet
	require.NoError(t, json.Unmarshal([]byte(`{"a":[],"b":["x"]}`), &p))

	assert.Equal(t, []string{"a", "b"}, p.Names())
	assert.Empty(t, p.Get("a"))

	data, err := json.Marshal(&p)
	require.NoError(t, err)
	assert.Equal(t, `{"a":[],"b":["x"]}`, string(data))
}
