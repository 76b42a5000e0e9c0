package depparse

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const parsed = `# text = find a hotel and book a flight
1	find	find	VERB	VB	_	0	root	_	_
2	a	a	DET	DT	_	3	det	_	_
3	hotel	hotel	NOUN	NN	_	1	obj	_	_
4	and	and	CCONJ	CC	_	5	cc	_	_
5	book	book	VERB	VB	_	1	conj:and	_	_
6	a	a	DET	DT	_	7	det	_	_
7	flight	flight	NOUN	NN	_	5	obj	_	_

1-2	don't	_	_	_	_	_	_	_	_
1	do	do	AUX	VBP	_	2	aux	_	_
2	n't	not	PART	RB	_	0	root	_	_
`

func TestReadCoNLLU(t *testing.T) {
	c, err := ReadCoNLLU(strings.NewReader(parsed))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	tree, err := c.Parse(context.Background(), strings.Fields("find a hotel and book a flight"))
	require.NoError(t, err)

	assert.Equal(t, 0, tree.Root())
	assert.Equal(t, []int{4}, tree.Conjuncts())
	assert.Equal(t, []int{3, 4, 5, 6}, tree.Subtree(4))
	assert.Equal(t, "VERB", tree.Tokens[0].POS)
}

func TestCoNLLU_Fallback(t *testing.T) {
	c, err := ReadCoNLLU(strings.NewReader(parsed))
	require.NoError(t, err)

	_, err = c.Parse(context.Background(), []string{"unknown", "sentence"})
	assert.ErrorIs(t, err, ErrNoParse)

	c.Fallback = NewHeuristic()
	tree, err := c.Parse(context.Background(), []string{"play", "music"})
	require.NoError(t, err)
	assert.Equal(t, 0, tree.Root())
}

func TestReadCoNLLU_Errors(t *testing.T) {
	_, err := ReadCoNLLU(strings.NewReader("1\tfind\n"))
	assert.Error(t, err)

	_, err = ReadCoNLLU(strings.NewReader("2\tfind\tfind\tVERB\tVB\t_\t0\troot\t_\t_\n"))
	assert.Error(t, err)
}

func TestWriteSentences(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSentences(&buf, [][]string{{"a", "b"}, {"c"}}))
	assert.Equal(t, "a b\nc\n", buf.String())
}
