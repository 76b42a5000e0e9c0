package paraphrase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	mu      sync.Mutex
	batches [][]string
	fail    int
}

func (f *fakeGenerator) Generate(_ context.Context, prompts []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, prompts)
	if f.fail > 0 {
		f.fail--
		return nil, errors.New("connection reset")
	}
	out := make([]string, len(prompts))
	for i, p := range prompts {
		api := strings.TrimSuffix(strings.TrimPrefix(p[strings.Index(p, "intent: "):], "intent: "), "\nOutput:\n")
		out[i] = "Do " + api
	}
	return out, nil
}

func quiet() Option { return WithLogger(slog.New(slog.DiscardHandler)) }

func TestParaphrase_Batches(t *testing.T) {
	gen := &fakeGenerator{}
	p := New(gen, WithBatchSize(2), quiet())

	apis := []string{"A(x = 1)", "B(y = 2)", "A(x = 1)", "C()"}
	got, err := p.Paraphrase(context.Background(), apis)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"A(x = 1)": "Do A(x = 1)",
		"B(y = 2)": "Do B(y = 2)",
		"C()":      "Do C()",
	}, got)
	require.Len(t, gen.batches, 2)
	assert.Len(t, gen.batches[0], 2)
	assert.Len(t, gen.batches[1], 1)
	assert.Equal(t, fmt.Sprintf(Prompt, "A(x = 1)"), gen.batches[0][0])
}

func TestParaphrase_RetriesOnce(t *testing.T) {
	gen := &fakeGenerator{fail: 1}
	p := New(gen, WithRetryDelay(time.Millisecond), quiet())

	got, err := p.Paraphrase(context.Background(), []string{"A()"})
	require.NoError(t, err)
	assert.Equal(t, "Do A()", got["A()"])
	assert.Len(t, gen.batches, 2)
}

func TestParaphrase_FailsAfterRetry(t *testing.T) {
	gen := &fakeGenerator{fail: 2}
	p := New(gen, WithRetryDelay(0), quiet())

	_, err := p.Paraphrase(context.Background(), []string{"A()"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch 1 of 1")
}

func TestParaphrase_CancelledDuringRetry(t *testing.T) {
	gen := &fakeGenerator{fail: 1}
	p := New(gen, WithRetryDelay(time.Hour), quiet())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := p.Paraphrase(ctx, []string{"A()"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParaphrase_ShortAnswer(t *testing.T) {
	p := New(generatorFunc(func(_ context.Context, prompts []string) ([]string, error) {
		return []string{"only one"}, nil
	}), quiet())

	got, err := p.Paraphrase(context.Background(), []string{"A()", "B()"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A()": "only one"}, got)
}

type generatorFunc func(context.Context, []string) ([]string, error)

func (f generatorFunc) Generate(ctx context.Context, prompts []string) ([]string, error) {
	return f(ctx, prompts)
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("GENAI_KEY", "from-env")
	t.Setenv("GENAI_API", "")
	t.Setenv("OPENAI_API_KEY", "")

	creds, err := LoadCredentials(t.TempDir() + "/missing.env")
	require.NoError(t, err)
	assert.Equal(t, "from-env", creds.GenAIKey)
	assert.Empty(t, creds.GenAIAPI)
}

func TestNewGenerator(t *testing.T) {
	_, err := NewGenerator("genai", "m", Credentials{}, DefaultParams())
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = NewGenerator("openai", "m", Credentials{}, DefaultParams())
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = NewGenerator("bard", "m", Credentials{}, DefaultParams())
	assert.Error(t, err)

	g, err := NewGenerator("genai", "m", Credentials{GenAIKey: "k", GenAIAPI: "http://x"}, DefaultParams())
	require.NoError(t, err)
	assert.IsType(t, &GenAI{}, g)

	g, err = NewGenerator("openai", "m", Credentials{OpenAIKey: "k"}, DefaultParams())
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, g)
}
