package paraphrase

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentChats bounds the chat requests in flight for one batch.
const maxConcurrentChats = 4

// OpenAI is a chat-completions backend. Each prompt is sent as its own
// single-message conversation.
type OpenAI struct {
	client *openai.Client
	model  string
	params Params
}

// NewOpenAI returns an OpenAI backend. An empty baseURL uses the public
// API.
func NewOpenAI(apiKey, baseURL, model string, params Params, opts ...BackendOption) *OpenAI {
	bc := newBackendConfig(opts)
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	hc := *bc.httpClient
	hc.Timeout = bc.timeout
	cfg.HTTPClient = &hc

	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		params: params,
	}
}

// Generate completes each prompt concurrently and returns the answers in
// prompt order.
func (o *OpenAI) Generate(ctx context.Context, prompts []string) ([]string, error) {
	texts := make([]string, len(prompts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChats)
	for i, prompt := range prompts {
		g.Go(func() error {
			resp, err := o.client.CreateChatCompletion(gctx, openai.ChatCompletionRequest{
				Model: o.model,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleUser, Content: prompt},
				},
				Temperature: o.temperature(),
				MaxTokens:   o.params.MaxNewTokens,
			})
			if err != nil {
				return fmt.Errorf("paraphrase: chat completion: %w", err)
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("%w: no choices returned", ErrRequestFailed)
			}
			texts[i] = resp.Choices[0].Message.Content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}

// temperature maps greedy decoding to the lowest temperature the API
// accepts without treating it as unset.
func (o *OpenAI) temperature() float32 {
	if o.params.Decoding == "greedy" {
		return 1e-6
	}
	return float32(o.params.Temperature)
}
