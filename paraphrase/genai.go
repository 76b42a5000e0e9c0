package paraphrase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

// BackendOption configures a backend client.
type BackendOption func(*backendConfig)

type backendConfig struct {
	timeout    time.Duration
	httpClient *http.Client
}

// WithTimeout bounds each request (default: 2m).
func WithTimeout(d time.Duration) BackendOption {
	return func(c *backendConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) BackendOption {
	return func(c *backendConfig) {
		c.httpClient = hc
	}
}

func newBackendConfig(opts []BackendOption) backendConfig {
	cfg := backendConfig{timeout: 2 * time.Minute}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{}
	}
	return cfg
}

type genaiRequest struct {
	ModelID    string          `json:"model_id"`
	Inputs     []string        `json:"inputs"`
	Parameters genaiParameters `json:"parameters"`
}

type genaiParameters struct {
	Temperature    float64 `json:"temperature"`
	MaxNewTokens   int     `json:"max_new_tokens"`
	DecodingMethod string  `json:"decoding_method"`
}

type genaiResponse struct {
	Results []struct {
		GeneratedText string `json:"generated_text"`
	} `json:"results"`
}

// GenAI is a text-generation endpoint that accepts a batch of inputs per
// request and answers with one result per input.
type GenAI struct {
	client   *resty.Client
	endpoint string
	model    string
	params   Params
}

// NewGenAI returns a GenAI backend posting to endpoint with a bearer key.
func NewGenAI(endpoint, apiKey, model string, params Params, opts ...BackendOption) *GenAI {
	cfg := newBackendConfig(opts)
	client := resty.NewWithClient(cfg.httpClient).
		SetTimeout(cfg.timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")
	client.JSONMarshal = json.Marshal
	client.JSONUnmarshal = json.Unmarshal

	return &GenAI{
		client:   client,
		endpoint: endpoint,
		model:    model,
		params:   params,
	}
}

// Generate sends all prompts in a single request.
func (g *GenAI) Generate(ctx context.Context, prompts []string) ([]string, error) {
	var out genaiResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(genaiRequest{
			ModelID: g.model,
			Inputs:  prompts,
			Parameters: genaiParameters{
				Temperature:    g.params.Temperature,
				MaxNewTokens:   g.params.MaxNewTokens,
				DecodingMethod: g.params.Decoding,
			},
		}).
		SetResult(&out).
		Post(g.endpoint)
	if err != nil {
		return nil, fmt.Errorf("paraphrase: genai request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode(), resp.String())
	}

	texts := make([]string, len(out.Results))
	for i, r := range out.Results {
		texts[i] = r.GeneratedText
	}
	return texts, nil
}
