package paraphrase

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Credentials are the backend secrets, read from the environment.
type Credentials struct {
	GenAIKey      string `env:"GENAI_KEY"`
	GenAIAPI      string `env:"GENAI_API"`
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
}

// LoadCredentials loads envFile into the environment, if it exists, and
// reads the credentials. Variables already set take precedence over the
// file.
func LoadCredentials(envFile string) (Credentials, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Credentials{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	var creds Credentials
	if err := env.Parse(&creds); err != nil {
		return Credentials{}, fmt.Errorf("reading credentials: %w", err)
	}
	return creds, nil
}

// NewGenerator returns the backend named by provider ("genai" or "openai").
func NewGenerator(provider, model string, creds Credentials, params Params, opts ...BackendOption) (Generator, error) {
	switch provider {
	case "genai", "":
		if creds.GenAIKey == "" || creds.GenAIAPI == "" {
			return nil, fmt.Errorf("%w: GENAI_KEY and GENAI_API must be set", ErrMissingCredentials)
		}
		return NewGenAI(creds.GenAIAPI, creds.GenAIKey, model, params, opts...), nil
	case "openai":
		if creds.OpenAIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY must be set", ErrMissingCredentials)
		}
		return NewOpenAI(creds.OpenAIKey, creds.OpenAIBaseURL, model, params, opts...), nil
	default:
		return nil, fmt.Errorf("paraphrase: unknown provider %q", provider)
	}
}
