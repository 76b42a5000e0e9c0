package sentence

import "errors"

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrModelNotFound indicates the model file does not exist.
	ErrModelNotFound = errors.New("sentence: model file not found")

	// ErrInvalidModel indicates the model file exists but is malformed.
	ErrInvalidModel = errors.New("sentence: invalid model format")

	// ErrTokenizerFailed indicates tokenizer initialization failed.
	ErrTokenizerFailed = errors.New("sentence: tokenizer initialization failed")
)
