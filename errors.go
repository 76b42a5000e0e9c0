package apiblend

import "errors"

// Sentinel errors for examples that cannot be converted.
var (
	// ErrEmptyExample indicates an example without tokens.
	ErrEmptyExample = errors.New("apiblend: example has no tokens")

	// ErrTagMismatch indicates token and tag counts differ.
	ErrTagMismatch = errors.New("apiblend: token and tag counts differ")

	// ErrNoIntent indicates a missing or empty intent label.
	ErrNoIntent = errors.New("apiblend: example has no intent")
)
