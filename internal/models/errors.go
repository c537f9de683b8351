package models

import "errors"

var (
	// ErrMissingAPIKey is fatal at startup
	ErrMissingAPIKey = errors.New("api key is missing")

	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrParseFailure      = errors.New("failed to parse file")

	// ErrEmptyCorpus means no file in the docs folder produced any text
	ErrEmptyCorpus = errors.New("no valid files found in docs folder")

	ErrGeneration = errors.New("generation failed")
	ErrEmptyQuery = errors.New("query field is required")
)
