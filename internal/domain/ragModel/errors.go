package ragModel

import "errors"

var (
	// ErrNotFound reports a missing source, channel or document. It aborts
	// the ingestion job for that single source only.
	ErrNotFound = errors.New("source not found")

	// ErrEmptyCompletion reports that the model returned no usable text.
	// The core never substitutes a placeholder answer.
	ErrEmptyCompletion = errors.New("model returned empty completion")
)
