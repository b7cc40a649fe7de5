package generation

import "errors"

var (
	// ErrGeneration is returned when the language model cannot be reached or
	// answers with a failure.
	ErrGeneration = errors.New("generation failed")

	// ErrNoJSON is returned when a model answer contains no JSON object.
	ErrNoJSON = errors.New("no JSON object in model output")
)
