package retrieval

import "fmt"

// Stage names the pipeline step a RetrievalError came from.
type Stage string

const (
	StageEmbed     Stage = "embed"
	StageSearch    Stage = "search"
	StageNormalize Stage = "normalize"
	StageClassify  Stage = "classify"
	StageFilter    Stage = "filter"
)

// RetrievalError wraps a failure with the stage it happened in, so callers can
// tell a model outage apart from an index or filter problem.
type RetrievalError struct {
	Stage Stage
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed at %s stage: %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, err error) error {
	return &RetrievalError{Stage: stage, Err: err}
}
