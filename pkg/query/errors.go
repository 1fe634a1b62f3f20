package query

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure at the request boundary. User-facing
// errors never carry the wrapped detail, only the kind; the detail goes to
// the logs.
type Kind string

const (
	// KindConfiguration marks a missing or unreachable external dependency.
	KindConfiguration Kind = "configuration"
	// KindRetrieval marks a similarity or graph query failure. A clean empty
	// result is NOT an error and never produces this kind.
	KindRetrieval Kind = "retrieval"
	// KindGeneration marks an LLM invocation failure.
	KindGeneration Kind = "generation"
	// KindFormatting marks a per-chunk formatting failure; it is isolated
	// and never fails a request.
	KindFormatting Kind = "formatting"
	// KindSummarization marks a background history compaction failure; it is
	// logged and never surfaced to the user.
	KindSummarization Kind = "summarization"
)

// Error wraps a failure with its boundary classification.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapErr(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Classify returns the Kind of err, or KindConfiguration when the error was
// never classified (an unclassified failure means a collaborator broke its
// contract).
func Classify(err error) Kind {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return KindConfiguration
}
