package types

import (
	"errors"
	"fmt"
)

// Per-triple failure classes. None of these abort a batch.
var (
	// ErrUnusableTripleShape marks a raw record lacking a subject, predicate or object.
	ErrUnusableTripleShape = errors.New("unusable triple shape")

	// ErrUnresolvedPredicate marks a predicate mention with no vocabulary
	// property above the linking threshold.
	ErrUnresolvedPredicate = errors.New("unresolved predicate")

	// ErrLowConfidenceEntityLink marks an entity mention with no class above
	// the linking threshold. The triple normally proceeds untyped.
	ErrLowConfidenceEntityLink = errors.New("low confidence entity link")

	// ErrMalformedLiteral marks a literal that could not be coerced to the
	// requested datatype. The literal falls back to the string datatype.
	ErrMalformedLiteral = errors.New("malformed literal")

	// ErrGraphWriteFailure marks a statement rejected by the graph layer.
	ErrGraphWriteFailure = errors.New("graph write failure")
)

// Stage names the pipeline stage where a triple was skipped.
type Stage string

const (
	StageNormalize Stage = "normalize"
	StageLink      Stage = "link"
	StageAssemble  Stage = "assemble"
)

// SkipError records why a single triple was dropped from a batch.
type SkipError struct {
	Stage  Stage
	Index  int
	Err    error
	Detail string
}

// Error implements the error interface.
func (e *SkipError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: triple %d: %v", e.Stage, e.Index, e.Err)
	}
	return fmt.Sprintf("%s: triple %d: %v: %s", e.Stage, e.Index, e.Err, e.Detail)
}

// Unwrap returns the failure class.
func (e *SkipError) Unwrap() error {
	return e.Err
}

// NewSkipError creates a SkipError.
func NewSkipError(stage Stage, index int, err error, detail string) *SkipError {
	return &SkipError{Stage: stage, Index: index, Err: err, Detail: detail}
}

// Record converts the error into its reportable form.
func (e *SkipError) Record() SkipRecord {
	reason := "unknown"
	if e.Err != nil {
		reason = e.Err.Error()
	}
	return SkipRecord{Stage: e.Stage, Index: e.Index, Reason: reason, Detail: e.Detail}
}

// SkipRecord is the serializable form of a SkipError.
type SkipRecord struct {
	Stage  Stage  `json:"stage"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}
