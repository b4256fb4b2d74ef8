// Package types defines the core data types shared by the aboxlink pipeline.
//
// This package contains the values that flow between pipeline stages:
//   - LinkedTriple: a triple whose subject, predicate and object have been
//     resolved against the vocabulary, ready for graph assembly
//   - NodeRef / PredicateRef / Literal: the parts of a LinkedTriple
//   - SkipError / SkipRecord: per-triple failures recorded without aborting a batch
//   - Message / Response: chat payloads exchanged with extraction providers
//
// # Error Taxonomy
//
// Per-triple failures are classified with sentinel errors so callers can use
// errors.Is on anything returned from a pipeline stage:
//
//	if errors.Is(err, types.ErrUnresolvedPredicate) {
//	    // the predicate mention had no vocabulary candidate above threshold
//	}
//
// Only vocabulary load failures (see package vocab) are fatal to a run.
package types
