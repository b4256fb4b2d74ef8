package aboxlink

import (
	"time"

	"github.com/soundprediction/aboxlink/pkg/types"
)

// Summary reports what happened to every raw triple of a run.
// Total = Unusable + Unresolved + Dropped + Attempted, and
// Attempted = Succeeded + Skipped.
type Summary struct {
	RunID string `json:"run_id"`
	Total int    `json:"total"`

	// Unusable records lacked a subject, predicate or object.
	Unusable int `json:"unusable"`
	// Unresolved predicates had no vocabulary property above the threshold.
	Unresolved int `json:"unresolved"`
	// Dropped triples had an unlinked entity while DropUnlinkedEntities is set.
	Dropped int `json:"dropped"`

	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`

	// LowConfidenceLinks counts entity mentions kept without a class.
	LowConfidenceLinks int `json:"low_confidence_links"`
	// MalformedLiterals counts literals that fell back to string.
	MalformedLiterals int `json:"malformed_literals"`

	Statements     int `json:"statements"`
	TypeAssertions int `json:"type_assertions"`

	// Samples holds a bounded number of skip records across all stages.
	Samples []types.SkipRecord `json:"samples,omitempty"`
	// Warnings holds a bounded number of non-fatal link problems.
	Warnings []types.SkipRecord `json:"warnings,omitempty"`

	Duration time.Duration `json:"duration"`

	maxSamples int
}

func newSummary(total, maxSamples int) Summary {
	return Summary{RunID: newRunID(), Total: total, maxSamples: maxSamples}
}

// SkippedTotal returns every triple that did not become a statement.
func (s Summary) SkippedTotal() int {
	return s.Unusable + s.Unresolved + s.Dropped + s.Skipped
}

func (s *Summary) skip(err *types.SkipError) {
	s.record(err.Record())
}

func (s *Summary) record(r types.SkipRecord) {
	if len(s.Samples) < s.maxSamples {
		s.Samples = append(s.Samples, r)
	}
}

func (s *Summary) warn(err *types.SkipError) {
	if len(s.Warnings) < s.maxSamples {
		s.Warnings = append(s.Warnings, err.Record())
	}
}
