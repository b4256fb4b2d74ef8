// Package vocab loads the fixed domain vocabulary (classes, object properties
// and data properties) that extracted mentions are linked against.
//
// Each vocabulary term is an Entry with a canonical name, an IRI and a set of
// surface-form labels: the canonical name itself plus every declared
// rdfs:label, skos:prefLabel and skos:altLabel. Labels are kept verbatim.
//
// # Sources
//
// A vocabulary is read from a YAML or JSON document:
//
//	namespace: "http://example.org/aec#"
//	prefix: ex
//	classes:
//	  - name: Hydrant
//	    alt_labels: [fire plug]
//	object_properties:
//	  - {name: hasSafetyMeasure, domain: Infrastructure, range: SafetyMeasure}
//	data_properties:
//	  - {name: tunnelLength, range: float, alt_labels: [has length]}
//
// The locator "builtin:aec" selects the embedded AEC demo vocabulary.
//
// # Label Pools
//
// Index.Pool flattens one kind of entry into parallel (label, entry) rows,
// one row per label per entry, ready for batch embedding.
//
// Any failure to read or validate a source is returned as a *LoadError,
// which matches ErrVocabularyLoad under errors.Is. A run cannot proceed
// without a vocabulary.
package vocab
