// Package triples turns heterogeneous raw triple records into normalized
// triples and classifies their objects as literals or resources.
package triples

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Shape discriminates the two raw triple representations.
type Shape int

const (
	// ShapePositional is (subject, predicate, object[, hint]).
	ShapePositional Shape = iota + 1
	// ShapeMapping is a record keyed by field aliases.
	ShapeMapping
)

func (s Shape) String() string {
	switch s {
	case ShapePositional:
		return "positional"
	case ShapeMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// RawTriple is an untyped triple record as produced by an extraction
// provider. It is either a PositionalTriple or a MappingTriple.
type RawTriple interface {
	Shape() Shape
	fields() fieldSet
}

// PositionalTriple is a record of at least three elements. A fourth element,
// when present, is a property-type hint.
type PositionalTriple []any

// Shape implements RawTriple.
func (PositionalTriple) Shape() Shape { return ShapePositional }

// MappingTriple is a record whose fields are found through alias keys.
type MappingTriple map[string]any

// Shape implements RawTriple.
func (MappingTriple) Shape() Shape { return ShapeMapping }

// Decode parses one JSON record: an array becomes a PositionalTriple and an
// object becomes a MappingTriple. Numbers are kept as json.Number.
func Decode(data []byte) (RawTriple, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode triple: %w", err)
	}
	return fromValue(v)
}

func fromValue(v any) (RawTriple, error) {
	switch t := v.(type) {
	case []any:
		return PositionalTriple(t), nil
	case map[string]any:
		return MappingTriple(t), nil
	default:
		return nil, fmt.Errorf("decode triple: unsupported record type %T", v)
	}
}

// DecodeBatch parses a JSON array of records, an object wrapping such an
// array under "triples", or JSON Lines with one record per line.
func DecodeBatch(data []byte) ([]RawTriple, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []RawTriple{}, nil
	}

	if trimmed[0] == '[' || trimmed[0] == '{' {
		var v any
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&v); err == nil && !dec.More() {
			return fromDocument(v)
		}
	}

	var out []RawTriple
	for n, line := range bytes.Split(trimmed, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		raw, err := Decode(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}
		out = append(out, raw)
	}
	return out, nil
}

func fromDocument(v any) ([]RawTriple, error) {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case map[string]any:
		list, ok := t["triples"].([]any)
		if !ok {
			// A lone object is a single mapping record.
			return []RawTriple{MappingTriple(t)}, nil
		}
		items = list
	default:
		return nil, fmt.Errorf("decode triples: unsupported document type %T", v)
	}

	out := make([]RawTriple, 0, len(items))
	for i, item := range items {
		raw, err := fromValue(item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, raw)
	}
	return out, nil
}

// ReadFile reads a batch of raw triples from path, or from standard input
// when path is "-".
func ReadFile(path string) ([]RawTriple, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read triples: %w", err)
	}
	raws, err := DecodeBatch(data)
	if err != nil {
		return nil, fmt.Errorf("read triples %s: %w", path, err)
	}
	return raws, nil
}

// Alias tables, in priority order. The first alias present in a mapping wins.
var (
	SubjectAliases    = []string{"subject", "subj", "s", "source"}
	PredicateAliases  = []string{"predicate", "pred", "p", "relation", "property"}
	ObjectAliases     = []string{"object", "obj", "o", "target"}
	LiteralAliases    = []string{"object_is_literal", "is_literal", "literal"}
	ConfidenceAliases = []string{"confidence", "score"}
	HintAliases       = []string{"property_type", "kind"}
	DatatypeAliases   = []string{"datatype"}
)

type fieldSet struct {
	subject, predicate, object any
	hint, literal, confidence  any
	datatype                   any
}

func (p PositionalTriple) fields() fieldSet {
	var f fieldSet
	if len(p) < 3 {
		return f
	}
	f.subject, f.predicate, f.object = p[0], p[1], p[2]
	if len(p) > 3 {
		f.hint = p[3]
	}
	return f
}

func (m MappingTriple) fields() fieldSet {
	return fieldSet{
		subject:    m.lookup(SubjectAliases),
		predicate:  m.lookup(PredicateAliases),
		object:     m.lookup(ObjectAliases),
		hint:       m.lookup(HintAliases),
		literal:    m.lookup(LiteralAliases),
		confidence: m.lookup(ConfidenceAliases),
		datatype:   m.lookup(DatatypeAliases),
	}
}

func (m MappingTriple) lookup(aliases []string) any {
	for _, k := range aliases {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

var errNotScalar = errors.New("not a scalar")

func scalarString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), nil
	case json.Number:
		return t.String(), nil
	case fmt.Stringer:
		return strings.TrimSpace(t.String()), nil
	case bool, int, int32, int64, float32, float64:
		return fmt.Sprint(t), nil
	default:
		return "", errNotScalar
	}
}
