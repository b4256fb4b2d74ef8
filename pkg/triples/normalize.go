package triples

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/soundprediction/aboxlink/pkg/types"
)

// Normalized is a raw triple with its fields resolved. Object holds a
// string, int64 or float64.
type Normalized struct {
	// Index is the position of the raw record in its batch.
	Index     int    `json:"index"`
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    any    `json:"object"`
	// Hint is the property-type hint, if any ("object", "data", ...).
	Hint string `json:"property_type,omitempty"`
	// IsLiteral is the provider's literal/resource flag, if any.
	IsLiteral *bool `json:"object_is_literal,omitempty"`
	// Datatype is an explicit literal datatype requested by the provider.
	Datatype   string   `json:"datatype,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// PropertyKindHint folds the hint and the literal flag into a property kind.
// An explicit hint takes precedence over the flag.
func (n Normalized) PropertyKindHint() (types.PropertyKind, bool) {
	if k, ok := types.ParsePropertyKind(n.Hint); ok {
		return k, true
	}
	if n.IsLiteral != nil {
		if *n.IsLiteral {
			return types.DataProperty, true
		}
		return types.ObjectProperty, true
	}
	return "", false
}

// ObjectText returns the object in its lexical form.
func (n Normalized) ObjectText() string {
	switch v := n.Object.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return types.FormatFloat(v)
	default:
		return fmt.Sprint(v)
	}
}

// Normalize resolves the fields of raw. It reports false when the record
// lacks a subject, predicate or object.
func Normalize(raw RawTriple) (Normalized, bool) {
	if raw == nil {
		return Normalized{}, false
	}
	f := raw.fields()

	subject, err := scalarString(f.subject)
	if err != nil || subject == "" {
		return Normalized{}, false
	}
	predicate, err := scalarString(f.predicate)
	if err != nil || predicate == "" {
		return Normalized{}, false
	}
	object, ok := normalizeObject(f.object)
	if !ok {
		return Normalized{}, false
	}

	n := Normalized{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	}
	if s, err := scalarString(f.hint); err == nil {
		n.Hint = s
	}
	if s, err := scalarString(f.datatype); err == nil {
		n.Datatype = s
	}
	if b, ok := parseBool(f.literal); ok {
		n.IsLiteral = &b
	}
	if c, ok := parseFloat(f.confidence); ok {
		n.Confidence = &c
	}
	return n, true
}

// NormalizeAll normalizes a batch. Unusable records are returned as skip
// errors and never stop the batch.
func NormalizeAll(raws []RawTriple) ([]Normalized, []*types.SkipError) {
	out := make([]Normalized, 0, len(raws))
	var skipped []*types.SkipError
	for i, raw := range raws {
		n, ok := Normalize(raw)
		if !ok {
			skipped = append(skipped, types.NewSkipError(types.StageNormalize, i, types.ErrUnusableTripleShape, describe(raw)))
			continue
		}
		n.Index = i
		out = append(out, n)
	}
	return out, skipped
}

func describe(raw RawTriple) string {
	if raw == nil {
		return "nil record"
	}
	f := raw.fields()
	var missing []string
	if s, err := scalarString(f.subject); err != nil || s == "" {
		missing = append(missing, "subject")
	}
	if s, err := scalarString(f.predicate); err != nil || s == "" {
		missing = append(missing, "predicate")
	}
	if _, ok := normalizeObject(f.object); !ok {
		missing = append(missing, "object")
	}
	return fmt.Sprintf("%s record missing %s", raw.Shape(), strings.Join(missing, ", "))
}

func normalizeObject(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		if integerPattern.MatchString(t.String()) {
			// Beyond int64; Classify keeps it as an exact integer.
			return t.String(), true
		}
		if f, err := t.Float64(); err == nil {
			return f, true
		}
		return t.String(), true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		s, err := scalarString(v)
		if err != nil || s == "" {
			return nil, false
		}
		return s, true
	}
}

func parseBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return b, err == nil
	case json.Number:
		i, err := t.Int64()
		return i != 0, err == nil
	default:
		return false, false
	}
}

func parseFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
