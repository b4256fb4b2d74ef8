package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/soundprediction/aboxlink/pkg/triples"
	"github.com/soundprediction/aboxlink/pkg/types"
)

// DefaultSubjectID names the subject when a RuleExtractor has none.
const DefaultSubjectID = "Tunnel_1"

// Rule matches a pattern and emits up to two triples per match: an object
// triple linking the subject to a node, and a data triple carrying the
// captured value.
//
// Subject and Object templates may reference {id} for the subject id.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp

	Subject   string
	Predicate string
	// Object is empty for rules that only emit data.
	Object string

	DataSubject   string
	DataPredicate string
	Datatype      types.Datatype
	// ValueGroup is the submatch holding the literal value.
	ValueGroup int
}

// TunnelRules extract tunnel length, cross passage count, hydrant pressure
// and extinguisher weight.
var TunnelRules = []Rule{
	{
		Name:          "tunnel length",
		Pattern:       regexp.MustCompile(`(?ims)(tunnel|structure)\s+length\s*[:\-]?\s*(\d{2,6})\s*m\b`),
		Subject:       "{id}",
		Predicate:     "hasSpecification",
		Object:        "{id}_Spec",
		DataSubject:   "{id}_Spec",
		DataPredicate: "tunnelLength",
		Datatype:      types.DatatypeFloat,
		ValueGroup:    2,
	},
	{
		Name:          "cross passages",
		Pattern:       regexp.MustCompile(`(?ims)(cross passages?|cross-passages?)\s*[:\-]?\s*(\d{1,3})\b`),
		DataSubject:   "{id}_Spec",
		DataPredicate: "numberOfCrossPassages",
		Datatype:      types.DatatypeInteger,
		ValueGroup:    2,
	},
	{
		Name:          "hydrant pressure",
		Pattern:       regexp.MustCompile(`(?ims)(hydrant).*?(pressure)\s*[:\-]?\s*(\d+(?:\.\d+)?)\s*bar`),
		Subject:       "{id}",
		Predicate:     "hasSafetyMeasure",
		Object:        "{id}_Hydrant",
		DataSubject:   "{id}_Hydrant",
		DataPredicate: "pressure",
		Datatype:      types.DatatypeFloat,
		ValueGroup:    3,
	},
	{
		Name:          "extinguisher weight",
		Pattern:       regexp.MustCompile(`(?ims)(fire extinguisher).*?(weight)\s*[:\-]?\s*(\d+(?:\.\d+)?)\s*kg`),
		Subject:       "{id}",
		Predicate:     "hasSafetyMeasure",
		Object:        "{id}_Extinguisher",
		DataSubject:   "{id}_Extinguisher",
		DataPredicate: "hasWeight",
		Datatype:      types.DatatypeFloat,
		ValueGroup:    3,
	},
}

// RuleExtractor extracts triples with regular expressions.
type RuleExtractor struct {
	subjectID string
	rules     []Rule
}

// NewRuleExtractor creates an extractor for subjectID. With no rules,
// TunnelRules are used.
func NewRuleExtractor(subjectID string, rules ...Rule) *RuleExtractor {
	if subjectID == "" {
		subjectID = DefaultSubjectID
	}
	if len(rules) == 0 {
		rules = TunnelRules
	}
	return &RuleExtractor{subjectID: subjectID, rules: rules}
}

// Extract implements Provider. Rules run in order; matches of one rule are
// emitted in text order.
func (e *RuleExtractor) Extract(ctx context.Context, text string) ([]triples.RawTriple, error) {
	var out []triples.RawTriple
	for _, rule := range e.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, m := range rule.Pattern.FindAllStringSubmatch(text, -1) {
			raws, err := e.apply(rule, m)
			if err != nil {
				return nil, err
			}
			out = append(out, raws...)
		}
	}
	return out, nil
}

func (e *RuleExtractor) apply(rule Rule, m []string) ([]triples.RawTriple, error) {
	var out []triples.RawTriple
	if rule.Object != "" {
		out = append(out, triples.MappingTriple{
			"subject":       e.expand(rule.Subject),
			"predicate":     rule.Predicate,
			"object":        e.expand(rule.Object),
			"property_type": string(types.ObjectProperty),
		})
	}

	if rule.DataPredicate == "" {
		return out, nil
	}
	if rule.ValueGroup >= len(m) {
		return nil, fmt.Errorf("rule %q: no submatch %d", rule.Name, rule.ValueGroup)
	}
	value, err := castValue(m[rule.ValueGroup], rule.Datatype)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
	}
	out = append(out, triples.MappingTriple{
		"subject":           e.expand(rule.DataSubject),
		"predicate":         rule.DataPredicate,
		"object":            value,
		"object_is_literal": true,
		"datatype":          string(rule.Datatype),
		"confidence":        1.0,
	})
	return out, nil
}

func (e *RuleExtractor) expand(tmpl string) string {
	return strings.ReplaceAll(tmpl, "{id}", e.subjectID)
}

func castValue(s string, dt types.Datatype) (any, error) {
	switch dt {
	case types.DatatypeInteger:
		return strconv.ParseInt(s, 10, 64)
	case types.DatatypeFloat:
		return strconv.ParseFloat(s, 64)
	default:
		return s, nil
	}
}
