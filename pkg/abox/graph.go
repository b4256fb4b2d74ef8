// Package abox assembles linked triples into an assertion graph and
// serializes it as Turtle or N-Triples.
package abox

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"slices"
	"strings"

	"github.com/soundprediction/aboxlink/pkg/types"
)

// Well-known namespaces.
const (
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFType      = RDFNamespace + "type"
)

// Term is the object of a statement: an IRI or a literal.
type Term struct {
	IRI     string         `json:"iri,omitempty"`
	Literal *types.Literal `json:"literal,omitempty"`
}

// IRI returns a resource term.
func IRI(iri string) Term {
	return Term{IRI: iri}
}

// Lit returns a literal term.
func Lit(l types.Literal) Term {
	return Term{Literal: &l}
}

// IsLiteral reports whether the term is a literal.
func (t Term) IsLiteral() bool {
	return t.Literal != nil
}

func (t Term) key() string {
	if t.Literal != nil {
		return "L" + string(t.Literal.Datatype) + "\x00" + t.Literal.Lexical()
	}
	return "I" + t.IRI
}

// Statement is one (subject, predicate, object) assertion.
type Statement struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    Term   `json:"object"`
}

func (s Statement) key() string {
	return s.Subject + "\x00" + s.Predicate + "\x00" + s.Object.key()
}

var (
	errEmptyIRI        = errors.New("empty IRI")
	errUnsupportedLit  = errors.New("unsupported literal shape")
	invalidIRICharsSet = "<>\"{}|^`\\"
)

// Graph is an insertion-ordered set of statements.
type Graph struct {
	// Namespace and Prefix name the vocabulary namespace for serialization.
	Namespace string
	Prefix    string

	statements []Statement
	index      map[string]struct{}
}

// NewGraph creates an empty graph.
func NewGraph(namespace, prefix string) *Graph {
	return &Graph{
		Namespace: namespace,
		Prefix:    prefix,
		index:     make(map[string]struct{}),
	}
}

// Add validates and inserts a statement. It reports false, with a nil error,
// when the statement is already present.
func (g *Graph) Add(s Statement) (bool, error) {
	if err := validateIRI(s.Subject); err != nil {
		return false, fmt.Errorf("subject: %w", err)
	}
	if err := validateIRI(s.Predicate); err != nil {
		return false, fmt.Errorf("predicate: %w", err)
	}
	if s.Object.Literal != nil {
		if err := validateLiteral(*s.Object.Literal); err != nil {
			return false, fmt.Errorf("object: %w", err)
		}
	} else if err := validateIRI(s.Object.IRI); err != nil {
		return false, fmt.Errorf("object: %w", err)
	}

	k := s.key()
	if _, ok := g.index[k]; ok {
		return false, nil
	}
	g.index[k] = struct{}{}
	g.statements = append(g.statements, s)
	return true, nil
}

// Len returns the number of statements.
func (g *Graph) Len() int {
	return len(g.statements)
}

// Statements returns a copy of the statements in insertion order.
func (g *Graph) Statements() []Statement {
	return slices.Clone(g.statements)
}

// Contains reports whether the statement is in the graph.
func (g *Graph) Contains(s Statement) bool {
	_, ok := g.index[s.key()]
	return ok
}

// TypesOf returns the classes asserted for subject.
func (g *Graph) TypesOf(subject string) []string {
	var out []string
	for _, s := range g.statements {
		if s.Subject == subject && s.Predicate == RDFType && !s.Object.IsLiteral() {
			out = append(out, s.Object.IRI)
		}
	}
	return out
}

// LocalIRI returns the IRI of a local name in the graph namespace.
func (g *Graph) LocalIRI(local string) string {
	return g.Namespace + local
}

func validateIRI(iri string) error {
	if iri == "" {
		return errEmptyIRI
	}
	if i := strings.IndexFunc(iri, func(r rune) bool {
		return r <= 0x20 || strings.ContainsRune(invalidIRICharsSet, r)
	}); i >= 0 {
		return fmt.Errorf("invalid character %q in IRI %q", iri[i], iri)
	}
	return nil
}

func validateLiteral(l types.Literal) error {
	switch v := l.Value.(type) {
	case int64, int, *big.Int:
		if l.Datatype != types.DatatypeInteger {
			return fmt.Errorf("%w: integer value with datatype %q", errUnsupportedLit, l.Datatype)
		}
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite float", errUnsupportedLit)
		}
		if l.Datatype != types.DatatypeFloat {
			return fmt.Errorf("%w: float value with datatype %q", errUnsupportedLit, l.Datatype)
		}
	case string:
		if l.Datatype != types.DatatypeString {
			return fmt.Errorf("%w: string value with datatype %q", errUnsupportedLit, l.Datatype)
		}
	default:
		return fmt.Errorf("%w: %T", errUnsupportedLit, l.Value)
	}
	return nil
}
