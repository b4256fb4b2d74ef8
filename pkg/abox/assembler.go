package abox

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/soundprediction/aboxlink/pkg/types"
	"github.com/soundprediction/aboxlink/pkg/utils"
)

// DefaultMaxSamples bounds the skip records kept in a Report.
const DefaultMaxSamples = 10

// Report summarizes one assembly.
type Report struct {
	Attempted int                `json:"attempted"`
	Succeeded int                `json:"succeeded"`
	Skipped   int                `json:"skipped"`
	Types     int                `json:"type_assertions"`
	Samples   []types.SkipRecord `json:"samples,omitempty"`
}

// Assembler builds assertion graphs from linked triples.
type Assembler struct {
	namespace  string
	prefix     string
	maxSamples int
	logger     *slog.Logger
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithMaxSamples sets how many skip records a Report keeps.
func WithMaxSamples(n int) AssemblerOption {
	return func(a *Assembler) { a.maxSamples = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) AssemblerOption {
	return func(a *Assembler) { a.logger = logger }
}

// NewAssembler creates an assembler writing local names into namespace.
func NewAssembler(namespace, prefix string, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		namespace:  namespace,
		prefix:     prefix,
		maxSamples: DefaultMaxSamples,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// nodeRegistry tracks nodes that already carry a type assertion.
type nodeRegistry map[string]struct{}

func (r nodeRegistry) claim(key string) bool {
	if _, ok := r[key]; ok {
		return false
	}
	r[key] = struct{}{}
	return true
}

// Assemble runs two passes over linked. The first asserts the class of every
// classified node once, first occurrence winning. The second asserts each
// triple's property. A failed property assertion is recorded as skipped and
// never stops the batch; the graph is returned even when nothing succeeded.
func (a *Assembler) Assemble(linked []types.LinkedTriple) (*Graph, Report) {
	g := NewGraph(a.namespace, a.prefix)
	reg := make(nodeRegistry)
	var report Report

	for _, t := range linked {
		nodes := []types.NodeRef{t.Subject}
		if t.Predicate.Kind == types.ObjectProperty && t.Object != nil {
			nodes = append(nodes, *t.Object)
		}
		for _, n := range nodes {
			if n.ClassIRI == "" || !reg.claim(n.Key()) {
				continue
			}
			err := a.add(g, func() (Statement, error) {
				subject, err := a.nodeIRI(n)
				if err != nil {
					return Statement{}, err
				}
				return Statement{Subject: subject, Predicate: RDFType, Object: IRI(n.ClassIRI)}, nil
			})
			if err != nil {
				a.logger.Debug("type assertion rejected", "node", n.Key(), "class", n.Class, "error", err)
				continue
			}
			report.Types++
		}
	}

	for _, t := range linked {
		report.Attempted++
		err := a.add(g, func() (Statement, error) {
			return a.propertyStatement(t)
		})
		if err != nil {
			skip := types.NewSkipError(types.StageAssemble, t.Index, types.ErrGraphWriteFailure, err.Error())
			report.Skipped++
			if len(report.Samples) < a.maxSamples {
				report.Samples = append(report.Samples, skip.Record())
			}
			a.logger.Debug("triple skipped", "index", t.Index, "reason", skip.Error())
			continue
		}
		report.Succeeded++
	}

	return g, report
}

// add builds and inserts one statement, converting panics into errors.
func (a *Assembler) add(g *Graph, build func() (Statement, error)) (err error) {
	defer utils.RecoverAsError(&err)
	s, err := build()
	if err != nil {
		return err
	}
	_, err = g.Add(s)
	return err
}

func (a *Assembler) propertyStatement(t types.LinkedTriple) (Statement, error) {
	subject, err := a.nodeIRI(t.Subject)
	if err != nil {
		return Statement{}, fmt.Errorf("subject: %w", err)
	}
	if t.Predicate.IRI == "" {
		return Statement{}, errors.New("predicate has no IRI")
	}
	st := Statement{Subject: subject, Predicate: t.Predicate.IRI}

	switch t.Predicate.Kind {
	case types.ObjectProperty:
		if t.Object == nil {
			return Statement{}, errors.New("object property without object node")
		}
		obj, err := a.nodeIRI(*t.Object)
		if err != nil {
			return Statement{}, fmt.Errorf("object: %w", err)
		}
		st.Object = IRI(obj)
	case types.DataProperty:
		if t.Literal == nil {
			return Statement{}, errors.New("data property without literal")
		}
		st.Object = Lit(typedLiteral(*t.Literal))
	default:
		return Statement{}, fmt.Errorf("unknown predicate kind %q", t.Predicate.Kind)
	}
	return st, nil
}

func (a *Assembler) nodeIRI(n types.NodeRef) (string, error) {
	if n.External() {
		return n.IRI, nil
	}
	if n.Name == "" {
		return "", errors.New("empty local name")
	}
	return a.namespace + n.Name, nil
}

// typedLiteral fills in a missing datatype from the value's Go type.
func typedLiteral(l types.Literal) types.Literal {
	if l.Datatype != "" {
		return l
	}
	switch v := l.Value.(type) {
	case int64:
		l.Datatype = types.DatatypeInteger
	case int:
		l.Value, l.Datatype = int64(v), types.DatatypeInteger
	case *big.Int:
		l.Datatype = types.DatatypeInteger
	case float64:
		l.Datatype = types.DatatypeFloat
	case float32:
		l.Value, l.Datatype = float64(v), types.DatatypeFloat
	default:
		l.Value, l.Datatype = l.Lexical(), types.DatatypeString
	}
	return l
}
