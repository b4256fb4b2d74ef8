package driver

import (
	"context"
	"math/big"
	"strings"

	"github.com/soundprediction/aboxlink/pkg/abox"
	"github.com/soundprediction/aboxlink/pkg/types"
)

// GraphWriter persists assertion graphs.
type GraphWriter interface {
	WriteGraph(ctx context.Context, g *abox.Graph) (*WriteStats, error)
	Close(ctx context.Context) error
}

// WriteStats counts what a write touched.
type WriteStats struct {
	Resources     int `json:"resources"`
	Relationships int `json:"relationships"`
	Properties    int `json:"properties"`
}

// Batch is the parameter form of a graph, ready for UNWIND queries.
type Batch struct {
	Resources []map[string]any
	Edges     []map[string]any
}

// Stats summarizes the batch.
func (b *Batch) Stats() *WriteStats {
	s := &WriteStats{Resources: len(b.Resources), Relationships: len(b.Edges)}
	for _, r := range b.Resources {
		s.Properties += len(r["properties"].(map[string]any))
	}
	return s
}

// BuildBatch flattens g into resource and edge rows. Resources appear in
// first-mention order. A predicate used more than once with literal objects
// on the same subject becomes a list property; mixed literal types in such a
// list are stored in lexical form.
func BuildBatch(g *abox.Graph) *Batch {
	type resource struct {
		iri   string
		types []string
		props map[string][]types.Literal
		order []string
	}

	byIRI := make(map[string]*resource)
	var order []*resource
	touch := func(iri string) *resource {
		if r, ok := byIRI[iri]; ok {
			return r
		}
		r := &resource{iri: iri, props: make(map[string][]types.Literal)}
		byIRI[iri] = r
		order = append(order, r)
		return r
	}

	b := &Batch{}
	for _, st := range g.Statements() {
		subj := touch(st.Subject)
		switch {
		case st.Predicate == abox.RDFType && !st.Object.IsLiteral():
			subj.types = append(subj.types, st.Object.IRI)
		case st.Object.IsLiteral():
			key := PropertyKey(st.Predicate)
			if _, ok := subj.props[key]; !ok {
				subj.order = append(subj.order, key)
			}
			subj.props[key] = append(subj.props[key], *st.Object.Literal)
		default:
			touch(st.Object.IRI)
			b.Edges = append(b.Edges, map[string]any{
				"source":    st.Subject,
				"predicate": st.Predicate,
				"target":    st.Object.IRI,
			})
		}
	}

	b.Resources = make([]map[string]any, 0, len(order))
	for _, r := range order {
		props := make(map[string]any, len(r.props))
		for _, key := range r.order {
			props[key] = propertyValue(r.props[key])
		}
		rdfTypes := r.types
		if rdfTypes == nil {
			rdfTypes = []string{}
		}
		b.Resources = append(b.Resources, map[string]any{
			"iri":        r.iri,
			"rdf_type":   rdfTypes,
			"properties": props,
		})
	}
	return b
}

// ReservedKeyPrefix is prepended to a data property whose local name is one
// of the Resource node's own keys.
const ReservedKeyPrefix = "data_"

// reservedKeys are the node keys set by the merge query itself.
var reservedKeys = map[string]bool{"iri": true, "rdf_type": true}

// PropertyKey returns the node property key for a predicate IRI: its local
// name, with ReservedKeyPrefix when that name is "iri" or "rdf_type".
func PropertyKey(predicate string) string {
	key := predicate
	if i := strings.LastIndexAny(predicate, "#/"); i >= 0 && i < len(predicate)-1 {
		key = predicate[i+1:]
	}
	if reservedKeys[key] {
		return ReservedKeyPrefix + key
	}
	return key
}

// storedValue converts a literal to a driver parameter. Integers beyond
// int64 have no Neo4j type and are stored in lexical form.
func storedValue(l types.Literal) any {
	if _, ok := l.Value.(*big.Int); ok {
		return l.Lexical()
	}
	return l.Value
}

func propertyValue(lits []types.Literal) any {
	if len(lits) == 1 {
		return storedValue(lits[0])
	}
	same := true
	for _, l := range lits[1:] {
		if l.Datatype != lits[0].Datatype {
			same = false
			break
		}
	}
	if same && lits[0].Datatype == types.DatatypeInteger {
		for _, l := range lits {
			if _, ok := l.Value.(*big.Int); ok {
				same = false
				break
			}
		}
	}
	switch {
	case same && lits[0].Datatype == types.DatatypeInteger:
		out := make([]int64, len(lits))
		for i, l := range lits {
			switch v := l.Value.(type) {
			case int64:
				out[i] = v
			case int:
				out[i] = int64(v)
			}
		}
		return out
	case same && lits[0].Datatype == types.DatatypeFloat:
		out := make([]float64, len(lits))
		for i, l := range lits {
			out[i] = l.Value.(float64)
		}
		return out
	default:
		out := make([]string, len(lits))
		for i, l := range lits {
			out[i] = l.Lexical()
		}
		return out
	}
}
