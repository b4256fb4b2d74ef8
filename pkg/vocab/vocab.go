package vocab

import (
	"slices"

	"github.com/soundprediction/aboxlink/pkg/types"
)

// Kind is the kind of a vocabulary term.
type Kind string

const (
	KindClass          Kind = "class"
	KindObjectProperty Kind = "object_property"
	KindDataProperty   Kind = "data_property"
)

// PropertyKind maps a property Kind onto the edge kind used in linked
// triples. The boolean is false for classes.
func (k Kind) PropertyKind() (types.PropertyKind, bool) {
	switch k {
	case KindObjectProperty:
		return types.ObjectProperty, true
	case KindDataProperty:
		return types.DataProperty, true
	default:
		return "", false
	}
}

// Entry is a single vocabulary term. Entries are immutable once built.
type Entry struct {
	IRI  string `json:"iri"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	// Labels is the sorted set of surface forms, always including Name.
	Labels []string `json:"labels"`

	// Parents lists superclass names (classes only).
	Parents []string `json:"parents,omitempty"`
	// Domain and Range name the classes a property connects. For data
	// properties Range may instead hold a datatype.
	Domain string `json:"domain,omitempty"`
	Range  string `json:"range,omitempty"`
	// Datatype is the parsed literal range of a data property, if declared.
	Datatype types.Datatype `json:"datatype,omitempty"`
}

// NewEntry builds an entry whose label set is name plus every given label,
// deduplicated by exact string match and sorted.
func NewEntry(iri, name string, kind Kind, labels ...string) Entry {
	set := make(map[string]struct{}, len(labels)+1)
	set[name] = struct{}{}
	for _, l := range labels {
		if l == "" {
			continue
		}
		set[l] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	slices.Sort(out)

	return Entry{IRI: iri, Name: name, Kind: kind, Labels: out}
}

// HasLabel reports whether s is one of the entry's labels, compared verbatim.
func (e Entry) HasLabel(s string) bool {
	_, found := slices.BinarySearch(e.Labels, s)
	return found
}

// LabelPool holds parallel arrays of labels and the entries they belong to.
type LabelPool struct {
	Kind    Kind
	Labels  []string
	Entries []Entry
}

// NewLabelPool flattens entries into one row per label.
func NewLabelPool(kind Kind, entries []Entry) LabelPool {
	n := 0
	for _, e := range entries {
		n += len(e.Labels)
	}
	pool := LabelPool{
		Kind:    kind,
		Labels:  make([]string, 0, n),
		Entries: make([]Entry, 0, n),
	}
	for _, e := range entries {
		for _, l := range e.Labels {
			pool.Labels = append(pool.Labels, l)
			pool.Entries = append(pool.Entries, e)
		}
	}
	return pool
}

// Len returns the number of rows in the pool.
func (p LabelPool) Len() int {
	return len(p.Labels)
}

// Index is a loaded vocabulary snapshot.
type Index struct {
	// Namespace is the IRI prefix for vocabulary-local identifiers.
	Namespace string
	// Prefix is the short name bound to Namespace in serialized output and
	// recognized in "prefix:local" object references.
	Prefix string

	classes          []Entry
	objectProperties []Entry
	dataProperties   []Entry
	byName           map[Kind]map[string]Entry
}

// NewIndex builds an index from already-validated entries.
func NewIndex(namespace, prefix string, classes, objectProperties, dataProperties []Entry) *Index {
	idx := &Index{
		Namespace:        namespace,
		Prefix:           prefix,
		classes:          classes,
		objectProperties: objectProperties,
		dataProperties:   dataProperties,
		byName:           make(map[Kind]map[string]Entry, 3),
	}
	for _, k := range []Kind{KindClass, KindObjectProperty, KindDataProperty} {
		entries := idx.Entries(k)
		m := make(map[string]Entry, len(entries))
		for _, e := range entries {
			m[e.Name] = e
		}
		idx.byName[k] = m
	}
	return idx
}

// Classes returns the class entries in source order.
func (x *Index) Classes() []Entry { return slices.Clone(x.classes) }

// ObjectProperties returns the object property entries in source order.
func (x *Index) ObjectProperties() []Entry { return slices.Clone(x.objectProperties) }

// DataProperties returns the data property entries in source order.
func (x *Index) DataProperties() []Entry { return slices.Clone(x.dataProperties) }

// Entries returns the entries of the given kind in source order.
func (x *Index) Entries(kind Kind) []Entry {
	switch kind {
	case KindClass:
		return x.Classes()
	case KindObjectProperty:
		return x.ObjectProperties()
	case KindDataProperty:
		return x.DataProperties()
	default:
		return nil
	}
}

// Lookup finds an entry by canonical name.
func (x *Index) Lookup(kind Kind, name string) (Entry, bool) {
	e, ok := x.byName[kind][name]
	return e, ok
}

// LookupProperty finds an object or data property by canonical name,
// preferring object properties.
func (x *Index) LookupProperty(name string) (Entry, bool) {
	if e, ok := x.Lookup(KindObjectProperty, name); ok {
		return e, true
	}
	return x.Lookup(KindDataProperty, name)
}

// Pool returns the label pool of the given kind.
func (x *Index) Pool(kind Kind) LabelPool {
	return NewLabelPool(kind, x.Entries(kind))
}

// LocalIRI returns the IRI of a vocabulary-local identifier.
func (x *Index) LocalIRI(local string) string {
	return x.Namespace + local
}

// Stats summarizes the size of an index.
type Stats struct {
	Classes              int `json:"classes"`
	ObjectProperties     int `json:"object_properties"`
	DataProperties       int `json:"data_properties"`
	ClassLabels          int `json:"class_labels"`
	ObjectPropertyLabels int `json:"object_property_labels"`
	DataPropertyLabels   int `json:"data_property_labels"`
}

// Stats returns entry and label row counts per kind.
func (x *Index) Stats() Stats {
	return Stats{
		Classes:              len(x.classes),
		ObjectProperties:     len(x.objectProperties),
		DataProperties:       len(x.dataProperties),
		ClassLabels:          x.Pool(KindClass).Len(),
		ObjectPropertyLabels: x.Pool(KindObjectProperty).Len(),
		DataPropertyLabels:   x.Pool(KindDataProperty).Len(),
	}
}
