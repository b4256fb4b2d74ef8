package vocab

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Gazetteer resolves mentions that match a vocabulary label exactly after
// normalization, without consulting the embedding model.
type Gazetteer struct {
	classes    map[string]Entry
	properties map[string]Entry
}

// NewGazetteer indexes every label of idx. When two entries share a
// normalized label the one declared first wins; object properties are
// indexed before data properties.
func NewGazetteer(idx *Index) *Gazetteer {
	g := &Gazetteer{
		classes:    make(map[string]Entry),
		properties: make(map[string]Entry),
	}
	add := func(m map[string]Entry, entries []Entry) {
		for _, e := range entries {
			for _, l := range e.Labels {
				key := NormalizeLabel(l)
				if key == "" {
					continue
				}
				if _, exists := m[key]; !exists {
					m[key] = e
				}
			}
		}
	}
	add(g.classes, idx.Classes())
	add(g.properties, idx.ObjectProperties())
	add(g.properties, idx.DataProperties())
	return g
}

// Class returns the class whose label matches mention.
func (g *Gazetteer) Class(mention string) (Entry, bool) {
	e, ok := g.classes[NormalizeLabel(mention)]
	return e, ok
}

// Property returns the object or data property whose label matches mention.
func (g *Gazetteer) Property(mention string) (Entry, bool) {
	e, ok := g.properties[NormalizeLabel(mention)]
	return e, ok
}

// NormalizeLabel applies NFKC, lowercases and collapses whitespace runs.
func NormalizeLabel(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
