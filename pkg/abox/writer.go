package abox

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/soundprediction/aboxlink/pkg/types"
)

// Format is a serialization format.
type Format string

const (
	// FormatTurtle produces Turtle (.ttl) output.
	FormatTurtle Format = "turtle"
	// FormatNTriples produces N-Triples (.nt) output.
	FormatNTriples Format = "ntriples"
)

// ParseFormat accepts format names and common file extensions.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "turtle", "ttl":
		return FormatTurtle, nil
	case "ntriples", "n-triples", "nt":
		return FormatNTriples, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Write serializes g in the given format.
func Write(w io.Writer, g *Graph, format Format) error {
	switch format {
	case FormatTurtle, "":
		return WriteTurtle(w, g)
	case FormatNTriples:
		return WriteNTriples(w, g)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// Turtle PN_LOCAL restricted to ASCII; names outside it are written as full IRIs.
var turtleLocal = regexp.MustCompile(`^[A-Za-z0-9_:]([A-Za-z0-9_:.-]*[A-Za-z0-9_:-])?$`)

// WriteTurtle writes the prefix block once and then one statement per line.
func WriteTurtle(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)
	prefixes := [][2]string{
		{g.Prefix, g.Namespace},
		{"rdf", RDFNamespace},
		{"xsd", types.XSDNamespace},
	}
	for _, p := range prefixes {
		if p[0] == "" || p[1] == "" {
			continue
		}
		fmt.Fprintf(bw, "@prefix %s: <%s> .\n", p[0], p[1])
	}
	bw.WriteString("\n")

	tw := turtleNames{prefixes: prefixes}
	for _, s := range g.statements {
		pred := tw.name(s.Predicate)
		if s.Predicate == RDFType {
			pred = "a"
		}
		fmt.Fprintf(bw, "%s %s %s .\n", tw.name(s.Subject), pred, tw.object(s.Object))
	}
	return bw.Flush()
}

type turtleNames struct {
	prefixes [][2]string
}

func (t turtleNames) name(iri string) string {
	for _, p := range t.prefixes {
		if p[0] == "" || p[1] == "" {
			continue
		}
		if local, ok := strings.CutPrefix(iri, p[1]); ok && turtleLocal.MatchString(local) {
			return p[0] + ":" + local
		}
	}
	return "<" + iri + ">"
}

func (t turtleNames) object(term Term) string {
	if term.Literal == nil {
		return t.name(term.IRI)
	}
	lit := *term.Literal
	return fmt.Sprintf("\"%s\"^^%s", escapeString(lit.Lexical()), t.name(lit.Datatype.IRI()))
}

// WriteNTriples writes one fully expanded statement per line.
func WriteNTriples(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)
	for _, s := range g.statements {
		fmt.Fprintf(bw, "<%s> <%s> %s .\n", s.Subject, s.Predicate, ntriplesObject(s.Object))
	}
	return bw.Flush()
}

func ntriplesObject(term Term) string {
	if term.Literal == nil {
		return "<" + term.IRI + ">"
	}
	lit := *term.Literal
	return fmt.Sprintf("\"%s\"^^<%s>", escapeString(lit.Lexical()), lit.Datatype.IRI())
}

// escapeString escapes special characters in strings for RDF serialization.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
