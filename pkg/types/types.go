package types

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// PropertyKind distinguishes relations between two resources from relations
// between a resource and a literal value.
type PropertyKind string

const (
	// ObjectProperty links a resource to another resource.
	ObjectProperty PropertyKind = "object"
	// DataProperty links a resource to a literal.
	DataProperty PropertyKind = "data"
)

// ParsePropertyKind maps the loose hints produced by extraction providers
// ("object", "relation", "data", "literal", "attribute", ...) to a PropertyKind.
// The boolean is false when the hint is empty or unrecognized.
func ParsePropertyKind(hint string) (PropertyKind, bool) {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "object", "objectproperty", "object_property", "relation", "resource", "link":
		return ObjectProperty, true
	case "data", "dataproperty", "data_property", "datatype", "literal", "attribute", "value":
		return DataProperty, true
	default:
		return "", false
	}
}

// Datatype is the datatype of a literal in the assertion graph.
type Datatype string

const (
	DatatypeInteger Datatype = "integer"
	DatatypeFloat   Datatype = "float"
	DatatypeString  Datatype = "string"
)

// XSDNamespace is the XML Schema datatype namespace.
const XSDNamespace = "http://www.w3.org/2001/XMLSchema#"

// IRI returns the XML Schema IRI of the datatype.
func (d Datatype) IRI() string {
	return XSDNamespace + string(d)
}

// ParseDatatype accepts bare names ("float"), prefixed names ("xsd:float")
// and full XML Schema IRIs. Aliases such as "int", "double" and "decimal" map
// onto the three supported datatypes.
func ParseDatatype(s string) (Datatype, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, XSDNamespace)
	s = strings.TrimPrefix(s, "xsd:")
	switch strings.ToLower(s) {
	case "integer", "int", "long", "short", "nonnegativeinteger", "positiveinteger":
		return DatatypeInteger, true
	case "float", "double", "decimal":
		return DatatypeFloat, true
	case "string", "str", "text":
		return DatatypeString, true
	default:
		return "", false
	}
}

// NodeRef is a resolved graph node: either a vocabulary-local resource named
// by a sanitized local name, or an external resource with a verbatim IRI.
type NodeRef struct {
	// Name is the sanitized local name inside the vocabulary namespace.
	Name string `json:"name"`
	// IRI is set only for external references and is used verbatim.
	IRI string `json:"iri,omitempty"`
	// Class is the canonical name of the linked vocabulary class, empty when
	// no class met the linking threshold.
	Class string `json:"class,omitempty"`
	// ClassIRI is the IRI of Class.
	ClassIRI string `json:"class_iri,omitempty"`
	// Score is the similarity score of the class link.
	Score float64 `json:"score,omitempty"`
}

// External reports whether the node is referenced by a verbatim IRI.
func (n NodeRef) External() bool {
	return n.IRI != ""
}

// Key identifies the node independently of its class.
func (n NodeRef) Key() string {
	if n.IRI != "" {
		return n.IRI
	}
	return "#" + n.Name
}

// PredicateRef is a predicate resolved to a vocabulary property.
type PredicateRef struct {
	Name  string       `json:"name"`
	IRI   string       `json:"iri"`
	Kind  PropertyKind `json:"kind"`
	Score float64      `json:"score,omitempty"`
}

// Literal is a typed literal value. Value holds an int64, float64 or string,
// or a *big.Int for an integer outside the int64 range.
type Literal struct {
	Value    any      `json:"value"`
	Datatype Datatype `json:"datatype"`
}

// Lexical returns the canonical lexical form of the literal. Floats always
// carry a fractional part so that they never read back as integers.
func (l Literal) Lexical() string {
	switch v := l.Value.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case *big.Int:
		return v.String()
	case float64:
		return FormatFloat(v)
	case float32:
		return FormatFloat(float64(v))
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// FormatFloat renders f in the shortest form that still contains a decimal
// point or exponent.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if strings.ContainsAny(s, ".eEnN") {
		return s
	}
	return s + ".0"
}

// LinkedTriple is the terminal representation consumed by graph assembly.
// Exactly one of Object and Literal is set; which one matches Predicate.Kind.
type LinkedTriple struct {
	// Index is the position of the originating raw triple in its batch.
	Index      int          `json:"index"`
	Subject    NodeRef      `json:"subject"`
	Predicate  PredicateRef `json:"predicate"`
	Object     *NodeRef     `json:"object,omitempty"`
	Literal    *Literal     `json:"literal,omitempty"`
	Confidence *float64     `json:"confidence,omitempty"`
}

// Message is a single chat message exchanged with a language model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role is the author of a chat message.
type Role string

// Response is a chat completion returned by a language model.
type Response struct {
	Content      string      `json:"content"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Model        string      `json:"model,omitempty"`
	TokensUsed   *TokenUsage `json:"tokens_used,omitempty"`
}

// TokenUsage reports token accounting for a completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
