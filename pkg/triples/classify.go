package triples

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/soundprediction/aboxlink/pkg/types"
)

// TermKind is the classification of a triple object.
type TermKind int

const (
	IntegerLiteral TermKind = iota + 1
	FloatLiteral
	// LocalResource is a node inside the vocabulary namespace.
	LocalResource
	// ExternalResource is a node referenced by a verbatim IRI.
	ExternalResource
)

func (k TermKind) String() string {
	switch k {
	case IntegerLiteral:
		return "integer"
	case FloatLiteral:
		return "float"
	case LocalResource:
		return "local"
	case ExternalResource:
		return "external"
	default:
		return "unknown"
	}
}

// Term is a classified object.
type Term struct {
	Kind TermKind
	// Text is the trimmed lexical form of the object as received.
	Text string
	// Value is the int64 or float64 of a literal, or a *big.Int for an
	// integer outside the int64 range.
	Value any
	// Local is the sanitized local name of a LocalResource.
	Local string
	// IRI is the verbatim IRI of an ExternalResource.
	IRI string
}

// IsLiteral reports whether the term was classified as a numeric literal.
func (t Term) IsLiteral() bool {
	return t.Kind == IntegerLiteral || t.Kind == FloatLiteral
}

var (
	integerPattern = regexp.MustCompile(`^-?[0-9]+$`)
	decimalPattern = regexp.MustCompile(`^-?[0-9]+\.[0-9]+$`)
)

// Classify decides whether obj is a literal or a resource. Numeric values are
// literals unconditionally. Strings are tested in order against the integer
// and decimal lexical forms, a "prefix:local" name in the vocabulary prefix,
// an absolute http(s) IRI, and finally become a sanitized local resource.
func Classify(obj any, prefix string) Term {
	switch v := obj.(type) {
	case int64:
		return Term{Kind: IntegerLiteral, Text: strconv.FormatInt(v, 10), Value: v}
	case int:
		return Term{Kind: IntegerLiteral, Text: strconv.Itoa(v), Value: int64(v)}
	case float64:
		return Term{Kind: FloatLiteral, Text: types.FormatFloat(v), Value: v}
	}

	s := strings.TrimSpace(fmt.Sprint(obj))
	switch {
	case integerPattern.MatchString(s):
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Term{Kind: IntegerLiteral, Text: s, Value: i}
		}
		n, _ := new(big.Int).SetString(s, 10)
		return Term{Kind: IntegerLiteral, Text: s, Value: n}
	case decimalPattern.MatchString(s):
		f, _ := strconv.ParseFloat(s, 64)
		return Term{Kind: FloatLiteral, Text: s, Value: f}
	}

	if prefix != "" {
		if local, ok := strings.CutPrefix(s, prefix+":"); ok && local != "" {
			return Term{Kind: LocalResource, Text: s, Local: SafeID(local)}
		}
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return Term{Kind: ExternalResource, Text: s, IRI: s}
	}
	return Term{Kind: LocalResource, Text: s, Local: SafeID(s)}
}

// EscapeMarker is prepended to identifiers that would start with a digit.
const EscapeMarker = "_"

// SafeID sanitizes free text into an IRI-safe local name: surrounding
// whitespace is trimmed, internal whitespace runs become one underscore,
// characters outside [A-Za-z0-9_:-] are dropped, and a leading digit gets
// EscapeMarker. SafeID(SafeID(s)) == SafeID(s).
func SafeID(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
				inSpace = true
			}
			continue
		}
		inSpace = false
		if isSafeRune(r) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = EscapeMarker + out
	}
	return out
}

func isSafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == ':' || r == '-':
		return true
	default:
		return false
	}
}
