package types

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePropertyKind(t *testing.T) {
	tests := []struct {
		hint string
		want PropertyKind
		ok   bool
	}{
		{"object", ObjectProperty, true},
		{" Relation ", ObjectProperty, true},
		{"data", DataProperty, true},
		{"literal", DataProperty, true},
		{"attribute", DataProperty, true},
		{"", "", false},
		{"banana", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			got, ok := ParsePropertyKind(tt.hint)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDatatype(t *testing.T) {
	tests := []struct {
		in   string
		want Datatype
		ok   bool
	}{
		{"float", DatatypeFloat, true},
		{"xsd:float", DatatypeFloat, true},
		{"http://www.w3.org/2001/XMLSchema#integer", DatatypeInteger, true},
		{"xsd:double", DatatypeFloat, true},
		{"int", DatatypeInteger, true},
		{"xsd:string", DatatypeString, true},
		{"xsd:dateTime", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDatatype(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "http://www.w3.org/2001/XMLSchema#float", DatatypeFloat.IRI())
}

func TestLiteralLexical(t *testing.T) {
	assert.Equal(t, "120.0", Literal{Value: float64(120), Datatype: DatatypeFloat}.Lexical())
	assert.Equal(t, "3.14", Literal{Value: 3.14, Datatype: DatatypeFloat}.Lexical())
	assert.Equal(t, "-7", Literal{Value: int64(-7), Datatype: DatatypeInteger}.Lexical())
	huge, _ := new(big.Int).SetString("-99999999999999999999", 10)
	assert.Equal(t, "-99999999999999999999", Literal{Value: huge, Datatype: DatatypeInteger}.Lexical())
	assert.Equal(t, "steel", Literal{Value: "steel", Datatype: DatatypeString}.Lexical())
	assert.Equal(t, "true", Literal{Value: true, Datatype: DatatypeString}.Lexical())
}

func TestNodeRefKey(t *testing.T) {
	local := NodeRef{Name: "Tunnel_1"}
	external := NodeRef{Name: "a", IRI: "https://x.org/a"}

	assert.False(t, local.External())
	assert.True(t, external.External())
	assert.Equal(t, "#Tunnel_1", local.Key())
	assert.Equal(t, "https://x.org/a", external.Key())
}

func TestSkipError(t *testing.T) {
	err := NewSkipError(StageLink, 3, ErrUnresolvedPredicate, `"zorps"`)

	var wrapped error = err
	assert.True(t, errors.Is(wrapped, ErrUnresolvedPredicate))
	assert.False(t, errors.Is(wrapped, ErrGraphWriteFailure))
	assert.Contains(t, err.Error(), "triple 3")

	rec := err.Record()
	require.Equal(t, StageLink, rec.Stage)
	assert.Equal(t, 3, rec.Index)
	assert.Equal(t, "unresolved predicate", rec.Reason)
	assert.Equal(t, `"zorps"`, rec.Detail)
}
