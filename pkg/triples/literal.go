package triples

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/soundprediction/aboxlink/pkg/types"
)

// CoerceLiteral turns a classified object into a typed literal. With an empty
// datatype the literal keeps the datatype inferred from its lexical form,
// falling back to string. A requested datatype, such as a data property's
// range, takes precedence: "120" under float becomes 120.0. When coercion
// fails the string literal is returned together with an error wrapping
// types.ErrMalformedLiteral.
func CoerceLiteral(t Term, dt types.Datatype) (types.Literal, error) {
	text := t.Text
	switch dt {
	case "":
		switch t.Kind {
		case IntegerLiteral, FloatLiteral:
			return literalOf(t.Value), nil
		default:
			return types.Literal{Value: text, Datatype: types.DatatypeString}, nil
		}

	case types.DatatypeInteger:
		switch v := t.Value.(type) {
		case int64:
			return types.Literal{Value: v, Datatype: types.DatatypeInteger}, nil
		case *big.Int:
			return types.Literal{Value: v, Datatype: types.DatatypeInteger}, nil
		}
		if f, ok := t.Value.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return types.Literal{Value: int64(f), Datatype: types.DatatypeInteger}, nil
		}
		if i, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil {
			return types.Literal{Value: i, Datatype: types.DatatypeInteger}, nil
		}

	case types.DatatypeFloat:
		switch v := t.Value.(type) {
		case int64:
			return types.Literal{Value: float64(v), Datatype: types.DatatypeFloat}, nil
		case float64:
			return types.Literal{Value: v, Datatype: types.DatatypeFloat}, nil
		case *big.Int:
			f, _ := new(big.Float).SetInt(v).Float64()
			return types.Literal{Value: f, Datatype: types.DatatypeFloat}, nil
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return types.Literal{Value: f, Datatype: types.DatatypeFloat}, nil
		}

	case types.DatatypeString:
		return types.Literal{Value: text, Datatype: types.DatatypeString}, nil

	default:
		return types.Literal{Value: text, Datatype: types.DatatypeString},
			fmt.Errorf("%w: unsupported datatype %q", types.ErrMalformedLiteral, dt)
	}

	return types.Literal{Value: text, Datatype: types.DatatypeString},
		fmt.Errorf("%w: %q is not a valid %s", types.ErrMalformedLiteral, text, dt)
}

func literalOf(v any) types.Literal {
	switch x := v.(type) {
	case int64, *big.Int:
		return types.Literal{Value: x, Datatype: types.DatatypeInteger}
	case float64:
		return types.Literal{Value: x, Datatype: types.DatatypeFloat}
	default:
		return types.Literal{Value: fmt.Sprint(v), Datatype: types.DatatypeString}
	}
}
