package driver

import (
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// TypeConversionError reports a database value of an unexpected type.
type TypeConversionError struct {
	Expected string
	Actual   string
	Field    string
}

func (e *TypeConversionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("type conversion error for field %q: expected %s, got %s", e.Field, e.Expected, e.Actual)
	}
	return fmt.Sprintf("type conversion error: expected %s, got %s", e.Expected, e.Actual)
}

func conversionError(expected string, v any, field string) *TypeConversionError {
	return &TypeConversionError{Expected: expected, Actual: fmt.Sprintf("%T", v), Field: field}
}

// AsString converts v to a string.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// AsAnySlice converts v to a []any.
func AsAnySlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

// AsStringSlice converts a []string or a []any of strings.
func AsStringSlice(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// MustRecord converts v to *db.Record or returns a TypeConversionError.
func MustRecord(v any, field string) (*db.Record, error) {
	r, ok := v.(*db.Record)
	if !ok || r == nil {
		return nil, conversionError("*db.Record", v, field)
	}
	return r, nil
}

// MustDBNode converts v to dbtype.Node or returns a TypeConversionError.
func MustDBNode(v any, field string) (dbtype.Node, error) {
	n, ok := v.(dbtype.Node)
	if !ok {
		return dbtype.Node{}, conversionError("dbtype.Node", v, field)
	}
	return n, nil
}
