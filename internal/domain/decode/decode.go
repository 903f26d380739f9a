// Package decode validates untyped JSON values returned by the backend API and
// narrows them into typed values.
//
// A Decoder never coerces: a JSON string "1" is not an integer, a missing key is
// not an empty string. Every failure is a *ValidationError carrying the path of
// the offending value (for example "data[2].attributes.subsector.data.id"), and
// failures inside nested decoders surface unchanged at the top.
//
// Decoders are composed the way the backend's documents are composed:
//
//	var Sector = decode.Object(func(o *decode.Obj) Sector {
//	    return Sector{
//	        ID:   decode.Field(o, "id", decode.Int()),
//	        Name: decode.Field(o, "name", decode.String()),
//	    }
//	})
package decode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Decoder validates v (a value produced by encoding/json with UseNumber) found
// at path p and returns the typed result.
type Decoder[T any] func(v any, p Path) (T, error)

// absent stands in for an object key that is not present. It lets leaf decoders
// tell "missing" apart from JSON null.
type absentValue struct{}

var absent = absentValue{}

// Parse decodes raw JSON and runs d over the result.
func Parse[T any](raw []byte, d Decoder[T]) (T, error) {
	var zero T
	v, err := unmarshal(bytes.NewReader(raw))
	if err != nil {
		return zero, &ValidationError{Path: "$", Expected: "JSON document", Got: err.Error()}
	}
	return d(v, nil)
}

// Value runs d over an already unmarshalled value.
func Value[T any](v any, d Decoder[T]) (T, error) {
	return d(v, nil)
}

func unmarshal(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Paths                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// Path locates a value inside a document. Index segments are stored as "[n]".
type Path []string

// Key returns a new path extended by an object key.
func (p Path) Key(name string) Path {
	q := make(Path, len(p), len(p)+1)
	copy(q, p)
	return append(q, name)
}

// Index returns a new path extended by an array index.
func (p Path) Index(i int) Path {
	q := make(Path, len(p), len(p)+1)
	copy(q, p)
	return append(q, "["+strconv.Itoa(i)+"]")
}

func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	var b strings.Builder
	for i, seg := range p {
		if i > 0 && !strings.HasPrefix(seg, "[") {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

/*─────────────────────────────────────────────────────────────────────────────*
| Errors                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// ValidationError reports a value that does not match its decoder.
type ValidationError struct {
	Path     string // e.g. "data.attributes.name"
	Expected string // e.g. "string"
	Got      string // e.g. "number", "missing", "null"
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("decode: at %s: expected %s, got %s", e.Path, e.Expected, e.Got)
}

func mismatch(p Path, expected string, v any) error {
	return &ValidationError{Path: p.String(), Expected: expected, Got: describe(v)}
}

func invalid(p Path, expected, got string) error {
	return &ValidationError{Path: p.String(), Expected: expected, Got: got}
}

// describe names the JSON kind of v for error messages.
func describe(v any) string {
	switch x := v.(type) {
	case absentValue:
		return "missing"
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	case string:
		if utf8.RuneCountInString(x) > 32 {
			return fmt.Sprintf("string %q…", string([]rune(x)[:32]))
		}
		return fmt.Sprintf("string %q", x)
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
