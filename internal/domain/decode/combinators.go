package decode

import "fmt"

/*─────────────────────────────────────────────────────────────────────────────*
| Objects                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// Obj is the object being decoded inside an Object builder. The first field
// failure is remembered; later Field calls are skipped and return zero values.
type Obj struct {
	m    map[string]any
	path Path
	err  error
}

// Object builds a decoder for a JSON object. build reads fields through Field;
// if any of them failed, the decoder reports that failure and discards the
// partially built value. Unknown keys are ignored.
func Object[T any](build func(o *Obj) T) Decoder[T] {
	return func(v any, p Path) (T, error) {
		var zero T
		m, ok := v.(map[string]any)
		if !ok {
			return zero, mismatch(p, "object", v)
		}
		o := &Obj{m: m, path: p}
		out := build(o)
		if o.err != nil {
			return zero, o.err
		}
		return out, nil
	}
}

// Field decodes the value stored under name.
func Field[T any](o *Obj, name string, d Decoder[T]) T {
	var zero T
	if o.err != nil {
		return zero
	}
	v, ok := o.m[name]
	if !ok {
		v = absent
	}
	out, err := d(v, o.path.Key(name))
	if err != nil {
		o.err = err
		return zero
	}
	return out
}

// Check records a failure for a cross-field rule.
func (o *Obj) Check(ok bool, field, expected, got string) {
	if o.err != nil || ok {
		return
	}
	o.err = invalid(o.path.Key(field), expected, got)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Presence                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// Nullable accepts JSON null (as nil) in addition to whatever d accepts. The key
// itself must still be present.
func Nullable[T any](d Decoder[T]) Decoder[*T] {
	return func(v any, p Path) (*T, error) {
		if v == nil {
			return nil, nil
		}
		if _, missing := v.(absentValue); missing {
			return nil, invalid(p, "value or null", "missing")
		}
		out, err := d(v, p)
		if err != nil {
			return nil, err
		}
		return &out, nil
	}
}

// Optional accepts a missing key or JSON null (both as nil).
func Optional[T any](d Decoder[T]) Decoder[*T] {
	return func(v any, p Path) (*T, error) {
		if v == nil {
			return nil, nil
		}
		if _, missing := v.(absentValue); missing {
			return nil, nil
		}
		out, err := d(v, p)
		if err != nil {
			return nil, err
		}
		return &out, nil
	}
}

// Default substitutes def for a missing key or JSON null.
func Default[T any](d Decoder[T], def T) Decoder[T] {
	opt := Optional(d)
	return func(v any, p Path) (T, error) {
		out, err := opt(v, p)
		if err != nil {
			return def, err
		}
		if out == nil {
			return def, nil
		}
		return *out, nil
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Arrays                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// Array decodes every element with d. An empty array is valid.
func Array[T any](d Decoder[T]) Decoder[[]T] {
	return func(v any, p Path) ([]T, error) {
		arr, ok := v.([]any)
		if !ok {
			return nil, mismatch(p, "array", v)
		}
		out := make([]T, 0, len(arr))
		for i, el := range arr {
			x, err := d(el, p.Index(i))
			if err != nil {
				return nil, err
			}
			out = append(out, x)
		}
		return out, nil
	}
}

// NonEmpty rejects an empty result from d. Use it where an empty array means
// the backend broke its contract rather than "nothing found".
func NonEmpty[T any](d Decoder[[]T]) Decoder[[]T] {
	return func(v any, p Path) ([]T, error) {
		out, err := d(v, p)
		if err != nil {
			return nil, err
		}
		if len(out) == 0 {
			return nil, invalid(p, "non-empty array", "empty array")
		}
		return out, nil
	}
}

// OneOrMany accepts either a single element or an array of elements.
func OneOrMany[T any](d Decoder[T]) Decoder[[]T] {
	arr := Array(d)
	return func(v any, p Path) ([]T, error) {
		if _, ok := v.([]any); ok {
			return arr(v, p)
		}
		x, err := d(v, p)
		if err != nil {
			return nil, err
		}
		return []T{x}, nil
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Relations and refinements                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// Relation unwraps the backend's `{ "data": ... }` relation envelope.
func Relation[T any](d Decoder[T]) Decoder[T] {
	return Object(func(o *Obj) T {
		return Field(o, "data", d)
	})
}

// Refine runs an extra rule after d succeeded. rule returns a description of
// the violation, or "" when the value is acceptable.
func Refine[T any](d Decoder[T], expected string, rule func(T) string) Decoder[T] {
	return func(v any, p Path) (T, error) {
		out, err := d(v, p)
		if err != nil {
			return out, err
		}
		if got := rule(out); got != "" {
			var zero T
			return zero, invalid(p, expected, got)
		}
		return out, nil
	}
}

// Positive is an Int that must be greater than zero (backend ids).
func Positive() Decoder[int] {
	return Refine(Int(), "positive integer", func(n int) string {
		if n > 0 {
			return ""
		}
		return fmt.Sprintf("%d", n)
	})
}
