package apiclient

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Query holds filters, populate paths, sort keys and pagination. Encode
// renders it in the backend's bracket syntax; user input only ever lands in values, and
// every value is escaped.
type Query struct {
	Filters    []Filter
	Populate   Populate
	Sort       []string
	Fields     []string
	Pagination *Pagination
}

// Filter is one condition, e.g. {Path: [subsector sector id], Op: "$eq", Value: 3}.
type Filter struct {
	Path  []string
	Op    string
	Value any
}

// Eq builds an equality filter on path.
func Eq(value any, path ...string) Filter {
	return Filter{Path: path, Op: "$eq", Value: value}
}

// Populate selects relations to include in the response.
type Populate struct {
	All    bool     // populate=*
	Paths  []string // populate[0]=subsector&populate[1]=subsector.sector
	Nested []Nested // populate[header][populate]=*
}

// Nested populates inside one field.
type Nested struct {
	Field string
	All   bool
	Paths []string
}

// Pagination is either page based (Page/PageSize) or offset based
// (Start/Limit). Zero fields are omitted.
type Pagination struct {
	Page     int
	PageSize int
	Start    int
	Limit    int
	// WithCount=false asks the backend to skip the total count.
	WithCount *bool
}

// IsZero reports whether q adds nothing to a URL.
func (q Query) IsZero() bool {
	return len(q.Filters) == 0 && !q.Populate.All && len(q.Populate.Paths) == 0 &&
		len(q.Populate.Nested) == 0 && len(q.Sort) == 0 && len(q.Fields) == 0 && q.Pagination == nil
}

// Encode renders q as a query string without the leading "?". Output order is
// deterministic: filters, populate, sort, fields, pagination.
func (q Query) Encode() string {
	var pairs []string
	add := func(key string, value any) {
		pairs = append(pairs, key+"="+url.QueryEscape(formatValue(value)))
	}

	for _, f := range q.Filters {
		key := "filters"
		for _, seg := range f.Path {
			key += "[" + escapeKey(seg) + "]"
		}
		key += "[" + escapeKey(f.Op) + "]"
		add(key, f.Value)
	}

	switch {
	case q.Populate.All:
		add("populate", "*")
	default:
		for i, p := range q.Populate.Paths {
			add("populate["+strconv.Itoa(i)+"]", p)
		}
		for _, n := range q.Populate.Nested {
			base := "populate[" + escapeKey(n.Field) + "][populate]"
			if n.All {
				add(base, "*")
				continue
			}
			for i, p := range n.Paths {
				add(base+"["+strconv.Itoa(i)+"]", p)
			}
		}
	}

	for i, s := range q.Sort {
		add("sort["+strconv.Itoa(i)+"]", s)
	}
	for i, f := range q.Fields {
		add("fields["+strconv.Itoa(i)+"]", f)
	}

	if p := q.Pagination; p != nil {
		if p.Page > 0 {
			add("pagination[page]", p.Page)
		}
		if p.PageSize > 0 {
			add("pagination[pageSize]", p.PageSize)
		}
		if p.Start > 0 || p.Limit > 0 {
			add("pagination[start]", p.Start)
		}
		if p.Limit > 0 {
			add("pagination[limit]", p.Limit)
		}
		if p.WithCount != nil {
			add("pagination[withCount]", *p.WithCount)
		}
	}

	return strings.Join(pairs, "&")
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// escapeKey keeps the characters the backend's key syntax uses and
// percent-encodes the rest.
func escapeKey(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~', c == '$', c == '*':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
