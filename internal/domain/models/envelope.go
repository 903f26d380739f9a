// internal/domain/models/envelope.go
package models

import "github.com/dalemusser/fwsm/internal/domain/decode"

// Single is the backend's `{ "data": T }` document.
type Single[T any] struct {
	Data T
}

// List is the backend's `{ "data": [T], "meta": { "pagination": ... } }`
// document. Meta is optional.
type List[T any] struct {
	Data       []T
	Pagination Pagination
}

// Pagination mirrors both pagination styles the backend uses (page/pageSize
// and start/limit). Fields the response does not carry stay zero.
type Pagination struct {
	Page      int
	PageSize  int
	PageCount int
	Start     int
	Limit     int
	Total     int
}

// HasNext reports whether another page follows the current one.
func (p Pagination) HasNext() bool {
	if p.PageCount > 0 {
		return p.Page < p.PageCount
	}
	if p.Limit > 0 {
		return p.Start+p.Limit < p.Total
	}
	return false
}

// HasPrev reports whether a page precedes the current one.
func (p Pagination) HasPrev() bool {
	if p.PageCount > 0 {
		return p.Page > 1
	}
	return p.Start > 0
}

var decodePagination = decode.Object(func(o *decode.Obj) Pagination {
	return Pagination{
		Page:      decode.Field(o, "page", decode.Default(decode.Int(), 0)),
		PageSize:  decode.Field(o, "pageSize", decode.Default(decode.Int(), 0)),
		PageCount: decode.Field(o, "pageCount", decode.Default(decode.Int(), 0)),
		Start:     decode.Field(o, "start", decode.Default(decode.Int(), 0)),
		Limit:     decode.Field(o, "limit", decode.Default(decode.Int(), 0)),
		Total:     decode.Field(o, "total", decode.Default(decode.Int(), 0)),
	}
})

var decodeMeta = decode.Object(func(o *decode.Obj) Pagination {
	p := decode.Field(o, "pagination", decode.Optional(decodePagination))
	if p == nil {
		return Pagination{}
	}
	return *p
})

// DecodeSingle wraps d in the `{ "data": ... }` envelope.
func DecodeSingle[T any](d decode.Decoder[T]) decode.Decoder[Single[T]] {
	return decode.Object(func(o *decode.Obj) Single[T] {
		return Single[T]{Data: decode.Field(o, "data", d)}
	})
}

// DecodeList wraps d in the list envelope.
func DecodeList[T any](d decode.Decoder[T]) decode.Decoder[List[T]] {
	return decode.Object(func(o *decode.Obj) List[T] {
		l := List[T]{Data: decode.Field(o, "data", decode.Array(d))}
		if m := decode.Field(o, "meta", decode.Optional(decodeMeta)); m != nil {
			l.Pagination = *m
		}
		return l
	})
}
