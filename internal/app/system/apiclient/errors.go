package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/fwsm/internal/domain/decode"
)

// ErrUnauthenticated is returned, without any network call, when an operation
// needs a token and the caller has none. It is a normal branch: callers redirect
// to sign-in or leave the query idle.
var ErrUnauthenticated = errors.New("apiclient: not signed in")

// Kind classifies a DomainError.
type Kind string

const (
	KindInvalidCredentials Kind = "invalid_credentials"
	KindIncorrectPassword  Kind = "incorrect_password"
	KindValidation         Kind = "validation"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindRateLimited        Kind = "rate_limited"
	KindServer             Kind = "server"
	KindUnknown            Kind = "unknown"
)

// defaultKind maps a status code to a Kind when the request did not name one.
func defaultKind(status int) Kind {
	switch {
	case status == http.StatusBadRequest:
		return KindValidation
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// NetworkError is a transport failure: no response, or a response whose body
// could not be read.
type NetworkError struct {
	Op  string // "GET", "POST", ...
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DomainError is a non-2xx response: the backend understood the request and
// rejected it.
type DomainError struct {
	Status  int
	Kind    Kind
	Name    string            // backend error name, e.g. "ValidationError"
	Message string            // backend message, may be empty
	Fields  map[string]string // field path → message, from error details
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend rejected request (%d %s): %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("backend rejected request (%d %s)", e.Status, e.Kind)
}

// DecodeError is a 2xx response whose body did not match the expected shape.
// It is distinct from DomainError: the backend accepted the request but
// answered unexpectedly.
type DecodeError struct {
	URL string
	Err *decode.ValidationError
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unexpected response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

/*─────────────────────────────────────────────────────────────────────────────*
| Outcome classification                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// Outcome is the tag of a call result, for exhaustive switches at call sites.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeUnauthenticated
	OutcomeDomain
	OutcomeDecode
	OutcomeNetwork
	OutcomeUnknown
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeUnauthenticated:
		return "unauthenticated"
	case OutcomeDomain:
		return "domain"
	case OutcomeDecode:
		return "decode"
	case OutcomeNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Classify tags err.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	if errors.Is(err, ErrUnauthenticated) {
		return OutcomeUnauthenticated
	}
	var de *DomainError
	if errors.As(err, &de) {
		return OutcomeDomain
	}
	var dec *DecodeError
	if errors.As(err, &dec) {
		return OutcomeDecode
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return OutcomeNetwork
	}
	return OutcomeUnknown
}

// AsDomain returns the DomainError in err's chain, if any.
func AsDomain(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsKind reports whether err is a DomainError of kind k.
func IsKind(err error, k Kind) bool {
	de, ok := AsDomain(err)
	return ok && de.Kind == k
}

/*─────────────────────────────────────────────────────────────────────────────*
| Error bodies                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

type errorBody struct {
	Name    string
	Message string
	Fields  map[string]string
}

type fieldError struct {
	Path    []string
	Message string
}

var decodeFieldError = decode.Object(func(o *decode.Obj) fieldError {
	return fieldError{
		Path:    decode.Field(o, "path", decode.Default(decode.Array(decode.String()), nil)),
		Message: decode.Field(o, "message", decode.Default(decode.String(), "")),
	}
})

var decodeErrorDetails = decode.Object(func(o *decode.Obj) []fieldError {
	return decode.Field(o, "errors", decode.Default(decode.Array(decodeFieldError), nil))
})

// decodeErrorBody reads `{ "error": { "name", "message", "details": { "errors": [...] } } }`.
var decodeErrorBody = decode.Object(func(o *decode.Obj) errorBody {
	return decode.Field(o, "error", decode.Object(func(e *decode.Obj) errorBody {
		b := errorBody{
			Name:    decode.Field(e, "name", decode.Default(decode.String(), "")),
			Message: decode.Field(e, "message", decode.Default(decode.String(), "")),
		}
		details := decode.Field(e, "details", decode.Optional(decodeErrorDetails))
		if details != nil && len(*details) > 0 {
			b.Fields = make(map[string]string, len(*details))
			for _, fe := range *details {
				b.Fields[strings.Join(fe.Path, ".")] = fe.Message
			}
		}
		return b
	}))
})

func newDomainError(status int, kind Kind, body []byte) *DomainError {
	de := &DomainError{Status: status, Kind: kind}
	if kind == "" {
		de.Kind = defaultKind(status)
	}
	if b, err := decode.Parse(body, decodeErrorBody); err == nil {
		de.Name = b.Name
		de.Message = b.Message
		de.Fields = b.Fields
	}
	return de
}
