package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"go.uber.org/zap"
)

// RecordedRequest is one call the fake backend received.
type RecordedRequest struct {
	Method   string
	Path     string // without the /api prefix
	RawQuery string
	Auth     string // Authorization header
	Body     []byte
	Header   http.Header
}

// Backend is a fake of the headless backend API. Routes are matched on
// method and exact path (without the /api prefix); anything else is a 404 in
// the backend's error format.
type Backend struct {
	*httptest.Server
	t *testing.T

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []RecordedRequest
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{t: t, routes: make(map[string]http.HandlerFunc)}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Close)
	return b
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(strings.NewReader(string(body)))

	b.mu.Lock()
	b.requests = append(b.requests, RecordedRequest{
		Method:   r.Method,
		Path:     path,
		RawQuery: r.URL.RawQuery,
		Auth:     r.Header.Get("Authorization"),
		Body:     body,
		Header:   r.Header.Clone(),
	})
	h, ok := b.routes[r.Method+" "+path]
	b.mu.Unlock()

	if !ok {
		WriteJSON(w, http.StatusNotFound, StrapiError(http.StatusNotFound, "NotFoundError", "Not Found"))
		return
	}
	h(w, r)
}

// Handle registers h for method and path.
func (b *Backend) Handle(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = h
}

// JSON registers a fixed response.
func (b *Backend) JSON(method, path string, status int, body string) {
	b.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, body)
	})
}

// Requests returns a copy of everything received so far.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// Calls counts requests for method and path.
func (b *Backend) Calls(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request for method and path.
func (b *Backend) Last(method, path string) (RecordedRequest, bool) {
	reqs := b.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return RecordedRequest{}, false
}

// Client returns an API client pointed at the fake backend.
func (b *Backend) Client() *apiclient.Client {
	b.t.Helper()
	c, err := apiclient.Open(b.URL+"/api", apiclient.WithLogger(zap.NewNop()))
	if err != nil {
		b.t.Fatalf("open api client: %v", err)
	}
	return c
}

// WriteJSON writes body with status.
func WriteJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// StrapiError renders an error body in the backend's format.
func StrapiError(status int, name, message string) string {
	return fmt.Sprintf(`{"data": null, "error": {"status": %d, "name": %q, "message": %q, "details": {}}}`,
		status, name, message)
}
