package apiclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/domain/decode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   int
	Name string
}

var decodeItem = decode.Object(func(o *decode.Obj) item {
	return item{
		ID:   decode.Field(o, "id", decode.Int()),
		Name: decode.Field(o, "name", decode.String()),
	}
})

// backend counts requests and hands each to h.
type backend struct {
	*httptest.Server
	calls atomic.Int32
}

func newBackend(t *testing.T, h http.HandlerFunc) *backend {
	t.Helper()
	b := &backend{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(b.Close)
	return b
}

func newClient(t *testing.T, url string) *apiclient.Client {
	t.Helper()
	c, err := apiclient.Open(url + "/api")
	require.NoError(t, err)
	return c
}

func TestOpen_RejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:1337", "ftp://x/api", "http:///api"} {
		_, err := apiclient.Open(raw)
		assert.Error(t, err, raw)
	}
}

func TestDo_DecodesAndSendsBearer(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/items/3", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(w, `{"id": 3, "name": "three", "extra": true}`)
	})
	c := newClient(t, b.URL)

	path, err := apiclient.PathOf("items", 3)
	require.NoError(t, err)
	got, err := apiclient.Do(context.Background(), c, apiclient.Request{
		Path:        path,
		Auth:        apiclient.StaticToken("tok"),
		RequireAuth: true,
	}, decodeItem)
	require.NoError(t, err)
	assert.Equal(t, item{ID: 3, Name: "three"}, got)
	assert.EqualValues(t, 1, b.calls.Load())
}

func TestDo_OptionalAuthOmitsHeader(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"id": 1, "name": "one"}`)
	})
	c := newClient(t, b.URL)

	_, err := apiclient.Do(context.Background(), c, apiclient.Request{
		Path: "/items/1",
		Auth: apiclient.StaticToken(""),
	}, decodeItem)
	require.NoError(t, err)
}

func TestDo_NoTokenMakesNoRequest(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL)
	})
	c := newClient(t, b.URL)

	_, err := apiclient.Do(context.Background(), c, apiclient.Request{
		Path:        "/users/me",
		Auth:        apiclient.StaticToken(""),
		RequireAuth: true,
	}, decodeItem)
	assert.ErrorIs(t, err, apiclient.ErrUnauthenticated)
	assert.Equal(t, apiclient.OutcomeUnauthenticated, apiclient.Classify(err))
	assert.EqualValues(t, 0, b.calls.Load())
}

func TestDo_DomainErrorWithKindOverride(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"data": null, "error": {"status": 400, "name": "ValidationError",
		  "message": "Invalid identifier or password",
		  "details": {"errors": [{"path": ["identifier"], "message": "required"}]}}}`)
	})
	c := newClient(t, b.URL)

	_, err := apiclient.Do(context.Background(), c, apiclient.Request{
		Method:      http.MethodPost,
		Path:        "/auth/local",
		Body:        map[string]string{"identifier": "a@b.com", "password": "wrong"},
		StatusKinds: map[int]apiclient.Kind{http.StatusBadRequest: apiclient.KindInvalidCredentials},
	}, decodeItem)

	require.Error(t, err)
	assert.Equal(t, apiclient.OutcomeDomain, apiclient.Classify(err))
	de, ok := apiclient.AsDomain(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, de.Status)
	assert.Equal(t, apiclient.KindInvalidCredentials, de.Kind)
	assert.Equal(t, "ValidationError", de.Name)
	assert.Equal(t, "Invalid identifier or password", de.Message)
	assert.Equal(t, map[string]string{"identifier": "required"}, de.Fields)
	assert.True(t, apiclient.IsKind(err, apiclient.KindInvalidCredentials))
}

func TestDo_DefaultKinds(t *testing.T) {
	cases := map[int]apiclient.Kind{
		http.StatusBadRequest:          apiclient.KindValidation,
		http.StatusUnauthorized:        apiclient.KindUnauthorized,
		http.StatusForbidden:           apiclient.KindForbidden,
		http.StatusNotFound:            apiclient.KindNotFound,
		http.StatusTooManyRequests:     apiclient.KindRateLimited,
		http.StatusInternalServerError: apiclient.KindServer,
		http.StatusConflict:            apiclient.KindUnknown,
	}
	for status, kind := range cases {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, "not json")
		})
		c := newClient(t, b.URL)
		_, err := apiclient.Do(context.Background(), c, apiclient.Request{Path: "/x"}, decodeItem)
		assert.True(t, apiclient.IsKind(err, kind), "status %d: %v", status, err)
	}
}

func TestDo_DecodeError(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id": "3", "name": "three"}`)
	})
	c := newClient(t, b.URL)

	_, err := apiclient.Do(context.Background(), c, apiclient.Request{Path: "/items/3"}, decodeItem)
	require.Error(t, err)
	assert.Equal(t, apiclient.OutcomeDecode, apiclient.Classify(err))

	var de *apiclient.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "id", de.Err.Path)
	assert.Equal(t, `string "3"`, de.Err.Got)
}

func TestDo_NetworkError(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {})
	c := newClient(t, b.URL)
	b.Close()

	_, err := apiclient.Do(context.Background(), c, apiclient.Request{Path: "/items/3"}, decodeItem)
	require.Error(t, err)
	assert.Equal(t, apiclient.OutcomeNetwork, apiclient.Classify(err))
}

func TestDo_JSONBodyAndQuery(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "populate=%2A", r.URL.RawQuery)
		var body map[string]map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "new", body["data"]["name"])
		_, _ = io.WriteString(w, `{"id": 4, "name": "new"}`)
	})
	c := newClient(t, b.URL)

	got, err := apiclient.Do(context.Background(), c, apiclient.Request{
		Method: http.MethodPut,
		Path:   "/items/4",
		Query:  apiclient.Query{Populate: apiclient.Populate{All: true}},
		Body:   map[string]any{"data": map[string]string{"name": "new"}},
	}, decodeItem)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Name)
}

func TestDo_MultipartFiles(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		files := r.MultipartForm.File["files"]
		if !assert.Len(t, files, 2) {
			return
		}
		assert.Equal(t, "a.png", files[0].Filename)
		assert.Equal(t, "b.jpg", files[1].Filename)
		assert.Equal(t, "image/jpeg", files[1].Header.Get("Content-Type"))
		_, _ = io.WriteString(w, `{"id": 1, "name": "ok"}`)
	})
	c := newClient(t, b.URL)

	_, err := apiclient.Do(context.Background(), c, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/upload",
		Body: &apiclient.Files{Field: "files", Files: []apiclient.File{
			{Name: "a.png", ContentType: "image/png", Data: []byte("png")},
			{Name: "../b.jpg", ContentType: "image/jpeg", Data: []byte("jpg")},
		}},
	}, decodeItem)
	require.NoError(t, err)
}

func TestPathOf(t *testing.T) {
	p, err := apiclient.PathOf("organizations", 12)
	require.NoError(t, err)
	assert.Equal(t, "/organizations/12", p)

	p, err = apiclient.PathOf("a b")
	require.NoError(t, err)
	assert.Equal(t, "/a%20b", p)

	_, err = apiclient.PathOf("organizations", 0)
	assert.Error(t, err)
	_, err = apiclient.PathOf("organizations", -4)
	assert.Error(t, err)
	_, err = apiclient.PathOf("")
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, apiclient.OutcomeOK, apiclient.Classify(nil))
	assert.Equal(t, apiclient.OutcomeUnknown, apiclient.Classify(io.EOF))
	assert.Equal(t, "network", apiclient.OutcomeNetwork.String())
}
