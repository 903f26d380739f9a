package login_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/fwsm/internal/app/features/errors"
	"github.com/dalemusser/fwsm/internal/app/features/login"
	"github.com/dalemusser/fwsm/internal/app/store/queries/portalqueries"
	"github.com/dalemusser/fwsm/internal/app/system/auditlog"
	"github.com/dalemusser/fwsm/internal/app/system/querycache"
	"github.com/dalemusser/fwsm/internal/app/system/ratelimit"
	"github.com/dalemusser/fwsm/internal/app/system/session"
	"github.com/dalemusser/fwsm/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, limiter *ratelimit.SignInLimiter) (*login.Handler, *testutil.Backend) {
	t.Helper()
	b := testutil.NewBackend(t)
	q := portalqueries.New(b.Client(), querycache.New(querycache.Config{}), zap.NewNop())
	sm, err := session.NewManager(session.Config{HashKey: []byte("test-session-key-must-be-32-chars-long")}, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	audit := auditlog.New(nil, zap.NewNop(), auditlog.Config{Auth: auditlog.Log})
	h := login.NewHandler(q, sm, limiter, audit, uierrors.NewErrorLogger(zap.NewNop()), time.Hour, zap.NewNop())
	return h, b
}

func post(h *login.Handler, form url.Values, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	testutil.Serve(h.HandleSignInPost, rec, testutil.NewFormRequest("POST", target, form))
	return rec
}

func TestHandleSignInPost_Validation(t *testing.T) {
	h, b := newTestHandler(t, nil)

	tests := []struct {
		name string
		form url.Values
	}{
		{"empty", url.Values{}},
		{"bad email", url.Values{"identifier": {"not-an-email"}, "password": {"secret123"}}},
		{"missing password", url.Values{"identifier": {"a@example.org"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(h, tt.form, "/sign-in")
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
			}
		})
	}
	if n := len(b.Requests()); n != 0 {
		t.Errorf("invalid forms must not reach the backend, got %d calls", n)
	}
}

func TestHandleSignInPost_InvalidCredentials(t *testing.T) {
	h, b := newTestHandler(t, nil)
	b.JSON("POST", "/auth/local", http.StatusBadRequest,
		testutil.StrapiError(http.StatusBadRequest, "ValidationError", "Invalid identifier or password"))

	rec := post(h, url.Values{"identifier": {"a@example.org"}, "password": {"wrong"}}, "/sign-in")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Value != "" {
			t.Errorf("no token cookie expected, got %q", c.Name)
		}
	}
}

func TestHandleSignInPost_BackendDown(t *testing.T) {
	h, b := newTestHandler(t, nil)
	b.Close()

	rec := post(h, url.Values{"identifier": {"a@example.org"}, "password": {"secret123"}}, "/sign-in")

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected status %d, got %d", http.StatusBadGateway, rec.Code)
	}
}

func TestHandleSignInPost_RateLimited(t *testing.T) {
	limiter := ratelimit.NewSignInLimiter(1, time.Minute)
	t.Cleanup(limiter.Close)
	h, b := newTestHandler(t, limiter)
	b.JSON("POST", "/auth/local", http.StatusBadRequest,
		testutil.StrapiError(http.StatusBadRequest, "ValidationError", "Invalid identifier or password"))

	form := url.Values{"identifier": {"a@example.org"}, "password": {"wrong"}}
	post(h, form, "/sign-in")
	rec := post(h, form, "/sign-in")

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected status %d, got %d", http.StatusTooManyRequests, rec.Code)
	}
	if n := b.Calls("POST", "/auth/local"); n != 1 {
		t.Errorf("refused attempts must not reach the backend, got %d calls", n)
	}
}

func TestHandleSignInPost_Success(t *testing.T) {
	h, b := newTestHandler(t, nil)
	b.JSON("POST", "/auth/local", http.StatusOK, testutil.AuthJSON("opaque-token", 3, "a@example.org"))

	form := url.Values{
		"identifier": {"  a@example.org "},
		"password":   {"secret123"},
		"return":     {"/settings/profile"},
	}
	rec := post(h, form, "/sign-in")

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/settings/profile" {
		t.Errorf("expected redirect to /settings/profile, got %q", loc)
	}

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.DefaultCookieName && c.Value != "" && c.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Error("expected an HttpOnly token cookie")
	}

	last, _ := b.Last("POST", "/auth/local")
	if !strings.Contains(string(last.Body), `"identifier":"a@example.org"`) {
		t.Errorf("identifier must be trimmed, got body %s", last.Body)
	}
}

func TestHandleSignInPost_UnsafeReturnFallsBackToRoot(t *testing.T) {
	h, b := newTestHandler(t, nil)
	b.JSON("POST", "/auth/local", http.StatusOK, testutil.AuthJSON("opaque-token", 3, "a@example.org"))

	for _, ret := range []string{"https://evil.example", "//evil.example", "/sign-in"} {
		rec := post(h, url.Values{
			"identifier": {"a@example.org"},
			"password":   {"secret123"},
			"return":     {ret},
		}, "/sign-in")

		if loc := rec.Header().Get("Location"); loc != "/" {
			t.Errorf("return %q: expected redirect to /, got %q", ret, loc)
		}
	}
}
