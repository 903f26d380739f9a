package platform_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/fwsm/internal/app/features/errors"
	"github.com/dalemusser/fwsm/internal/app/features/platform"
	"github.com/dalemusser/fwsm/internal/app/store/queries/portalqueries"
	"github.com/dalemusser/fwsm/internal/app/system/querycache"
	"github.com/dalemusser/fwsm/internal/app/system/session"
	"github.com/dalemusser/fwsm/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*platform.Handler, *testutil.Backend) {
	t.Helper()
	b := testutil.NewBackend(t)
	q := portalqueries.New(b.Client(), querycache.New(querycache.Config{}), zap.NewNop())
	return platform.NewHandler(q, uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop()), b
}

func directoryBackend(b *testutil.Backend) {
	b.JSON("GET", "/sectors", http.StatusOK, testutil.ListJSON(1, 1, 1, testutil.SectorJSON(1, "Retail")))
	b.JSON("GET", "/subsectors", http.StatusOK, testutil.ListJSON(1, 1, 1, testutil.SubsectorJSON(4, "Supermarkets", 1, "Retail")))
	b.JSON("GET", "/organizations", http.StatusOK, testutil.ListJSON(1, 1, 1, testutil.OrganizationJSON(7, "Acme")))
}

func organizationsQuery(t *testing.T, b *testutil.Backend) string {
	t.Helper()
	last, ok := b.Last("GET", "/organizations")
	if !ok {
		t.Fatal("expected a directory query")
	}
	q, _ := url.QueryUnescape(last.RawQuery)
	return q
}

func TestServeDirectory_NoFilters(t *testing.T) {
	h, b := newTestHandler(t)
	directoryBackend(b)

	rec := httptest.NewRecorder()
	testutil.Serve(h.ServeDirectory, rec, httptest.NewRequest("GET", "/platform", nil))

	if rec.Code == http.StatusBadGateway {
		t.Errorf("unexpected status %d", rec.Code)
	}
	if b.Calls("GET", "/subsectors") != 0 {
		t.Error("subsectors are only loaded for a selected sector")
	}
	if q := organizationsQuery(t, b); strings.Contains(q, "filters") {
		t.Errorf("unexpected filter in %q", q)
	}
}

func TestServeDirectory_SubsectorFilter(t *testing.T) {
	h, b := newTestHandler(t)
	directoryBackend(b)

	rec := httptest.NewRecorder()
	testutil.Serve(h.ServeDirectory, rec, httptest.NewRequest("GET", "/platform?sector=1&subsector=4&page=2", nil))

	q := organizationsQuery(t, b)
	if !strings.Contains(q, "filters[subsector][id][$eq]=4") {
		t.Errorf("expected subsector filter in %q", q)
	}
	if !strings.Contains(q, "pagination[page]=2") {
		t.Errorf("expected page 2 in %q", q)
	}
}

func TestServeDirectory_ForeignSubsectorIsReset(t *testing.T) {
	h, b := newTestHandler(t)
	directoryBackend(b)

	rec := httptest.NewRecorder()
	testutil.Serve(h.ServeDirectory, rec, httptest.NewRequest("GET", "/platform?sector=1&subsector=99", nil))

	q := organizationsQuery(t, b)
	if strings.Contains(q, "filters[subsector][id]") {
		t.Errorf("subsector 99 is not in sector 1 and must be dropped: %q", q)
	}
	if !strings.Contains(q, "filters[subsector][sector][id][$eq]=1") {
		t.Errorf("expected sector filter in %q", q)
	}
}

func TestServeList_BackendDown(t *testing.T) {
	h, b := newTestHandler(t)
	b.Close()

	req := httptest.NewRequest("GET", "/platform/list", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	testutil.Serve(h.ServeList, rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
}

func TestServeSubsectorOptions_NoSectorMakesNoCall(t *testing.T) {
	h, b := newTestHandler(t)

	testutil.Serve(h.ServeSubsectorOptions, httptest.NewRecorder(), httptest.NewRequest("GET", "/platform/subsectors", nil))

	if n := len(b.Requests()); n != 0 {
		t.Errorf("expected no backend calls, got %d", n)
	}
}

func TestServeOrganization_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, id := range []string{"x", "404"} {
		req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/platform/organization/"+id, nil), "id", id)
		rec := httptest.NewRecorder()
		testutil.Serve(h.ServeOrganization, rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("id %q: expected status %d, got %d", id, http.StatusNotFound, rec.Code)
		}
	}
}

func TestServeOrganization_ChecksCurrentOrganizationOnlyWhenSignedIn(t *testing.T) {
	h, b := newTestHandler(t)
	b.JSON("GET", "/organizations/9", http.StatusOK, testutil.SingleJSON(testutil.ProfileJSON(9, "Acme")))
	b.JSON("GET", "/organizations/me", http.StatusOK, testutil.SingleJSON(testutil.ProfileJSON(9, "Acme")))

	sm, err := session.NewManager(session.Config{HashKey: []byte("test-session-key-must-be-32-chars-long")}, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	serve := func(req *http.Request) {
		req = testutil.WithChiURLParam(req, "id", "9")
		sm.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			testutil.Serve(h.ServeOrganization, w, r)
		})).ServeHTTP(httptest.NewRecorder(), req)
	}

	serve(httptest.NewRequest("GET", "/platform/organization/9", nil))
	if b.Calls("GET", "/organizations/me") != 0 {
		t.Error("anonymous visitors must not trigger a current-organization lookup")
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/platform/organization/9", nil)
	if err := sm.For(rec, req).SetToken("tok", 0); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	serve(testutil.WithCookies(httptest.NewRequest("GET", "/platform/organization/9", nil), rec))

	last, ok := b.Last("GET", "/organizations/me")
	if !ok || last.Auth != "Bearer tok" {
		t.Errorf("expected an authenticated lookup, got %+v", last)
	}
}
