package themes_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/fwsm/internal/app/features/errors"
	"github.com/dalemusser/fwsm/internal/app/features/themes"
	"github.com/dalemusser/fwsm/internal/app/store/queries/portalqueries"
	"github.com/dalemusser/fwsm/internal/app/system/querycache"
	"github.com/dalemusser/fwsm/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*themes.Handler, *testutil.Backend) {
	t.Helper()
	b := testutil.NewBackend(t)
	q := portalqueries.New(b.Client(), querycache.New(querycache.Config{}), zap.NewNop())
	return themes.NewHandler(q, uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop()), b
}

func TestServeThemes(t *testing.T) {
	h, b := newTestHandler(t)
	b.JSON("GET", "/theme", http.StatusOK, testutil.ThemesJSON())

	rec := httptest.NewRecorder()
	testutil.Serve(h.ServeThemes, rec, httptest.NewRequest("GET", "/themes", nil))

	if rec.Code == http.StatusBadGateway || rec.Code == http.StatusNotFound {
		t.Errorf("unexpected status %d", rec.Code)
	}
	if b.Calls("GET", "/theme") != 1 {
		t.Error("expected the themes document to be loaded")
	}
}

func TestServeSector_InvalidID(t *testing.T) {
	h, b := newTestHandler(t)

	for _, id := range []string{"abc", "0", "-1"} {
		req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/themes/"+id, nil), "id", id)
		rec := httptest.NewRecorder()
		testutil.Serve(h.ServeSector, rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("id %q: expected status %d, got %d", id, http.StatusNotFound, rec.Code)
		}
	}
	if n := len(b.Requests()); n != 0 {
		t.Errorf("invalid ids must not reach the backend, got %d calls", n)
	}
}

func TestServeSector_UnknownSector(t *testing.T) {
	h, b := newTestHandler(t)
	b.JSON("GET", "/subsectors", http.StatusOK, testutil.ListJSON(1, 1, 0))
	b.JSON("GET", "/organizations", http.StatusOK, testutil.ListJSON(1, 0, 0))

	req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/themes/99", nil), "id", "99")
	rec := httptest.NewRecorder()
	testutil.Serve(h.ServeSector, rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServeSector_LoadsEverythingForTheSector(t *testing.T) {
	h, b := newTestHandler(t)
	b.JSON("GET", "/sectors/1", http.StatusOK, testutil.SingleJSON(testutil.SectorJSON(1, "Retail")))
	b.JSON("GET", "/subsectors", http.StatusOK, testutil.ListJSON(1, 1, 1, testutil.SubsectorJSON(4, "Supermarkets", 1, "Retail")))
	b.JSON("GET", "/organizations", http.StatusOK, testutil.ListJSON(1, 1, 1, testutil.OrganizationJSON(7, "Acme")))

	req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/themes/1?page=2", nil), "id", "1")
	rec := httptest.NewRecorder()
	testutil.Serve(h.ServeSector, rec, req)

	if rec.Code == http.StatusBadGateway || rec.Code == http.StatusNotFound {
		t.Errorf("unexpected status %d", rec.Code)
	}
	if b.Calls("GET", "/organizations") != 2 {
		t.Errorf("expected directory and highlight calls, got %d", b.Calls("GET", "/organizations"))
	}

	var sawPage bool
	for _, rr := range b.Requests() {
		if rr.Path != "/organizations" {
			continue
		}
		q, _ := url.QueryUnescape(rr.RawQuery)
		if !strings.Contains(q, "filters[subsector][sector][id][$eq]=1") {
			t.Errorf("expected sector filter in %q", q)
		}
		if strings.Contains(q, "pagination[page]=2") {
			sawPage = true
		}
	}
	if !sawPage {
		t.Error("expected the page parameter to reach the directory query")
	}
}
