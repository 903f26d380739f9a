package home_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/fwsm/internal/app/features/errors"
	"github.com/dalemusser/fwsm/internal/app/features/home"
	"github.com/dalemusser/fwsm/internal/app/store/queries/portalqueries"
	"github.com/dalemusser/fwsm/internal/app/system/querycache"
	"github.com/dalemusser/fwsm/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*home.Handler, *testutil.Backend) {
	t.Helper()
	b := testutil.NewBackend(t)
	q := portalqueries.New(b.Client(), querycache.New(querycache.Config{}), zap.NewNop())
	return home.NewHandler(q, uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop()), b
}

func TestServeRoot_LoadsContentAndHighlights(t *testing.T) {
	h, b := newTestHandler(t)
	b.JSON("GET", "/home", http.StatusOK, testutil.HomeJSON())
	b.JSON("GET", "/organizations", http.StatusOK, testutil.ListJSON(1, 1, 1, testutil.OrganizationJSON(7, "Acme")))

	rec := httptest.NewRecorder()
	testutil.Serve(h.ServeRoot, rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code == http.StatusBadGateway || rec.Code == http.StatusNotFound {
		t.Errorf("unexpected status %d", rec.Code)
	}
	if b.Calls("GET", "/home") != 1 || b.Calls("GET", "/organizations") != 1 {
		t.Errorf("expected one call each, got %+v", b.Requests())
	}
}

func TestServeRoot_HighlightFailureIsNotFatal(t *testing.T) {
	h, b := newTestHandler(t)
	b.JSON("GET", "/home", http.StatusOK, testutil.HomeJSON())
	b.JSON("GET", "/organizations", http.StatusInternalServerError,
		testutil.StrapiError(http.StatusInternalServerError, "InternalServerError", "boom"))

	rec := httptest.NewRecorder()
	testutil.Serve(h.ServeRoot, rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code == http.StatusBadGateway {
		t.Error("home page should render without highlighted organizations")
	}
}

func TestServeRoot_BackendDown(t *testing.T) {
	h, b := newTestHandler(t)
	b.Close()

	rec := httptest.NewRecorder()
	testutil.Serve(h.ServeRoot, rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected status %d, got %d", http.StatusBadGateway, rec.Code)
	}
}

func TestServeRoot_ContentServerError(t *testing.T) {
	h, b := newTestHandler(t)
	b.JSON("GET", "/home", http.StatusServiceUnavailable,
		testutil.StrapiError(http.StatusServiceUnavailable, "ServiceUnavailableError", "maintenance"))

	rec := httptest.NewRecorder()
	testutil.Serve(h.ServeRoot, rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected status %d, got %d", http.StatusBadGateway, rec.Code)
	}
}
