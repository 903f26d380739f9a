package about_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/fwsm/internal/app/features/about"
	uierrors "github.com/dalemusser/fwsm/internal/app/features/errors"
	"github.com/dalemusser/fwsm/internal/app/store/queries/portalqueries"
	"github.com/dalemusser/fwsm/internal/app/system/querycache"
	"github.com/dalemusser/fwsm/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*about.Handler, *testutil.Backend) {
	t.Helper()
	b := testutil.NewBackend(t)
	q := portalqueries.New(b.Client(), querycache.New(querycache.Config{}), zap.NewNop())
	return about.NewHandler(q, uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop()), b
}

func TestNewHandler(t *testing.T) {
	h, _ := newTestHandler(t)
	if h == nil {
		t.Fatal("NewHandler() returned nil")
	}
}

func TestServeAbout_LoadsOnce(t *testing.T) {
	h, b := newTestHandler(t)
	b.JSON("GET", "/about", http.StatusOK, testutil.AboutJSON())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		testutil.Serve(h.ServeAbout, rec, httptest.NewRequest("GET", "/about", nil))
		if rec.Code == http.StatusBadGateway || rec.Code == http.StatusNotFound {
			t.Errorf("unexpected status %d", rec.Code)
		}
	}

	if n := b.Calls("GET", "/about"); n != 1 {
		t.Errorf("expected the cached page to be reused, got %d calls", n)
	}
}

func TestServeAbout_Missing(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	testutil.Serve(h.ServeAbout, rec, httptest.NewRequest("GET", "/about", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}
