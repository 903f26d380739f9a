package pagestore_test

import (
	"net/http"
	"net/url"
	"testing"

	pagestore "github.com/dalemusser/fwsm/internal/app/store/pages"
	"github.com/dalemusser/fwsm/internal/testutil"
)

func TestStore_Home(t *testing.T) {
	b := testutil.NewBackend(t)
	b.JSON("GET", "/home", http.StatusOK, testutil.HomeJSON())
	store := pagestore.New(b.Client())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	home, err := store.Home(ctx)
	if err != nil {
		t.Fatalf("Home failed: %v", err)
	}
	if home.Attributes.Title != "Less food waste" || len(home.Attributes.SectorOverview.Cards) != 1 {
		t.Errorf("unexpected home %+v", home.Attributes)
	}

	req, _ := b.Last("GET", "/home")
	q, _ := url.ParseQuery(req.RawQuery)
	if q.Get("populate[functionalityHighlight][populate]") != "*" ||
		q.Get("populate[sectorOverview][populate][2]") != "cards.sector" {
		t.Errorf("unexpected populate %q", req.RawQuery)
	}
}

func TestStore_About(t *testing.T) {
	b := testutil.NewBackend(t)
	b.JSON("GET", "/about", http.StatusOK, testutil.AboutJSON())
	store := pagestore.New(b.Client())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	about, err := store.About(ctx)
	if err != nil || about.Attributes.Title != "About us" {
		t.Errorf("About: got %+v, %v", about, err)
	}
}

func TestStore_Themes(t *testing.T) {
	b := testutil.NewBackend(t)
	b.JSON("GET", "/theme", http.StatusOK, testutil.ThemesJSON())
	store := pagestore.New(b.Client())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	themes, err := store.Themes(ctx)
	if err != nil || themes.Attributes.SectorOverview.Header.Heading != "All sectors" {
		t.Errorf("Themes: got %+v, %v", themes, err)
	}
}
