package sectorstore_test

import (
	"errors"
	"net/http"
	"testing"

	sectorstore "github.com/dalemusser/fwsm/internal/app/store/sectors"
	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/testutil"
)

func TestStore_List(t *testing.T) {
	b := testutil.NewBackend(t)
	b.JSON("GET", "/sectors", http.StatusOK, `{"data": [{"id": 1, "attributes": {"name": "Retail"}}]}`)
	store := sectorstore.New(b.Client())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sectors, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sectors) != 1 || sectors[0].Attributes.Name != "Retail" {
		t.Errorf("unexpected sectors %+v", sectors)
	}
}

func TestStore_List_MalformedResponse(t *testing.T) {
	b := testutil.NewBackend(t)
	b.JSON("GET", "/sectors", http.StatusOK, `{"data": [{"id": 1, "attributes": {"title": "Retail"}}]}`)
	store := sectorstore.New(b.Client())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.List(ctx)
	if apiclient.Classify(err) != apiclient.OutcomeDecode {
		t.Fatalf("expected decode failure, got %v", err)
	}
	var de *apiclient.DecodeError
	if !errors.As(err, &de) || de.Err.Path != "data[0].attributes.name" {
		t.Errorf("unexpected failure path: %v", err)
	}
}

func TestStore_Get(t *testing.T) {
	b := testutil.NewBackend(t)
	b.JSON("GET", "/sectors/2", http.StatusOK, testutil.SingleJSON(testutil.SectorJSON(2, "Hospitality")))
	store := sectorstore.New(b.Client())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s, err := store.Get(ctx, 2)
	if err != nil || s.ID != 2 || s.Attributes.Name != "Hospitality" {
		t.Errorf("Get: got %+v, %v", s, err)
	}
}
