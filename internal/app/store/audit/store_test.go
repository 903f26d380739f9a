package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/fwsm/internal/app/store/audit"
	"github.com/dalemusser/fwsm/internal/testutil"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSignInSuccess,
		UserID:    7,
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.Query(ctx, audit.QueryFilter{UserID: 7})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestStore_Query_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	now := time.Now()
	events := []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventSignInSuccess, UserID: 1, Success: true, Timestamp: now.Add(-3 * time.Minute)},
		{Category: audit.CategoryOrganization, EventType: audit.EventOrgCreated, UserID: 1, OrganizationID: 9, Success: true, Timestamp: now.Add(-2 * time.Minute)},
		{Category: audit.CategoryOrganization, EventType: audit.EventOrgUpdated, UserID: 2, OrganizationID: 9, Success: true, Timestamp: now.Add(-time.Minute)},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	got, err := store.Query(ctx, audit.QueryFilter{OrganizationID: 9})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 organization events, got %d", len(got))
	}
	if got[0].EventType != audit.EventOrgUpdated {
		t.Errorf("expected newest first, got %s", got[0].EventType)
	}

	got, err = store.Query(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 auth event, got %d", len(got))
	}

	got, err = store.Query(ctx, audit.QueryFilter{Since: now.Add(-90 * time.Second)})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 recent event, got %d", len(got))
	}
}
