package testutil

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// TestContext returns a context with a short timeout for store calls.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// SetupTestDB connects to the MongoDB named by FWSM_TEST_MONGO_URI and returns
// a fresh database that is dropped when the test ends. Without the variable
// the test is skipped.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("FWSM_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("FWSM_TEST_MONGO_URI not set")
	}
	ctx, cancel := TestContext()
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	db := client.Database(fmt.Sprintf("fwsm_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		ctx, cancel := TestContext()
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

/*─────────────────────────────────────────────────────────────────────────────*
| Backend fixtures                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// SectorJSON renders a sector entry.
func SectorJSON(id int, name string) string {
	return fmt.Sprintf(`{"id": %d, "attributes": {"name": %q, "description": null}}`, id, name)
}

// SubsectorJSON renders a subsector entry with its sector populated.
func SubsectorJSON(id int, name string, sectorID int, sectorName string) string {
	return fmt.Sprintf(`{"id": %d, "attributes": {"name": %q, "sector": {"data": %s}}}`,
		id, name, SectorJSON(sectorID, sectorName))
}

// OrganizationJSON renders a directory entry in Retail › Supermarkets.
func OrganizationJSON(id int, name string) string {
	return fmt.Sprintf(`{"id": %d, "attributes": {"name": %q, "shortDescription": "Short about %s",
	  "description": null, "subsector": {"data": %s}, "featuredImage": {"data": null}}}`,
		id, name, name, SubsectorJSON(4, "Supermarkets", 1, "Retail"))
}

// ProfileJSON renders a full organization profile.
func ProfileJSON(id int, name string) string {
	return fmt.Sprintf(`{"id": %d, "attributes": {"name": %q, "shortDescription": "Short",
	  "description": "<p>Long <script>alert(1)</script>text</p>",
	  "address": {"address": "Main 1", "postcode": "1234AB", "city": "Utrecht", "province": null, "country": "NL"},
	  "email": "info@example.org", "website": "https://example.org",
	  "logo": {"data": null}, "images": {"data": [
	    {"id": 31, "attributes": {"url": "/uploads/p1.png", "formats": {"thumbnail": {"url": "/uploads/t_p1.png"}}}}
	  ]},
	  "subsector": {"data": %s},
	  "createdAt": "2024-01-01T00:00:00.000Z", "updatedAt": "2024-01-02T00:00:00.000Z"}}`,
		id, name, SubsectorJSON(4, "Supermarkets", 1, "Retail"))
}

// ListJSON wraps entries in a list envelope with page pagination.
func ListJSON(page, pageCount, total int, entries ...string) string {
	data := "["
	for i, e := range entries {
		if i > 0 {
			data += ","
		}
		data += e
	}
	data += "]"
	return fmt.Sprintf(`{"data": %s, "meta": {"pagination": {"page": %d, "pageSize": 25, "pageCount": %d, "total": %d}}}`,
		data, page, pageCount, total)
}

// SingleJSON wraps one entry in a single envelope.
func SingleJSON(entry string) string {
	return `{"data": ` + entry + `, "meta": {}}`
}

// UserJSON renders a backend user.
func UserJSON(id int, email string) string {
	return fmt.Sprintf(`{"id": %d, "username": %q, "email": %q, "confirmed": true, "blocked": false}`, id, email, email)
}

// AuthJSON renders a successful sign-in response.
func AuthJSON(jwt string, id int, email string) string {
	return fmt.Sprintf(`{"jwt": %q, "user": %s}`, jwt, UserJSON(id, email))
}

// HomeJSON renders the home page document.
func HomeJSON() string {
	return `{"data": {"id": 1, "attributes": {"title": "Less food waste", "lead": "Find partners",
	  "functionalityHighlight": {"header": {"id": 1, "heading": "How it works", "subtitle": null, "description": null},
	    "steps": [{"id": 1, "stepNumber": 1, "heading": "Register", "content": "Create an account"}]},
	  "sectorOverview": {"header": {"id": 2, "heading": "Sectors", "subtitle": null, "description": null},
	    "cards": [{"id": 1, "title": "Retail", "content": "Shops", "sector": {"data": ` + SectorJSON(1, "Retail") + `}}]}}}}`
}

// AboutJSON renders the about page document.
func AboutJSON() string {
	return `{"data": {"id": 1, "attributes": {"title": "About us", "introduction": "Who we are",
	  "content": "<p>We <b>connect</b> organizations</p><script>x()</script>"}}}`
}

// ThemesJSON renders the themes page document.
func ThemesJSON() string {
	return `{"data": {"id": 1, "attributes": {"title": "Themes", "introduction": "Intro", "content": "<p>Body</p>",
	  "sectorOverview": {"header": {"id": 3, "heading": "All sectors", "subtitle": null, "description": null},
	    "cards": [{"id": 1, "title": "Retail", "content": "Shops", "sector": {"data": ` + SectorJSON(1, "Retail") + `}}]}}}}`
}
