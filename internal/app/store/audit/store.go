// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth         = "auth"
	CategoryOrganization = "organization"
)

// Auth event types
const (
	EventSignInSuccess         = "sign_in_success"
	EventSignInFailed          = "sign_in_failed"
	EventSignInRateLimited     = "sign_in_rate_limited"
	EventSignUp                = "sign_up"
	EventSignUpFailed          = "sign_up_failed"
	EventSignOut               = "sign_out"
	EventPasswordChanged       = "password_changed"
	EventPasswordChangeFailed  = "password_change_failed"
)

// Organization event types
const (
	EventOrgCreated       = "org_created"
	EventOrgUpdated       = "org_updated"
	EventOrgLogoUpdated   = "org_logo_updated"
	EventOrgImagesUpdated = "org_images_updated"
)

// Event is one audit record. User and organization ids are the backend's
// numeric ids; the portal has no user records of its own.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	UserID         int    `bson:"user_id,omitempty"`
	OrganizationID int    `bson:"organization_id,omitempty"`
	Identifier     string `bson:"identifier,omitempty"` // what was typed at sign-in

	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter narrows Query. Zero fields are ignored.
type QueryFilter struct {
	UserID         int
	OrganizationID int
	Category       string
	EventType      string
	Since          time.Time
	Limit          int64
}

// Store keeps audit events in the audit_events collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// EnsureIndexes creates the indexes Query relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "organization_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	return err
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query returns matching events, newest first. Limit defaults to 100.
func (s *Store) Query(ctx context.Context, f QueryFilter) ([]Event, error) {
	query := bson.M{}
	if f.UserID != 0 {
		query["user_id"] = f.UserID
	}
	if f.OrganizationID != 0 {
		query["organization_id"] = f.OrganizationID
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.EventType != "" {
		query["event_type"] = f.EventType
	}
	if !f.Since.IsZero() {
		query["timestamp"] = bson.M{"$gte": f.Since}
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	cur, err := s.c.Find(ctx, query, options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
