// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// The content backend is reached over HTTP and needs no connection here.
// MongoDB is optional: both fields are nil when mongo_uri is blank.
type DBDeps struct {
	AuditMongoClient   *mongo.Client
	AuditMongoDatabase *mongo.Database
}
