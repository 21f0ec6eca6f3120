// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/activityteams/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// MailOutbox delivers notification copies by email. Nil when SMTP is
	// not configured.
	MailOutbox *workers.MailOutbox
}
