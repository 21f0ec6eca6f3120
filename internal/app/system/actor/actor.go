// Package actor describes who is performing an operation.
//
// Handlers build an Actor from the session user and pass it down explicitly;
// services never read the acting user from a global.
package actor

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the user on whose behalf an operation runs.
type Actor struct {
	ID   primitive.ObjectID
	Name string
	Role string // admin | user
	Lang string
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == "admin"
}

// Is reports whether the actor is the user identified by id.
func (a Actor) Is(id *primitive.ObjectID) bool {
	return id != nil && !a.ID.IsZero() && *id == a.ID
}

// System returns the actor used by automated processes.
func System(superuserID primitive.ObjectID) Actor {
	return Actor{ID: superuserID, Name: "System", Role: "admin"}
}
