package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role constants for the identity carried in the token. The managers trust
// role/email as given; authorization is enforced by the HTTP layer.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRoles is the set of role values the auth middleware accepts in a
// token; anything else is rejected before it reaches a handler.
var ValidRoles = []string{RoleAdmin, RoleUser}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"` // bcrypt hash
	Role      string             `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
