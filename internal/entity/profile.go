package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleStaff || r == RoleAdmin
}

// Profile is keyed by the subject the identity provider put in the token.
type Profile struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Subject   string             `json:"subject" bson:"subject"`
	Role      Role               `json:"role" bson:"role"`
	Active    bool               `json:"active" bson:"active"`
	Name      string             `json:"name" bson:"name"`
	Email     string             `json:"email" bson:"email"`
	Phone     string             `json:"phone,omitempty" bson:"phone,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

/*
Mongo collection (identity database): profiles

	{ subject: 1 } unique
	{ email: 1 }
	{ role: 1 } unique, partialFilterExpression { role: "admin" }
*/
