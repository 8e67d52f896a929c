package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contact is owned by exactly one user. OwnerID is always taken from the
// authenticated identity, never from client input.
type Contact struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID    primitive.ObjectID `bson:"owner_id" json:"-"`
	FirstName  string             `bson:"first_name" json:"first_name"`
	SecondName string             `bson:"second_name" json:"second_name"`
	Email      string             `bson:"email" json:"email"`
	Birthday   time.Time          `bson:"birthday" json:"birthday"`
	AddInfo    string             `bson:"add_info,omitempty" json:"add_info,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}
