package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account in the contacts service. Email is the identity
// used as the JWT subject and as the session-cache key.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	RefreshToken string             `bson:"refresh_token,omitempty" json:"-"`
	Confirmed    bool               `bson:"confirmed" json:"confirmed"`
	Avatar       string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Snapshot is the plain value cached per identity. It carries no credential
// material, so a cache round-trip can never leak or resurrect a hash.
type Snapshot struct {
	ID        primitive.ObjectID `json:"id"`
	Username  string             `json:"username"`
	Email     string             `json:"email"`
	Confirmed bool               `json:"confirmed"`
	Avatar    string             `json:"avatar,omitempty"`
}

// NewSnapshot copies the cacheable fields of a user.
func NewSnapshot(u *User) *Snapshot {
	return &Snapshot{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Confirmed: u.Confirmed,
		Avatar:    u.Avatar,
	}
}

// AuthTokens is the payload returned by login and refresh.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}
