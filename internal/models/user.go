package models

import (
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered account stored in the users collection. Favorites and
// Messages are embedded sub-documents.
type User struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Username  string             `json:"username" bson:"username"`
	Password  string             `json:"-" bson:"password,omitempty"` // bcrypt hash, never serialized to clients
	Image     string             `json:"image" bson:"image"`
	Favorites []Post             `json:"favorites" bson:"favorites"`
	Messages  []Message          `json:"messages" bson:"messages"`
}

// RegisterRequest defines the request body for creating an account
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,max=30"`
	PasswordOne string `json:"passwordOne"`
	PasswordTwo string `json:"passwordTwo,omitempty" validate:"omitempty,eqfield=PasswordOne"`
}

// LoginRequest defines the request body for signing in
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangeImageRequest struct {
	Image string `json:"image" validate:"required"`
}

type ChangeUsernameRequest struct {
	NewUsername string `json:"newUsername" validate:"max=30"`
}

type ChangePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// JwtCustomClaims are the claims carried by issued tokens. Only the stable id
// and the username at issue time are embedded.
type JwtCustomClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
