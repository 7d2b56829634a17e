package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a post stored in MongoDB. Username is a denormalized copy of
// the author's current username; AuthorID is the stable reference.
type Post struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Image       string             `json:"image" bson:"image"`
	Username    string             `json:"username" bson:"username"`
	AuthorID    primitive.ObjectID `json:"authorId" bson:"authorId"`
	Comments    []Comment          `json:"comments" bson:"comments"`
	Time        time.Time          `json:"time" bson:"time"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Image       string `json:"image"`
}

// UpdatePostRequest defines the request body for editing a post
type UpdatePostRequest struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Image       string `json:"image"`
}
