package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Comment is embedded in a Post. Commenter is denormalized from the user
// identified by CommenterID.
type Comment struct {
	Commenter   string             `json:"commenter" bson:"commenter"`
	CommenterID primitive.ObjectID `json:"commenterId" bson:"commenterId"`
	Text        string             `json:"text" bson:"text"`
}

// CreateCommentRequest defines the request body for commenting on a post
type CreateCommentRequest struct {
	Text string `json:"text" validate:"max=500"`
}
