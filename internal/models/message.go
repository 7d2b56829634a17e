package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a direct message embedded in the receiver's user document.
type Message struct {
	ID       string             `json:"id" bson:"id"`
	Sender   string             `json:"sender" bson:"sender"`
	SenderID primitive.ObjectID `json:"senderId" bson:"senderId"`
	Receiver string             `json:"receiver" bson:"receiver"`
	Message  string             `json:"message" bson:"message"`
	Time     time.Time          `json:"time" bson:"time"`
}

// SendMessageRequest defines the request body for sending a direct message.
// Time is optional; the server clock is used when it is zero.
type SendMessageRequest struct {
	Receiver string    `json:"receiver" validate:"required"`
	Message  string    `json:"message" validate:"max=2000"`
	Time     time.Time `json:"time"`
}
