package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RenameSaga is the persisted progress marker of a username rename. Step is
// the number of cascade steps already applied.
type RenameSaga struct {
	UserID      primitive.ObjectID `json:"userId" bson:"_id"`
	OldUsername string             `json:"oldUsername" bson:"oldUsername"`
	NewUsername string             `json:"newUsername" bson:"newUsername"`
	Step        int                `json:"step" bson:"step"`
	StartedAt   time.Time          `json:"startedAt" bson:"startedAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}
