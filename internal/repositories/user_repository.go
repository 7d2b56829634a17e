package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/postshare/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrPostNotFound    = errors.New("post not found")
	ErrInvalidObjectID = errors.New("invalid object id")
)

// UserRepository defines the interface for user data operations. Every
// method is a single document-atomic store operation.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateImage(ctx context.Context, id primitive.ObjectID, image string) (*models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) (*models.User, error)
	UpdateUsername(ctx context.Context, id primitive.ObjectID, username string) (*models.User, error)

	HasFavorite(ctx context.Context, username string, postID primitive.ObjectID) (bool, error)
	PushFavorite(ctx context.Context, username string, post *models.Post) (*models.User, error)
	PullFavorite(ctx context.Context, id primitive.ObjectID, post *models.Post) (*models.User, error)

	PushMessage(ctx context.Context, receiver string, msg models.Message) (*models.User, error)
	PullMessage(ctx context.Context, receiver, messageID string) (*models.User, error)

	// Array-scoped rename steps. Both return the number of modified users.
	RenameFavoriteAuthor(ctx context.Context, authorID primitive.ObjectID, username string) (int64, error)
	RenameMessageSender(ctx context.Context, senderID primitive.ObjectID, username string) (int64, error)
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// EnsureIndexes creates the unique username index.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	return err
}

func afterWithoutPassword() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"password": 0})
}

func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	if user.Favorites == nil {
		user.Favorites = []models.Post{}
	}
	if user.Messages == nil {
		user.Messages = []models.Message{}
	}
	_, err := r.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrUsernameTaken
	}
	return err
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *MongoUserRepository) updateOne(ctx context.Context, filter, update bson.M) (*models.User, error) {
	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, afterWithoutPassword()).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user, including the password hash.
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetUserByUsername retrieves a user, including the password hash.
func (r *MongoUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoUserRepository) UpdateImage(ctx context.Context, id primitive.ObjectID, image string) (*models.User, error) {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"image": image}})
}

func (r *MongoUserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) (*models.User, error) {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"password": hash}})
}

func (r *MongoUserRepository) UpdateUsername(ctx context.Context, id primitive.ObjectID, username string) (*models.User, error) {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"username": username}})
}

func (r *MongoUserRepository) HasFavorite(ctx context.Context, username string, postID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"username":  username,
		"favorites": bson.M{"$elemMatch": bson.M{"_id": postID}},
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MongoUserRepository) PushFavorite(ctx context.Context, username string, post *models.Post) (*models.User, error) {
	return r.updateOne(ctx, bson.M{"username": username}, bson.M{"$push": bson.M{"favorites": post}})
}

// PullFavorite removes favorites equal to the given snapshot. The match is by
// whole value, not by id.
func (r *MongoUserRepository) PullFavorite(ctx context.Context, id primitive.ObjectID, post *models.Post) (*models.User, error) {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{"$pull": bson.M{"favorites": post}})
}

func (r *MongoUserRepository) PushMessage(ctx context.Context, receiver string, msg models.Message) (*models.User, error) {
	return r.updateOne(ctx, bson.M{"username": receiver}, bson.M{"$push": bson.M{"messages": msg}})
}

func (r *MongoUserRepository) PullMessage(ctx context.Context, receiver, messageID string) (*models.User, error) {
	return r.updateOne(ctx, bson.M{"username": receiver}, bson.M{"$pull": bson.M{"messages": bson.M{"id": messageID}}})
}

func (r *MongoUserRepository) RenameFavoriteAuthor(ctx context.Context, authorID primitive.ObjectID, username string) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"favorites.authorId": authorID},
		bson.M{"$set": bson.M{"favorites.$[post].username": username}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"post.authorId": authorID}},
		}),
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoUserRepository) RenameMessageSender(ctx context.Context, senderID primitive.ObjectID, username string) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"messages.senderId": senderID},
		bson.M{"$set": bson.M{"messages.$[message].sender": username}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"message.senderId": senderID}},
		}),
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ParseObjectID converts a hex id from a request into an ObjectID.
func ParseObjectID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidObjectID
	}
	return id, nil
}
