package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/postshare/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	GetAllPosts(ctx context.Context) ([]models.Post, error)
	GetPostsByUsername(ctx context.Context, username string) ([]models.Post, error)
	UpdatePost(ctx context.Context, id primitive.ObjectID, req models.UpdatePostRequest) (*models.Post, error)
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	PushComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error)

	// Rename steps. Both return the number of modified posts.
	RenameAuthor(ctx context.Context, authorID primitive.ObjectID, username string) (int64, error)
	RenameCommenter(ctx context.Context, commenterID primitive.ObjectID, username string) (int64, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// EnsureIndexes creates the indexes the rename cascade filters on.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "authorId", Value: 1}}},
		{Keys: bson.D{{Key: "comments.commenterId", Value: 1}}},
	})
	return err
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	if post.Time.IsZero() {
		post.Time = time.Now().UTC().Truncate(time.Millisecond)
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *MongoPostRepository) find(ctx context.Context, filter bson.M) ([]models.Post, error) {
	posts := []models.Post{}
	findOptions := options.Find().SetSort(bson.D{{Key: "time", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetAllPosts retrieves all posts, newest first
func (r *MongoPostRepository) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	return r.find(ctx, bson.M{})
}

// GetPostsByUsername retrieves posts by their denormalized author username
func (r *MongoPostRepository) GetPostsByUsername(ctx context.Context, username string) ([]models.Post, error) {
	return r.find(ctx, bson.M{"username": username})
}

func (r *MongoPostRepository) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Post, error) {
	var post models.Post
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// UpdatePost edits the mutable fields of a post
func (r *MongoPostRepository) UpdatePost(ctx context.Context, id primitive.ObjectID, req models.UpdatePostRequest) (*models.Post, error) {
	return r.updateOne(ctx, id, bson.M{
		"$set": bson.M{
			"title":       req.Title,
			"description": req.Description,
			"image":       req.Image,
		},
	})
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// PushComment appends a comment and returns the updated post
func (r *MongoPostRepository) PushComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error) {
	return r.updateOne(ctx, postID, bson.M{"$push": bson.M{"comments": comment}})
}

func (r *MongoPostRepository) RenameAuthor(ctx context.Context, authorID primitive.ObjectID, username string) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"authorId": authorID},
		bson.M{"$set": bson.M{"username": username}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoPostRepository) RenameCommenter(ctx context.Context, commenterID primitive.ObjectID, username string) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"comments.commenterId": commenterID},
		bson.M{"$set": bson.M{"comments.$[comment].commenter": username}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"comment.commenterId": commenterID}},
		}),
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
