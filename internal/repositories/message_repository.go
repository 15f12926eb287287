package repositories

import (
	"context"
	"time"

	"github.com/chamadopro/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository defines the interface for chat message operations
type MessageRepository interface {
	CreateMessage(ctx context.Context, message *models.Message) error
	GetThread(ctx context.Context, contractID uint, viewerID uint, includeBlocked bool) ([]models.Message, error)
	GetMessageByID(ctx context.Context, id string) (*models.Message, error)
	ListBlocked(ctx context.Context, limit int64) ([]models.Message, error)
}

// MongoMessageRepository implements MessageRepository for MongoDB
type MongoMessageRepository struct {
	collection *mongo.Collection
}

// NewMongoMessageRepository creates a new MongoMessageRepository
func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{collection: db.Collection("messages")}
}

// CreateMessage persists a new chat message. Persistence happens before any
// realtime push; reconnecting clients recover by re-fetching the thread.
func (r *MongoMessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()
	if message.Type == "" {
		message.Type = models.MessageText
	}
	_, err := r.collection.InsertOne(ctx, message)
	return err
}

// GetThread retrieves a contract's messages in insertion order. Blocked
// messages are returned only to their sender, unless includeBlocked is set
// (moderator view).
func (r *MongoMessageRepository) GetThread(ctx context.Context, contractID uint, viewerID uint, includeBlocked bool) ([]models.Message, error) {
	filter := bson.M{"contract_id": contractID}
	if !includeBlocked {
		filter["$or"] = []bson.M{
			{"blocked": false},
			{"sender_id": viewerID},
		}
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// GetMessageByID retrieves a single message
func (r *MongoMessageRepository) GetMessageByID(ctx context.Context, id string) (*models.Message, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var message models.Message
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&message)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &message, nil
}

// ListBlocked retrieves recent moderation-flagged messages for the admin view
func (r *MongoMessageRepository) ListBlocked(ctx context.Context, limit int64) ([]models.Message, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"blocked": true}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
