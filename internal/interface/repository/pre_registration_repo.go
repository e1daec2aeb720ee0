package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"villa-portal-service/internal/domain/entity"
	"villa-portal-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPreRegistrationRepository implements the PreRegistrationRepository interface
type MongoPreRegistrationRepository struct {
	collection *mongo.Collection
}

// NewMongoPreRegistrationRepository creates a new MongoDB pre-registration repository
func NewMongoPreRegistrationRepository(db *mongo.Database) repository.PreRegistrationRepository {
	collection := db.Collection("preRegistrations")

	collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.M{"token": 1},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "email", Value: 1},
				{Key: "status", Value: 1},
			},
		},
		{
			Keys: bson.M{"status": 1},
		},
	})

	return &MongoPreRegistrationRepository{
		collection: collection,
	}
}

// Create inserts a pre-registration
func (r *MongoPreRegistrationRepository) Create(ctx context.Context, preRegistration *entity.PreRegistration) error {
	if preRegistration.ID == "" {
		preRegistration.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	preRegistration.CreatedAt = now
	preRegistration.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, preRegistration); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return entity.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert pre-registration: %w", err)
	}
	return nil
}

// FindByID finds a pre-registration by ID
func (r *MongoPreRegistrationRepository) FindByID(ctx context.Context, id string) (*entity.PreRegistration, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByToken finds a pre-registration by invite token
func (r *MongoPreRegistrationRepository) FindByToken(ctx context.Context, token string) (*entity.PreRegistration, error) {
	return r.findOne(ctx, bson.M{"token": token})
}

// FindByStatus lists pre-registrations in the given status, oldest first
func (r *MongoPreRegistrationRepository) FindByStatus(ctx context.Context, status entity.PreRegistrationStatus) ([]*entity.PreRegistration, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list pre-registrations: %w", err)
	}
	defer cursor.Close(ctx)

	preRegistrations := make([]*entity.PreRegistration, 0)
	if err := cursor.All(ctx, &preRegistrations); err != nil {
		return nil, fmt.Errorf("failed to decode pre-registrations: %w", err)
	}
	return preRegistrations, nil
}

func (r *MongoPreRegistrationRepository) findOne(ctx context.Context, filter bson.M) (*entity.PreRegistration, error) {
	var preRegistration entity.PreRegistration
	err := r.collection.FindOne(ctx, filter).Decode(&preRegistration)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find pre-registration: %w", err)
	}
	return &preRegistration, nil
}

// UpdateStatus sets the status and, when given, the linked user
func (r *MongoPreRegistrationRepository) UpdateStatus(ctx context.Context, id string, status entity.PreRegistrationStatus, userID string) error {
	update := bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now().UTC(),
		},
	}

	if userID != "" {
		update["$set"].(bson.M)["userId"] = userID
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update pre-registration status: %w", err)
	}
	if result.MatchedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}
