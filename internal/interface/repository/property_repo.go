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

// MongoPropertyRepository implements the PropertyRepository interface
type MongoPropertyRepository struct {
	collection *mongo.Collection
}

// NewMongoPropertyRepository creates a new MongoDB property repository
func NewMongoPropertyRepository(db *mongo.Database) repository.PropertyRepository {
	collection := db.Collection("properties")

	collection.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.M{"slug": 1},
		Options: options.Index().SetUnique(true),
	})

	return &MongoPropertyRepository{
		collection: collection,
	}
}

// FindBySlug finds a property by slug
func (r *MongoPropertyRepository) FindBySlug(ctx context.Context, slug string) (*entity.Property, error) {
	var property entity.Property
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&property)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find property: %w", err)
	}
	return &property, nil
}

// Upsert writes the seedable fields of a property keyed by slug
func (r *MongoPropertyRepository) Upsert(ctx context.Context, property *entity.Property) error {
	property.UpdatedAt = time.Now().UTC()

	update := bson.M{
		"$set": bson.M{
			"name":         property.Name,
			"calendarUrl":  property.CalendarURL,
			"timezone":     property.Timezone,
			"checkInTime":  property.CheckInTime,
			"checkOutTime": property.CheckOutTime,
			"updatedAt":    property.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id": primitive.NewObjectID().Hex(),
		},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"slug": property.Slug}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert property: %w", err)
	}
	return nil
}
