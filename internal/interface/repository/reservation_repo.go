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

// MongoReservationRepository implements the ReservationRepository interface
type MongoReservationRepository struct {
	collection *mongo.Collection
}

// NewMongoReservationRepository creates a new MongoDB reservation repository
func NewMongoReservationRepository(db *mongo.Database) repository.ReservationRepository {
	collection := db.Collection("reservations")

	ctx := context.Background()

	// Reconciler and current/next lookups filter by status and order by check-in
	statusCheckInIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "checkInDate", Value: 1},
			{Key: "createdAt", Value: 1},
		},
	}

	// Confirmation fan-out
	preRegistrationIndex := mongo.IndexModel{
		Keys: bson.M{"preRegistrationId": 1},
	}

	// Feed correlation
	reservationCodeIndex := mongo.IndexModel{
		Keys:    bson.M{"reservationCode": 1},
		Options: options.Index().SetSparse(true),
	}

	collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		statusCheckInIndex,
		preRegistrationIndex,
		reservationCodeIndex,
	})

	return &MongoReservationRepository{
		collection: collection,
	}
}

// Create inserts a reservation, assigning an ID and timestamps when missing
func (r *MongoReservationRepository) Create(ctx context.Context, reservation *entity.Reservation) error {
	if reservation.ID == "" {
		reservation.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	if reservation.CreatedAt.IsZero() {
		reservation.CreatedAt = now
	}
	reservation.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, reservation); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return entity.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert reservation: %w", err)
	}
	return nil
}

// FindByID finds a reservation by ID
func (r *MongoReservationRepository) FindByID(ctx context.Context, id string) (*entity.Reservation, error) {
	var reservation entity.Reservation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return &reservation, nil
}

// FindByStatus lists reservations in any of the given statuses ordered by check-in.
// No statuses means all reservations; limit <= 0 means no limit.
func (r *MongoReservationRepository) FindByStatus(ctx context.Context, statuses []entity.ReservationStatus, limit int) ([]*entity.Reservation, error) {
	filter := bson.M{}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "checkInDate", Value: 1},
		{Key: "createdAt", Value: 1},
	})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer cursor.Close(ctx)

	reservations := make([]*entity.Reservation, 0)
	if err := cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return reservations, nil
}

// FindFirst returns the earliest matching reservation by checkInDate then createdAt,
// or nil when nothing matches
func (r *MongoReservationRepository) FindFirst(ctx context.Context, query entity.ReservationQuery) (*entity.Reservation, error) {
	opts := options.FindOne().SetSort(bson.D{
		{Key: "checkInDate", Value: 1},
		{Key: "createdAt", Value: 1},
	})

	var reservation entity.Reservation
	err := r.collection.FindOne(ctx, queryFilter(query), opts).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return &reservation, nil
}

// FindOverlapping returns non-cancelled reservations sharing a night with [checkIn, checkOut)
func (r *MongoReservationRepository) FindOverlapping(ctx context.Context, checkIn, checkOut time.Time) ([]*entity.Reservation, error) {
	filter := bson.M{
		"status":       bson.M{"$ne": entity.ReservationCancelled},
		"checkInDate":  bson.M{"$lt": checkOut},
		"checkOutDate": bson.M{"$gt": checkIn},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping reservations: %w", err)
	}
	defer cursor.Close(ctx)

	reservations := make([]*entity.Reservation, 0)
	if err := cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return reservations, nil
}

// FindByReservationCodes finds reservations by external code (batch operation).
// When a code is shared, a non-cancelled reservation wins.
func (r *MongoReservationRepository) FindByReservationCodes(ctx context.Context, codes []string) (map[string]*entity.Reservation, error) {
	result := make(map[string]*entity.Reservation)
	if len(codes) == 0 {
		return result, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"reservationCode": bson.M{"$in": codes}})
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations by code: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var reservation entity.Reservation
		if err := cursor.Decode(&reservation); err != nil {
			return nil, fmt.Errorf("failed to decode reservation: %w", err)
		}
		if existing, ok := result[reservation.ReservationCode]; ok && existing.Status != entity.ReservationCancelled {
			continue
		}
		result[reservation.ReservationCode] = &reservation
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reservations by code: %w", err)
	}
	return result, nil
}

// ApplyTransition moves every matching reservation to transition.To and
// returns the number of documents modified
func (r *MongoReservationRepository) ApplyTransition(ctx context.Context, transition entity.StatusTransition) (int64, error) {
	update := bson.M{
		"$set": bson.M{
			"status":    transition.To,
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateMany(ctx, transitionFilter(transition), update)
	if err != nil {
		return 0, fmt.Errorf("failed to apply %s transition: %w", transition.To, err)
	}
	return result.ModifiedCount, nil
}

// ConfirmPending flips every pending reservation of a pre-registration to
// upcoming in a single update, assigning the owner and swapping the notes tag
func (r *MongoReservationRepository) ConfirmPending(ctx context.Context, preRegistrationID, userID string) (int64, error) {
	filter := bson.M{
		"preRegistrationId": preRegistrationID,
		"status":            entity.ReservationPending,
	}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "userId", Value: bson.D{{Key: "$literal", Value: userID}}},
			{Key: "status", Value: bson.D{{Key: "$literal", Value: entity.ReservationUpcoming}}},
			{Key: "updatedAt", Value: time.Now().UTC()},
			{Key: "notes", Value: bson.D{{Key: "$replaceOne", Value: bson.D{
				{Key: "input", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$notes", ""}}}},
				{Key: "find", Value: entity.PreReservationTag},
				{Key: "replacement", Value: entity.ConfirmedTag},
			}}}},
		}}},
	}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to confirm pending reservations: %w", err)
	}
	return result.ModifiedCount, nil
}

// UpdateStatus sets the status of a single reservation
func (r *MongoReservationRepository) UpdateStatus(ctx context.Context, id string, status entity.ReservationStatus) error {
	update := bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if result.MatchedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func transitionFilter(t entity.StatusTransition) bson.M {
	filter := bson.M{"status": bson.M{"$in": t.From}}

	if t.CheckInOnOrBefore != nil {
		filter["checkInDate"] = bson.M{"$lte": *t.CheckInOnOrBefore}
	}

	checkOut := bson.M{}
	if t.CheckOutAfter != nil {
		checkOut["$gt"] = *t.CheckOutAfter
	}
	if t.CheckOutBefore != nil {
		checkOut["$lt"] = *t.CheckOutBefore
	}
	if len(checkOut) > 0 {
		filter["checkOutDate"] = checkOut
	}
	return filter
}

func queryFilter(q entity.ReservationQuery) bson.M {
	filter := bson.M{}
	if len(q.Statuses) > 0 {
		filter["status"] = bson.M{"$in": q.Statuses}
	}

	checkIn := bson.M{}
	if q.CheckInAfter != nil {
		checkIn["$gt"] = *q.CheckInAfter
	}
	if q.CheckInOnOrAfter != nil {
		checkIn["$gte"] = *q.CheckInOnOrAfter
	}
	if len(checkIn) > 0 {
		filter["checkInDate"] = checkIn
	}
	return filter
}
