package guestRepo

import (
	"context"
	"fmt"
	"time"

	"masu/database"
	"masu/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoGuestRepo implements GuestRepository using MongoDB.
type MongoGuestRepo struct {
	coll *mongo.Collection
}

// NewMongoGuestRepo creates a new instance of GuestRepository using MongoDB.
func NewMongoGuestRepo() GuestRepository {
	coll := database.MongoClient.Database(database.DatabaseName).Collection("guests")
	repo := &MongoGuestRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// FindOrCreate reuses an existing guest matched by email. The stored secret
// hash and contact details are refreshed so the latest handle wins.
func (r *MongoGuestRepo) FindOrCreate(ctx context.Context, guest *models.GuestIdentity) (*models.GuestIdentity, bool, error) {
	existing, err := r.GetByEmail(ctx, guest.Email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		update := bson.M{"$set": bson.M{
			"firstName":  guest.FirstName,
			"lastName":   guest.LastName,
			"phone":      guest.Phone,
			"secretHash": guest.SecretHash,
			"updatedAt":  time.Now(),
		}}
		if _, err := r.coll.UpdateOne(ctx, bson.M{"id": existing.ID}, update); err != nil {
			return nil, false, fmt.Errorf("failed to refresh guest %s: %w", existing.ID, err)
		}
		existing.FirstName = guest.FirstName
		existing.LastName = guest.LastName
		existing.Phone = guest.Phone
		existing.SecretHash = guest.SecretHash
		return existing, false, nil
	}

	now := time.Now()
	guest.CreatedAt = now
	guest.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, guest); err != nil {
		return nil, false, fmt.Errorf("failed to create guest: %w", err)
	}
	return guest, true, nil
}

// GetByID retrieves a guest by its unique ID.
func (r *MongoGuestRepo) GetByID(ctx context.Context, id string) (*models.GuestIdentity, error) {
	var guest models.GuestIdentity
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&guest); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("guest with id %s not found: %w", id, err)
		}
		return nil, fmt.Errorf("failed to fetch guest with id %s: %w", id, err)
	}
	return &guest, nil
}

// GetByEmail retrieves a guest by email, or nil when none exists.
func (r *MongoGuestRepo) GetByEmail(ctx context.Context, email string) (*models.GuestIdentity, error) {
	var guest models.GuestIdentity
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&guest); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch guest with email %s: %w", email, err)
	}
	return &guest, nil
}

// SetFCMToken stores the push token for reminder delivery.
func (r *MongoGuestRepo) SetFCMToken(ctx context.Context, id, token string) error {
	update := bson.M{"$set": bson.M{"fcmToken": token, "updatedAt": time.Now()}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to set fcm token for guest %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("guest with id %s not found", id)
	}
	return nil
}

// Delete removes a guest document by its ID.
func (r *MongoGuestRepo) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete guest with id %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("guest with id %s not found", id)
	}
	return nil
}
