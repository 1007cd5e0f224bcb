package catalogRepo

import (
	"context"
	"fmt"
	"time"

	"masu/database"
	"masu/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCatalogRepo implements CatalogRepository using MongoDB.
type MongoCatalogRepo struct {
	coll *mongo.Collection
}

// NewMongoCatalogRepo creates a new instance of CatalogRepository using MongoDB.
func NewMongoCatalogRepo() CatalogRepository {
	coll := database.MongoClient.Database(database.DatabaseName).Collection("treatments")
	repo := &MongoCatalogRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoCatalogRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "active", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// GetByID retrieves a treatment by its unique ID.
func (r *MongoCatalogRepo) GetByID(ctx context.Context, id string) (*models.Treatment, error) {
	var treatment models.Treatment
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&treatment); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("treatment with id %s not found: %w", id, err)
		}
		return nil, fmt.Errorf("failed to fetch treatment with id %s: %w", id, err)
	}
	return &treatment, nil
}

// ListActive retrieves all currently bookable treatments.
func (r *MongoCatalogRepo) ListActive(ctx context.Context) ([]models.Treatment, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list treatments: %w", err)
	}
	defer cursor.Close(ctx)

	var treatments []models.Treatment
	for cursor.Next(ctx) {
		var t models.Treatment
		if err := cursor.Decode(&t); err != nil {
			return nil, fmt.Errorf("failed to decode treatment: %w", err)
		}
		treatments = append(treatments, t)
	}
	return treatments, nil
}

// Upsert inserts or replaces a treatment document.
func (r *MongoCatalogRepo) Upsert(ctx context.Context, treatment *models.Treatment) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, bson.M{"id": treatment.ID}, treatment, opts); err != nil {
		return fmt.Errorf("failed to upsert treatment %s: %w", treatment.ID, err)
	}
	return nil
}
