package orderRepo

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

// MongoOrderRepo implements OrderRepository using MongoDB.
type MongoOrderRepo struct {
	bookings *mongo.Collection
	vouchers *mongo.Collection
}

// NewMongoOrderRepo creates a new instance of OrderRepository using MongoDB.
// Purchased vouchers land in the same collection the redemption lookups read.
func NewMongoOrderRepo() OrderRepository {
	db := database.MongoClient.Database(database.DatabaseName)
	repo := &MongoOrderRepo{
		bookings: db.Collection("bookings"),
		vouchers: db.Collection("giftVouchers"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoOrderRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "confirmationId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "guestId", Value: 1}}},
		{Keys: bson.D{{Key: "selection.date", Value: 1}}},
	}
	_, err := r.bookings.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}

// CreateBooking inserts a confirmed booking document.
func (r *MongoOrderRepo) CreateBooking(ctx context.Context, rec *models.BookingRecord) error {
	rec.CreatedAt = time.Now()
	if _, err := r.bookings.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetBooking retrieves a booking by its confirmation id.
func (r *MongoOrderRepo) GetBooking(ctx context.Context, confirmationID string) (*models.BookingRecord, error) {
	var rec models.BookingRecord
	if err := r.bookings.FindOne(ctx, bson.M{"confirmationId": confirmationID}).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("booking %s not found: %w", confirmationID, err)
		}
		return nil, fmt.Errorf("failed to fetch booking %s: %w", confirmationID, err)
	}
	return &rec, nil
}

// ListBookingsByGuest retrieves a guest's bookings, newest first.
func (r *MongoOrderRepo) ListBookingsByGuest(ctx context.Context, guestID string) ([]models.BookingRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.bookings.Find(ctx, bson.M{"guestId": guestID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for guest %s: %w", guestID, err)
	}
	defer cursor.Close(ctx)

	var out []models.BookingRecord
	for cursor.Next(ctx) {
		var rec models.BookingRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// ListBookingsByDate retrieves confirmed bookings on a calendar date.
func (r *MongoOrderRepo) ListBookingsByDate(ctx context.Context, date string) ([]models.BookingRecord, error) {
	cursor, err := r.bookings.Find(ctx, bson.M{"selection.date": date, "status": "confirmed"})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for %s: %w", date, err)
	}
	defer cursor.Close(ctx)

	var out []models.BookingRecord
	for cursor.Next(ctx) {
		var rec models.BookingRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// CreateVoucher inserts a purchased gift voucher document.
func (r *MongoOrderRepo) CreateVoucher(ctx context.Context, rec *models.VoucherRecord) error {
	rec.CreatedAt = time.Now()
	if _, err := r.vouchers.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to create voucher: %w", err)
	}
	return nil
}
