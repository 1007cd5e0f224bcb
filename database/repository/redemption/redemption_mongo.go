package redemptionRepo

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

// MongoRedemptionRepo implements RedemptionRepository using MongoDB.
type MongoRedemptionRepo struct {
	coupons       *mongo.Collection
	vouchers      *mongo.Collection
	subscriptions *mongo.Collection
}

// NewMongoRedemptionRepo creates a new instance of RedemptionRepository using MongoDB.
func NewMongoRedemptionRepo() RedemptionRepository {
	db := database.MongoClient.Database(database.DatabaseName)
	repo := &MongoRedemptionRepo{
		coupons:       db.Collection("coupons"),
		vouchers:      db.Collection("giftVouchers"),
		subscriptions: db.Collection("subscriptions"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoRedemptionRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	unique := func(key string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: key, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
	}
	if _, err := r.coupons.Indexes().CreateMany(ctx, []mongo.IndexModel{unique("code"), unique("couponId")}); err != nil {
		return fmt.Errorf("failed to create coupon indexes: %w", err)
	}
	if _, err := r.vouchers.Indexes().CreateMany(ctx, []mongo.IndexModel{unique("code"), unique("voucherId")}); err != nil {
		return fmt.Errorf("failed to create voucher indexes: %w", err)
	}
	if _, err := r.subscriptions.Indexes().CreateMany(ctx, []mongo.IndexModel{unique("subscriptionId")}); err != nil {
		return fmt.Errorf("failed to create subscription indexes: %w", err)
	}
	return nil
}

func (r *MongoRedemptionRepo) GetCouponByCode(ctx context.Context, code string) (*models.CouponRecord, error) {
	var rec models.CouponRecord
	if err := r.coupons.FindOne(ctx, bson.M{"code": code}).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch coupon %s: %w", code, err)
	}
	return &rec, nil
}

func (r *MongoRedemptionRepo) GetVoucherByCode(ctx context.Context, code string) (*models.VoucherRecord, error) {
	var rec models.VoucherRecord
	if err := r.vouchers.FindOne(ctx, bson.M{"code": code}).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch voucher by code: %w", err)
	}
	return &rec, nil
}

func (r *MongoRedemptionRepo) GetVoucherByID(ctx context.Context, voucherID string) (*models.VoucherRecord, error) {
	var rec models.VoucherRecord
	if err := r.vouchers.FindOne(ctx, bson.M{"voucherId": voucherID}).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch voucher %s: %w", voucherID, err)
	}
	return &rec, nil
}

func (r *MongoRedemptionRepo) GetSubscriptionByCode(ctx context.Context, code string) (*models.SubscriptionRecord, error) {
	var rec models.SubscriptionRecord
	if err := r.subscriptions.FindOne(ctx, bson.M{"code": code}).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch subscription by code: %w", err)
	}
	return &rec, nil
}

func (r *MongoRedemptionRepo) GetSubscriptionByID(ctx context.Context, subscriptionID string) (*models.SubscriptionRecord, error) {
	var rec models.SubscriptionRecord
	if err := r.subscriptions.FindOne(ctx, bson.M{"subscriptionId": subscriptionID}).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch subscription %s: %w", subscriptionID, err)
	}
	return &rec, nil
}

// IncrementCouponUse bumps the coupon's usage counter.
func (r *MongoRedemptionRepo) IncrementCouponUse(ctx context.Context, couponID string) error {
	result, err := r.coupons.UpdateOne(ctx,
		bson.M{"couponId": couponID},
		bson.M{"$inc": bson.M{"usedCount": 1}})
	if err != nil {
		return fmt.Errorf("failed to increment coupon %s: %w", couponID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("coupon %s not found", couponID)
	}
	return nil
}

// ConsumeVoucher deducts the applied amount. A treatment voucher or a fully
// spent monetary voucher flips to redeemed; the guard on remainingAmount
// keeps concurrent redemptions from overspending.
func (r *MongoRedemptionRepo) ConsumeVoucher(ctx context.Context, voucherID string, amount float64) error {
	var rec models.VoucherRecord
	if err := r.vouchers.FindOne(ctx, bson.M{"voucherId": voucherID}).Decode(&rec); err != nil {
		return fmt.Errorf("failed to fetch voucher %s: %w", voucherID, err)
	}

	if rec.VoucherType == "monetary" {
		result, err := r.vouchers.UpdateOne(ctx,
			bson.M{"voucherId": voucherID, "status": "active", "remainingAmount": bson.M{"$gte": amount}},
			bson.M{"$inc": bson.M{"remainingAmount": -amount}})
		if err != nil {
			return fmt.Errorf("failed to consume voucher %s: %w", voucherID, err)
		}
		if result.MatchedCount == 0 {
			return fmt.Errorf("voucher %s has insufficient balance", voucherID)
		}
		_, err = r.vouchers.UpdateOne(ctx,
			bson.M{"voucherId": voucherID, "remainingAmount": bson.M{"$lte": 0.0}},
			bson.M{"$set": bson.M{"status": "redeemed"}})
		return err
	}

	result, err := r.vouchers.UpdateOne(ctx,
		bson.M{"voucherId": voucherID, "status": "active"},
		bson.M{"$set": bson.M{"status": "redeemed"}})
	if err != nil {
		return fmt.Errorf("failed to redeem voucher %s: %w", voucherID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("voucher %s is not active", voucherID)
	}
	return nil
}

// ConsumeSubscriptionUnit deducts one prepaid unit, flipping the package to
// depleted when the last unit goes.
func (r *MongoRedemptionRepo) ConsumeSubscriptionUnit(ctx context.Context, subscriptionID string) error {
	result, err := r.subscriptions.UpdateOne(ctx,
		bson.M{"subscriptionId": subscriptionID, "status": "active", "remainingQuantity": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"remainingQuantity": -1}})
	if err != nil {
		return fmt.Errorf("failed to consume subscription %s: %w", subscriptionID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("subscription %s has no remaining units", subscriptionID)
	}
	_, err = r.subscriptions.UpdateOne(ctx,
		bson.M{"subscriptionId": subscriptionID, "remainingQuantity": bson.M{"$lte": 0}},
		bson.M{"$set": bson.M{"status": "depleted"}})
	return err
}
