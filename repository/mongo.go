package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raushankrgupta/wardrobe-stylist/apierr"
	"github.com/raushankrgupta/wardrobe-stylist/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique email index and the wardrobe owner index
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}
	_, err = db.Collection(WardrobeCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create wardrobe user index: %w", err)
	}
	return nil
}

// MongoUserRepository is the MongoDB UserRepository
type MongoUserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoUserRepository returns a UserRepository backed by db
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(UsersCollection), now: time.Now}
}

func (r *MongoUserRepository) Create(ctx context.Context, u *models.User) error {
	u.Email = normalizeEmail(u.Email)
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := r.now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user with email %s: %w", u.Email, apierr.ErrAlreadyExists)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": normalizeEmail(email)})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user: %w", apierr.ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd models.ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": r.now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.SkinTone != nil {
		set["skin_tone"] = *upd.SkinTone
	}
	if upd.BodyType != nil {
		set["body_type"] = *upd.BodyType
	}
	if upd.PreferredStyle != nil {
		set["preferred_style"] = *upd.PreferredStyle
	}
	return r.findAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

func (r *MongoUserRepository) UpdateSubscription(ctx context.Context, id primitive.ObjectID, upd models.SubscriptionUpdate) (*models.User, error) {
	set := bson.M{
		"subscription_status":     upd.Status,
		"subscription_plan":       upd.Plan,
		"subscription_start_date": upd.StartDate,
		"subscription_end_date":   upd.EndDate,
		"updated_at":              r.now().UTC(),
	}
	return r.findAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

func (r *MongoUserRepository) ConsumeRecommendation(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	filter := bson.M{
		"_id": id,
		"$expr": bson.M{"$lt": bson.A{"$recommendations_used", "$free_recommendations_limit"}},
	}
	update := bson.M{
		"$inc": bson.M{"recommendations_used": 1},
		"$set": bson.M{"updated_at": r.now().UTC()},
	}
	u, err := r.findAndUpdate(ctx, filter, update)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, apierr.ErrNotFound) {
		return nil, err
	}
	// No match: either the user is gone or the quota is used up
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, apierr.ErrQuotaExceeded
}

func (r *MongoUserRepository) SetOTP(ctx context.Context, email, otp string, ttl time.Duration) error {
	now := r.now().UTC()
	res, err := r.coll.UpdateOne(ctx, bson.M{"email": normalizeEmail(email)}, bson.M{
		"$set": bson.M{
			"otp":            otp,
			"otp_expires_at": now.Add(ttl),
			"otp_attempts":   0,
			"updated_at":     now,
		},
	})
	if err != nil {
		return fmt.Errorf("set otp: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user: %w", apierr.ErrNotFound)
	}
	return nil
}

func (r *MongoUserRepository) ResetPassword(ctx context.Context, email, otp, passwordHash string) error {
	if otp == "" {
		return fmt.Errorf("otp is required: %w", apierr.ErrValidation)
	}
	email = normalizeEmail(email)
	now := r.now().UTC()
	res, err := r.coll.UpdateOne(ctx, bson.M{
		"email":          email,
		"otp":            otp,
		"otp_expires_at": bson.M{"$gt": now},
		"otp_attempts":   bson.M{"$lt": MaxOTPAttempts},
	}, bson.M{
		"$set":   bson.M{"password": passwordHash, "updated_at": now},
		"$unset": bson.M{"otp": "", "otp_expires_at": "", "otp_attempts": ""},
	})
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Count the miss against whatever code is pending
	if _, err := r.coll.UpdateOne(ctx, bson.M{"email": email, "otp": bson.M{"$exists": true}}, bson.M{
		"$inc": bson.M{"otp_attempts": 1},
	}); err != nil {
		return fmt.Errorf("record otp attempt: %w", err)
	}
	return fmt.Errorf("invalid email or otp: %w", apierr.ErrUnauthorized)
}

func (r *MongoUserRepository) findAndUpdate(ctx context.Context, filter, update bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user: %w", apierr.ErrNotFound)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &u, nil
}

// MongoWardrobeRepository is the MongoDB WardrobeRepository
type MongoWardrobeRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoWardrobeRepository returns a WardrobeRepository backed by db
func NewMongoWardrobeRepository(db *mongo.Database) *MongoWardrobeRepository {
	return &MongoWardrobeRepository{coll: db.Collection(WardrobeCollection), now: time.Now}
}

var wardrobeOrder = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

func (r *MongoWardrobeRepository) Create(ctx context.Context, item *models.WardrobeItem) error {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	now := r.now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, item); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("wardrobe item %s: %w", item.ID.Hex(), apierr.ErrAlreadyExists)
		}
		return fmt.Errorf("insert wardrobe item: %w", err)
	}
	return nil
}

func (r *MongoWardrobeRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.WardrobeItem, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *MongoWardrobeRepository) GetByIDs(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) ([]models.WardrobeItem, error) {
	if len(ids) == 0 {
		return []models.WardrobeItem{}, nil
	}
	return r.find(ctx, bson.M{"user_id": userID, "_id": bson.M{"$in": ids}})
}

func (r *MongoWardrobeRepository) find(ctx context.Context, filter bson.M) ([]models.WardrobeItem, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(wardrobeOrder))
	if err != nil {
		return nil, fmt.Errorf("find wardrobe items: %w", err)
	}
	defer cursor.Close(ctx)

	items := []models.WardrobeItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode wardrobe items: %w", err)
	}
	return items, nil
}

func (r *MongoWardrobeRepository) Delete(ctx context.Context, userID, id primitive.ObjectID) (*models.WardrobeItem, error) {
	var item models.WardrobeItem
	err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&item)
	if err == nil {
		return &item, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("delete wardrobe item: %w", err)
	}

	// The conditional delete matched nothing; find out why
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("check wardrobe item: %w", err)
	}
	if n > 0 {
		return nil, fmt.Errorf("wardrobe item %s: %w", id.Hex(), apierr.ErrForbidden)
	}
	return nil, fmt.Errorf("wardrobe item %s: %w", id.Hex(), apierr.ErrNotFound)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
