// Package repository persists users and wardrobe items.
package repository

import (
	"context"
	"time"

	"github.com/raushankrgupta/wardrobe-stylist/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxOTPAttempts is how many wrong reset codes are accepted before the pending code is void
const MaxOTPAttempts = 5

// Collection names
const (
	UsersCollection    = "users"
	WardrobeCollection = "wardrobe"
)

// UserRepository stores accounts, credentials, usage counters and subscription state
type UserRepository interface {
	// Create inserts u and sets its ID. A taken email yields apierr.ErrAlreadyExists.
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd models.ProfileUpdate) (*models.User, error)
	UpdateSubscription(ctx context.Context, id primitive.ObjectID, upd models.SubscriptionUpdate) (*models.User, error)
	// ConsumeRecommendation increments recommendationsUsed only while it is below the
	// user's free limit. An exhausted quota yields apierr.ErrQuotaExceeded and no write.
	ConsumeRecommendation(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	// SetOTP stores a reset code valid for ttl and clears earlier failed attempts
	SetOTP(ctx context.Context, email, otp string, ttl time.Duration) error
	// ResetPassword replaces the password hash when otp matches, has not expired and
	// fewer than MaxOTPAttempts wrong codes were tried. A wrong code counts as an attempt.
	ResetPassword(ctx context.Context, email, otp, passwordHash string) error
}

// WardrobeRepository stores clothing items. Lists are ordered by creation time, then id.
type WardrobeRepository interface {
	Create(ctx context.Context, item *models.WardrobeItem) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.WardrobeItem, error)
	// GetByIDs returns the user's items among ids, in wardrobe order. Unknown or foreign ids are skipped.
	GetByIDs(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) ([]models.WardrobeItem, error)
	// Delete removes the item if userID owns it and returns what was removed.
	// Missing items yield apierr.ErrNotFound, foreign ones apierr.ErrForbidden.
	Delete(ctx context.Context, userID, id primitive.ObjectID) (*models.WardrobeItem, error)
}
