package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription states a user can be in
const (
	SubscriptionFree      = "free"
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

// DefaultFreeRecommendationsLimit is the number of recommendation requests a free account gets
const DefaultFreeRecommendationsLimit = 3

// User represents a registered user together with styling preferences and subscription state
type User struct {
	ID                       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                     string             `bson:"name" json:"name"`
	Email                    string             `bson:"email" json:"email"`
	Password                 string             `bson:"password" json:"-"` // bcrypt hash, never returned in JSON
	SkinTone                 string             `bson:"skin_tone,omitempty" json:"skinTone,omitempty"`
	BodyType                 string             `bson:"body_type,omitempty" json:"bodyType,omitempty"`
	PreferredStyle           string             `bson:"preferred_style,omitempty" json:"preferredStyle,omitempty"`
	SubscriptionStatus       string             `bson:"subscription_status" json:"subscriptionStatus"`
	SubscriptionPlan         string             `bson:"subscription_plan,omitempty" json:"subscriptionPlan,omitempty"`
	SubscriptionStartDate    *time.Time         `bson:"subscription_start_date,omitempty" json:"subscriptionStartDate,omitempty"`
	SubscriptionEndDate      *time.Time         `bson:"subscription_end_date,omitempty" json:"subscriptionEndDate,omitempty"`
	RecommendationsUsed      int                `bson:"recommendations_used" json:"recommendationsUsed"`
	FreeRecommendationsLimit int                `bson:"free_recommendations_limit" json:"freeRecommendationsLimit"`
	OTP                      string             `bson:"otp,omitempty" json:"-"` // OTP for password reset
	OTPExpiresAt             *time.Time         `bson:"otp_expires_at,omitempty" json:"-"`
	OTPAttempts              int                `bson:"otp_attempts,omitempty" json:"-"`
	CreatedAt                time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt                time.Time          `bson:"updated_at" json:"updatedAt"`
}

// ProfileUpdate carries the optional profile fields a user may change.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Name           *string
	SkinTone       *string
	BodyType       *string
	PreferredStyle *string
}

// SubscriptionUpdate is the full subscription state written by subscribe/cancel.
type SubscriptionUpdate struct {
	Status    string
	Plan      string
	StartDate *time.Time
	EndDate   *time.Time
}
