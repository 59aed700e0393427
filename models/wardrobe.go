package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Wardrobe categories
const (
	CategoryTops        = "Tops"
	CategoryBottoms     = "Bottoms"
	CategoryDresses     = "Dresses"
	CategoryOuterwear   = "Outerwear"
	CategoryFootwear    = "Footwear"
	CategoryAccessories = "Accessories"
)

// Categories lists every wardrobe category in display order
var Categories = []string{
	CategoryTops,
	CategoryBottoms,
	CategoryDresses,
	CategoryOuterwear,
	CategoryFootwear,
	CategoryAccessories,
}

// IsValidCategory reports whether c is one of the known wardrobe categories
func IsValidCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// WardrobeItem represents a single clothing item uploaded by a user.
// ImageKey is the object storage key; ImageURL is resolved from it on read.
type WardrobeItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	Name      string             `bson:"name" json:"name"`
	Category  string             `bson:"category" json:"category"`
	Color     string             `bson:"color" json:"color"`
	ImageKey  string             `bson:"image_key" json:"-"`
	ImageURL  string             `bson:"-" json:"imageUrl,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}
