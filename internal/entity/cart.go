package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartLine is one entry of a cart. The same product/color/memory combination
// may appear on several lines, so lines are addressed by CartItemID.
type CartLine struct {
	CartItemID string  `json:"cartItemId" bson:"cartItemId"`
	ProductID  string  `json:"productId" bson:"productId" validate:"required"`
	Name       string  `json:"name" bson:"name"`
	Price      float64 `json:"price" bson:"price" validate:"gte=0"`
	Image      string  `json:"image" bson:"image"`
	Color      string  `json:"color,omitempty" bson:"color,omitempty"`
	Memory     string  `json:"memory,omitempty" bson:"memory,omitempty"`
	Quantity   int     `json:"quantity" bson:"quantity" validate:"gte=1"`
}

type Cart struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"userId"`
	Items     []CartLine         `json:"items" bson:"items"`
	Version   int64              `json:"version" bson:"version"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

/*
Mongo collection: carts

	{ userId: 1 } unique

version grows by one on every accepted save; a save carrying a version that
is not newer than the stored one is refused.
*/
