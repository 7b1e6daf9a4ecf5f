package entity

import "go.mongodb.org/mongo-driver/bson/primitive"

const UnknownCategory = "Unknown"

type Product struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name"`
	CategoryID      primitive.ObjectID `json:"categoryId" bson:"category"`
	CategoryName    string             `json:"categoryName" bson:"-"`
	Price           float64            `json:"price" bson:"price"`
	FinalPrice      float64            `json:"finalPrice" bson:"-"`
	Colors          []string           `json:"colors" bson:"colors"`
	Memory          string             `json:"memory" bson:"memory"`
	Description     string             `json:"description" bson:"description"`
	Images          []string           `json:"images" bson:"images"`
	IsNewArrival    bool               `json:"isNewArrival" bson:"isNewArrival"`
	IsBestSeller    bool               `json:"isBestSeller" bson:"isBestSeller"`
	IsSpecialOffer  bool               `json:"isSpecialOffer" bson:"isSpecialOffer"`
	DiscountPercent float64            `json:"discountPercent,omitempty" bson:"discountPercent,omitempty"`
}

type Category struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Slug        string             `json:"slug" bson:"slug"`
}

// ProductFilter narrows a product listing. Zero values match everything.
type ProductFilter struct {
	CategoryID   string
	NewArrival   bool
	BestSeller   bool
	SpecialOffer bool
}

/*
Mongo collections: products, categories

	categories { name: 1 } unique
	products   { category: 1 }

Deleting a category leaves its products in place; they render as "Unknown".
*/
