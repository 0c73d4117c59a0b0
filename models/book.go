package models

import "time"

// Book is a single listing in the store's inventory.
type Book struct {
	ID            int64     `bson:"_id" json:"id"`
	Title         string    `bson:"title" json:"title"`
	Author        string    `bson:"author" json:"author"`
	Year          int       `bson:"year" json:"year"`
	Edition       string    `bson:"edition,omitempty" json:"edition,omitempty"`
	Condition     string    `bson:"condition" json:"condition"`
	Price         float64   `bson:"price" json:"price"`
	StockQuantity int       `bson:"stockQuantity" json:"stock_quantity"`
	Description   string    `bson:"description,omitempty" json:"description,omitempty"`
	ImageFile     string    `bson:"imageFile,omitempty" json:"image_file,omitempty"` // legacy on-disk filename / archive key; not authoritative for new records
	ImageData     string    `bson:"imageData" json:"image_data,omitempty"`           // base64-encoded cover payload
	CreatedAt     time.Time `bson:"createdAt" json:"created_at"`
}
