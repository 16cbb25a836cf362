package models

import "time"

// WishlistItem is one product a user saved for later. The product fields are
// a snapshot taken when the item was liked.
type WishlistItem struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id;not null;uniqueIndex:idx_wishlist_items_user_product"`
	ProductID int64     `gorm:"column:product_id;not null;uniqueIndex:idx_wishlist_items_user_product"`
	Title     string    `gorm:"column:title;not null"`
	Thumbnail string    `gorm:"column:thumbnail;not null"`
	Price     float64   `gorm:"column:price;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}
