package model

import (
	"time"
)

// Wishlist follows the same by-identity ownership pattern as Cart.
type Wishlist struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    *uint     `gorm:"uniqueIndex" json:"user_id,omitempty"`
	SessionID *string   `gorm:"uniqueIndex" json:"session_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []WishlistItem `gorm:"foreignKey:WishlistID" json:"items,omitempty"`
}

func (Wishlist) TableName() string {
	return "wishlists"
}

type WishlistItem struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	WishlistID    uint      `gorm:"not null;uniqueIndex:idx_wishlist_listing_slot" json:"wishlist_id"`
	UserProductID uint      `gorm:"not null;uniqueIndex:idx_wishlist_listing_slot;index" json:"user_product_id"`
	StockIndex    int       `gorm:"not null;default:0;uniqueIndex:idx_wishlist_listing_slot" json:"stock_index"`
	CreatedAt     time.Time `json:"created_at"`

	UserProduct UserProduct `gorm:"foreignKey:UserProductID" json:"user_product,omitempty"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}

func (wi *WishlistItem) Ref() ListingRef {
	return ListingRef{UserProductID: wi.UserProductID, StockIndex: wi.StockIndex}
}
