package model

import (
	"time"
)

// Cart is owned by exactly one identity. UserID and SessionID are each unique
// when set; a row may carry both after sign-in linked a guest session to its
// user. Carts are created lazily on first write and never deleted.
type Cart struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    *uint     `gorm:"uniqueIndex" json:"user_id,omitempty"`
	SessionID *string   `gorm:"uniqueIndex" json:"session_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []CartItem `gorm:"foreignKey:CartID" json:"items,omitempty"`
}

func (Cart) TableName() string {
	return "carts"
}

// CartItem is one line in a cart, keyed by (cart, listing, stock slot).
// Quantity is always >= 1; a line whose quantity would drop to 0 is deleted
// instead.
type CartItem struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	CartID          uint      `gorm:"not null;uniqueIndex:idx_cart_listing_slot" json:"cart_id"`
	UserProductID   uint      `gorm:"not null;uniqueIndex:idx_cart_listing_slot;index" json:"user_product_id"`
	StockIndex      int       `gorm:"not null;default:0;uniqueIndex:idx_cart_listing_slot" json:"stock_index"`
	Quantity        int       `gorm:"not null;default:1" json:"quantity"`
	PriceAtAdded    float64   `json:"price_at_added"`
	DiscountAtAdded float64   `json:"discount_at_added"`
	Metadata        *string   `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	UserProduct UserProduct `gorm:"foreignKey:UserProductID" json:"user_product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// Ref returns the merge identity key of the line.
func (ci *CartItem) Ref() ListingRef {
	return ListingRef{UserProductID: ci.UserProductID, StockIndex: ci.StockIndex}
}
