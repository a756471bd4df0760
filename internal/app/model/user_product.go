package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ListingStatus string

const (
	ListingStatusNew  ListingStatus = "New"
	ListingStatusUsed ListingStatus = "Used"
)

// UserProduct is a seller's sellable listing of a catalog Product. The same
// Product may be listed by many sellers at different prices; carts and
// wishlists always reference a listing, never the catalog entry directly.
type UserProduct struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	ProductID     uint           `gorm:"not null;index" json:"product_id"`
	Owner         string         `gorm:"not null" json:"owner"`
	OwnerID       uint           `gorm:"not null;index" json:"owner_id"`
	Price         float64        `gorm:"not null" json:"price"`
	Discount      float64        `gorm:"default:0" json:"discount"`
	Status        ListingStatus  `gorm:"type:varchar(20);default:'New'" json:"status"`
	Colors        pq.StringArray `gorm:"type:text[]" json:"colors"`
	NumberInStock int            `gorm:"default:1" json:"number_in_stock"`
	PhoneNumber   string         `json:"phone_number"`
	Address       string         `json:"address"`
	City          string         `json:"city"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (UserProduct) TableName() string {
	return "user_products"
}

// StockSlots is the number of addressable stock slots on the listing. A
// listing with declared colors has one slot per color; otherwise a single
// implicit slot 0.
func (up *UserProduct) StockSlots() int {
	if len(up.Colors) > 0 {
		return len(up.Colors)
	}
	return 1
}

// HasStockSlot reports whether idx addresses a valid stock slot.
func (up *UserProduct) HasStockSlot(idx int) bool {
	return idx >= 0 && idx < up.StockSlots()
}

// Ref builds the cart/wishlist reference for one of this listing's slots.
func (up *UserProduct) Ref(stockIndex int) ListingRef {
	return ListingRef{UserProductID: up.ID, StockIndex: stockIndex}
}

// EffectivePrice is the sellable unit price after the seller's discount.
func (up *UserProduct) EffectivePrice() float64 {
	return up.Price - up.Discount
}
