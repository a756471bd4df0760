package model

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentSuccessful PaymentStatus = "successful"
	PaymentFailed     PaymentStatus = "failed"
)

type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	Status          OrderStatus    `gorm:"type:varchar(20);default:'pending'" json:"status"`
	PaymentStatus   PaymentStatus  `gorm:"type:varchar(20);default:'pending'" json:"payment_status"`
	TotalAmount     float64        `gorm:"not null" json:"total_amount"`
	Currency        string         `gorm:"type:varchar(8);default:'XAF'" json:"currency"`
	ShippingAddress string         `json:"shipping_address"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	User  User        `gorm:"foreignKey:UserID" json:"-"`
	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem snapshots one cart line at checkout. Price fields are copied so
// later listing edits do not rewrite order history.
type OrderItem struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	OrderID       uint      `gorm:"not null;index" json:"order_id"`
	UserProductID uint      `gorm:"not null;index" json:"user_product_id"`
	StockIndex    int       `gorm:"not null;default:0" json:"stock_index"`
	Quantity      int       `gorm:"not null" json:"quantity"`
	UnitPrice     float64   `gorm:"not null" json:"unit_price"`
	CreatedAt     time.Time `json:"created_at"`

	UserProduct UserProduct `gorm:"foreignKey:UserProductID" json:"user_product,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// PaymentTransaction records one mobile-money collection attempt for an
// order. ReferenceID is the X-Reference-Id sent to the MoMo API.
type PaymentTransaction struct {
	ID          uint          `gorm:"primarykey" json:"id"`
	OrderID     uint          `gorm:"not null;index" json:"order_id"`
	ReferenceID string        `gorm:"uniqueIndex;not null" json:"reference_id"`
	PhoneNumber string        `gorm:"not null" json:"phone_number"`
	Amount      float64       `gorm:"not null" json:"amount"`
	Currency    string        `gorm:"type:varchar(8);default:'XAF'" json:"currency"`
	Status      PaymentStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Order Order `gorm:"foreignKey:OrderID" json:"-"`
}

func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}
