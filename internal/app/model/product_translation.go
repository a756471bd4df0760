package model

import (
	"time"
)

// DefaultLanguage is the fallback language for catalog reads.
const DefaultLanguage = "en"

type ProductTranslation struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	ProductID    uint      `gorm:"not null;uniqueIndex:idx_product_language" json:"product_id"`
	LanguageCode string    `gorm:"type:varchar(8);not null;uniqueIndex:idx_product_language" json:"language_code"`
	Name         string    `gorm:"not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (ProductTranslation) TableName() string {
	return "product_translations"
}
