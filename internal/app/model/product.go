package model

import (
	"time"

	"gorm.io/gorm"
)

// Product is a language-neutral catalog entry. It carries no name or
// description of its own; those live in ProductTranslation, one row per
// language. Sellers attach their own UserProduct listings to it.
type Product struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	Brand          string         `gorm:"type:jsonb;default:'{}'" json:"brand"`
	Category       string         `gorm:"type:jsonb;default:'{}'" json:"category"`
	Dimensions     string         `gorm:"type:jsonb;default:'{}'" json:"dimensions"`
	Attributes     string         `gorm:"type:jsonb;default:'{}'" json:"attributes"`
	ThumbnailIndex int            `gorm:"default:0" json:"thumbnail_index"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Translations []ProductTranslation `gorm:"foreignKey:ProductID" json:"translations,omitempty"`
	Listings     []UserProduct        `gorm:"foreignKey:ProductID" json:"listings,omitempty"`
	Images       []ProductImage       `gorm:"foreignKey:ProductID" json:"images,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// TranslatedName returns the product name for lang, falling back to English
// and then to any available translation.
func (p *Product) TranslatedName(lang string) string {
	var english string
	for _, t := range p.Translations {
		if t.LanguageCode == lang {
			return t.Name
		}
		if t.LanguageCode == DefaultLanguage {
			english = t.Name
		}
	}
	if english != "" {
		return english
	}
	if len(p.Translations) > 0 {
		return p.Translations[0].Name
	}
	return ""
}

type ProductImage struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	ProductID     uint           `gorm:"not null;index" json:"product_id"`
	ImagePath     string         `gorm:"not null" json:"image_path"`
	ThumbnailPath string         `json:"thumbnail_path"`
	CreatedAt     time.Time      `json:"created_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ProductImage) TableName() string {
	return "product_images"
}
