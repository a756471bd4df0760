package repository

import (
	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindByID(id uint) (*model.Product, error)
	// FindByTranslatedName matches a catalog entry by a translation name in
	// the given language; used to reuse products across seller uploads.
	FindByTranslatedName(name, languageCode string) (*model.Product, error)
	List(offset, limit int) ([]model.Product, int64, error)
	CreateTranslation(t *model.ProductTranslation) error
	TranslationsFor(productID uint) ([]model.ProductTranslation, error)
	AddImage(img *model.ProductImage) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product", err, nil)
		return err
	}
	return nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	err := r.db.
		Preload("Translations").
		Preload("Images").
		Preload("Listings").
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByTranslatedName(name, languageCode string) (*model.Product, error) {
	var product model.Product
	err := r.db.
		Joins("JOIN product_translations pt ON pt.product_id = products.id").
		Where("pt.name = ? AND pt.language_code = ?", name, languageCode).
		Preload("Translations").
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(offset, limit int) ([]model.Product, int64, error) {
	var (
		products []model.Product
		total    int64
	)
	if err := r.db.Model(&model.Product{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.
		Preload("Translations").
		Preload("Images").
		Preload("Listings").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		logger.Error("Failed to list products", err, map[string]interface{}{
			"offset": offset,
			"limit":  limit,
		})
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) CreateTranslation(t *model.ProductTranslation) error {
	if err := r.db.Create(t).Error; err != nil {
		logger.Error("Failed to create product translation", err, map[string]interface{}{
			"product_id":    t.ProductID,
			"language_code": t.LanguageCode,
		})
		return err
	}
	return nil
}

func (r *productRepository) TranslationsFor(productID uint) ([]model.ProductTranslation, error) {
	var translations []model.ProductTranslation
	err := r.db.Where("product_id = ?", productID).
		Order("language_code ASC").
		Find(&translations).Error
	if err != nil {
		return nil, err
	}
	return translations, nil
}

func (r *productRepository) AddImage(img *model.ProductImage) error {
	if err := r.db.Create(img).Error; err != nil {
		logger.Error("Failed to attach product image", err, map[string]interface{}{
			"product_id": img.ProductID,
		})
		return err
	}
	return nil
}
