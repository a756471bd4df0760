package repository

import (
	"errors"

	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/pkg/logger"
	"gorm.io/gorm"
)

type ListingRepository interface {
	Create(listing *model.UserProduct) error
	FindByID(id uint) (*model.UserProduct, error)
	FindByOwnerID(ownerID uint) ([]model.UserProduct, error)
	Update(listing *model.UserProduct) error
	Delete(id uint) error
	// RefExists reports whether ref points at a live listing and a stock slot
	// that listing actually has.
	RefExists(ref model.ListingRef) (bool, error)
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(listing *model.UserProduct) error {
	if err := r.db.Create(listing).Error; err != nil {
		logger.Error("Failed to create listing", err, map[string]interface{}{
			"product_id": listing.ProductID,
			"owner_id":   listing.OwnerID,
		})
		return err
	}
	return nil
}

func (r *listingRepository) FindByID(id uint) (*model.UserProduct, error) {
	var listing model.UserProduct
	err := r.db.
		Preload("Product").
		Preload("Product.Translations").
		First(&listing, id).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) FindByOwnerID(ownerID uint) ([]model.UserProduct, error) {
	var listings []model.UserProduct
	err := r.db.Where("owner_id = ?", ownerID).
		Preload("Product").
		Preload("Product.Translations").
		Order("created_at DESC").
		Find(&listings).Error
	if err != nil {
		logger.Error("Failed to load seller listings", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, err
	}
	return listings, nil
}

func (r *listingRepository) Update(listing *model.UserProduct) error {
	if err := r.db.Save(listing).Error; err != nil {
		logger.Error("Failed to update listing", err, map[string]interface{}{
			"listing_id": listing.ID,
		})
		return err
	}
	return nil
}

func (r *listingRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.UserProduct{}, id).Error; err != nil {
		logger.Error("Failed to delete listing", err, map[string]interface{}{
			"listing_id": id,
		})
		return err
	}
	return nil
}

func (r *listingRepository) RefExists(ref model.ListingRef) (bool, error) {
	if ref.UserProductID == 0 {
		return false, nil
	}
	var listing model.UserProduct
	err := r.db.Select("id", "colors").First(&listing, ref.UserProductID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return listing.HasStockSlot(ref.StockIndex), nil
}
