package repository

import (
	"errors"

	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/pkg/logger"
	"gorm.io/gorm"
)

type WishlistRepository interface {
	Resolve(identity model.Identity) (*model.Wishlist, error)
	ResolveTx(tx *gorm.DB, identity model.Identity) (*model.Wishlist, error)
	ItemsByWishlistID(wishlistID uint) ([]model.WishlistItem, error)
	FindItem(wishlistID uint, ref model.ListingRef) (*model.WishlistItem, error)
	CreateItem(item *model.WishlistItem) error
	DeleteItem(wishlistID uint, ref model.ListingRef) error
}

type wishlistRepository struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) WishlistRepository {
	return &wishlistRepository{db: db}
}

func (r *wishlistRepository) Resolve(identity model.Identity) (*model.Wishlist, error) {
	return r.ResolveTx(r.db, identity)
}

func (r *wishlistRepository) ResolveTx(tx *gorm.DB, identity model.Identity) (*model.Wishlist, error) {
	if !identity.Valid() {
		return nil, ErrNoIdentity
	}

	var list model.Wishlist
	if identity.UserID != nil && *identity.UserID != 0 {
		err := tx.Where("user_id = ?", *identity.UserID).First(&list).Error
		if err == nil {
			return &list, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if identity.SessionID != nil && *identity.SessionID != "" {
		err := tx.Where("session_id = ?", *identity.SessionID).First(&list).Error
		if err == nil {
			return &list, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	list = model.Wishlist{UserID: identity.UserID, SessionID: identity.SessionID}
	if err := tx.Create(&list).Error; err != nil {
		logger.Error("Failed to create wishlist", err, map[string]interface{}{
			"user_id":    identity.UserID,
			"session_id": identity.SessionID,
		})
		return nil, err
	}
	return &list, nil
}

func (r *wishlistRepository) ItemsByWishlistID(wishlistID uint) ([]model.WishlistItem, error) {
	var items []model.WishlistItem
	err := r.db.Where("wishlist_id = ?", wishlistID).
		Preload("UserProduct").
		Preload("UserProduct.Product").
		Preload("UserProduct.Product.Translations").
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		logger.Error("Failed to load wishlist items", err, map[string]interface{}{
			"wishlist_id": wishlistID,
		})
		return nil, err
	}
	return items, nil
}

func (r *wishlistRepository) FindItem(wishlistID uint, ref model.ListingRef) (*model.WishlistItem, error) {
	var item model.WishlistItem
	err := r.db.
		Where("wishlist_id = ? AND user_product_id = ? AND stock_index = ?",
			wishlistID, ref.UserProductID, ref.StockIndex).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *wishlistRepository) CreateItem(item *model.WishlistItem) error {
	if err := r.db.Create(item).Error; err != nil {
		logger.Error("Failed to create wishlist item", err, map[string]interface{}{
			"wishlist_id":     item.WishlistID,
			"user_product_id": item.UserProductID,
			"stock_index":     item.StockIndex,
		})
		return err
	}
	return nil
}

func (r *wishlistRepository) DeleteItem(wishlistID uint, ref model.ListingRef) error {
	err := r.db.
		Where("wishlist_id = ? AND user_product_id = ? AND stock_index = ?",
			wishlistID, ref.UserProductID, ref.StockIndex).
		Delete(&model.WishlistItem{}).Error
	if err != nil {
		logger.Error("Failed to delete wishlist item", err, map[string]interface{}{
			"wishlist_id":     wishlistID,
			"user_product_id": ref.UserProductID,
		})
		return err
	}
	return nil
}
