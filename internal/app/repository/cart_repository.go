package repository

import (
	"errors"

	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/pkg/logger"
	"gorm.io/gorm"
)

// ErrNoIdentity is returned when neither a user ID nor a session ID is
// available to resolve a cart or wishlist owner.
var ErrNoIdentity = errors.New("identity has neither user id nor session id")

type CartRepository interface {
	// Resolve maps an identity to its single cart row, creating one lazily.
	Resolve(identity model.Identity) (*model.Cart, error)
	// ResolveTx is Resolve running inside the caller's transaction.
	ResolveTx(tx *gorm.DB, identity model.Identity) (*model.Cart, error)
	ItemsByCartID(cartID uint) ([]model.CartItem, error)
	FindItem(cartID uint, ref model.ListingRef) (*model.CartItem, error)
	CreateItem(item *model.CartItem) error
	UpdateItem(item *model.CartItem) error
	DeleteItem(id uint) error
	DeleteItemsByCartID(cartID uint) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Resolve(identity model.Identity) (*model.Cart, error) {
	return r.ResolveTx(r.db, identity)
}

// ResolveTx looks the cart up by user ID first, then by session ID, and
// inserts a fresh row when neither matches. It never rewrites the identity
// columns of a row it found; that is the linker's job.
func (r *cartRepository) ResolveTx(tx *gorm.DB, identity model.Identity) (*model.Cart, error) {
	if !identity.Valid() {
		return nil, ErrNoIdentity
	}

	var cart model.Cart
	if identity.UserID != nil && *identity.UserID != 0 {
		err := tx.Where("user_id = ?", *identity.UserID).First(&cart).Error
		if err == nil {
			return &cart, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to resolve cart by user ID", err, map[string]interface{}{
				"user_id": *identity.UserID,
			})
			return nil, err
		}
	}
	if identity.SessionID != nil && *identity.SessionID != "" {
		err := tx.Where("session_id = ?", *identity.SessionID).First(&cart).Error
		if err == nil {
			return &cart, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to resolve cart by session ID", err, map[string]interface{}{
				"session_id": *identity.SessionID,
			})
			return nil, err
		}
	}

	cart = model.Cart{UserID: identity.UserID, SessionID: identity.SessionID}
	if err := tx.Create(&cart).Error; err != nil {
		logger.Error("Failed to create cart", err, map[string]interface{}{
			"user_id":    identity.UserID,
			"session_id": identity.SessionID,
		})
		return nil, err
	}

	logger.Debug("Cart created for identity", map[string]interface{}{
		"cart_id":    cart.ID,
		"user_id":    identity.UserID,
		"session_id": identity.SessionID,
	})
	return &cart, nil
}

func (r *cartRepository) ItemsByCartID(cartID uint) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.Where("cart_id = ?", cartID).
		Preload("UserProduct").
		Preload("UserProduct.Product").
		Preload("UserProduct.Product.Translations").
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		logger.Error("Failed to load cart items", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return nil, err
	}
	return items, nil
}

func (r *cartRepository) FindItem(cartID uint, ref model.ListingRef) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.
		Where("cart_id = ? AND user_product_id = ? AND stock_index = ?",
			cartID, ref.UserProductID, ref.StockIndex).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) CreateItem(item *model.CartItem) error {
	if err := r.db.Create(item).Error; err != nil {
		logger.Error("Failed to create cart item", err, map[string]interface{}{
			"cart_id":         item.CartID,
			"user_product_id": item.UserProductID,
			"stock_index":     item.StockIndex,
		})
		return err
	}
	return nil
}

func (r *cartRepository) UpdateItem(item *model.CartItem) error {
	if err := r.db.Save(item).Error; err != nil {
		logger.Error("Failed to update cart item", err, map[string]interface{}{
			"cart_item_id": item.ID,
			"cart_id":      item.CartID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItem(id uint) error {
	if err := r.db.Delete(&model.CartItem{}, id).Error; err != nil {
		logger.Error("Failed to delete cart item", err, map[string]interface{}{
			"cart_item_id": id,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItemsByCartID(cartID uint) error {
	if err := r.db.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to clear cart items", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return err
	}
	return nil
}
