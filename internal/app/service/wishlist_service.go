package service

import (
	"errors"

	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/internal/app/repository"
	"github.com/kasuwa/kasuwa-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAlreadyInWishlist    = errors.New("listing already in wishlist")
	ErrWishlistItemNotFound = errors.New("wishlist item not found")
)

// WishlistLine is one saved listing joined for display.
type WishlistLine struct {
	ItemID        uint    `json:"id"`
	UserProductID uint    `json:"user_product_id"`
	StockIndex    int     `json:"stock_index"`
	Name          string  `json:"name"`
	UnitPrice     float64 `json:"unit_price"`
}

type WishlistService interface {
	GetWishlist(identity model.Identity, lang string) ([]WishlistLine, error)
	AddToWishlist(identity model.Identity, ref model.ListingRef) error
	RemoveFromWishlist(identity model.Identity, ref model.ListingRef) error
	// MergeWishlist inserts the refs the stored wishlist is missing; refs
	// already present and dangling refs are skipped. Replaying the same set
	// leaves the wishlist unchanged.
	MergeWishlist(identity model.Identity, refs []model.ListingRef) ([]model.ListingRef, error)
	LinkSessionToUser(userID uint, sessionID string) (model.LinkResult, error)
}

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	listingRepo  repository.ListingRepository
	db           *gorm.DB
}

func NewWishlistService(
	wishlistRepo repository.WishlistRepository,
	listingRepo repository.ListingRepository,
	db *gorm.DB,
) WishlistService {
	return &wishlistService{
		wishlistRepo: wishlistRepo,
		listingRepo:  listingRepo,
		db:           db,
	}
}

func (s *wishlistService) GetWishlist(identity model.Identity, lang string) ([]WishlistLine, error) {
	if !identity.Valid() {
		return nil, ErrInvalidIdentity
	}
	if lang == "" {
		lang = model.DefaultLanguage
	}

	list, err := s.wishlistRepo.Resolve(identity)
	if err != nil {
		return nil, err
	}
	items, err := s.wishlistRepo.ItemsByWishlistID(list.ID)
	if err != nil {
		return nil, err
	}

	lines := make([]WishlistLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, WishlistLine{
			ItemID:        item.ID,
			UserProductID: item.UserProductID,
			StockIndex:    item.StockIndex,
			Name:          item.UserProduct.Product.TranslatedName(lang),
			UnitPrice:     item.UserProduct.EffectivePrice(),
		})
	}
	return lines, nil
}

func (s *wishlistService) AddToWishlist(identity model.Identity, ref model.ListingRef) error {
	if !identity.Valid() {
		return ErrInvalidIdentity
	}

	exists, err := s.listingRepo.RefExists(ref)
	if err != nil {
		return err
	}
	if !exists {
		return ErrListingNotFound
	}

	list, err := s.wishlistRepo.Resolve(identity)
	if err != nil {
		return err
	}

	if _, err := s.wishlistRepo.FindItem(list.ID, ref); err == nil {
		// the unique constraint would reject this anyway; surface a clean
		// conflict instead of a constraint violation
		return ErrAlreadyInWishlist
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	item := &model.WishlistItem{
		WishlistID:    list.ID,
		UserProductID: ref.UserProductID,
		StockIndex:    ref.StockIndex,
	}
	if err := s.wishlistRepo.CreateItem(item); err != nil {
		return err
	}

	logger.Info("Listing saved to wishlist", map[string]interface{}{
		"wishlist_id":     list.ID,
		"user_product_id": ref.UserProductID,
		"stock_index":     ref.StockIndex,
	})
	return nil
}

func (s *wishlistService) RemoveFromWishlist(identity model.Identity, ref model.ListingRef) error {
	if !identity.Valid() {
		return ErrInvalidIdentity
	}

	list, err := s.wishlistRepo.Resolve(identity)
	if err != nil {
		return err
	}

	if _, err := s.wishlistRepo.FindItem(list.ID, ref); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWishlistItemNotFound
		}
		return err
	}
	return s.wishlistRepo.DeleteItem(list.ID, ref)
}

func (s *wishlistService) MergeWishlist(identity model.Identity, refs []model.ListingRef) ([]model.ListingRef, error) {
	if !identity.Valid() {
		return nil, ErrInvalidIdentity
	}

	var skipped []model.ListingRef
	err := s.db.Transaction(func(tx *gorm.DB) error {
		list, err := s.wishlistRepo.ResolveTx(tx, identity)
		if err != nil {
			return err
		}

		var existing []model.WishlistItem
		if err := tx.Where("wishlist_id = ?", list.ID).Find(&existing).Error; err != nil {
			return err
		}
		present := make(map[model.ListingRef]bool, len(existing))
		for _, item := range existing {
			present[item.Ref()] = true
		}

		for _, ref := range refs {
			if present[ref] {
				continue
			}

			var listing model.UserProduct
			err := tx.Select("id", "colors").First(&listing, ref.UserProductID).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					skipped = append(skipped, ref)
					continue
				}
				return err
			}
			if !listing.HasStockSlot(ref.StockIndex) {
				skipped = append(skipped, ref)
				continue
			}

			item := model.WishlistItem{
				WishlistID:    list.ID,
				UserProductID: ref.UserProductID,
				StockIndex:    ref.StockIndex,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			present[ref] = true
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNoIdentity) {
			return nil, ErrInvalidIdentity
		}
		logger.Error("Wishlist merge rolled back", err, map[string]interface{}{
			"user_id":    identity.UserID,
			"session_id": identity.SessionID,
		})
		return nil, err
	}
	return skipped, nil
}

func (s *wishlistService) LinkSessionToUser(userID uint, sessionID string) (model.LinkResult, error) {
	if userID == 0 || sessionID == "" {
		return "", ErrInvalidIdentity
	}

	var result model.LinkResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var (
			userList model.Wishlist
			sessList model.Wishlist
			haveUser bool
			haveSess bool
		)

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).First(&userList).Error
		if err == nil {
			haveUser = true
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("session_id = ?", sessionID).First(&sessList).Error
		if err == nil {
			haveSess = true
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		switch {
		case haveUser && haveSess && userList.ID != sessList.ID:
			if err := foldWishlistItems(tx, sessList.ID, userList.ID); err != nil {
				return err
			}
			if err := tx.Delete(&model.Wishlist{}, sessList.ID).Error; err != nil {
				return err
			}
			userList.SessionID = &sessionID
			if err := tx.Save(&userList).Error; err != nil {
				return err
			}
			result = model.LinkMerged

		case haveUser:
			userList.SessionID = &sessionID
			if err := tx.Save(&userList).Error; err != nil {
				return err
			}
			result = model.LinkUpdated

		case haveSess:
			sessList.UserID = &userID
			if err := tx.Save(&sessList).Error; err != nil {
				return err
			}
			result = model.LinkLinked

		default:
			list := model.Wishlist{UserID: &userID, SessionID: &sessionID}
			if err := tx.Create(&list).Error; err != nil {
				return err
			}
			result = model.LinkCreated
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to link session wishlist to user", err, map[string]interface{}{
			"user_id":    userID,
			"session_id": sessionID,
		})
		return "", err
	}

	logger.Info("Session wishlist linked to user", map[string]interface{}{
		"user_id":    userID,
		"session_id": sessionID,
		"result":     result,
	})
	return result, nil
}

// foldWishlistItems moves the guest wishlist's saves into the user wishlist,
// dropping duplicates.
func foldWishlistItems(tx *gorm.DB, fromListID, intoListID uint) error {
	var target []model.WishlistItem
	if err := tx.Where("wishlist_id = ?", intoListID).Find(&target).Error; err != nil {
		return err
	}
	present := make(map[model.ListingRef]bool, len(target))
	for _, item := range target {
		present[item.Ref()] = true
	}

	var source []model.WishlistItem
	if err := tx.Where("wishlist_id = ?", fromListID).Find(&source).Error; err != nil {
		return err
	}

	for _, item := range source {
		if present[item.Ref()] {
			if err := tx.Delete(&model.WishlistItem{}, item.ID).Error; err != nil {
				return err
			}
			continue
		}
		err := tx.Model(&model.WishlistItem{}).
			Where("id = ?", item.ID).
			Update("wishlist_id", intoListID).Error
		if err != nil {
			return err
		}
	}
	return nil
}
