package service

import (
	"errors"
	"fmt"

	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/internal/app/repository"
	"github.com/kasuwa/kasuwa-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidIdentity  = errors.New("identity has neither user id nor session id")
	ErrListingNotFound  = errors.New("listing not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrMergeFailed      = errors.New("cart merge failed")
)

// CartLine is one resolved cart row joined with its listing for display.
type CartLine struct {
	ItemID        uint    `json:"id"`
	UserProductID uint    `json:"user_product_id"`
	StockIndex    int     `json:"stock_index"`
	Name          string  `json:"name"`
	UnitPrice     float64 `json:"unit_price"`
	Quantity      int     `json:"quantity"`
	Subtotal      float64 `json:"subtotal"`
}

type CartView struct {
	CartID uint       `json:"cart_id"`
	Lines  []CartLine `json:"lines"`
	Total  float64    `json:"total"`
}

// MergeLine is one entry of a client-submitted cart snapshot.
type MergeLine struct {
	UserProductID uint `json:"user_product_id"`
	StockIndex    int  `json:"stock_index"`
	Quantity      int  `json:"quantity"`
}

func (l MergeLine) ref() model.ListingRef {
	return model.ListingRef{UserProductID: l.UserProductID, StockIndex: l.StockIndex}
}

// MergeResult carries the cart state after a merge plus the lines that were
// rejected (missing listing id, non-positive quantity, dangling reference).
type MergeResult struct {
	Cart    CartView    `json:"cart"`
	Skipped []MergeLine `json:"skipped,omitempty"`
}

type CartService interface {
	GetCart(identity model.Identity, lang string) (*CartView, error)
	// AddToCart accumulates: adding a line that already exists sums the
	// quantities. Batch merge replaces instead; see MergeCart.
	AddToCart(identity model.Identity, ref model.ListingRef, quantity int) error
	IncrementItem(identity model.Identity, ref model.ListingRef) error
	// DecrementItem lowers the quantity by one and deletes the line when it
	// would reach zero.
	DecrementItem(identity model.Identity, ref model.ListingRef) error
	RemoveFromCart(identity model.Identity, ref model.ListingRef) error
	ClearCart(identity model.Identity) error
	// MergeCart reconciles a client cart snapshot against the stored cart in
	// one transaction. Matching lines are set to the incoming quantity, so
	// replaying the same snapshot is a no-op. In replace mode, stored lines
	// absent from the snapshot are deleted first; otherwise they are kept.
	MergeCart(identity model.Identity, lines []MergeLine, replace bool, lang string) (*MergeResult, error)
	// LinkSessionToUser attaches a guest session's cart to a signed-in user,
	// folding both carts into one row when each side already has one.
	LinkSessionToUser(userID uint, sessionID string) (model.LinkResult, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	listingRepo repository.ListingRepository
	db          *gorm.DB
}

func NewCartService(
	cartRepo repository.CartRepository,
	listingRepo repository.ListingRepository,
	db *gorm.DB,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		listingRepo: listingRepo,
		db:          db,
	}
}

func (s *cartService) GetCart(identity model.Identity, lang string) (*CartView, error) {
	if !identity.Valid() {
		return nil, ErrInvalidIdentity
	}

	cart, err := s.cartRepo.Resolve(identity)
	if err != nil {
		return nil, err
	}
	return s.buildView(cart.ID, lang)
}

func (s *cartService) AddToCart(identity model.Identity, ref model.ListingRef, quantity int) error {
	if !identity.Valid() {
		return ErrInvalidIdentity
	}
	if ref.UserProductID == 0 || quantity < 1 {
		return ErrListingNotFound
	}

	logger.Info("Adding line to cart", map[string]interface{}{
		"user_id":         identity.UserID,
		"session_id":      identity.SessionID,
		"user_product_id": ref.UserProductID,
		"stock_index":     ref.StockIndex,
		"quantity":        quantity,
	})

	listing, err := s.listingRepo.FindByID(ref.UserProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	if !listing.HasStockSlot(ref.StockIndex) {
		logger.Warn("Stock index out of range for listing", map[string]interface{}{
			"user_product_id": ref.UserProductID,
			"stock_index":     ref.StockIndex,
			"slots":           listing.StockSlots(),
		})
		return ErrListingNotFound
	}

	cart, err := s.cartRepo.Resolve(identity)
	if err != nil {
		return err
	}

	existing, err := s.cartRepo.FindItem(cart.ID, ref)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	requested := quantity
	if existing != nil {
		requested = existing.Quantity + quantity
	}
	if listing.NumberInStock < requested {
		logger.Warn("Insufficient stock for cart line", map[string]interface{}{
			"user_product_id": ref.UserProductID,
			"requested":       requested,
			"available":       listing.NumberInStock,
		})
		return ErrInsufficientStock
	}

	if existing != nil {
		existing.Quantity = requested
		return s.cartRepo.UpdateItem(existing)
	}

	item := &model.CartItem{
		CartID:          cart.ID,
		UserProductID:   ref.UserProductID,
		StockIndex:      ref.StockIndex,
		Quantity:        quantity,
		PriceAtAdded:    listing.Price,
		DiscountAtAdded: listing.Discount,
	}
	return s.cartRepo.CreateItem(item)
}

func (s *cartService) IncrementItem(identity model.Identity, ref model.ListingRef) error {
	return s.adjustItem(identity, ref, +1)
}

func (s *cartService) DecrementItem(identity model.Identity, ref model.ListingRef) error {
	return s.adjustItem(identity, ref, -1)
}

func (s *cartService) adjustItem(identity model.Identity, ref model.ListingRef, delta int) error {
	if !identity.Valid() {
		return ErrInvalidIdentity
	}

	cart, err := s.cartRepo.Resolve(identity)
	if err != nil {
		return err
	}

	item, err := s.cartRepo.FindItem(cart.ID, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartItemNotFound
		}
		return err
	}

	next := item.Quantity + delta
	if next < 1 {
		// quantity never reaches 0; the row goes away instead
		logger.Debug("Deleting cart line at zero quantity", map[string]interface{}{
			"cart_item_id": item.ID,
			"cart_id":      cart.ID,
		})
		return s.cartRepo.DeleteItem(item.ID)
	}

	if delta > 0 {
		listing, err := s.listingRepo.FindByID(ref.UserProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return err
		}
		if listing.NumberInStock < next {
			return ErrInsufficientStock
		}
	}

	item.Quantity = next
	return s.cartRepo.UpdateItem(item)
}

func (s *cartService) RemoveFromCart(identity model.Identity, ref model.ListingRef) error {
	if !identity.Valid() {
		return ErrInvalidIdentity
	}

	cart, err := s.cartRepo.Resolve(identity)
	if err != nil {
		return err
	}

	item, err := s.cartRepo.FindItem(cart.ID, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartItemNotFound
		}
		return err
	}
	return s.cartRepo.DeleteItem(item.ID)
}

func (s *cartService) ClearCart(identity model.Identity) error {
	if !identity.Valid() {
		return ErrInvalidIdentity
	}

	cart, err := s.cartRepo.Resolve(identity)
	if err != nil {
		return err
	}
	return s.cartRepo.DeleteItemsByCartID(cart.ID)
}

func (s *cartService) MergeCart(identity model.Identity, lines []MergeLine, replace bool, lang string) (*MergeResult, error) {
	if !identity.Valid() {
		return nil, ErrInvalidIdentity
	}

	logger.Info("Merging cart snapshot", map[string]interface{}{
		"user_id":    identity.UserID,
		"session_id": identity.SessionID,
		"lines":      len(lines),
		"replace":    replace,
	})

	// Duplicate refs within one snapshot: the last occurrence wins, and the
	// earlier ones never touch the store.
	deduped := dedupeLines(lines)

	var (
		cartID  uint
		skipped []MergeLine
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		cart, err := s.cartRepo.ResolveTx(tx, identity)
		if err != nil {
			return err
		}
		cartID = cart.ID

		// Serialize concurrent merges on the same cart.
		var locked model.Cart
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, cart.ID).Error; err != nil {
			return err
		}

		var existing []model.CartItem
		if err := tx.Where("cart_id = ?", cart.ID).Find(&existing).Error; err != nil {
			return err
		}
		existingByRef := make(map[model.ListingRef]*model.CartItem, len(existing))
		for i := range existing {
			existingByRef[existing[i].Ref()] = &existing[i]
		}

		if replace {
			incoming := make(map[model.ListingRef]bool, len(deduped))
			for _, line := range deduped {
				incoming[line.ref()] = true
			}
			for ref, item := range existingByRef {
				if incoming[ref] {
					continue
				}
				if err := tx.Delete(&model.CartItem{}, item.ID).Error; err != nil {
					return err
				}
				delete(existingByRef, ref)
			}
		}

		for _, line := range deduped {
			if line.UserProductID == 0 || line.Quantity < 1 {
				skipped = append(skipped, line)
				continue
			}

			var listing model.UserProduct
			err := tx.Select("id", "colors", "price", "discount").
				First(&listing, line.UserProductID).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					skipped = append(skipped, line)
					continue
				}
				return err
			}
			if !listing.HasStockSlot(line.StockIndex) {
				skipped = append(skipped, line)
				continue
			}

			if item, ok := existingByRef[line.ref()]; ok {
				if item.Quantity == line.Quantity {
					continue
				}
				// Replace, never add: replaying the snapshot must not double
				// quantities.
				err := tx.Model(&model.CartItem{}).
					Where("id = ?", item.ID).
					Update("quantity", line.Quantity).Error
				if err != nil {
					return err
				}
				continue
			}

			item := model.CartItem{
				CartID:          cart.ID,
				UserProductID:   line.UserProductID,
				StockIndex:      line.StockIndex,
				Quantity:        line.Quantity,
				PriceAtAdded:    listing.Price,
				DiscountAtAdded: listing.Discount,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNoIdentity) {
			return nil, ErrInvalidIdentity
		}
		logger.Error("Cart merge rolled back", err, map[string]interface{}{
			"user_id":    identity.UserID,
			"session_id": identity.SessionID,
		})
		return nil, fmt.Errorf("%w: %v", ErrMergeFailed, err)
	}

	view, err := s.buildView(cartID, lang)
	if err != nil {
		return nil, err
	}

	logger.Info("Cart snapshot merged", map[string]interface{}{
		"cart_id": cartID,
		"lines":   len(view.Lines),
		"skipped": len(skipped),
	})
	return &MergeResult{Cart: *view, Skipped: skipped}, nil
}

func (s *cartService) LinkSessionToUser(userID uint, sessionID string) (model.LinkResult, error) {
	if userID == 0 || sessionID == "" {
		return "", ErrInvalidIdentity
	}

	var result model.LinkResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var (
			userCart model.Cart
			sessCart model.Cart
			haveUser bool
			haveSess bool
		)

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).First(&userCart).Error
		if err == nil {
			haveUser = true
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("session_id = ?", sessionID).First(&sessCart).Error
		if err == nil {
			haveSess = true
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		switch {
		case haveUser && haveSess && userCart.ID != sessCart.ID:
			if err := s.foldCartItems(tx, sessCart.ID, userCart.ID); err != nil {
				return err
			}
			if err := tx.Delete(&model.Cart{}, sessCart.ID).Error; err != nil {
				return err
			}
			userCart.SessionID = &sessionID
			if err := tx.Save(&userCart).Error; err != nil {
				return err
			}
			result = model.LinkMerged

		case haveUser:
			userCart.SessionID = &sessionID
			if err := tx.Save(&userCart).Error; err != nil {
				return err
			}
			result = model.LinkUpdated

		case haveSess:
			sessCart.UserID = &userID
			if err := tx.Save(&sessCart).Error; err != nil {
				return err
			}
			result = model.LinkLinked

		default:
			cart := model.Cart{UserID: &userID, SessionID: &sessionID}
			if err := tx.Create(&cart).Error; err != nil {
				return err
			}
			result = model.LinkCreated
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to link session cart to user", err, map[string]interface{}{
			"user_id":    userID,
			"session_id": sessionID,
		})
		return "", err
	}

	logger.Info("Session cart linked to user", map[string]interface{}{
		"user_id":    userID,
		"session_id": sessionID,
		"result":     result,
	})
	return result, nil
}

// foldCartItems moves the guest cart's lines into the user cart. On a key
// collision the larger quantity survives.
func (s *cartService) foldCartItems(tx *gorm.DB, fromCartID, intoCartID uint) error {
	var target []model.CartItem
	if err := tx.Where("cart_id = ?", intoCartID).Find(&target).Error; err != nil {
		return err
	}
	targetByRef := make(map[model.ListingRef]*model.CartItem, len(target))
	for i := range target {
		targetByRef[target[i].Ref()] = &target[i]
	}

	var source []model.CartItem
	if err := tx.Where("cart_id = ?", fromCartID).Find(&source).Error; err != nil {
		return err
	}

	for i := range source {
		item := &source[i]
		if existing, ok := targetByRef[item.Ref()]; ok {
			if item.Quantity > existing.Quantity {
				err := tx.Model(&model.CartItem{}).
					Where("id = ?", existing.ID).
					Update("quantity", item.Quantity).Error
				if err != nil {
					return err
				}
			}
			if err := tx.Delete(&model.CartItem{}, item.ID).Error; err != nil {
				return err
			}
			continue
		}
		err := tx.Model(&model.CartItem{}).
			Where("id = ?", item.ID).
			Update("cart_id", intoCartID).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *cartService) buildView(cartID uint, lang string) (*CartView, error) {
	if lang == "" {
		lang = model.DefaultLanguage
	}

	items, err := s.cartRepo.ItemsByCartID(cartID)
	if err != nil {
		return nil, err
	}

	view := &CartView{CartID: cartID, Lines: make([]CartLine, 0, len(items))}
	for _, item := range items {
		unit := item.UserProduct.EffectivePrice()
		line := CartLine{
			ItemID:        item.ID,
			UserProductID: item.UserProductID,
			StockIndex:    item.StockIndex,
			Name:          item.UserProduct.Product.TranslatedName(lang),
			UnitPrice:     unit,
			Quantity:      item.Quantity,
			Subtotal:      unit * float64(item.Quantity),
		}
		view.Lines = append(view.Lines, line)
		view.Total += line.Subtotal
	}
	return view, nil
}

func dedupeLines(lines []MergeLine) []MergeLine {
	seen := make(map[model.ListingRef]int, len(lines))
	out := make([]MergeLine, 0, len(lines))
	for _, line := range lines {
		if idx, ok := seen[line.ref()]; ok {
			out[idx] = line
			continue
		}
		seen[line.ref()] = len(out)
		out = append(out, line)
	}
	return out
}
