package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/internal/app/service"
	apperrors "github.com/kasuwa/kasuwa-backend/internal/errors"
	"github.com/kasuwa/kasuwa-backend/internal/middleware"
)

type WishlistController struct {
	wishlistService service.WishlistService
}

func NewWishlistController(wishlistService service.WishlistService) *WishlistController {
	return &WishlistController{
		wishlistService: wishlistService,
	}
}

type WishlistItemRequest struct {
	UserProductID uint `json:"user_product_id" binding:"required"`
	StockIndex    int  `json:"stock_index" binding:"gte=0"`
}

type MergeWishlistRequest struct {
	Refs []WishlistItemRequest `json:"refs"`
}

func (r WishlistItemRequest) ref() model.ListingRef {
	return model.ListingRef{UserProductID: r.UserProductID, StockIndex: r.StockIndex}
}

// GetWishlist returns the wishlist for the current identity
// GET /api/v1/wishlist
func (ctrl *WishlistController) GetWishlist(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	identity := middleware.RequestIdentity(c)

	lines, err := ctrl.wishlistService.GetWishlist(identity, requestLang(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidIdentity) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "No user or session identity",
			})
			return
		}
		log.Error("Failed to fetch wishlist", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch wishlist",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": lines,
		"count": len(lines),
	})
}

// AddToWishlist saves a listing
// POST /api/v1/wishlist
func (ctrl *WishlistController) AddToWishlist(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	identity := middleware.RequestIdentity(c)

	var req WishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := ctrl.wishlistService.AddToWishlist(identity, req.ref()); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidIdentity):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "No user or session identity",
			})
		case errors.Is(err, service.ErrListingNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Listing not found",
			})
		case errors.Is(err, service.ErrAlreadyInWishlist):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Listing already in wishlist",
			})
		default:
			log.Error("Failed to add to wishlist", err, map[string]interface{}{
				"user_product_id": req.UserProductID,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "wishlist")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Listing saved to wishlist",
	})
}

// RemoveFromWishlist removes a saved listing
// DELETE /api/v1/wishlist/item
func (ctrl *WishlistController) RemoveFromWishlist(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	identity := middleware.RequestIdentity(c)

	var req WishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := ctrl.wishlistService.RemoveFromWishlist(identity, req.ref()); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidIdentity):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "No user or session identity",
			})
		case errors.Is(err, service.ErrWishlistItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Wishlist item not found",
			})
		default:
			log.Error("Failed to remove from wishlist", err, map[string]interface{}{
				"user_product_id": req.UserProductID,
			})
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to remove from wishlist",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Listing removed from wishlist",
	})
}

// MergeWishlist inserts the refs the stored wishlist is missing
// POST /api/v1/wishlist/merge
func (ctrl *WishlistController) MergeWishlist(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	identity := middleware.RequestIdentity(c)

	var req MergeWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	refs := make([]model.ListingRef, 0, len(req.Refs))
	for _, r := range req.Refs {
		refs = append(refs, r.ref())
	}

	skipped, err := ctrl.wishlistService.MergeWishlist(identity, refs)
	if err != nil {
		if errors.Is(err, service.ErrInvalidIdentity) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "No user or session identity",
			})
			return
		}
		log.Error("Failed to merge wishlist", err, map[string]interface{}{
			"refs": len(refs),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to merge wishlist",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Wishlist merged",
		"skipped": skipped,
	})
}
