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

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	UserProductID uint `json:"user_product_id" binding:"required"`
	StockIndex    int  `json:"stock_index" binding:"gte=0"`
	Quantity      int  `json:"quantity" binding:"required,gt=0"`
}

type CartItemRef struct {
	UserProductID uint `json:"user_product_id" binding:"required"`
	StockIndex    int  `json:"stock_index" binding:"gte=0"`
}

type MergeCartRequest struct {
	Lines   []service.MergeLine `json:"lines"`
	Replace bool                `json:"replace"`
}

func (r CartItemRef) ref() model.ListingRef {
	return model.ListingRef{UserProductID: r.UserProductID, StockIndex: r.StockIndex}
}

// requestLang picks the response language from the lang query parameter.
func requestLang(c *gin.Context) string {
	return c.DefaultQuery("lang", model.DefaultLanguage)
}

// GetCart returns the cart for the current identity
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	identity := middleware.RequestIdentity(c)

	view, err := ctrl.cartService.GetCart(identity, requestLang(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidIdentity) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "No user or session identity",
			})
			return
		}
		log.Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id":    identity.UserID,
			"session_id": identity.SessionID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart":  view,
		"count": len(view.Lines),
	})
}

// AddToCart adds a listing to the cart, accumulating quantity
// POST /api/v1/cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	identity := middleware.RequestIdentity(c)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	ref := model.ListingRef{UserProductID: req.UserProductID, StockIndex: req.StockIndex}
	err := ctrl.cartService.AddToCart(identity, ref, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidIdentity):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "No user or session identity",
			})
		case errors.Is(err, service.ErrListingNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Listing not found",
			})
		case errors.Is(err, service.ErrInsufficientStock):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Insufficient stock",
			})
		default:
			log.Error("Failed to add item to cart", err, map[string]interface{}{
				"user_product_id": req.UserProductID,
				"stock_index":     req.StockIndex,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "cart")
		}
		return
	}

	log.Info("Item added to cart", map[string]interface{}{
		"user_product_id": req.UserProductID,
		"stock_index":     req.StockIndex,
		"quantity":        req.Quantity,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Item added to cart",
	})
}

// UpdateCartItem increments or decrements a cart line by one
// PUT /api/v1/cart/:action  (action = increment | decrement)
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	identity := middleware.RequestIdentity(c)

	action := c.Param("action")
	if action != "increment" && action != "decrement" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown cart action",
		})
		return
	}

	var req CartItemRef
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	var err error
	if action == "increment" {
		err = ctrl.cartService.IncrementItem(identity, req.ref())
	} else {
		err = ctrl.cartService.DecrementItem(identity, req.ref())
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidIdentity):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "No user or session identity",
			})
		case errors.Is(err, service.ErrCartItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Cart item not found",
			})
		case errors.Is(err, service.ErrListingNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Listing not found",
			})
		case errors.Is(err, service.ErrInsufficientStock):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Insufficient stock",
			})
		default:
			log.Error("Failed to update cart item", err, map[string]interface{}{
				"action":          action,
				"user_product_id": req.UserProductID,
			})
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update cart item",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated",
	})
}

// RemoveFromCart removes one line from the cart
// DELETE /api/v1/cart/item
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	identity := middleware.RequestIdentity(c)

	var req CartItemRef
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := ctrl.cartService.RemoveFromCart(identity, req.ref()); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidIdentity):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "No user or session identity",
			})
		case errors.Is(err, service.ErrCartItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Cart item not found",
			})
		default:
			log.Error("Failed to remove cart item", err, map[string]interface{}{
				"user_product_id": req.UserProductID,
			})
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to remove cart item",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart",
	})
}

// ClearCart removes every line from the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	identity := middleware.RequestIdentity(c)

	if err := ctrl.cartService.ClearCart(identity); err != nil {
		if errors.Is(err, service.ErrInvalidIdentity) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "No user or session identity",
			})
			return
		}
		log.Error("Failed to clear cart", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clear cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared",
	})
}

// MergeCart reconciles a client cart snapshot against the stored cart
// POST /api/v1/cart/merge
func (ctrl *CartController) MergeCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	identity := middleware.RequestIdentity(c)

	var req MergeCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	result, err := ctrl.cartService.MergeCart(identity, req.Lines, req.Replace, requestLang(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidIdentity) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "No user or session identity",
			})
			return
		}
		log.Error("Failed to merge cart", err, map[string]interface{}{
			"lines":   len(req.Lines),
			"replace": req.Replace,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to merge cart",
		})
		return
	}

	log.Info("Cart merged", map[string]interface{}{
		"cart_id": result.Cart.CartID,
		"lines":   len(result.Cart.Lines),
		"skipped": len(result.Skipped),
	})

	c.JSON(http.StatusOK, result)
}
