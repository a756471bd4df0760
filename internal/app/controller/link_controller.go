package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuwa/kasuwa-backend/internal/app/service"
	"github.com/kasuwa/kasuwa-backend/internal/middleware"
)

// LinkController exposes explicit session-to-user linking for clients that
// sign in out of band (e.g. OAuth in a webview) and then need their guest
// rows attached.
type LinkController struct {
	cartService     service.CartService
	wishlistService service.WishlistService
}

func NewLinkController(cartService service.CartService, wishlistService service.WishlistService) *LinkController {
	return &LinkController{
		cartService:     cartService,
		wishlistService: wishlistService,
	}
}

type LinkSessionRequest struct {
	Table string `json:"table" binding:"required,oneof=carts wishlists"`
}

// LinkSession attaches the request's guest session cart or wishlist to the
// authenticated user
// POST /api/v1/link-session
func (ctrl *LinkController) LinkSession(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	sessionID, ok := middleware.GetSessionID(c)
	if !ok || sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing session identity",
		})
		return
	}

	var req LinkSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	var (
		result interface{}
		err    error
	)
	if req.Table == "carts" {
		result, err = ctrl.cartService.LinkSessionToUser(userID, sessionID)
	} else {
		result, err = ctrl.wishlistService.LinkSessionToUser(userID, sessionID)
	}
	if err != nil {
		if errors.Is(err, service.ErrInvalidIdentity) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Missing user or session identity",
			})
			return
		}
		log.Error("Failed to link session", err, map[string]interface{}{
			"user_id": userID,
			"table":   req.Table,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to link session",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"table":  req.Table,
		"result": result,
	})
}
