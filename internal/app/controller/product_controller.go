package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuwa/kasuwa-backend/internal/app/service"
	apperrors "github.com/kasuwa/kasuwa-backend/internal/errors"
	"github.com/kasuwa/kasuwa-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
	authService    service.AuthService
}

func NewProductController(productService service.ProductService, authService service.AuthService) *ProductController {
	return &ProductController{
		productService: productService,
		authService:    authService,
	}
}

// ListProducts returns a localized catalog page
// GET /api/v1/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	products, total, err := ctrl.productService.ListProducts(offset, limit, requestLang(c))
	if err != nil {
		log.Error("Failed to list products", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list products",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    total,
		"offset":   offset,
		"limit":    limit,
	})
}

// GetProduct returns one catalog entry with translations, images and listings
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return
	}

	product, err := ctrl.productService.GetProduct(uint(id), requestLang(c))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}
		log.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch product",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
		"name":    product.TranslatedName(requestLang(c)),
	})
}

// Publish creates (or reuses) a catalog entry and attaches the seller's
// listing
// POST /api/v1/products
func (ctrl *ProductController) Publish(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	var input service.PublishInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	seller, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not found",
		})
		return
	}

	listing, err := ctrl.productService.Publish(seller, input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMetadata) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Brand, category, dimensions and attributes must be valid JSON",
			})
			return
		}
		log.Error("Failed to publish listing", err, map[string]interface{}{
			"seller_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "product")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"listing": listing,
	})
}
