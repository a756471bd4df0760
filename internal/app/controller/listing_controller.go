package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuwa/kasuwa-backend/internal/app/service"
	"github.com/kasuwa/kasuwa-backend/internal/middleware"
)

type ListingController struct {
	listingService service.ListingService
}

func NewListingController(listingService service.ListingService) *ListingController {
	return &ListingController{
		listingService: listingService,
	}
}

// GetListing returns one listing with its catalog entry
// GET /api/v1/listings/:id
func (ctrl *ListingController) GetListing(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid listing ID",
		})
		return
	}

	listing, err := ctrl.listingService.GetListing(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrListingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Listing not found",
			})
			return
		}
		log.Error("Failed to fetch listing", err, map[string]interface{}{
			"listing_id": id,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch listing",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// MyListings returns the authenticated seller's listings
// GET /api/v1/seller/listings
func (ctrl *ListingController) MyListings(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	listings, err := ctrl.listingService.ListBySeller(userID)
	if err != nil {
		log.Error("Failed to fetch seller listings", err, map[string]interface{}{
			"owner_id": userID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch listings",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"count":    len(listings),
	})
}

// UpdateListing updates a seller's own listing
// PUT /api/v1/seller/listings/:id
func (ctrl *ListingController) UpdateListing(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid listing ID",
		})
		return
	}

	var input service.ListingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	listing, err := ctrl.listingService.UpdateListing(userID, uint(id), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrListingNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Listing not found",
			})
		case errors.Is(err, service.ErrListingForbidden):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "This listing belongs to another seller",
			})
		default:
			log.Error("Failed to update listing", err, map[string]interface{}{
				"listing_id": id,
				"owner_id":   userID,
			})
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update listing",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// DeleteListing removes a seller's own listing
// DELETE /api/v1/seller/listings/:id
func (ctrl *ListingController) DeleteListing(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid listing ID",
		})
		return
	}

	if err := ctrl.listingService.DeleteListing(userID, uint(id)); err != nil {
		switch {
		case errors.Is(err, service.ErrListingNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Listing not found",
			})
		case errors.Is(err, service.ErrListingForbidden):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "This listing belongs to another seller",
			})
		default:
			log.Error("Failed to delete listing", err, map[string]interface{}{
				"listing_id": id,
				"owner_id":   userID,
			})
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to delete listing",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Listing deleted",
	})
}

// ExportListings streams the seller's listings as an XLSX download
// GET /api/v1/seller/listings/export
func (ctrl *ListingController) ExportListings(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	data, err := ctrl.listingService.ExportListings(userID)
	if err != nil {
		log.Error("Failed to export listings", err, map[string]interface{}{
			"owner_id": userID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to export listings",
		})
		return
	}

	filename := fmt.Sprintf("listings-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
