package service

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/internal/app/repository"
	"github.com/kasuwa/kasuwa-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrListingForbidden  = errors.New("listing does not belong to seller")
)

// ListingInput carries the seller-editable fields of a listing.
type ListingInput struct {
	Price         float64  `json:"price" binding:"required,gt=0"`
	Discount      float64  `json:"discount"`
	Colors        []string `json:"colors"`
	Status        string   `json:"status" binding:"omitempty,oneof=New Used"`
	NumberInStock int      `json:"number_in_stock" binding:"required,gte=0"`
	PhoneNumber   string   `json:"phone_number"`
	Address       string   `json:"address"`
	City          string   `json:"city"`
}

type ListingService interface {
	GetListing(id uint) (*model.UserProduct, error)
	ListBySeller(ownerID uint) ([]model.UserProduct, error)
	UpdateListing(ownerID, listingID uint, input ListingInput) (*model.UserProduct, error)
	DeleteListing(ownerID, listingID uint) error
	// ExportListings renders a seller's listings as an XLSX workbook.
	ExportListings(ownerID uint) ([]byte, error)
}

type listingService struct {
	listingRepo repository.ListingRepository
}

func NewListingService(listingRepo repository.ListingRepository) ListingService {
	return &listingService{listingRepo: listingRepo}
}

func (s *listingService) GetListing(id uint) (*model.UserProduct, error) {
	listing, err := s.listingRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return listing, nil
}

func (s *listingService) ListBySeller(ownerID uint) ([]model.UserProduct, error) {
	return s.listingRepo.FindByOwnerID(ownerID)
}

func (s *listingService) UpdateListing(ownerID, listingID uint, input ListingInput) (*model.UserProduct, error) {
	listing, err := s.ownedListing(ownerID, listingID)
	if err != nil {
		return nil, err
	}

	listing.Price = input.Price
	listing.Discount = input.Discount
	listing.Colors = input.Colors
	listing.NumberInStock = input.NumberInStock
	if input.PhoneNumber != "" {
		listing.PhoneNumber = input.PhoneNumber
	}
	if input.Address != "" {
		listing.Address = input.Address
	}
	if input.City != "" {
		listing.City = input.City
	}
	if input.Status != "" {
		listing.Status = model.ListingStatus(input.Status)
	}

	if err := s.listingRepo.Update(listing); err != nil {
		return nil, err
	}

	logger.Info("Listing updated", map[string]interface{}{
		"listing_id": listing.ID,
		"owner_id":   ownerID,
	})
	return listing, nil
}

func (s *listingService) DeleteListing(ownerID, listingID uint) error {
	listing, err := s.ownedListing(ownerID, listingID)
	if err != nil {
		return err
	}
	if err := s.listingRepo.Delete(listing.ID); err != nil {
		return err
	}
	logger.Info("Listing deleted", map[string]interface{}{
		"listing_id": listingID,
		"owner_id":   ownerID,
	})
	return nil
}

func (s *listingService) ExportListings(ownerID uint) ([]byte, error) {
	listings, err := s.listingRepo.FindByOwnerID(ownerID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Listings"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"ID", "Product", "Price", "Discount", "Colors", "In Stock", "Status", "City"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for row, listing := range listings {
		values := []interface{}{
			listing.ID,
			listing.Product.TranslatedName(model.DefaultLanguage),
			listing.Price,
			listing.Discount,
			fmt.Sprintf("%v", []string(listing.Colors)),
			listing.NumberInStock,
			listing.Status,
			listing.City,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *listingService) ownedListing(ownerID, listingID uint) (*model.UserProduct, error) {
	listing, err := s.listingRepo.FindByID(listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if listing.OwnerID != ownerID {
		return nil, ErrListingForbidden
	}
	return listing, nil
}
