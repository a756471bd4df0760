package service

import (
	"bytes"
	"testing"

	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/internal/app/repository"
	"github.com/kasuwa/kasuwa-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func setupListingServiceTest(t *testing.T) (ListingService, *model.UserProduct, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	listingRepo := repository.NewListingRepository(testDB)
	listingService := NewListingService(listingRepo)

	listing := createTestListing(t, testDB, "Raffia Bag", 20000, 5)

	return listingService, listing, testDB
}

func TestListingService_GetListing(t *testing.T) {
	listingService, listing, _ := setupListingServiceTest(t)

	found, err := listingService.GetListing(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, listing.ID, found.ID)
	assert.Equal(t, float64(20000), found.Price)

	_, err = listingService.GetListing(9999)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestListingService_ListBySeller(t *testing.T) {
	listingService, listing, testDB := setupListingServiceTest(t)

	other := createTestListing(t, testDB, "Shea Butter", 3000, 20)

	mine, err := listingService.ListBySeller(listing.OwnerID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, listing.ID, mine[0].ID)

	theirs, err := listingService.ListBySeller(other.OwnerID)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}

func TestListingService_UpdateListing(t *testing.T) {
	listingService, listing, _ := setupListingServiceTest(t)

	updated, err := listingService.UpdateListing(listing.OwnerID, listing.ID, ListingInput{
		Price:         18000,
		Discount:      1500,
		NumberInStock: 2,
		Status:        "Used",
		City:          "Bamenda",
	})
	require.NoError(t, err)
	assert.Equal(t, float64(18000), updated.Price)
	assert.Equal(t, float64(1500), updated.Discount)
	assert.Equal(t, 2, updated.NumberInStock)
	assert.Equal(t, model.ListingStatusUsed, updated.Status)
	assert.Equal(t, "Bamenda", updated.City)
}

func TestListingService_UpdateListing_Forbidden(t *testing.T) {
	listingService, listing, _ := setupListingServiceTest(t)

	_, err := listingService.UpdateListing(listing.OwnerID+1, listing.ID, ListingInput{
		Price:         18000,
		NumberInStock: 2,
	})
	assert.ErrorIs(t, err, ErrListingForbidden)
}

func TestListingService_DeleteListing(t *testing.T) {
	listingService, listing, _ := setupListingServiceTest(t)

	err := listingService.DeleteListing(listing.OwnerID+1, listing.ID)
	assert.ErrorIs(t, err, ErrListingForbidden)

	require.NoError(t, listingService.DeleteListing(listing.OwnerID, listing.ID))

	_, err = listingService.GetListing(listing.ID)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestListingService_ExportListings(t *testing.T) {
	listingService, listing, _ := setupListingServiceTest(t)

	data, err := listingService.ExportListings(listing.OwnerID)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	// header plus one listing row
	require.Len(t, rows, 2)
}
