package service

import (
	"testing"

	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/internal/app/repository"
	"github.com/kasuwa/kasuwa-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupWishlistServiceTest(t *testing.T) (WishlistService, *model.User, *model.UserProduct, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	wishlistRepo := repository.NewWishlistRepository(testDB)
	listingRepo := repository.NewListingRepository(testDB)
	wishlistService := NewWishlistService(wishlistRepo, listingRepo, testDB)

	user := &model.User{
		Username:     "buyer",
		Email:        "buyer@example.com",
		PasswordHash: "hash",
		Role:         model.RoleUser,
	}
	testDB.Create(user)

	listing := createTestListing(t, testDB, "Indigo Scarf", 7000, 4)

	return wishlistService, user, listing, testDB
}

func TestWishlistService_AddAndGet(t *testing.T) {
	wishlistService, user, listing, _ := setupWishlistServiceTest(t)
	identity := model.UserIdentity(user.ID)

	require.NoError(t, wishlistService.AddToWishlist(identity, listing.Ref(0)))

	lines, err := wishlistService.GetWishlist(identity, "")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, listing.ID, lines[0].UserProductID)
	assert.Equal(t, "Indigo Scarf", lines[0].Name)
	assert.Equal(t, float64(7000), lines[0].UnitPrice)
}

func TestWishlistService_Add_Duplicate(t *testing.T) {
	wishlistService, user, listing, _ := setupWishlistServiceTest(t)
	identity := model.UserIdentity(user.ID)

	require.NoError(t, wishlistService.AddToWishlist(identity, listing.Ref(0)))

	err := wishlistService.AddToWishlist(identity, listing.Ref(0))
	assert.ErrorIs(t, err, ErrAlreadyInWishlist)
}

func TestWishlistService_Add_ListingNotFound(t *testing.T) {
	wishlistService, user, _, _ := setupWishlistServiceTest(t)

	err := wishlistService.AddToWishlist(model.UserIdentity(user.ID), model.ListingRef{UserProductID: 9999})
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestWishlistService_GuestSession(t *testing.T) {
	wishlistService, _, listing, _ := setupWishlistServiceTest(t)
	identity := model.SessionIdentity("5f0b6a31-9d0e-4c7a-b2ad-6f2b1c9e8d40")

	require.NoError(t, wishlistService.AddToWishlist(identity, listing.Ref(0)))

	lines, err := wishlistService.GetWishlist(identity, "")
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestWishlistService_Remove(t *testing.T) {
	wishlistService, user, listing, _ := setupWishlistServiceTest(t)
	identity := model.UserIdentity(user.ID)

	require.NoError(t, wishlistService.AddToWishlist(identity, listing.Ref(0)))
	require.NoError(t, wishlistService.RemoveFromWishlist(identity, listing.Ref(0)))

	lines, _ := wishlistService.GetWishlist(identity, "")
	assert.Len(t, lines, 0)

	err := wishlistService.RemoveFromWishlist(identity, listing.Ref(0))
	assert.ErrorIs(t, err, ErrWishlistItemNotFound)
}

func TestWishlistService_Merge_InsertsMissingOnly(t *testing.T) {
	wishlistService, user, listing, testDB := setupWishlistServiceTest(t)
	identity := model.UserIdentity(user.ID)

	second := createTestListing(t, testDB, "Bronze Bracelet", 12000, 2)
	require.NoError(t, wishlistService.AddToWishlist(identity, listing.Ref(0)))

	skipped, err := wishlistService.MergeWishlist(identity, []model.ListingRef{
		listing.Ref(0),
		second.Ref(0),
	})
	require.NoError(t, err)
	assert.Empty(t, skipped)

	lines, _ := wishlistService.GetWishlist(identity, "")
	assert.Len(t, lines, 2)
}

func TestWishlistService_Merge_Idempotent(t *testing.T) {
	wishlistService, user, listing, _ := setupWishlistServiceTest(t)
	identity := model.UserIdentity(user.ID)

	refs := []model.ListingRef{listing.Ref(0)}
	_, err := wishlistService.MergeWishlist(identity, refs)
	require.NoError(t, err)

	_, err = wishlistService.MergeWishlist(identity, refs)
	require.NoError(t, err)

	lines, _ := wishlistService.GetWishlist(identity, "")
	assert.Len(t, lines, 1)
}

func TestWishlistService_Merge_SkipsDanglingRefs(t *testing.T) {
	wishlistService, user, listing, _ := setupWishlistServiceTest(t)
	identity := model.UserIdentity(user.ID)

	skipped, err := wishlistService.MergeWishlist(identity, []model.ListingRef{
		listing.Ref(0),
		{UserProductID: 9999, StockIndex: 0},
	})
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	assert.Equal(t, uint(9999), skipped[0].UserProductID)

	lines, _ := wishlistService.GetWishlist(identity, "")
	assert.Len(t, lines, 1)
}

func TestWishlistService_LinkSessionToUser_Cases(t *testing.T) {
	wishlistService, user, listing, testDB := setupWishlistServiceTest(t)

	// nothing on either side
	result, err := wishlistService.LinkSessionToUser(user.ID, "session-a")
	require.NoError(t, err)
	assert.Equal(t, model.LinkCreated, result)

	// guest list only
	other := &model.User{
		Username:     "other",
		Email:        "other@example.com",
		PasswordHash: "hash",
		Role:         model.RoleUser,
	}
	testDB.Create(other)
	require.NoError(t, wishlistService.AddToWishlist(model.SessionIdentity("session-b"), listing.Ref(0)))

	result, err = wishlistService.LinkSessionToUser(other.ID, "session-b")
	require.NoError(t, err)
	assert.Equal(t, model.LinkLinked, result)

	lines, _ := wishlistService.GetWishlist(model.UserIdentity(other.ID), "")
	assert.Len(t, lines, 1)
}

func TestWishlistService_LinkSessionToUser_MergedDedupes(t *testing.T) {
	wishlistService, user, listing, testDB := setupWishlistServiceTest(t)
	sessionID := "session-both"
	second := createTestListing(t, testDB, "Bronze Bracelet", 12000, 2)

	require.NoError(t, wishlistService.AddToWishlist(model.UserIdentity(user.ID), listing.Ref(0)))
	require.NoError(t, wishlistService.AddToWishlist(model.SessionIdentity(sessionID), listing.Ref(0)))
	require.NoError(t, wishlistService.AddToWishlist(model.SessionIdentity(sessionID), second.Ref(0)))

	result, err := wishlistService.LinkSessionToUser(user.ID, sessionID)
	require.NoError(t, err)
	assert.Equal(t, model.LinkMerged, result)

	// the shared listing collapsed into one row
	lines, err := wishlistService.GetWishlist(model.UserIdentity(user.ID), "")
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	var count int64
	testDB.Model(&model.Wishlist{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
