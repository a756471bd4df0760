package repository

import (
	"testing"

	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartRepoTest(t *testing.T) (CartRepository, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return NewCartRepository(testDB), testDB
}

func TestCartRepository_Resolve_NoIdentity(t *testing.T) {
	repo, _ := setupCartRepoTest(t)

	_, err := repo.Resolve(model.Identity{})
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestCartRepository_Resolve_CreatesLazily(t *testing.T) {
	repo, testDB := setupCartRepoTest(t)

	cart, err := repo.Resolve(model.UserIdentity(42))
	require.NoError(t, err)
	require.NotNil(t, cart.UserID)
	assert.Equal(t, uint(42), *cart.UserID)

	var count int64
	testDB.Model(&model.Cart{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCartRepository_Resolve_Deterministic(t *testing.T) {
	repo, testDB := setupCartRepoTest(t)

	first, err := repo.Resolve(model.UserIdentity(42))
	require.NoError(t, err)

	// repeated resolution always lands on the same row
	for i := 0; i < 3; i++ {
		again, err := repo.Resolve(model.UserIdentity(42))
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	}

	var count int64
	testDB.Model(&model.Cart{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCartRepository_Resolve_SessionIdentity(t *testing.T) {
	repo, _ := setupCartRepoTest(t)

	cart, err := repo.Resolve(model.SessionIdentity("sess-1"))
	require.NoError(t, err)
	require.NotNil(t, cart.SessionID)
	assert.Equal(t, "sess-1", *cart.SessionID)
	assert.Nil(t, cart.UserID)
}

func TestCartRepository_Resolve_UserWinsOverSession(t *testing.T) {
	repo, _ := setupCartRepoTest(t)

	userCart, err := repo.Resolve(model.UserIdentity(42))
	require.NoError(t, err)
	sessCart, err := repo.Resolve(model.SessionIdentity("sess-1"))
	require.NoError(t, err)
	require.NotEqual(t, userCart.ID, sessCart.ID)

	// both IDs present: the user's cart wins
	userID := uint(42)
	sessionID := "sess-1"
	both := model.Identity{UserID: &userID, SessionID: &sessionID}
	resolved, err := repo.Resolve(both)
	require.NoError(t, err)
	assert.Equal(t, userCart.ID, resolved.ID)
}

func TestCartRepository_Resolve_FallsBackToSession(t *testing.T) {
	repo, _ := setupCartRepoTest(t)

	sessCart, err := repo.Resolve(model.SessionIdentity("sess-1"))
	require.NoError(t, err)

	// no cart exists for the user yet, so the session cart is found,
	// not a fresh row
	userID := uint(42)
	sessionID := "sess-1"
	resolved, err := repo.Resolve(model.Identity{UserID: &userID, SessionID: &sessionID})
	require.NoError(t, err)
	assert.Equal(t, sessCart.ID, resolved.ID)
}

func TestCartRepository_Resolve_DoesNotRewriteIdentity(t *testing.T) {
	repo, testDB := setupCartRepoTest(t)

	sessCart, err := repo.Resolve(model.SessionIdentity("sess-1"))
	require.NoError(t, err)

	userID := uint(42)
	sessionID := "sess-1"
	_, err = repo.Resolve(model.Identity{UserID: &userID, SessionID: &sessionID})
	require.NoError(t, err)

	// resolution never claims the row for the user; linking is explicit
	var reloaded model.Cart
	require.NoError(t, testDB.First(&reloaded, sessCart.ID).Error)
	assert.Nil(t, reloaded.UserID)
}

func TestCartRepository_ItemCRUD(t *testing.T) {
	repo, _ := setupCartRepoTest(t)

	cart, err := repo.Resolve(model.UserIdentity(1))
	require.NoError(t, err)

	ref := model.ListingRef{UserProductID: 10, StockIndex: 1}
	item := &model.CartItem{
		CartID:        cart.ID,
		UserProductID: ref.UserProductID,
		StockIndex:    ref.StockIndex,
		Quantity:      2,
	}
	require.NoError(t, repo.CreateItem(item))

	found, err := repo.FindItem(cart.ID, ref)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Quantity)

	// a different slot of the same listing is a different line
	_, err = repo.FindItem(cart.ID, model.ListingRef{UserProductID: 10, StockIndex: 0})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found.Quantity = 5
	require.NoError(t, repo.UpdateItem(found))

	found, err = repo.FindItem(cart.ID, ref)
	require.NoError(t, err)
	assert.Equal(t, 5, found.Quantity)

	require.NoError(t, repo.DeleteItem(found.ID))
	_, err = repo.FindItem(cart.ID, ref)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_DeleteItemsByCartID(t *testing.T) {
	repo, testDB := setupCartRepoTest(t)

	cart, err := repo.Resolve(model.UserIdentity(1))
	require.NoError(t, err)
	other, err := repo.Resolve(model.UserIdentity(2))
	require.NoError(t, err)

	require.NoError(t, repo.CreateItem(&model.CartItem{CartID: cart.ID, UserProductID: 10, Quantity: 1}))
	require.NoError(t, repo.CreateItem(&model.CartItem{CartID: cart.ID, UserProductID: 11, Quantity: 1}))
	require.NoError(t, repo.CreateItem(&model.CartItem{CartID: other.ID, UserProductID: 10, Quantity: 1}))

	require.NoError(t, repo.DeleteItemsByCartID(cart.ID))

	var count int64
	testDB.Model(&model.CartItem{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
