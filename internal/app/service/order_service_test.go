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

func setupOrderServiceTest(t *testing.T) (OrderService, CartService, *model.User, *model.UserProduct, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(testDB)
	listingRepo := repository.NewListingRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	cartService := NewCartService(cartRepo, listingRepo, testDB)
	orderService := NewOrderService(orderRepo, cartRepo, testDB)

	user := &model.User{
		Username:     "buyer",
		Email:        "buyer@example.com",
		PasswordHash: "hash",
		Role:         model.RoleUser,
	}
	testDB.Create(user)

	listing := createTestListing(t, testDB, "Leather Sandals", 15000, 10)

	return orderService, cartService, user, listing, testDB
}

func TestOrderService_CreateOrderFromCart_Success(t *testing.T) {
	orderService, cartService, user, listing, testDB := setupOrderServiceTest(t)
	identity := model.UserIdentity(user.ID)

	require.NoError(t, cartService.AddToCart(identity, listing.Ref(0), 3))

	order, err := orderService.CreateOrderFromCart(user.ID, "12 Market Street, Douala")
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	assert.Equal(t, float64(45000), order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, listing.ID, order.Items[0].UserProductID)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, float64(15000), order.Items[0].UnitPrice)

	// stock was decremented and the cart emptied
	var reloaded model.UserProduct
	require.NoError(t, testDB.First(&reloaded, listing.ID).Error)
	assert.Equal(t, 7, reloaded.NumberInStock)

	view, _ := cartService.GetCart(identity, "")
	assert.Len(t, view.Lines, 0)
}

func TestOrderService_CreateOrderFromCart_SnapshotsDiscountedPrice(t *testing.T) {
	orderService, cartService, user, listing, testDB := setupOrderServiceTest(t)

	listing.Discount = 2000
	require.NoError(t, testDB.Save(listing).Error)

	require.NoError(t, cartService.AddToCart(model.UserIdentity(user.ID), listing.Ref(0), 2))

	order, err := orderService.CreateOrderFromCart(user.ID, "addr")
	require.NoError(t, err)
	assert.Equal(t, float64(13000), order.Items[0].UnitPrice)
	assert.Equal(t, float64(26000), order.TotalAmount)
}

func TestOrderService_CreateOrderFromCart_EmptyCart(t *testing.T) {
	orderService, _, user, _, _ := setupOrderServiceTest(t)

	_, err := orderService.CreateOrderFromCart(user.ID, "addr")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestOrderService_CreateOrderFromCart_InsufficientStock(t *testing.T) {
	orderService, cartService, user, listing, testDB := setupOrderServiceTest(t)

	require.NoError(t, cartService.AddToCart(model.UserIdentity(user.ID), listing.Ref(0), 8))

	// stock dropped after the line went into the cart
	require.NoError(t, testDB.Model(&model.UserProduct{}).
		Where("id = ?", listing.ID).
		Update("number_in_stock", 2).Error)

	_, err := orderService.CreateOrderFromCart(user.ID, "addr")
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// nothing was committed
	var reloaded model.UserProduct
	require.NoError(t, testDB.First(&reloaded, listing.ID).Error)
	assert.Equal(t, 2, reloaded.NumberInStock)

	var orderCount int64
	testDB.Model(&model.Order{}).Count(&orderCount)
	assert.Equal(t, int64(0), orderCount)

	view, _ := cartService.GetCart(model.UserIdentity(user.ID), "")
	assert.Len(t, view.Lines, 1)
}

func TestOrderService_GetUserOrders(t *testing.T) {
	orderService, cartService, user, listing, _ := setupOrderServiceTest(t)
	identity := model.UserIdentity(user.ID)

	require.NoError(t, cartService.AddToCart(identity, listing.Ref(0), 1))
	_, err := orderService.CreateOrderFromCart(user.ID, "addr")
	require.NoError(t, err)

	require.NoError(t, cartService.AddToCart(identity, listing.Ref(0), 2))
	_, err = orderService.CreateOrderFromCart(user.ID, "addr")
	require.NoError(t, err)

	orders, err := orderService.GetUserOrders(user.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestOrderService_GetOrderByID_OwnershipEnforced(t *testing.T) {
	orderService, cartService, user, listing, _ := setupOrderServiceTest(t)

	require.NoError(t, cartService.AddToCart(model.UserIdentity(user.ID), listing.Ref(0), 1))
	order, err := orderService.CreateOrderFromCart(user.ID, "addr")
	require.NoError(t, err)

	found, err := orderService.GetOrderByID(user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = orderService.GetOrderByID(user.ID+1, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = orderService.GetOrderByID(user.ID, 9999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
