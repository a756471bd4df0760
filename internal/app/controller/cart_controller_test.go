package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/internal/app/repository"
	"github.com/kasuwa/kasuwa-backend/internal/app/service"
	"github.com/kasuwa/kasuwa-backend/internal/db"
	"github.com/kasuwa/kasuwa-backend/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartControllerTest(t *testing.T) (*CartController, *gin.Engine, *gorm.DB, *model.User, *model.UserProduct) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(testDB)
	listingRepo := repository.NewListingRepository(testDB)
	cartService := service.NewCartService(cartRepo, listingRepo, testDB)
	cartController := NewCartController(cartService)

	user := &model.User{
		Username:     "buyer",
		Email:        "buyer@example.com",
		PasswordHash: "hash",
		Role:         model.RoleUser,
	}
	testDB.Create(user)

	seller := &model.User{
		Username:     "seller",
		Email:        "seller@example.com",
		PasswordHash: "hash",
		Role:         model.RoleSeller,
	}
	testDB.Create(seller)

	product := &model.Product{
		Translations: []model.ProductTranslation{
			{LanguageCode: "en", Name: "Test Listing"},
		},
	}
	require.NoError(t, testDB.Create(product).Error)

	listing := &model.UserProduct{
		ProductID:     product.ID,
		Owner:         seller.Username,
		OwnerID:       seller.ID,
		Price:         10000,
		NumberInStock: 10,
	}
	require.NoError(t, testDB.Create(listing).Error)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	return cartController, router, testDB, user, listing
}

func asUser(userID uint, handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		handler(c)
	}
}

func asGuest(sessionID string, handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.SessionIDKey, sessionID)
		handler(c)
	}
}

func TestCartController_GetCart_Empty(t *testing.T) {
	controller, router, _, user, _ := setupCartControllerTest(t)

	router.GET("/cart", asUser(user.ID, controller.GetCart))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(0), response["count"])
}

func TestCartController_GetCart_NoIdentity(t *testing.T) {
	controller, router, _, _, _ := setupCartControllerTest(t)

	router.GET("/cart", controller.GetCart)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartController_AddToCart_Success(t *testing.T) {
	controller, router, _, user, listing := setupCartControllerTest(t)

	router.POST("/cart", asUser(user.ID, controller.AddToCart))
	router.GET("/cart", asUser(user.ID, controller.GetCart))

	body, _ := json.Marshal(AddToCartRequest{
		UserProductID: listing.ID,
		StockIndex:    0,
		Quantity:      2,
	})
	req := httptest.NewRequest(http.MethodPost, "/cart", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(1), response["count"])

	cart := response["cart"].(map[string]interface{})
	assert.Equal(t, float64(20000), cart["total"])
}

func TestCartController_AddToCart_GuestSession(t *testing.T) {
	controller, router, _, _, listing := setupCartControllerTest(t)
	sessionID := "0d41c9a7-35e2-4f60-9f35-1dbb70aa1b22"

	router.POST("/cart", asGuest(sessionID, controller.AddToCart))

	body, _ := json.Marshal(AddToCartRequest{UserProductID: listing.ID, Quantity: 1})
	req := httptest.NewRequest(http.MethodPost, "/cart", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCartController_AddToCart_ListingNotFound(t *testing.T) {
	controller, router, _, user, _ := setupCartControllerTest(t)

	router.POST("/cart", asUser(user.ID, controller.AddToCart))

	body, _ := json.Marshal(AddToCartRequest{UserProductID: 9999, Quantity: 1})
	req := httptest.NewRequest(http.MethodPost, "/cart", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartController_AddToCart_InsufficientStock(t *testing.T) {
	controller, router, _, user, listing := setupCartControllerTest(t)

	router.POST("/cart", asUser(user.ID, controller.AddToCart))

	body, _ := json.Marshal(AddToCartRequest{UserProductID: listing.ID, Quantity: 11})
	req := httptest.NewRequest(http.MethodPost, "/cart", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartController_UpdateCartItem_InvalidAction(t *testing.T) {
	controller, router, _, user, listing := setupCartControllerTest(t)

	router.PUT("/cart/:action", asUser(user.ID, controller.UpdateCartItem))

	body, _ := json.Marshal(CartItemRef{UserProductID: listing.ID})
	req := httptest.NewRequest(http.MethodPut, "/cart/multiply", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartController_UpdateCartItem_Increment(t *testing.T) {
	controller, router, _, user, listing := setupCartControllerTest(t)

	router.POST("/cart", asUser(user.ID, controller.AddToCart))
	router.PUT("/cart/:action", asUser(user.ID, controller.UpdateCartItem))
	router.GET("/cart", asUser(user.ID, controller.GetCart))

	addBody, _ := json.Marshal(AddToCartRequest{UserProductID: listing.ID, Quantity: 1})
	req := httptest.NewRequest(http.MethodPost, "/cart", bytes.NewReader(addBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	refBody, _ := json.Marshal(CartItemRef{UserProductID: listing.ID})
	req = httptest.NewRequest(http.MethodPut, "/cart/increment", bytes.NewReader(refBody))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	cart := response["cart"].(map[string]interface{})
	lines := cart["lines"].([]interface{})
	require.Len(t, lines, 1)
	assert.Equal(t, float64(2), lines[0].(map[string]interface{})["quantity"])
}

func TestCartController_MergeCart(t *testing.T) {
	controller, router, _, user, listing := setupCartControllerTest(t)

	router.POST("/cart/merge", asUser(user.ID, controller.MergeCart))

	body, _ := json.Marshal(MergeCartRequest{
		Lines: []service.MergeLine{
			{UserProductID: listing.ID, StockIndex: 0, Quantity: 3},
			{UserProductID: 9999, StockIndex: 0, Quantity: 1},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/cart/merge", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result service.MergeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Cart.Lines, 1)
	assert.Equal(t, 3, result.Cart.Lines[0].Quantity)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, uint(9999), result.Skipped[0].UserProductID)
}

func TestCartController_RemoveAndClear(t *testing.T) {
	controller, router, _, user, listing := setupCartControllerTest(t)

	router.POST("/cart", asUser(user.ID, controller.AddToCart))
	router.DELETE("/cart/item", asUser(user.ID, controller.RemoveFromCart))
	router.DELETE("/cart", asUser(user.ID, controller.ClearCart))
	router.GET("/cart", asUser(user.ID, controller.GetCart))

	addBody, _ := json.Marshal(AddToCartRequest{UserProductID: listing.ID, Quantity: 1})
	req := httptest.NewRequest(http.MethodPost, "/cart", bytes.NewReader(addBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	refBody, _ := json.Marshal(CartItemRef{UserProductID: listing.ID})
	req = httptest.NewRequest(http.MethodDelete, "/cart/item", bytes.NewReader(refBody))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// removing again is a 404
	req = httptest.NewRequest(http.MethodDelete, "/cart/item", bytes.NewReader(refBody))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/cart", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCartController_LangQuery(t *testing.T) {
	controller, router, testDB, user, listing := setupCartControllerTest(t)

	require.NoError(t, testDB.Create(&model.ProductTranslation{
		ProductID:    listing.ProductID,
		LanguageCode: "fr",
		Name:         "Article de test",
	}).Error)

	router.POST("/cart", asUser(user.ID, controller.AddToCart))
	router.GET("/cart", asUser(user.ID, controller.GetCart))

	addBody, _ := json.Marshal(AddToCartRequest{UserProductID: listing.ID, Quantity: 1})
	req := httptest.NewRequest(http.MethodPost, "/cart", bytes.NewReader(addBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/cart?lang=%s", "fr"), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	cart := response["cart"].(map[string]interface{})
	lines := cart["lines"].([]interface{})
	require.Len(t, lines, 1)
	assert.Equal(t, "Article de test", lines[0].(map[string]interface{})["name"])
}
