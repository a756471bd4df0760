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

func setupProductServiceTest(t *testing.T) (ProductService, *model.User, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	productRepo := repository.NewProductRepository(testDB)
	listingRepo := repository.NewListingRepository(testDB)
	productService := NewProductService(productRepo, listingRepo, testDB)

	seller := &model.User{
		Username:     "musa",
		Email:        "musa@example.com",
		PasswordHash: "hash",
		Role:         model.RoleSeller,
	}
	testDB.Create(seller)

	return productService, seller, testDB
}

func publishInput(nameEN string, price float64, stock int) PublishInput {
	return PublishInput{
		Translations: []TranslationInput{
			{LanguageCode: "en", Name: nameEN},
			{LanguageCode: "fr", Name: nameEN + " (fr)"},
		},
		Listing: ListingInput{
			Price:         price,
			NumberInStock: stock,
		},
	}
}

func TestProductService_Publish_CreatesProductAndListing(t *testing.T) {
	productService, seller, testDB := setupProductServiceTest(t)

	listing, err := productService.Publish(seller, publishInput("Cocoa Powder", 4500, 30))
	require.NoError(t, err)
	assert.Equal(t, seller.ID, listing.OwnerID)
	assert.Equal(t, seller.Username, listing.Owner)
	assert.Equal(t, float64(4500), listing.Price)

	var productCount, translationCount int64
	testDB.Model(&model.Product{}).Count(&productCount)
	testDB.Model(&model.ProductTranslation{}).Count(&translationCount)
	assert.Equal(t, int64(1), productCount)
	assert.Equal(t, int64(2), translationCount)
}

func TestProductService_Publish_ReusesProductByName(t *testing.T) {
	productService, seller, testDB := setupProductServiceTest(t)

	other := &model.User{
		Username:     "sara",
		Email:        "sara@example.com",
		PasswordHash: "hash",
		Role:         model.RoleSeller,
	}
	testDB.Create(other)

	first, err := productService.Publish(seller, publishInput("Cocoa Powder", 4500, 30))
	require.NoError(t, err)

	// case differences still match the existing catalog entry
	second, err := productService.Publish(other, publishInput("cocoa powder", 4200, 10))
	require.NoError(t, err)
	assert.Equal(t, first.ProductID, second.ProductID)

	var productCount int64
	testDB.Model(&model.Product{}).Count(&productCount)
	assert.Equal(t, int64(1), productCount)

	var listingCount int64
	testDB.Model(&model.UserProduct{}).Count(&listingCount)
	assert.Equal(t, int64(2), listingCount)
}

func TestProductService_GetProduct(t *testing.T) {
	productService, seller, _ := setupProductServiceTest(t)

	listing, err := productService.Publish(seller, publishInput("Cocoa Powder", 4500, 30))
	require.NoError(t, err)

	product, err := productService.GetProduct(listing.ProductID, "fr")
	require.NoError(t, err)
	assert.Equal(t, "Cocoa Powder (fr)", product.TranslatedName("fr"))

	_, err = productService.GetProduct(9999, "")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_ListProducts(t *testing.T) {
	productService, seller, _ := setupProductServiceTest(t)

	_, err := productService.Publish(seller, publishInput("Cocoa Powder", 4500, 30))
	require.NoError(t, err)
	_, err = productService.Publish(seller, publishInput("Palm Oil", 2500, 12))
	require.NoError(t, err)

	summaries, total, err := productService.ListProducts(0, 20, "en")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, summaries, 2)

	names := map[string]float64{}
	for _, s := range summaries {
		names[s.Name] = s.MinPrice
	}
	assert.Equal(t, float64(4500), names["Cocoa Powder"])
	assert.Equal(t, float64(2500), names["Palm Oil"])
}

func TestProductService_ListProducts_MinPriceAcrossListings(t *testing.T) {
	productService, seller, testDB := setupProductServiceTest(t)

	other := &model.User{
		Username:     "sara",
		Email:        "sara@example.com",
		PasswordHash: "hash",
		Role:         model.RoleSeller,
	}
	testDB.Create(other)

	_, err := productService.Publish(seller, publishInput("Cocoa Powder", 4500, 30))
	require.NoError(t, err)
	_, err = productService.Publish(other, publishInput("Cocoa Powder", 3900, 5))
	require.NoError(t, err)

	summaries, total, err := productService.ListProducts(0, 20, "en")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, summaries, 1)
	assert.Equal(t, float64(3900), summaries[0].MinPrice)
}

func TestProductService_Publish_RejectsNonJSONMetadata(t *testing.T) {
	productService, seller, testDB := setupProductServiceTest(t)

	tests := []struct {
		name  string
		input PublishInput
	}{
		{
			name: "bare text brand",
			input: func() PublishInput {
				in := publishInput("Running Shoes", 25000, 5)
				in.Brand = "Nike"
				return in
			}(),
		},
		{
			name: "truncated category object",
			input: func() PublishInput {
				in := publishInput("Running Shoes", 25000, 5)
				in.Category = `{"en":"shoes"`
				return in
			}(),
		},
		{
			name: "bare text attributes",
			input: func() PublishInput {
				in := publishInput("Running Shoes", 25000, 5)
				in.Attributes = "waterproof"
				return in
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := productService.Publish(seller, tt.input)
			assert.ErrorIs(t, err, ErrInvalidMetadata)
		})
	}

	var productCount int64
	testDB.Model(&model.Product{}).Count(&productCount)
	assert.Equal(t, int64(0), productCount)
}

func TestProductService_Publish_NormalizesMetadata(t *testing.T) {
	productService, seller, testDB := setupProductServiceTest(t)

	input := publishInput("Clay Pot", 8000, 4)
	input.Brand = `  {"en": "Terracotta Co"}  `
	input.Category = `"kitchen"`

	_, err := productService.Publish(seller, input)
	require.NoError(t, err)

	var product model.Product
	require.NoError(t, testDB.First(&product).Error)
	assert.Equal(t, `{"en":"Terracotta Co"}`, product.Brand)
	assert.Equal(t, `"kitchen"`, product.Category)
	assert.Equal(t, "{}", product.Dimensions)
	assert.Equal(t, "{}", product.Attributes)
}
