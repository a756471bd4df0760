package service

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/internal/app/repository"
	"github.com/kasuwa/kasuwa-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidMetadata = errors.New("product metadata must be valid JSON")
)

// TranslationInput is one localized name/description pair.
type TranslationInput struct {
	LanguageCode string `json:"language_code" binding:"required,len=2"`
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
}

// PublishInput creates (or reuses) a catalog product and attaches the
// seller's listing to it.
type PublishInput struct {
	Translations []TranslationInput `json:"translations" binding:"required,min=1,dive"`
	Brand        string             `json:"brand"`
	Category     string             `json:"category"`
	Dimensions   string             `json:"dimensions"`
	Attributes   string             `json:"attributes"`
	ImageURLs    []string           `json:"image_urls"`
	Listing      ListingInput       `json:"listing" binding:"required"`
}

// ProductSummary is the localized list representation of a catalog entry.
type ProductSummary struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Brand       string  `json:"brand"`
	Category    string  `json:"category"`
	Thumbnail   string  `json:"thumbnail"`
	MinPrice    float64 `json:"min_price"`
}

type ProductService interface {
	// Publish creates the catalog entry, its translations, its images and the
	// seller's listing atomically. When a product already carries the same
	// default-language name the existing entry is reused and only the listing
	// is added.
	Publish(seller *model.User, input PublishInput) (*model.UserProduct, error)
	GetProduct(id uint, lang string) (*model.Product, error)
	ListProducts(offset, limit int, lang string) ([]ProductSummary, int64, error)
}

type productService struct {
	productRepo repository.ProductRepository
	listingRepo repository.ListingRepository
	db          *gorm.DB
}

func NewProductService(
	productRepo repository.ProductRepository,
	listingRepo repository.ListingRepository,
	db *gorm.DB,
) ProductService {
	return &productService{
		productRepo: productRepo,
		listingRepo: listingRepo,
		db:          db,
	}
}

func (s *productService) Publish(seller *model.User, input PublishInput) (*model.UserProduct, error) {
	defaultName := ""
	for _, tr := range input.Translations {
		if strings.EqualFold(tr.LanguageCode, model.DefaultLanguage) {
			defaultName = strings.TrimSpace(tr.Name)
		}
	}
	if defaultName == "" {
		defaultName = strings.TrimSpace(input.Translations[0].Name)
	}

	brand, err := normalizeJSON(input.Brand)
	if err != nil {
		return nil, err
	}
	category, err := normalizeJSON(input.Category)
	if err != nil {
		return nil, err
	}
	dimensions, err := normalizeJSON(input.Dimensions)
	if err != nil {
		return nil, err
	}
	attributes, err := normalizeJSON(input.Attributes)
	if err != nil {
		return nil, err
	}

	var listing *model.UserProduct
	err = s.db.Transaction(func(tx *gorm.DB) error {
		product, err := s.findByNameTx(tx, defaultName)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if product == nil {
			product = &model.Product{
				Brand:          brand,
				Category:       category,
				Dimensions:     dimensions,
				Attributes:     attributes,
				ThumbnailIndex: 0,
			}
			if err := tx.Create(product).Error; err != nil {
				return err
			}
			for _, tr := range input.Translations {
				translation := model.ProductTranslation{
					ProductID:    product.ID,
					LanguageCode: strings.ToLower(tr.LanguageCode),
					Name:         strings.TrimSpace(tr.Name),
					Description:  tr.Description,
				}
				if err := tx.Create(&translation).Error; err != nil {
					return err
				}
			}
			for _, path := range input.ImageURLs {
				image := model.ProductImage{
					ProductID: product.ID,
					ImagePath: path,
				}
				if err := tx.Create(&image).Error; err != nil {
					return err
				}
			}
		}

		listing = &model.UserProduct{
			ProductID:     product.ID,
			Owner:         seller.Username,
			OwnerID:       seller.ID,
			Price:         input.Listing.Price,
			Discount:      input.Listing.Discount,
			Colors:        input.Listing.Colors,
			NumberInStock: input.Listing.NumberInStock,
			PhoneNumber:   input.Listing.PhoneNumber,
			Address:       input.Listing.Address,
			City:          input.Listing.City,
		}
		if input.Listing.Status != "" {
			listing.Status = model.ListingStatus(input.Listing.Status)
		}
		return tx.Create(listing).Error
	})
	if err != nil {
		logger.Error("Failed to publish listing", err, map[string]interface{}{
			"seller_id": seller.ID,
			"name":      defaultName,
		})
		return nil, err
	}

	logger.Info("Listing published", map[string]interface{}{
		"listing_id": listing.ID,
		"product_id": listing.ProductID,
		"seller_id":  seller.ID,
	})
	return listing, nil
}

func (s *productService) GetProduct(id uint, lang string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) ListProducts(offset, limit int, lang string) ([]ProductSummary, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if lang == "" {
		lang = model.DefaultLanguage
	}

	products, total, err := s.productRepo.List(offset, limit)
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		summary := ProductSummary{
			ID:       p.ID,
			Name:     p.TranslatedName(lang),
			Brand:    p.Brand,
			Category: p.Category,
		}
		for _, tr := range p.Translations {
			if tr.LanguageCode == lang {
				summary.Description = tr.Description
			}
		}
		if len(p.Images) > 0 {
			idx := p.ThumbnailIndex
			if idx < 0 || idx >= len(p.Images) {
				idx = 0
			}
			summary.Thumbnail = p.Images[idx].ImagePath
		}
		for i, listing := range p.Listings {
			price := listing.EffectivePrice()
			if i == 0 || price < summary.MinPrice {
				summary.MinPrice = price
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, total, nil
}

func (s *productService) findByNameTx(tx *gorm.DB, name string) (*model.Product, error) {
	if name == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var product model.Product
	err := tx.
		Joins("JOIN product_translations ON product_translations.product_id = products.id").
		Where("LOWER(product_translations.name) = LOWER(?)", name).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// normalizeJSON re-serializes a semi-structured metadata field so the value
// stored in its jsonb column is always valid JSON. Empty input becomes an
// empty object; anything that does not parse is rejected before the
// transaction opens.
func normalizeJSON(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "{}", nil
	}
	var parsed interface{}
	if err := json.Unmarshal([]byte(v), &parsed); err != nil {
		return "", ErrInvalidMetadata
	}
	out, err := json.Marshal(parsed)
	if err != nil {
		return "", ErrInvalidMetadata
	}
	return string(out), nil
}
