package service

import (
	"errors"
	"fmt"

	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/internal/app/repository"
	"github.com/kasuwa/kasuwa-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyCart     = errors.New("cart is empty")
)

type OrderService interface {
	// CreateOrderFromCart snapshots the user's cart into an order, decrements
	// listing stock under row locks and clears the cart, all in one
	// transaction.
	CreateOrderFromCart(userID uint, shippingAddress string) (*model.Order, error)
	GetUserOrders(userID uint) ([]model.Order, error)
	GetOrderByID(userID, orderID uint) (*model.Order, error)
	UpdateOrderStatus(orderID uint, status model.OrderStatus) error
	UpdatePaymentStatus(orderID uint, status model.PaymentStatus) error
}

type orderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	db        *gorm.DB
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	db *gorm.DB,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		db:        db,
	}
}

func (s *orderService) CreateOrderFromCart(userID uint, shippingAddress string) (*model.Order, error) {
	logger.Info("Creating order from cart", map[string]interface{}{
		"user_id": userID,
	})

	cart, err := s.cartRepo.Resolve(model.UserIdentity(userID))
	if err != nil {
		return nil, err
	}
	cartItems, err := s.cartRepo.ItemsByCartID(cart.ID)
	if err != nil {
		logger.Error("Failed to fetch cart items", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	if len(cartItems) == 0 {
		logger.Warn("Cannot create order: cart is empty", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrEmptyCart
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during order creation, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": userID,
			})
		}
	}()

	var (
		totalAmount float64
		orderItems  []model.OrderItem
	)

	for _, cartItem := range cartItems {
		var listing model.UserProduct
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&listing, cartItem.UserProductID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Listing not found during order creation", map[string]interface{}{
					"user_id":         userID,
					"user_product_id": cartItem.UserProductID,
				})
				return nil, ErrListingNotFound
			}
			logger.Error("Failed to fetch listing during order creation", err, map[string]interface{}{
				"user_id":         userID,
				"user_product_id": cartItem.UserProductID,
			})
			return nil, err
		}

		if listing.NumberInStock < cartItem.Quantity {
			tx.Rollback()
			logger.Warn("Order creation failed: insufficient listing stock", map[string]interface{}{
				"user_id":         userID,
				"user_product_id": listing.ID,
				"requested":       cartItem.Quantity,
				"available":       listing.NumberInStock,
			})
			return nil, ErrInsufficientStock
		}

		unitPrice := listing.EffectivePrice()
		orderItems = append(orderItems, model.OrderItem{
			UserProductID: cartItem.UserProductID,
			StockIndex:    cartItem.StockIndex,
			Quantity:      cartItem.Quantity,
			UnitPrice:     unitPrice,
		})
		totalAmount += unitPrice * float64(cartItem.Quantity)

		if err := tx.Model(&model.UserProduct{}).
			Where("id = ?", listing.ID).
			Update("number_in_stock", gorm.Expr("number_in_stock - ?", cartItem.Quantity)).Error; err != nil {
			tx.Rollback()
			logger.Error("Failed to update listing stock", err, map[string]interface{}{
				"user_id":         userID,
				"user_product_id": listing.ID,
			})
			return nil, err
		}
	}

	order := &model.Order{
		UserID:          userID,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentPending,
		TotalAmount:     totalAmount,
		ShippingAddress: shippingAddress,
		Items:           orderItems,
	}

	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create order", err, map[string]interface{}{
			"user_id":      userID,
			"total_amount": totalAmount,
		})
		return nil, err
	}

	if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to clear cart after order creation", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit order transaction", err, map[string]interface{}{
			"user_id":  userID,
			"order_id": order.ID,
		})
		return nil, err
	}

	logger.Info("Order created successfully", map[string]interface{}{
		"user_id":      userID,
		"order_id":     order.ID,
		"total_amount": totalAmount,
		"item_count":   len(orderItems),
	})

	return s.orderRepo.FindByID(order.ID)
}

func (s *orderService) GetUserOrders(userID uint) ([]model.Order, error) {
	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

func (s *orderService) GetOrderByID(userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		logger.Error("Failed to fetch order", err, map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
		})
		return nil, err
	}

	if order.UserID != userID {
		logger.Warn("Order access denied: ownership mismatch", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"owner_id": order.UserID,
		})
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) UpdateOrderStatus(orderID uint, status model.OrderStatus) error {
	if err := s.orderRepo.UpdateStatus(orderID, status); err != nil {
		logger.Error("Failed to update order status", err, map[string]interface{}{
			"order_id":   orderID,
			"new_status": status,
		})
		return err
	}
	logger.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})
	return nil
}

func (s *orderService) UpdatePaymentStatus(orderID uint, status model.PaymentStatus) error {
	if err := s.orderRepo.UpdatePaymentStatus(orderID, status); err != nil {
		logger.Error("Failed to update payment status", err, map[string]interface{}{
			"order_id":   orderID,
			"new_status": status,
		})
		return err
	}
	logger.Info("Payment status updated", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})
	return nil
}
