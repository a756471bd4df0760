package repository

import (
	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderRepository interface {
	FindByUserID(userID uint) ([]model.Order, error)
	FindByID(id uint) (*model.Order, error)
	UpdateStatus(orderID uint, status model.OrderStatus) error
	UpdatePaymentStatus(orderID uint, status model.PaymentStatus) error
	CreateTransaction(txn *model.PaymentTransaction) error
	FindTransactionByReference(referenceID string) (*model.PaymentTransaction, error)
	UpdateTransaction(txn *model.PaymentTransaction) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.Where("user_id = ?", userID).
		Preload("Items").
		Preload("Items.UserProduct").
		Preload("Items.UserProduct.Product").
		Preload("Items.UserProduct.Product.Translations").
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to load user orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	var order model.Order
	err := r.db.
		Preload("Items").
		Preload("Items.UserProduct").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) UpdateStatus(orderID uint, status model.OrderStatus) error {
	err := r.db.Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
	if err != nil {
		logger.Error("Failed to update order status", err, map[string]interface{}{
			"order_id": orderID,
			"status":   status,
		})
		return err
	}
	return nil
}

func (r *orderRepository) UpdatePaymentStatus(orderID uint, status model.PaymentStatus) error {
	err := r.db.Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("payment_status", status).Error
	if err != nil {
		logger.Error("Failed to update order payment status", err, map[string]interface{}{
			"order_id": orderID,
			"status":   status,
		})
		return err
	}
	return nil
}

func (r *orderRepository) CreateTransaction(txn *model.PaymentTransaction) error {
	if err := r.db.Create(txn).Error; err != nil {
		logger.Error("Failed to record payment transaction", err, map[string]interface{}{
			"order_id":     txn.OrderID,
			"reference_id": txn.ReferenceID,
		})
		return err
	}
	return nil
}

func (r *orderRepository) FindTransactionByReference(referenceID string) (*model.PaymentTransaction, error) {
	var txn model.PaymentTransaction
	err := r.db.Where("reference_id = ?", referenceID).First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *orderRepository) UpdateTransaction(txn *model.PaymentTransaction) error {
	if err := r.db.Save(txn).Error; err != nil {
		logger.Error("Failed to update payment transaction", err, map[string]interface{}{
			"transaction_id": txn.ID,
		})
		return err
	}
	return nil
}
