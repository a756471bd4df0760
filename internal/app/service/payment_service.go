package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/internal/app/repository"
	"github.com/kasuwa/kasuwa-backend/pkg/logger"
	"github.com/kasuwa/kasuwa-backend/pkg/payment/momo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPaymentAlreadyProcessed = errors.New("payment already processed")
	ErrInvalidPaymentAmount    = errors.New("invalid payment amount")
	ErrPaymentNotFound         = errors.New("payment not found")
)

// PaymentInitResponse is returned when a collection request has been
// dispatched to the payer's phone.
type PaymentInitResponse struct {
	ReferenceID string  `json:"reference_id"`
	OrderID     uint    `json:"order_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Status      string  `json:"status"`
}

// PaymentStatusResponse reports the current state of a collection attempt.
type PaymentStatusResponse struct {
	ReferenceID string              `json:"reference_id"`
	OrderID     uint                `json:"order_id"`
	Status      model.PaymentStatus `json:"status"`
	Reason      string              `json:"reason,omitempty"`
}

// OrderNotifier pushes order lifecycle events to connected sellers.
type OrderNotifier interface {
	NotifyOrderPaid(order *model.Order)
}

type PaymentService interface {
	// InitiatePayment dispatches a request-to-pay to the payer's phone and
	// records the pending transaction.
	InitiatePayment(ctx context.Context, userID, orderID uint, phoneNumber string) (*PaymentInitResponse, error)
	// CheckPaymentStatus polls the upstream status and folds the outcome back
	// into the transaction and its order.
	CheckPaymentStatus(ctx context.Context, userID uint, referenceID string) (*PaymentStatusResponse, error)
}

type paymentService struct {
	orderRepo  repository.OrderRepository
	momoClient *momo.Client
	notifier   OrderNotifier
	db         *gorm.DB
}

func NewPaymentService(
	orderRepo repository.OrderRepository,
	momoClient *momo.Client,
	notifier OrderNotifier,
	db *gorm.DB,
) PaymentService {
	return &paymentService{
		orderRepo:  orderRepo,
		momoClient: momoClient,
		notifier:   notifier,
		db:         db,
	}
}

func (s *paymentService) InitiatePayment(ctx context.Context, userID, orderID uint, phoneNumber string) (*PaymentInitResponse, error) {
	var order model.Order
	if err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order.PaymentStatus == model.PaymentSuccessful {
		return nil, ErrPaymentAlreadyProcessed
	}
	if order.TotalAmount <= 0 {
		return nil, ErrInvalidPaymentAmount
	}

	referenceID := uuid.NewString()
	txn := &model.PaymentTransaction{
		OrderID:     order.ID,
		ReferenceID: referenceID,
		PhoneNumber: phoneNumber,
		Amount:      order.TotalAmount,
		Currency:    order.Currency,
		Status:      model.PaymentPending,
	}
	if err := s.orderRepo.CreateTransaction(txn); err != nil {
		return nil, err
	}

	req := momo.RequestToPayRequest{
		Amount:     strconv.FormatFloat(order.TotalAmount, 'f', 0, 64),
		Currency:   order.Currency,
		ExternalID: strconv.FormatUint(uint64(order.ID), 10),
		Payer: momo.Party{
			PartyIDType: "MSISDN",
			PartyID:     phoneNumber,
		},
		PayerMessage: fmt.Sprintf("Kasuwa order #%d", order.ID),
		PayeeNote:    "Kasuwa marketplace purchase",
	}
	if err := s.momoClient.RequestToPay(ctx, referenceID, req); err != nil {
		txn.Status = model.PaymentFailed
		if updateErr := s.orderRepo.UpdateTransaction(txn); updateErr != nil {
			logger.Error("Failed to mark transaction failed", updateErr, map[string]interface{}{
				"reference_id": referenceID,
			})
		}
		logger.Error("Request to pay failed", err, map[string]interface{}{
			"order_id":     order.ID,
			"reference_id": referenceID,
		})
		return nil, err
	}

	logger.Info("Payment initiated", map[string]interface{}{
		"order_id":     order.ID,
		"reference_id": referenceID,
		"amount":       order.TotalAmount,
	})

	return &PaymentInitResponse{
		ReferenceID: referenceID,
		OrderID:     order.ID,
		Amount:      order.TotalAmount,
		Currency:    order.Currency,
		Status:      momo.StatusPending,
	}, nil
}

func (s *paymentService) CheckPaymentStatus(ctx context.Context, userID uint, referenceID string) (*PaymentStatusResponse, error) {
	txn, err := s.orderRepo.FindTransactionByReference(referenceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	order, err := s.orderRepo.FindByID(txn.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrPaymentNotFound
	}

	// already settled, nothing left to poll
	if txn.Status != model.PaymentPending {
		return &PaymentStatusResponse{
			ReferenceID: referenceID,
			OrderID:     txn.OrderID,
			Status:      txn.Status,
		}, nil
	}

	upstream, err := s.momoClient.GetPaymentStatus(ctx, referenceID)
	if err != nil {
		logger.Error("Failed to poll payment status", err, map[string]interface{}{
			"reference_id": referenceID,
		})
		return nil, err
	}

	resp := &PaymentStatusResponse{
		ReferenceID: referenceID,
		OrderID:     txn.OrderID,
		Status:      model.PaymentPending,
		Reason:      upstream.Reason,
	}

	switch upstream.Status {
	case momo.StatusSuccessful:
		resp.Status = model.PaymentSuccessful
		txn.Status = model.PaymentSuccessful
		if err := s.orderRepo.UpdateTransaction(txn); err != nil {
			return nil, err
		}
		if err := s.orderRepo.UpdatePaymentStatus(txn.OrderID, model.PaymentSuccessful); err != nil {
			return nil, err
		}
		if err := s.orderRepo.UpdateStatus(txn.OrderID, model.OrderStatusPaid); err != nil {
			return nil, err
		}
		logger.Info("Payment confirmed", map[string]interface{}{
			"order_id":     txn.OrderID,
			"reference_id": referenceID,
		})
		if s.notifier != nil {
			if paid, err := s.orderRepo.FindByID(txn.OrderID); err == nil {
				s.notifier.NotifyOrderPaid(paid)
			}
		}

	case momo.StatusFailed:
		resp.Status = model.PaymentFailed
		txn.Status = model.PaymentFailed
		if err := s.orderRepo.UpdateTransaction(txn); err != nil {
			return nil, err
		}
		if err := s.orderRepo.UpdatePaymentStatus(txn.OrderID, model.PaymentFailed); err != nil {
			return nil, err
		}
		logger.Warn("Payment failed", map[string]interface{}{
			"order_id":     txn.OrderID,
			"reference_id": referenceID,
			"reason":       upstream.Reason,
		})
	}

	return resp, nil
}
