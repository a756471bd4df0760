package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kasuwa/kasuwa-backend/pkg/logger"
	"github.com/kasuwa/kasuwa-backend/pkg/payment/momo"
)

// PaymentTokenScheduler keeps the MoMo collection access token warm so
// that checkout requests never pay the token round-trip.
type PaymentTokenScheduler struct {
	cron   *cron.Cron
	client *momo.Client
}

func NewPaymentTokenScheduler(client *momo.Client) *PaymentTokenScheduler {
	return &PaymentTokenScheduler{
		cron:   cron.New(),
		client: client,
	}
}

// Start refreshes the token immediately, then every 45 minutes. MoMo
// access tokens expire after an hour.
func (s *PaymentTokenScheduler) Start() error {
	s.refreshToken()

	_, err := s.cron.AddFunc("@every 45m", s.refreshToken)
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("Payment token scheduler started", map[string]interface{}{
		"interval": "45m",
	})

	return nil
}

func (s *PaymentTokenScheduler) Stop() {
	s.cron.Stop()
	logger.Info("Payment token scheduler stopped", nil)
}

func (s *PaymentTokenScheduler) refreshToken() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.client.RefreshToken(ctx); err != nil {
		logger.Error("Failed to refresh payment token", err, nil)
		return
	}

	logger.Debug("Payment token refreshed", nil)
}
