package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gestorzap/campaign-engine/internal/models"
	"github.com/gestorzap/campaign-engine/internal/repository"
)

// ReceiptService ingests gateway delivery receipts, advancing delivery
// records forward along enviado -> entregue -> lido. Receipts for unknown
// or already-advanced records are ignored.
type ReceiptService interface {
	Ingest(ctx context.Context, gatewayMessageID, status string, at time.Time) error
}

type receiptService struct {
	deliveryRepo repository.DeliveryRepository
	logger       *slog.Logger
}

// NewReceiptService creates a new receipt service
func NewReceiptService(deliveryRepo repository.DeliveryRepository, logger *slog.Logger) ReceiptService {
	return &receiptService{
		deliveryRepo: deliveryRepo,
		logger:       logger,
	}
}

// Ingest applies one receipt
func (s *receiptService) Ingest(ctx context.Context, gatewayMessageID, status string, at time.Time) error {
	if gatewayMessageID == "" {
		return models.ErrInvalidInput("gateway_message_id is required")
	}
	// A receipt is valid only if it advances a sent record along the chain.
	sent := models.DeliveryRecord{Status: models.DeliveryStatusSent}
	if !sent.CanAdvanceTo(status) {
		return models.ErrInvalidInput(fmt.Sprintf("invalid receipt status: %s", status))
	}

	advanced, err := s.deliveryRepo.AdvanceReceipt(ctx, gatewayMessageID, status, at)
	if err != nil {
		return fmt.Errorf("failed to ingest receipt: %w", err)
	}

	if !advanced {
		s.logger.Debug("receipt ignored",
			slog.String("gateway_message_id", gatewayMessageID),
			slog.String("status", status),
		)
	}

	return nil
}
