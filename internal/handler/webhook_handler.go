package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gestorzap/campaign-engine/internal/models"
	"github.com/gestorzap/campaign-engine/internal/service"
)

// WebhookHandler ingests delivery receipts posted by the WhatsApp gateway
type WebhookHandler struct {
	receiptService service.ReceiptService
	logger         *slog.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(receiptService service.ReceiptService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		receiptService: receiptService,
		logger:         logger,
	}
}

// ReceiptRequest represents a gateway delivery receipt
type ReceiptRequest struct {
	GatewayMessageID string     `json:"gateway_message_id"`
	Status           string     `json:"status"`
	Timestamp        *time.Time `json:"timestamp,omitempty"`
}

// Receipt handles POST /webhooks/receipts
func (h *WebhookHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	var req ReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, models.ErrInvalidInput("invalid request body"), h.logger)
		return
	}

	at := time.Now()
	if req.Timestamp != nil {
		at = *req.Timestamp
	}

	if err := h.receiptService.Ingest(r.Context(), req.GatewayMessageID, req.Status, at); err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondSuccess(w, map[string]string{"status": "ok"})
}
