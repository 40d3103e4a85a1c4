package models

import "time"

// Delivery status constants. The values follow the panel's own vocabulary:
// a record moves pending -> enviado -> entregue -> lido, or pending -> erro.
const (
	DeliveryStatusPending   = "pending"
	DeliveryStatusSent      = "enviado"
	DeliveryStatusDelivered = "entregue"
	DeliveryStatusRead      = "lido"
	DeliveryStatusError     = "erro"
)

// DeliveryRecord is one recipient's send attempt and its outcome within a campaign.
type DeliveryRecord struct {
	ID         int64 `json:"id"`
	CampaignID int64 `json:"campaign_id"`
	ClientID   int64 `json:"client_id"`

	Phone  string `json:"phone"`
	Status string `json:"status"`

	RenderedContent string  `json:"rendered_content,omitempty"`
	Attempts        int     `json:"tentativas"`
	LastError       *string `json:"erro_mensagem,omitempty"`

	// Gateway message identifier, kept for later correlation with
	// delivery receipts.
	GatewayMessageID *string `json:"gateway_message_id,omitempty"`

	SentAt      *time.Time `json:"enviado_em,omitempty"`
	DeliveredAt *time.Time `json:"entregue_em,omitempty"`
	ReadAt      *time.Time `json:"lido_em,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DeliveryFilter holds filtering options for listing delivery records
type DeliveryFilter struct {
	CampaignID int64
	Status     string
	Page       int
	PageSize   int
}

// DeliveryOutcome captures the result of one send attempt. It is applied
// atomically: the delivery row and the owning campaign's counters are
// updated in a single transaction.
type DeliveryOutcome struct {
	DeliveryID      int64
	CampaignID      int64
	Success         bool
	RenderedContent string

	// Set on success.
	GatewayMessageID *string
	SentAt           time.Time

	// Set on failure.
	ErrorDetail *string
}

// IsValidDeliveryStatus checks if the delivery status is valid
func IsValidDeliveryStatus(status string) bool {
	switch status {
	case DeliveryStatusPending, DeliveryStatusSent, DeliveryStatusDelivered,
		DeliveryStatusRead, DeliveryStatusError:
		return true
	default:
		return false
	}
}

// deliveryRank orders the forward-only receipt chain. erro sits outside
// the chain and never advances.
func deliveryRank(status string) int {
	switch status {
	case DeliveryStatusPending:
		return 0
	case DeliveryStatusSent:
		return 1
	case DeliveryStatusDelivered:
		return 2
	case DeliveryStatusRead:
		return 3
	default:
		return -1
	}
}

// CanAdvanceTo reports whether the record's status may move to next.
// Status only advances forward along pending -> enviado -> entregue -> lido.
func (d *DeliveryRecord) CanAdvanceTo(next string) bool {
	cur, nxt := deliveryRank(d.Status), deliveryRank(next)
	if cur < 0 || nxt < 0 {
		return false
	}
	return nxt > cur
}
