package models

import "time"

// Client status constants used by the recipient directory.
const (
	ClientStatusActive    = "ativo"
	ClientStatusInactive  = "inativo"
	ClientStatusSuspended = "suspenso"
)

// Client is one entry of the recipient directory: the subscription data
// the renderer draws placeholder values from.
type Client struct {
	ID      int64      `json:"id"`
	Name    string     `json:"name"`
	Phone   string     `json:"phone"`
	Plan    string     `json:"plan"`
	Amount  *float64   `json:"amount,omitempty"`
	DueDate *time.Time `json:"due_date,omitempty"`
	Status  string     `json:"status"`
}

// Validate performs basic validation on client data
func (c *Client) Validate() error {
	if c.Phone == "" {
		return ErrInvalidInput("phone is required")
	}
	return nil
}
