package models

import (
	"fmt"
	"time"
)

// Campaign status constants
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusScheduled = "scheduled"
	CampaignStatusSending   = "sending"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
	CampaignStatusCancelled = "cancelled"
	CampaignStatusError     = "error"
)

// Campaign represents a bulk WhatsApp send job targeting a filtered set of clients.
type Campaign struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	Template     string          `json:"template"`
	InstanceName string          `json:"instance_name"`
	Filter       RecipientFilter `json:"filter"`

	// Seconds to wait between two consecutive sends within a batch.
	SendDelaySeconds int `json:"send_delay_seconds"`

	// Counters are monotonically non-decreasing while the campaign is
	// sending; sent == successes + failures at all times.
	TotalRecipients int `json:"total_recipients"`
	Sent            int `json:"sent"`
	Successes       int `json:"successes"`
	Failures        int `json:"failures"`

	Status string `json:"status"`

	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CampaignFilter holds filtering options for listing campaigns
type CampaignFilter struct {
	Status   string
	Instance string
	Page     int
	PageSize int
}

// Validate performs validation on campaign data
func (c *Campaign) Validate() error {
	if c.Name == "" {
		return ErrInvalidInput("name is required")
	}
	if c.Template == "" {
		return ErrInvalidInput("template is required")
	}
	if c.InstanceName == "" {
		return ErrInvalidInput("instance_name is required")
	}
	if c.SendDelaySeconds < 1 {
		return ErrInvalidInput("send_delay_seconds must be at least 1")
	}
	if c.Status != "" && !IsValidCampaignStatus(c.Status) {
		return ErrInvalidInput(fmt.Sprintf("invalid status: %s", c.Status))
	}
	return nil
}

// IsValidCampaignStatus checks if the campaign status is valid
func IsValidCampaignStatus(status string) bool {
	switch status {
	case CampaignStatusDraft, CampaignStatusScheduled, CampaignStatusSending,
		CampaignStatusPaused, CampaignStatusCompleted, CampaignStatusCancelled,
		CampaignStatusError:
		return true
	default:
		return false
	}
}

// StartableStatuses lists the states a campaign may be started from.
// Starting from paused is a restart: counters are zeroed and every
// non-delivered record goes back to pending.
func StartableStatuses() []string {
	return []string{CampaignStatusDraft, CampaignStatusScheduled, CampaignStatusPaused}
}

// CanStart reports whether the campaign may transition to sending.
func (c *Campaign) CanStart() bool {
	switch c.Status {
	case CampaignStatusDraft, CampaignStatusScheduled, CampaignStatusPaused:
		return true
	default:
		return false
	}
}

// CanPause reports whether the campaign may be paused.
func (c *Campaign) CanPause() bool {
	return c.Status == CampaignStatusSending
}

// CanResume reports whether the campaign may resume sending.
func (c *Campaign) CanResume() bool {
	return c.Status == CampaignStatusPaused
}

// CanCancel reports whether the campaign may be cancelled.
// Cancellation is irreversible.
func (c *Campaign) CanCancel() bool {
	return c.Status == CampaignStatusSending || c.Status == CampaignStatusPaused
}

// CanDelete reports whether the campaign may be deleted.
// Campaigns currently sending may not be deleted.
func (c *Campaign) CanDelete() bool {
	return c.Status != CampaignStatusSending
}

// IsTerminal reports whether the campaign reached a terminal state.
func (c *Campaign) IsTerminal() bool {
	switch c.Status {
	case CampaignStatusCompleted, CampaignStatusCancelled, CampaignStatusError:
		return true
	default:
		return false
	}
}
