package service

import (
	"time"

	"github.com/gestorzap/campaign-engine/internal/models"
)

// CreateCampaignRequest represents a request to create a campaign
type CreateCampaignRequest struct {
	Name             string                 `json:"name"`
	Description      string                 `json:"description,omitempty"`
	Template         string                 `json:"template"`
	InstanceName     string                 `json:"instance_name"`
	Filter           models.RecipientFilter `json:"filter"`
	SendDelaySeconds int                    `json:"send_delay_seconds"`
	ScheduledFor     *time.Time             `json:"scheduled_for,omitempty"`
}

// Validate performs validation on the create campaign request
func (r *CreateCampaignRequest) Validate() error {
	if r.Name == "" {
		return models.ErrInvalidInput("name is required")
	}
	if r.Template == "" {
		return models.ErrInvalidInput("template is required")
	}
	if r.InstanceName == "" {
		return models.ErrInvalidInput("instance_name is required")
	}
	if r.SendDelaySeconds < 1 {
		return models.ErrInvalidInput("send_delay_seconds must be at least 1")
	}
	if r.ScheduledFor != nil && !r.ScheduledFor.After(time.Now()) {
		return models.ErrInvalidInput("scheduled_for must be in the future")
	}
	return r.Filter.Validate()
}

// CampaignListResult represents paginated campaign list results
type CampaignListResult struct {
	Data       []*models.Campaign      `json:"data"`
	Pagination models.PaginationResult `json:"pagination"`
}

// DeliveryListResult represents paginated delivery record list results
type DeliveryListResult struct {
	Data       []*models.DeliveryRecord `json:"data"`
	Pagination models.PaginationResult  `json:"pagination"`
}

// PreviewRequest represents a request to preview a rendered message
type PreviewRequest struct {
	ClientID         int64   `json:"client_id"`
	OverrideTemplate *string `json:"override_template,omitempty"`
}

// Validate performs validation on the preview request
func (r *PreviewRequest) Validate() error {
	if r.ClientID <= 0 {
		return models.ErrInvalidInput("client_id is required")
	}
	return nil
}

// PreviewResult represents the result of a preview
type PreviewResult struct {
	RenderedMessage string         `json:"rendered_message"`
	UsedTemplate    string         `json:"used_template"`
	Placeholders    []string       `json:"placeholders"`
	Client          *ClientPreview `json:"client"`
}

// ClientPreview contains minimal client info for preview
type ClientPreview struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CampaignProgress is the read-side aggregation consumed by the UI.
type CampaignProgress struct {
	CampaignID      int64  `json:"campaign_id"`
	Status          string `json:"status"`
	TotalRecipients int    `json:"total_recipients"`
	Sent            int    `json:"sent"`
	Successes       int    `json:"successes"`
	Failures        int    `json:"failures"`
	Pending         int64  `json:"pending"`

	// Progresso is sent / total_recipients; zero when total is zero.
	Progresso float64 `json:"progresso"`

	// TaxaSucesso is successes / sent; zero when nothing was sent.
	TaxaSucesso float64 `json:"taxa_sucesso"`

	// ETASeconds estimates remaining time from the observed send rate;
	// null until the first send is recorded.
	ETASeconds *int64 `json:"eta_seconds,omitempty"`
}
