package service

import (
	"context"
	"time"

	"github.com/gestorzap/campaign-engine/internal/repository"
)

// StatusService is the read path: progress aggregation for the UI. It
// never mutates state and is safe to call concurrently with batch runs.
type StatusService interface {
	Progress(ctx context.Context, campaignID int64) (*CampaignProgress, error)
}

type statusService struct {
	campaignRepo repository.CampaignRepository
	deliveryRepo repository.DeliveryRepository
	now          func() time.Time
}

// NewStatusService creates a new status service
func NewStatusService(
	campaignRepo repository.CampaignRepository,
	deliveryRepo repository.DeliveryRepository,
) StatusService {
	return &statusService{
		campaignRepo: campaignRepo,
		deliveryRepo: deliveryRepo,
		now:          time.Now,
	}
}

// Progress computes counters, completion ratio, success rate and an ETA
// extrapolated from the observed send rate.
func (s *statusService) Progress(ctx context.Context, campaignID int64) (*CampaignProgress, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	pending, err := s.deliveryRepo.CountPending(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	progress := &CampaignProgress{
		CampaignID:      campaign.ID,
		Status:          campaign.Status,
		TotalRecipients: campaign.TotalRecipients,
		Sent:            campaign.Sent,
		Successes:       campaign.Successes,
		Failures:        campaign.Failures,
		Pending:         pending,
	}

	if campaign.TotalRecipients > 0 {
		progress.Progresso = float64(campaign.Sent) / float64(campaign.TotalRecipients)
	}

	if campaign.Sent > 0 {
		progress.TaxaSucesso = float64(campaign.Successes) / float64(campaign.Sent)
	}

	// Extrapolated from the rate observed so far; a finished campaign
	// has nothing remaining and reports zero.
	if campaign.Sent > 0 && campaign.StartedAt != nil {
		elapsed := s.now().Sub(*campaign.StartedAt)
		remaining := campaign.TotalRecipients - campaign.Sent
		eta := int64(float64(remaining) * elapsed.Seconds() / float64(campaign.Sent))
		progress.ETASeconds = &eta
	}

	return progress, nil
}
