package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gestorzap/campaign-engine/internal/models"
	"github.com/gestorzap/campaign-engine/internal/repository"
)

// CampaignService handles campaign business logic outside the dispatch
// path: creation (with recipient resolution and delivery-row seeding),
// listing, deletion and previews.
type CampaignService interface {
	Create(ctx context.Context, req *CreateCampaignRequest) (*models.Campaign, error)
	GetByID(ctx context.Context, id int64) (*models.Campaign, error)
	List(ctx context.Context, filter models.CampaignFilter) (*CampaignListResult, error)
	ListDeliveries(ctx context.Context, filter models.DeliveryFilter) (*DeliveryListResult, error)
	Delete(ctx context.Context, id int64) error
	Preview(ctx context.Context, campaignID int64, req *PreviewRequest) (*PreviewResult, error)
}

type campaignService struct {
	campaignRepo repository.CampaignRepository
	deliveryRepo repository.DeliveryRepository
	clientRepo   repository.ClientRepository
	resolver     ResolverService
	templateSvc  TemplateService
	logger       *slog.Logger
}

// NewCampaignService creates a new campaign service
func NewCampaignService(
	campaignRepo repository.CampaignRepository,
	deliveryRepo repository.DeliveryRepository,
	clientRepo repository.ClientRepository,
	resolver ResolverService,
	templateSvc TemplateService,
	logger *slog.Logger,
) CampaignService {
	return &campaignService{
		campaignRepo: campaignRepo,
		deliveryRepo: deliveryRepo,
		clientRepo:   clientRepo,
		resolver:     resolver,
		templateSvc:  templateSvc,
		logger:       logger,
	}
}

// Create validates the request, resolves the recipient filter against the
// current directory snapshot and persists the campaign together with one
// pending delivery row per recipient.
func (s *campaignService) Create(ctx context.Context, req *CreateCampaignRequest) (*models.Campaign, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := s.templateSvc.ValidateTemplate(req.Template); err != nil {
		return nil, err
	}

	clients, err := s.resolver.Resolve(ctx, req.Filter)
	if err != nil {
		return nil, err
	}

	status := models.CampaignStatusDraft
	if req.ScheduledFor != nil {
		status = models.CampaignStatusScheduled
	}

	campaign := &models.Campaign{
		Name:             req.Name,
		Description:      req.Description,
		Template:         req.Template,
		InstanceName:     req.InstanceName,
		Filter:           req.Filter,
		SendDelaySeconds: req.SendDelaySeconds,
		TotalRecipients:  len(clients),
		Status:           status,
		ScheduledFor:     req.ScheduledFor,
	}

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		s.logger.Error("failed to create campaign",
			slog.String("name", req.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	records := make([]*models.DeliveryRecord, 0, len(clients))
	for _, client := range clients {
		records = append(records, &models.DeliveryRecord{
			CampaignID: campaign.ID,
			ClientID:   client.ID,
			Phone:      client.Phone,
			Status:     models.DeliveryStatusPending,
		})
	}

	if err := s.deliveryRepo.CreateBatch(ctx, records); err != nil {
		s.logger.Error("failed to seed delivery records",
			slog.Int64("campaign_id", campaign.ID),
			slog.String("error", err.Error()),
		)
		// Best effort: do not leave a campaign without its rows behind.
		if delErr := s.campaignRepo.Delete(ctx, campaign.ID); delErr != nil {
			s.logger.Error("failed to clean up campaign after seeding failure",
				slog.Int64("campaign_id", campaign.ID),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("failed to seed delivery records: %w", err)
	}

	s.logger.Info("campaign created",
		slog.Int64("campaign_id", campaign.ID),
		slog.String("name", campaign.Name),
		slog.String("status", campaign.Status),
		slog.Int("total_recipients", campaign.TotalRecipients),
	)

	return campaign, nil
}

// GetByID retrieves a campaign
func (s *campaignService) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	return s.campaignRepo.GetByID(ctx, id)
}

// List retrieves campaigns with pagination
func (s *campaignService) List(ctx context.Context, filter models.CampaignFilter) (*CampaignListResult, error) {
	campaigns, totalCount, err := s.campaignRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	models.ClampPage(&filter.Page, &filter.PageSize)

	return &CampaignListResult{
		Data:       campaigns,
		Pagination: models.NewPaginationResult(filter.Page, filter.PageSize, totalCount),
	}, nil
}

// ListDeliveries retrieves a campaign's delivery records with pagination
func (s *campaignService) ListDeliveries(ctx context.Context, filter models.DeliveryFilter) (*DeliveryListResult, error) {
	if filter.CampaignID <= 0 {
		return nil, models.ErrInvalidInput("campaign_id is required")
	}
	if filter.Status != "" && !models.IsValidDeliveryStatus(filter.Status) {
		return nil, models.ErrInvalidInput(fmt.Sprintf("invalid status: %s", filter.Status))
	}

	records, totalCount, err := s.deliveryRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery records: %w", err)
	}

	models.ClampPage(&filter.Page, &filter.PageSize)

	return &DeliveryListResult{
		Data:       records,
		Pagination: models.NewPaginationResult(filter.Page, filter.PageSize, totalCount),
	}, nil
}

// Delete removes a campaign and its delivery rows. Campaigns currently
// sending are refused.
func (s *campaignService) Delete(ctx context.Context, id int64) error {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !campaign.CanDelete() {
		return models.ErrConflictWithMsg(
			fmt.Sprintf("campaign %d is sending and cannot be deleted", id),
		)
	}

	if err := s.campaignRepo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete campaign",
			slog.Int64("campaign_id", id),
			slog.String("error", err.Error()),
		)
		return err
	}

	s.logger.Info("campaign deleted", slog.Int64("campaign_id", id))

	return nil
}

// Preview renders the campaign template against one client without
// sending anything.
func (s *campaignService) Preview(ctx context.Context, campaignID int64, req *PreviewRequest) (*PreviewResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	client, err := s.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	template := campaign.Template
	if req.OverrideTemplate != nil && *req.OverrideTemplate != "" {
		template = *req.OverrideTemplate
		if err := s.templateSvc.ValidateTemplate(template); err != nil {
			return nil, err
		}
	}

	rendered := s.templateSvc.Render(template, RecipientDataFromClient(client))

	return &PreviewResult{
		RenderedMessage: rendered,
		UsedTemplate:    template,
		Placeholders:    s.templateSvc.ExtractPlaceholders(template),
		Client: &ClientPreview{
			ID:    client.ID,
			Name:  client.Name,
			Phone: client.Phone,
		},
	}, nil
}
