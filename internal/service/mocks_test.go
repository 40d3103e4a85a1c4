package service

import (
	"context"
	"time"

	"github.com/gestorzap/campaign-engine/internal/models"
)

// Mock campaign repository for testing
type mockCampaignRepo struct {
	campaigns map[int64]*models.Campaign
	nextID    int64
	createErr error
	deleted   []int64
}

func newMockCampaignRepo() *mockCampaignRepo {
	return &mockCampaignRepo{
		campaigns: make(map[int64]*models.Campaign),
		nextID:    1,
	}
}

func (m *mockCampaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	if m.createErr != nil {
		return m.createErr
	}
	campaign.ID = m.nextID
	m.nextID++
	campaign.CreatedAt = time.Now()
	campaign.UpdatedAt = campaign.CreatedAt
	m.campaigns[campaign.ID] = campaign
	return nil
}

func (m *mockCampaignRepo) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	campaign, ok := m.campaigns[id]
	if !ok {
		return nil, models.ErrNotFoundWithMsg("campaign not found")
	}
	copied := *campaign
	return &copied, nil
}

func (m *mockCampaignRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.campaigns[id]; !ok {
		return models.ErrNotFoundWithMsg("campaign not found")
	}
	delete(m.campaigns, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// Unused methods for interface compliance
func (m *mockCampaignRepo) List(ctx context.Context, filter models.CampaignFilter) ([]*models.Campaign, int64, error) {
	return nil, 0, nil
}
func (m *mockCampaignRepo) ListSending(ctx context.Context) ([]*models.Campaign, error) {
	return nil, nil
}
func (m *mockCampaignRepo) ListSendingByInstance(ctx context.Context, instance string) ([]*models.Campaign, error) {
	return nil, nil
}
func (m *mockCampaignRepo) ListDueScheduled(ctx context.Context, now time.Time) ([]*models.Campaign, error) {
	return nil, nil
}
func (m *mockCampaignRepo) TransitionStatus(ctx context.Context, id int64, to string, from ...string) (bool, error) {
	return false, nil
}
func (m *mockCampaignRepo) Start(ctx context.Context, id int64) (int64, error) {
	return 0, nil
}

// Mock delivery repository for testing
type mockDeliveryRepo struct {
	records        []*models.DeliveryRecord
	pending        int64
	createBatchErr error

	advanced     bool
	advanceErr   error
	advanceCalls []receiptCall
}

type receiptCall struct {
	gatewayMessageID string
	status           string
}

func (m *mockDeliveryRepo) CreateBatch(ctx context.Context, records []*models.DeliveryRecord) error {
	if m.createBatchErr != nil {
		return m.createBatchErr
	}
	m.records = append(m.records, records...)
	return nil
}

func (m *mockDeliveryRepo) CountPending(ctx context.Context, campaignID int64) (int64, error) {
	return m.pending, nil
}

// Unused methods for interface compliance
func (m *mockDeliveryRepo) GetByID(ctx context.Context, id int64) (*models.DeliveryRecord, error) {
	return nil, models.ErrNotFoundWithMsg("delivery record not found")
}
func (m *mockDeliveryRepo) List(ctx context.Context, filter models.DeliveryFilter) ([]*models.DeliveryRecord, int64, error) {
	return nil, 0, nil
}
func (m *mockDeliveryRepo) ListPending(ctx context.Context, campaignID int64, limit int) ([]*models.DeliveryRecord, error) {
	return nil, nil
}
func (m *mockDeliveryRepo) RecordOutcome(ctx context.Context, outcome *models.DeliveryOutcome) error {
	return nil
}
func (m *mockDeliveryRepo) AdvanceReceipt(ctx context.Context, gatewayMessageID, status string, at time.Time) (bool, error) {
	m.advanceCalls = append(m.advanceCalls, receiptCall{gatewayMessageID, status})
	return m.advanced, m.advanceErr
}
