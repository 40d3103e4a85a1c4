package service

import (
	"context"
	"testing"
	"time"

	"github.com/gestorzap/campaign-engine/internal/models"
)

func TestStatusService_Progress(t *testing.T) {
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	now := started.Add(100 * time.Second)

	tests := []struct {
		name          string
		campaign      models.Campaign
		pending       int64
		wantProgresso float64
		wantTaxa      float64
		wantETA       *int64
	}{
		{
			name: "mid send",
			campaign: models.Campaign{
				ID: 1, Status: models.CampaignStatusSending,
				TotalRecipients: 100, Sent: 50, Successes: 40, Failures: 10,
				StartedAt: &started,
			},
			pending:       50,
			wantProgresso: 0.5,
			wantTaxa:      0.8,
			// 50 remaining at 0.5 sends/sec observed.
			wantETA: int64Ptr(100),
		},
		{
			name: "nothing sent yet",
			campaign: models.Campaign{
				ID: 1, Status: models.CampaignStatusSending,
				TotalRecipients: 100, Sent: 0,
				StartedAt: &started,
			},
			pending:       100,
			wantProgresso: 0,
			wantTaxa:      0,
			wantETA:       nil,
		},
		{
			name: "zero recipients",
			campaign: models.Campaign{
				ID: 1, Status: models.CampaignStatusDraft,
				TotalRecipients: 0,
			},
			pending:       0,
			wantProgresso: 0,
			wantTaxa:      0,
			wantETA:       nil,
		},
		{
			name: "completed reports zero eta",
			campaign: models.Campaign{
				ID: 1, Status: models.CampaignStatusCompleted,
				TotalRecipients: 10, Sent: 10, Successes: 9, Failures: 1,
				StartedAt: &started,
			},
			pending:       0,
			wantProgresso: 1,
			wantTaxa:      0.9,
			wantETA:       int64Ptr(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			campaignRepo := newMockCampaignRepo()
			campaign := tt.campaign
			campaignRepo.campaigns[campaign.ID] = &campaign

			deliveryRepo := &mockDeliveryRepo{pending: tt.pending}

			svc := NewStatusService(campaignRepo, deliveryRepo).(*statusService)
			svc.now = func() time.Time { return now }

			progress, err := svc.Progress(context.Background(), campaign.ID)
			if err != nil {
				t.Fatalf("Progress() error = %v, want nil", err)
			}

			if progress.Progresso != tt.wantProgresso {
				t.Errorf("Progresso = %v, want %v", progress.Progresso, tt.wantProgresso)
			}
			if progress.TaxaSucesso != tt.wantTaxa {
				t.Errorf("TaxaSucesso = %v, want %v", progress.TaxaSucesso, tt.wantTaxa)
			}
			if progress.Pending != tt.pending {
				t.Errorf("Pending = %d, want %d", progress.Pending, tt.pending)
			}

			switch {
			case tt.wantETA == nil && progress.ETASeconds != nil:
				t.Errorf("ETASeconds = %d, want nil", *progress.ETASeconds)
			case tt.wantETA != nil && progress.ETASeconds == nil:
				t.Errorf("ETASeconds = nil, want %d", *tt.wantETA)
			case tt.wantETA != nil && *progress.ETASeconds != *tt.wantETA:
				t.Errorf("ETASeconds = %d, want %d", *progress.ETASeconds, *tt.wantETA)
			}
		})
	}
}

func TestStatusService_Progress_NotFound(t *testing.T) {
	svc := NewStatusService(newMockCampaignRepo(), &mockDeliveryRepo{})

	_, err := svc.Progress(context.Background(), 99)
	if err == nil {
		t.Fatal("Progress() error = nil, want not found")
	}
}

func int64Ptr(v int64) *int64 { return &v }
