// Package engine drives campaigns from creation to a terminal state. The
// dispatcher is deliberately trigger-driven: each RunBatch invocation
// processes one bounded batch and returns, so it can run as a short-lived
// task fired by a periodic scheduler.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gestorzap/campaign-engine/internal/gateway"
	"github.com/gestorzap/campaign-engine/internal/metrics"
	"github.com/gestorzap/campaign-engine/internal/models"
	"github.com/gestorzap/campaign-engine/internal/repository"
	"github.com/gestorzap/campaign-engine/internal/service"
)

// Locker serializes batch runs: at most one RunBatch per campaign may be
// in flight across all processes.
type Locker interface {
	TryLock(ctx context.Context, campaignID int64) (bool, error)
	Unlock(ctx context.Context, campaignID int64) error
}

// Config holds dispatcher tuning
type Config struct {
	// BatchSize bounds how many pending records one RunBatch processes.
	BatchSize int

	// CountryCode is prefixed to phone numbers that lack one.
	CountryCode string
}

// Dispatcher is the campaign state machine
type Dispatcher struct {
	campaignRepo repository.CampaignRepository
	deliveryRepo repository.DeliveryRepository
	clientRepo   repository.ClientRepository
	gateway      gateway.Client
	renderer     service.TemplateService
	locker       Locker
	batchSize    int
	countryCode  string
	logger       *slog.Logger

	// Indirections for tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New creates a dispatcher
func New(
	campaignRepo repository.CampaignRepository,
	deliveryRepo repository.DeliveryRepository,
	clientRepo repository.ClientRepository,
	gatewayClient gateway.Client,
	renderer service.TemplateService,
	locker Locker,
	cfg Config,
	logger *slog.Logger,
) *Dispatcher {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 10
	}

	return &Dispatcher{
		campaignRepo: campaignRepo,
		deliveryRepo: deliveryRepo,
		clientRepo:   clientRepo,
		gateway:      gatewayClient,
		renderer:     renderer,
		locker:       locker,
		batchSize:    cfg.BatchSize,
		countryCode:  cfg.CountryCode,
		logger:       logger,
		sleep:        sleepContext,
		now:          time.Now,
	}
}

// Start moves a campaign into sending. Accepted from draft, scheduled and
// paused; starting from paused is a restart that zeroes the counters and
// resets every non-delivered record to pending. Fails without mutating
// anything when the gateway instance is not connected or no record is
// left to send.
func (d *Dispatcher) Start(ctx context.Context, campaignID int64) error {
	campaign, err := d.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}

	if !campaign.CanStart() {
		return models.ErrPreconditionFailed(
			fmt.Sprintf("campaign %d cannot start from status %s", campaignID, campaign.Status),
		)
	}

	state, err := d.gateway.InstanceStatus(ctx, campaign.InstanceName)
	if err != nil {
		return models.ErrPreconditionFailed(
			fmt.Sprintf("instance %s status unavailable: %v", campaign.InstanceName, err),
		)
	}
	if state != gateway.InstanceConnected {
		return models.ErrPreconditionFailed(
			fmt.Sprintf("instance %s is not connected (%s)", campaign.InstanceName, state),
		)
	}

	pending, err := d.campaignRepo.Start(ctx, campaignID)
	if err != nil {
		return err
	}

	d.logger.Info("campaign started",
		slog.Int64("campaign_id", campaignID),
		slog.Int64("pending", pending),
	)

	return nil
}

// Pause suspends a sending campaign. Delivery rows are left as they are;
// in-flight progress is preserved.
func (d *Dispatcher) Pause(ctx context.Context, campaignID int64) error {
	if err := d.checkTransition(ctx, campaignID, models.CampaignStatusPaused, (*models.Campaign).CanPause); err != nil {
		return err
	}
	return d.transition(ctx, campaignID, models.CampaignStatusPaused,
		models.CampaignStatusSending)
}

// Resume puts a paused campaign back into sending without touching
// counters or delivery rows.
func (d *Dispatcher) Resume(ctx context.Context, campaignID int64) error {
	if err := d.checkTransition(ctx, campaignID, models.CampaignStatusSending, (*models.Campaign).CanResume); err != nil {
		return err
	}
	return d.transition(ctx, campaignID, models.CampaignStatusSending,
		models.CampaignStatusPaused)
}

// Cancel irreversibly stops a campaign and stamps its completion time.
func (d *Dispatcher) Cancel(ctx context.Context, campaignID int64) error {
	if err := d.checkTransition(ctx, campaignID, models.CampaignStatusCancelled, (*models.Campaign).CanCancel); err != nil {
		return err
	}
	return d.transition(ctx, campaignID, models.CampaignStatusCancelled,
		models.CampaignStatusSending, models.CampaignStatusPaused)
}

// checkTransition rejects obviously illegal moves up front so callers
// get the precondition error without a write attempt. The conditional
// update in transition remains the authority under concurrency.
func (d *Dispatcher) checkTransition(ctx context.Context, campaignID int64, to string, allowed func(*models.Campaign) bool) error {
	campaign, err := d.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if !allowed(campaign) {
		return models.ErrPreconditionFailed(
			fmt.Sprintf("campaign %d cannot move from %s to %s", campaignID, campaign.Status, to),
		)
	}
	return nil
}

func (d *Dispatcher) transition(ctx context.Context, campaignID int64, to string, from ...string) error {
	ok, err := d.campaignRepo.TransitionStatus(ctx, campaignID, to, from...)
	if err != nil {
		return err
	}
	if !ok {
		// Either the campaign does not exist or it is not in a legal
		// source state; look it up to report which.
		campaign, err := d.campaignRepo.GetByID(ctx, campaignID)
		if err != nil {
			return err
		}
		if campaign.IsTerminal() {
			return models.ErrPreconditionFailed(
				fmt.Sprintf("campaign %d already finished with status %s", campaignID, campaign.Status),
			)
		}
		return models.ErrPreconditionFailed(
			fmt.Sprintf("campaign %d cannot move from %s to %s", campaignID, campaign.Status, to),
		)
	}

	d.logger.Info("campaign status changed",
		slog.Int64("campaign_id", campaignID),
		slog.String("status", to),
	)

	return nil
}

// RunBatch processes one bounded batch of pending records for a campaign.
// It is a no-op when the campaign is not sending or when another run
// already holds the campaign lock. Per-recipient failures are absorbed
// into the delivery rows; only infrastructure failures are returned, and
// those move the campaign to the error status.
func (d *Dispatcher) RunBatch(ctx context.Context, campaignID int64) error {
	acquired, err := d.locker.TryLock(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("failed to acquire campaign lock: %w", err)
	}
	if !acquired {
		return nil
	}
	defer func() {
		// Release even when the caller's context was cancelled mid-batch;
		// otherwise the campaign stays locked until the TTL lapses.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := d.locker.Unlock(releaseCtx, campaignID); err != nil {
			// The lock TTL reclaims it eventually.
			d.logger.Warn("failed to release campaign lock",
				slog.Int64("campaign_id", campaignID),
				slog.String("error", err.Error()),
			)
		}
	}()

	started := d.now()
	defer func() {
		metrics.BatchesRun.Inc()
		metrics.BatchDuration.Observe(time.Since(started).Seconds())
	}()

	campaign, err := d.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}

	if campaign.Status != models.CampaignStatusSending {
		return nil
	}

	state, err := d.gateway.InstanceStatus(ctx, campaign.InstanceName)
	if err != nil {
		d.logger.Warn("instance status unavailable, treating as disconnected",
			slog.String("instance", campaign.InstanceName),
			slog.String("error", err.Error()),
		)
		state = gateway.InstanceDisconnected
	}
	if state != gateway.InstanceConnected {
		d.pauseInstance(ctx, campaign.InstanceName)
		return nil
	}

	batch, err := d.deliveryRepo.ListPending(ctx, campaignID, d.batchSize)
	if err != nil {
		return d.fail(ctx, campaignID, "failed to fetch pending records", err)
	}

	if len(batch) == 0 {
		return d.complete(ctx, campaignID)
	}

	delay := time.Duration(campaign.SendDelaySeconds) * time.Second

	for i, record := range batch {
		if i > 0 {
			// Rate limiting is per message, not per batch.
			if err := d.sleep(ctx, delay); err != nil {
				return err
			}

			// Pause and cancel are cooperative: observe them between
			// items, never interrupting an in-flight send.
			current, err := d.campaignRepo.GetByID(ctx, campaignID)
			if err != nil {
				return d.fail(ctx, campaignID, "failed to re-read campaign", err)
			}
			if current.Status != models.CampaignStatusSending {
				d.logger.Info("stop observed mid-batch",
					slog.Int64("campaign_id", campaignID),
					slog.String("status", current.Status),
				)
				return nil
			}
		}

		outcome := d.processRecord(ctx, campaign, record)

		if err := d.deliveryRepo.RecordOutcome(ctx, outcome); err != nil {
			if errors.Is(err, models.ErrConflict) {
				// Resolved by a competing pass; nothing to count.
				continue
			}
			return d.fail(ctx, campaignID, "failed to record outcome", err)
		}

		if outcome.Success {
			metrics.MessagesSent.WithLabelValues(campaign.InstanceName).Inc()
		} else {
			metrics.MessagesFailed.WithLabelValues(campaign.InstanceName).Inc()
		}
	}

	// A short final batch means the campaign just drained; converge
	// without waiting for the next trigger.
	pending, err := d.deliveryRepo.CountPending(ctx, campaignID)
	if err != nil {
		return d.fail(ctx, campaignID, "failed to count pending records", err)
	}
	if pending == 0 {
		return d.complete(ctx, campaignID)
	}

	return nil
}

// RunDue is the trigger entry point: it promotes due scheduled campaigns
// and runs one batch for every sending campaign. Campaign-level failures
// are joined and surfaced to the caller.
func (d *Dispatcher) RunDue(ctx context.Context) error {
	due, err := d.campaignRepo.ListDueScheduled(ctx, d.now())
	if err != nil {
		return fmt.Errorf("failed to list due campaigns: %w", err)
	}

	for _, campaign := range due {
		if err := d.Start(ctx, campaign.ID); err != nil {
			// A failed precondition (instance offline, nothing pending)
			// keeps the campaign scheduled for the next tick.
			d.logger.Warn("scheduled campaign not started",
				slog.Int64("campaign_id", campaign.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	sending, err := d.campaignRepo.ListSending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sending campaigns: %w", err)
	}

	var errs []error
	for _, campaign := range sending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := d.RunBatch(ctx, campaign.ID); err != nil {
			d.logger.Error("batch run failed",
				slog.Int64("campaign_id", campaign.ID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// processRecord renders and sends one message, absorbing every
// per-recipient failure into the returned outcome.
func (d *Dispatcher) processRecord(ctx context.Context, campaign *models.Campaign, record *models.DeliveryRecord) *models.DeliveryOutcome {
	outcome := &models.DeliveryOutcome{
		DeliveryID: record.ID,
		CampaignID: campaign.ID,
	}

	// Snapshot data is re-fetched at send time so directory edits made
	// after campaign creation are reflected in the message.
	client, err := d.clientRepo.GetByID(ctx, record.ClientID)
	if err != nil {
		return failOutcome(outcome, fmt.Sprintf("recipient unavailable: %v", err))
	}

	outcome.RenderedContent = d.renderer.Render(campaign.Template, service.RecipientDataFromClient(client))

	phone, err := gateway.NormalizePhone(client.Phone, d.countryCode)
	if err != nil {
		// Invalid numbers are rejected locally, without a gateway call.
		return failOutcome(outcome, err.Error())
	}

	result, err := d.gateway.SendMessage(ctx, campaign.InstanceName, phone, outcome.RenderedContent)
	if err != nil {
		d.logger.Warn("send failed",
			slog.Int64("campaign_id", campaign.ID),
			slog.Int64("delivery_id", record.ID),
			slog.String("error", err.Error()),
		)
		return failOutcome(outcome, err.Error())
	}

	outcome.Success = true
	outcome.GatewayMessageID = &result.MessageID
	outcome.SentAt = d.now()
	return outcome
}

// pauseInstance pauses every sending campaign bound to a disconnected
// instance, not just the one currently being processed: the connection is
// a shared resource.
func (d *Dispatcher) pauseInstance(ctx context.Context, instance string) {
	campaigns, err := d.campaignRepo.ListSendingByInstance(ctx, instance)
	if err != nil {
		d.logger.Error("failed to list campaigns for disconnected instance",
			slog.String("instance", instance),
			slog.String("error", err.Error()),
		)
		return
	}

	for _, campaign := range campaigns {
		ok, err := d.campaignRepo.TransitionStatus(ctx, campaign.ID,
			models.CampaignStatusPaused, models.CampaignStatusSending)
		if err != nil {
			d.logger.Error("failed to pause campaign",
				slog.Int64("campaign_id", campaign.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if ok {
			metrics.CampaignsPaused.Inc()
		}
	}

	d.logger.Warn("instance disconnected, campaigns paused",
		slog.String("instance", instance),
		slog.Int("campaigns", len(campaigns)),
	)
}

func (d *Dispatcher) complete(ctx context.Context, campaignID int64) error {
	ok, err := d.campaignRepo.TransitionStatus(ctx, campaignID,
		models.CampaignStatusCompleted, models.CampaignStatusSending)
	if err != nil {
		return err
	}
	if ok {
		metrics.CampaignsCompleted.Inc()
		d.logger.Info("campaign completed", slog.Int64("campaign_id", campaignID))
	}
	return nil
}

// fail handles campaign-level infrastructure failures: the campaign moves
// to the error status and the failure is surfaced to the trigger caller.
func (d *Dispatcher) fail(ctx context.Context, campaignID int64, msg string, cause error) error {
	if _, terr := d.campaignRepo.TransitionStatus(ctx, campaignID,
		models.CampaignStatusError,
		models.CampaignStatusSending, models.CampaignStatusPaused,
	); terr != nil {
		d.logger.Error("failed to mark campaign as errored",
			slog.Int64("campaign_id", campaignID),
			slog.String("error", terr.Error()),
		)
	}

	d.logger.Error(msg,
		slog.Int64("campaign_id", campaignID),
		slog.String("error", cause.Error()),
	)

	return models.ErrCampaignFatal(fmt.Sprintf("campaign %d: %s", campaignID, msg), cause)
}

func failOutcome(outcome *models.DeliveryOutcome, detail string) *models.DeliveryOutcome {
	outcome.Success = false
	outcome.ErrorDetail = &detail
	return outcome
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
