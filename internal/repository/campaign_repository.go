package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/gestorzap/campaign-engine/internal/models"
)

// CampaignRepository defines the interface for campaign data access.
//
// Status changes go through TransitionStatus, a compare-and-swap on the
// current status, never a blind overwrite: a paused campaign must not be
// silently resumed by a stale batch run.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id int64) (*models.Campaign, error)
	List(ctx context.Context, filter models.CampaignFilter) ([]*models.Campaign, int64, error)
	ListSending(ctx context.Context) ([]*models.Campaign, error)
	ListSendingByInstance(ctx context.Context, instance string) ([]*models.Campaign, error)
	ListDueScheduled(ctx context.Context, now time.Time) ([]*models.Campaign, error)

	// TransitionStatus atomically moves the campaign to the given status
	// if and only if its current status is one of from. Returns false
	// when the swap did not apply. Completion and cancellation stamp
	// completed_at as part of the same statement.
	TransitionStatus(ctx context.Context, id int64, to string, from ...string) (bool, error)

	// Start flips the campaign to sending, records the start timestamp,
	// zeroes the counters and resets every non-delivered record back to
	// pending with zero attempts, all in one transaction. Returns the
	// number of pending records after the reset.
	Start(ctx context.Context, id int64) (int64, error)

	Delete(ctx context.Context, id int64) error
}

const campaignColumns = `id, name, description, template, instance_name, filter,
		send_delay_seconds, total_recipients, sent, successes, failures,
		status, scheduled_for, started_at, completed_at, created_at, updated_at`

// campaignRepository implements CampaignRepository using PostgreSQL
type campaignRepository struct {
	db *sql.DB
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *sql.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

// Create inserts a new campaign
func (r *campaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	filterJSON, err := json.Marshal(campaign.Filter)
	if err != nil {
		return fmt.Errorf("failed to marshal recipient filter: %w", err)
	}

	query := `
		INSERT INTO campaigns (name, description, template, instance_name, filter,
			send_delay_seconds, total_recipients, status, scheduled_for)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err = r.db.QueryRowContext(
		ctx,
		query,
		campaign.Name,
		campaign.Description,
		campaign.Template,
		campaign.InstanceName,
		filterJSON,
		campaign.SendDelaySeconds,
		campaign.TotalRecipients,
		campaign.Status,
		campaign.ScheduledFor,
	).Scan(&campaign.ID, &campaign.CreatedAt, &campaign.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil
}

// GetByID retrieves a campaign by ID
func (r *campaignRepository) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	campaign, err := scanCampaign(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("campaign with ID %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return campaign, nil
}

// List retrieves campaigns with pagination and filtering
func (r *campaignRepository) List(ctx context.Context, filter models.CampaignFilter) ([]*models.Campaign, int64, error) {
	models.ClampPage(&filter.Page, &filter.PageSize)

	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		countQuery += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, filter.Status)
		argPos++
	}

	if filter.Instance != "" {
		query += fmt.Sprintf(" AND instance_name = $%d", argPos)
		countQuery += fmt.Sprintf(" AND instance_name = $%d", argPos)
		args = append(args, filter.Instance)
		argPos++
	}

	var totalCount int64
	err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	offset := models.PageOffset(filter.Page, filter.PageSize)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filter.PageSize, offset)

	campaigns, err := r.queryCampaigns(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return campaigns, totalCount, nil
}

// ListSending retrieves every campaign currently in the sending status,
// in a stable order for the trigger loop.
func (r *campaignRepository) ListSending(ctx context.Context) ([]*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE status = $1 ORDER BY id ASC`
	return r.queryCampaigns(ctx, query, models.CampaignStatusSending)
}

// ListSendingByInstance retrieves sending campaigns bound to one gateway instance
func (r *campaignRepository) ListSendingByInstance(ctx context.Context, instance string) ([]*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
		WHERE status = $1 AND instance_name = $2 ORDER BY id ASC`
	return r.queryCampaigns(ctx, query, models.CampaignStatusSending, instance)
}

// ListDueScheduled retrieves scheduled campaigns whose scheduled time has passed
func (r *campaignRepository) ListDueScheduled(ctx context.Context, now time.Time) ([]*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
		WHERE status = $1 AND scheduled_for IS NOT NULL AND scheduled_for <= $2
		ORDER BY id ASC`
	return r.queryCampaigns(ctx, query, models.CampaignStatusScheduled, now)
}

// TransitionStatus performs a compare-and-swap status update
func (r *campaignRepository) TransitionStatus(ctx context.Context, id int64, to string, from ...string) (bool, error) {
	if !models.IsValidCampaignStatus(to) {
		return false, models.ErrInvalidInput(fmt.Sprintf("invalid status: %s", to))
	}

	query := `
		UPDATE campaigns
		SET status = $1,
		    completed_at = CASE WHEN $1 IN ('completed', 'cancelled') THEN now() ELSE completed_at END,
		    updated_at = now()
		WHERE id = $2 AND status = ANY($3)`

	result, err := r.db.ExecContext(ctx, query, to, id, pq.Array(from))
	if err != nil {
		return false, fmt.Errorf("failed to transition campaign status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Start resets the campaign for a fresh sending pass
func (r *campaignRepository) Start(ctx context.Context, id int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Records already delivered (enviado) are left untouched, so a
	// restart never double-processes them.
	var resettable int64
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM delivery_records
		WHERE campaign_id = $1 AND status <> $2`,
		id, models.DeliveryStatusSent,
	).Scan(&resettable)
	if err != nil {
		return 0, fmt.Errorf("failed to count resettable records: %w", err)
	}

	if resettable == 0 {
		return 0, models.ErrEmptyCampaign(id)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE campaigns
		SET status = $1, started_at = now(), completed_at = NULL,
		    sent = 0, successes = 0, failures = 0, updated_at = now()
		WHERE id = $2 AND status = ANY($3)`,
		models.CampaignStatusSending, id, pq.Array(models.StartableStatuses()),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to start campaign: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return 0, models.ErrPreconditionFailed(
			fmt.Sprintf("campaign %d cannot be started from its current status", id),
		)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE delivery_records
		SET status = $1, tentativas = 0, erro_mensagem = NULL, updated_at = now()
		WHERE campaign_id = $2 AND status <> $3`,
		models.DeliveryStatusPending, id, models.DeliveryStatusSent,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reset delivery records: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return resettable, nil
}

// Delete removes a campaign and, via cascade, its delivery records.
// Deletion is refused while the campaign is sending.
func (r *campaignRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM campaigns WHERE id = $1 AND status <> $2`

	result, err := r.db.ExecContext(ctx, query, id, models.CampaignStatusSending)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Distinguish a missing campaign from one that is mid-send.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return models.ErrConflictWithMsg(
			fmt.Sprintf("campaign %d is sending and cannot be deleted", id),
		)
	}

	return nil
}

func (r *campaignRepository) queryCampaigns(ctx context.Context, query string, args ...interface{}) ([]*models.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*models.Campaign{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaigns: %w", err)
	}

	return campaigns, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	campaign := &models.Campaign{}
	var filterJSON []byte

	err := row.Scan(
		&campaign.ID,
		&campaign.Name,
		&campaign.Description,
		&campaign.Template,
		&campaign.InstanceName,
		&filterJSON,
		&campaign.SendDelaySeconds,
		&campaign.TotalRecipients,
		&campaign.Sent,
		&campaign.Successes,
		&campaign.Failures,
		&campaign.Status,
		&campaign.ScheduledFor,
		&campaign.StartedAt,
		&campaign.CompletedAt,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(filterJSON) > 0 {
		if err := json.Unmarshal(filterJSON, &campaign.Filter); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recipient filter: %w", err)
		}
	}

	return campaign, nil
}
