package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gestorzap/campaign-engine/internal/models"
)

// DeliveryRepository defines the interface for delivery record data access
type DeliveryRepository interface {
	CreateBatch(ctx context.Context, records []*models.DeliveryRecord) error
	GetByID(ctx context.Context, id int64) (*models.DeliveryRecord, error)
	List(ctx context.Context, filter models.DeliveryFilter) ([]*models.DeliveryRecord, int64, error)

	// ListPending returns up to limit pending records for the campaign in
	// ascending id order, guaranteeing eventual coverage of every record.
	ListPending(ctx context.Context, campaignID int64, limit int) ([]*models.DeliveryRecord, error)

	CountPending(ctx context.Context, campaignID int64) (int64, error)

	// RecordOutcome applies one send outcome: the delivery row and the
	// owning campaign's counters are updated in a single transaction, so
	// a crash mid-batch leaves counters consistent with whichever records
	// were actually updated.
	RecordOutcome(ctx context.Context, outcome *models.DeliveryOutcome) error

	// AdvanceReceipt moves a record forward along enviado -> entregue ->
	// lido based on a gateway delivery receipt. Backward moves are
	// ignored; returns whether a row was advanced.
	AdvanceReceipt(ctx context.Context, gatewayMessageID, status string, at time.Time) (bool, error)
}

const deliveryColumns = `id, campaign_id, client_id, phone, status, rendered_content,
		tentativas, erro_mensagem, gateway_message_id,
		enviado_em, entregue_em, lido_em, created_at, updated_at`

// deliveryRepository implements DeliveryRepository using PostgreSQL
type deliveryRepository struct {
	db *sql.DB
}

// NewDeliveryRepository creates a new delivery repository
func NewDeliveryRepository(db *sql.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

// CreateBatch inserts the delivery rows seeded at campaign creation in a
// single transaction.
func (r *deliveryRepository) CreateBatch(ctx context.Context, records []*models.DeliveryRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO delivery_records (campaign_id, client_id, phone, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		err := stmt.QueryRowContext(
			ctx,
			record.CampaignID,
			record.ClientID,
			record.Phone,
			record.Status,
		).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)

		if err != nil {
			return fmt.Errorf("failed to insert delivery record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a delivery record by ID
func (r *deliveryRepository) GetByID(ctx context.Context, id int64) (*models.DeliveryRecord, error) {
	query := `SELECT ` + deliveryColumns + ` FROM delivery_records WHERE id = $1`

	record, err := scanDelivery(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("delivery record with ID %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery record: %w", err)
	}

	return record, nil
}

// List retrieves delivery records with pagination and filtering
func (r *deliveryRepository) List(ctx context.Context, filter models.DeliveryFilter) ([]*models.DeliveryRecord, int64, error) {
	models.ClampPage(&filter.Page, &filter.PageSize)

	query := `SELECT ` + deliveryColumns + ` FROM delivery_records WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM delivery_records WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if filter.CampaignID > 0 {
		query += fmt.Sprintf(" AND campaign_id = $%d", argPos)
		countQuery += fmt.Sprintf(" AND campaign_id = $%d", argPos)
		args = append(args, filter.CampaignID)
		argPos++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		countQuery += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, filter.Status)
		argPos++
	}

	var totalCount int64
	err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count delivery records: %w", err)
	}

	offset := models.PageOffset(filter.Page, filter.PageSize)
	query += fmt.Sprintf(" ORDER BY id ASC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filter.PageSize, offset)

	records, err := r.queryDeliveries(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return records, totalCount, nil
}

// ListPending retrieves the next batch of pending records
func (r *deliveryRepository) ListPending(ctx context.Context, campaignID int64, limit int) ([]*models.DeliveryRecord, error) {
	query := `SELECT ` + deliveryColumns + ` FROM delivery_records
		WHERE campaign_id = $1 AND status = $2
		ORDER BY id ASC
		LIMIT $3`

	return r.queryDeliveries(ctx, query, campaignID, models.DeliveryStatusPending, limit)
}

// CountPending counts the pending records of a campaign
func (r *deliveryRepository) CountPending(ctx context.Context, campaignID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM delivery_records
		WHERE campaign_id = $1 AND status = $2`,
		campaignID, models.DeliveryStatusPending,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending records: %w", err)
	}
	return count, nil
}

// RecordOutcome applies one send outcome atomically
func (r *deliveryRepository) RecordOutcome(ctx context.Context, outcome *models.DeliveryOutcome) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var result sql.Result
	if outcome.Success {
		result, err = tx.ExecContext(ctx, `
			UPDATE delivery_records
			SET status = $1, rendered_content = $2, gateway_message_id = $3,
			    enviado_em = $4, tentativas = tentativas + 1,
			    erro_mensagem = NULL, updated_at = now()
			WHERE id = $5 AND status = $6`,
			models.DeliveryStatusSent,
			outcome.RenderedContent,
			outcome.GatewayMessageID,
			outcome.SentAt,
			outcome.DeliveryID,
			models.DeliveryStatusPending,
		)
	} else {
		result, err = tx.ExecContext(ctx, `
			UPDATE delivery_records
			SET status = $1, rendered_content = $2, erro_mensagem = $3,
			    tentativas = tentativas + 1, updated_at = now()
			WHERE id = $4 AND status = $5`,
			models.DeliveryStatusError,
			outcome.RenderedContent,
			outcome.ErrorDetail,
			outcome.DeliveryID,
			models.DeliveryStatusPending,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to update delivery record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// The record was already resolved by another pass; do not touch
		// the counters.
		return models.ErrConflictWithMsg(
			fmt.Sprintf("delivery record %d is no longer pending", outcome.DeliveryID),
		)
	}

	counterQuery := `
		UPDATE campaigns
		SET sent = sent + 1, successes = successes + 1, updated_at = now()
		WHERE id = $1`
	if !outcome.Success {
		counterQuery = `
		UPDATE campaigns
		SET sent = sent + 1, failures = failures + 1, updated_at = now()
		WHERE id = $1`
	}

	if _, err := tx.ExecContext(ctx, counterQuery, outcome.CampaignID); err != nil {
		return fmt.Errorf("failed to update campaign counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// AdvanceReceipt applies a gateway delivery receipt
func (r *deliveryRepository) AdvanceReceipt(ctx context.Context, gatewayMessageID, status string, at time.Time) (bool, error) {
	var query string
	switch status {
	case models.DeliveryStatusDelivered:
		query = `
			UPDATE delivery_records
			SET status = 'entregue', entregue_em = $2, updated_at = now()
			WHERE gateway_message_id = $1 AND status = 'enviado'`
	case models.DeliveryStatusRead:
		query = `
			UPDATE delivery_records
			SET status = 'lido', lido_em = $2,
			    entregue_em = COALESCE(entregue_em, $2), updated_at = now()
			WHERE gateway_message_id = $1 AND status IN ('enviado', 'entregue')`
	default:
		return false, models.ErrInvalidInput(fmt.Sprintf("invalid receipt status: %s", status))
	}

	result, err := r.db.ExecContext(ctx, query, gatewayMessageID, at)
	if err != nil {
		return false, fmt.Errorf("failed to advance delivery receipt: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *deliveryRepository) queryDeliveries(ctx context.Context, query string, args ...interface{}) ([]*models.DeliveryRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery records: %w", err)
	}
	defer rows.Close()

	records := []*models.DeliveryRecord{}
	for rows.Next() {
		record, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery record: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating delivery records: %w", err)
	}

	return records, nil
}

func scanDelivery(row rowScanner) (*models.DeliveryRecord, error) {
	record := &models.DeliveryRecord{}
	var content sql.NullString

	err := row.Scan(
		&record.ID,
		&record.CampaignID,
		&record.ClientID,
		&record.Phone,
		&record.Status,
		&content,
		&record.Attempts,
		&record.LastError,
		&record.GatewayMessageID,
		&record.SentAt,
		&record.DeliveredAt,
		&record.ReadAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.RenderedContent = content.String
	return record, nil
}
