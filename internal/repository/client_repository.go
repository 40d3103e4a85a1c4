package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gestorzap/campaign-engine/internal/models"
)

// ClientRepository is the read-only view of the recipient directory the
// campaign engine consumes. Client CRUD lives in the admin panel, outside
// this service.
type ClientRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Client, error)

	// ListByFilter returns the clients matching every clause of the
	// filter, in ascending id order, evaluated against the directory at
	// call time.
	ListByFilter(ctx context.Context, filter models.RecipientFilter) ([]*models.Client, error)

	PlanExists(ctx context.Context, plan string) (bool, error)
}

const clientColumns = `id, name, phone, plan, amount, due_date, status`

// clientRepository implements ClientRepository using PostgreSQL
type clientRepository struct {
	db *sql.DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *sql.DB) ClientRepository {
	return &clientRepository{db: db}
}

// GetByID retrieves a client by ID
func (r *clientRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	client := &models.Client{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&client.ID,
		&client.Name,
		&client.Phone,
		&client.Plan,
		&client.Amount,
		&client.DueDate,
		&client.Status,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("client with ID %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	return client, nil
}

// ListByFilter retrieves clients matching the recipient filter
func (r *clientRepository) ListByFilter(ctx context.Context, filter models.RecipientFilter) ([]*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, filter.Status)
		argPos++
	}

	if filter.Plan != "" {
		query += fmt.Sprintf(" AND plan = $%d", argPos)
		args = append(args, filter.Plan)
		argPos++
	}

	if filter.Overdue {
		query += " AND due_date IS NOT NULL AND due_date < CURRENT_DATE"
	}

	if filter.DueInDays > 0 {
		query += fmt.Sprintf(
			" AND due_date IS NOT NULL AND due_date >= CURRENT_DATE AND due_date < CURRENT_DATE + $%d * INTERVAL '1 day'",
			argPos,
		)
		args = append(args, filter.DueInDays)
		argPos++
	}

	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := []*models.Client{}
	for rows.Next() {
		client := &models.Client{}
		err := rows.Scan(
			&client.ID,
			&client.Name,
			&client.Phone,
			&client.Plan,
			&client.Amount,
			&client.DueDate,
			&client.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}

	return clients, nil
}

// PlanExists checks whether a plan name exists in the directory
func (r *clientRepository) PlanExists(ctx context.Context, plan string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM plans WHERE name = $1)`, plan,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check plan: %w", err)
	}
	return exists, nil
}
