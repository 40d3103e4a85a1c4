package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/gestorzap/campaign-engine/internal/models"
)

// Mock client repository for testing
type mockClientRepo struct {
	clients    []*models.Client
	plans      map[string]bool
	listErr    error
	lastFilter models.RecipientFilter
}

func (m *mockClientRepo) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	for _, client := range m.clients {
		if client.ID == id {
			return client, nil
		}
	}
	return nil, models.ErrNotFoundWithMsg("client not found")
}

// ListByFilter applies the filter clauses in memory, mirroring the SQL
// composition of the real repository.
func (m *mockClientRepo) ListByFilter(ctx context.Context, filter models.RecipientFilter) ([]*models.Client, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.lastFilter = filter

	today := time.Now().Truncate(24 * time.Hour)
	var out []*models.Client
	for _, client := range m.clients {
		if filter.Status != "" && client.Status != filter.Status {
			continue
		}
		if filter.Plan != "" && client.Plan != filter.Plan {
			continue
		}
		if filter.Overdue && (client.DueDate == nil || !client.DueDate.Before(today)) {
			continue
		}
		if filter.DueInDays > 0 {
			limit := today.AddDate(0, 0, filter.DueInDays)
			if client.DueDate == nil || client.DueDate.Before(today) || !client.DueDate.Before(limit) {
				continue
			}
		}
		out = append(out, client)
	}
	return out, nil
}

func (m *mockClientRepo) PlanExists(ctx context.Context, plan string) (bool, error) {
	return m.plans[plan], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func TestResolverService_Resolve_ActiveOverdue(t *testing.T) {
	overdue := time.Now().AddDate(0, 0, -5)
	ahead := time.Now().AddDate(0, 0, 10)

	// Two active-overdue clients, one active but not overdue.
	repo := &mockClientRepo{
		clients: []*models.Client{
			{ID: 1, Name: "Maria", Phone: "5511999990001", Status: models.ClientStatusActive, DueDate: &overdue},
			{ID: 2, Name: "João", Phone: "5511999990002", Status: models.ClientStatusActive, DueDate: &ahead},
			{ID: 3, Name: "Ana", Phone: "5511999990003", Status: models.ClientStatusActive, DueDate: &overdue},
		},
	}

	svc := NewResolverService(repo, testLogger())

	filter := models.RecipientFilter{Status: models.ClientStatusActive, Overdue: true}
	resolved, err := svc.Resolve(context.Background(), filter)
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil", err)
	}

	if len(resolved) != 2 {
		t.Fatalf("Resolve() returned %d clients, want 2", len(resolved))
	}
	if resolved[0].ID != 1 || resolved[1].ID != 3 {
		t.Errorf("resolved IDs = %d, %d, want 1, 3", resolved[0].ID, resolved[1].ID)
	}

	// Filter clauses must reach the repository untouched.
	if repo.lastFilter != filter {
		t.Errorf("repository saw filter %+v, want %+v", repo.lastFilter, filter)
	}
}

func TestResolverService_Resolve_SkipsClientsWithoutPhone(t *testing.T) {
	repo := &mockClientRepo{
		clients: []*models.Client{
			{ID: 1, Name: "Maria", Phone: "5511999990001", Status: models.ClientStatusActive},
			{ID: 2, Name: "Sem Telefone", Phone: "", Status: models.ClientStatusActive},
			{ID: 3, Name: "Ana", Phone: "5511999990003", Status: models.ClientStatusActive},
		},
	}

	svc := NewResolverService(repo, testLogger())

	resolved, err := svc.Resolve(context.Background(), models.RecipientFilter{})
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil", err)
	}

	if len(resolved) != 2 {
		t.Fatalf("Resolve() returned %d clients, want 2", len(resolved))
	}
	if resolved[0].ID != 1 || resolved[1].ID != 3 {
		t.Errorf("resolved IDs = %d, %d, want 1, 3", resolved[0].ID, resolved[1].ID)
	}
}

func TestResolverService_Resolve_DeduplicatesByID(t *testing.T) {
	duplicate := &models.Client{ID: 1, Name: "Maria", Phone: "5511999990001"}
	repo := &mockClientRepo{
		clients: []*models.Client{
			duplicate,
			{ID: 2, Name: "João", Phone: "5511999990002"},
			duplicate,
		},
	}

	svc := NewResolverService(repo, testLogger())

	resolved, err := svc.Resolve(context.Background(), models.RecipientFilter{})
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil", err)
	}

	if len(resolved) != 2 {
		t.Errorf("Resolve() returned %d clients, want 2", len(resolved))
	}
}

func TestResolverService_Resolve_UnknownPlan(t *testing.T) {
	repo := &mockClientRepo{
		plans: map[string]bool{"Premium": true},
	}

	svc := NewResolverService(repo, testLogger())

	_, err := svc.Resolve(context.Background(), models.RecipientFilter{Plan: "Inexistente"})
	if err == nil {
		t.Fatal("Resolve() error = nil, want validation error")
	}

	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != "INVALID_INPUT" {
		t.Errorf("Resolve() error = %v, want INVALID_INPUT", err)
	}
}

func TestResolverService_Resolve_NegativeDueInDays(t *testing.T) {
	svc := NewResolverService(&mockClientRepo{}, testLogger())

	_, err := svc.Resolve(context.Background(), models.RecipientFilter{DueInDays: -1})
	if err == nil {
		t.Fatal("Resolve() error = nil, want validation error")
	}
}

func TestResolverService_Resolve_RepositoryError(t *testing.T) {
	repo := &mockClientRepo{listErr: errors.New("connection refused")}

	svc := NewResolverService(repo, testLogger())

	_, err := svc.Resolve(context.Background(), models.RecipientFilter{})
	if err == nil {
		t.Fatal("Resolve() error = nil, want error")
	}
}
