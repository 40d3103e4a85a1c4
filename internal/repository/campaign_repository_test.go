package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/gestorzap/campaign-engine/internal/models"
)

func TestCampaignRepository_TransitionStatus(t *testing.T) {
	tests := []struct {
		name string
		to   string
		from []string
		rows int64
		want bool
	}{
		{
			name: "sending to paused applies",
			to:   models.CampaignStatusPaused,
			from: []string{models.CampaignStatusSending},
			rows: 1,
			want: true,
		},
		{
			name: "stale source state does not apply",
			to:   models.CampaignStatusPaused,
			from: []string{models.CampaignStatusSending},
			rows: 0,
			want: false,
		},
		{
			name: "cancel from sending or paused",
			to:   models.CampaignStatusCancelled,
			from: []string{models.CampaignStatusSending, models.CampaignStatusPaused},
			rows: 1,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to open sqlmock: %v", err)
			}
			defer db.Close()

			mock.ExpectExec("UPDATE campaigns").
				WithArgs(tt.to, int64(7), pq.Array(tt.from)).
				WillReturnResult(sqlmock.NewResult(0, tt.rows))

			repo := NewCampaignRepository(db)
			got, err := repo.TransitionStatus(context.Background(), 7, tt.to, tt.from...)
			if err != nil {
				t.Fatalf("TransitionStatus() error = %v, want nil", err)
			}
			if got != tt.want {
				t.Errorf("TransitionStatus() = %v, want %v", got, tt.want)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestCampaignRepository_TransitionStatus_InvalidTarget(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewCampaignRepository(db)
	_, err = repo.TransitionStatus(context.Background(), 7, "exploded", models.CampaignStatusSending)
	if err == nil {
		t.Fatal("TransitionStatus() error = nil, want validation error")
	}
}

func TestCampaignRepository_Start(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(7), models.DeliveryStatusSent).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectExec("UPDATE campaigns").
		WithArgs(models.CampaignStatusSending, int64(7), pq.Array(models.StartableStatuses())).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE delivery_records").
		WithArgs(models.DeliveryStatusPending, int64(7), models.DeliveryStatusSent).
		WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectCommit()

	repo := NewCampaignRepository(db)
	pending, err := repo.Start(context.Background(), 7)
	if err != nil {
		t.Fatalf("Start() error = %v, want nil", err)
	}
	if pending != 12 {
		t.Errorf("Start() pending = %d, want 12", pending)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCampaignRepository_Start_NothingToSend(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	repo := NewCampaignRepository(db)
	_, err = repo.Start(context.Background(), 7)

	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != "EMPTY_CAMPAIGN" {
		t.Fatalf("Start() error = %v, want EMPTY_CAMPAIGN", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCampaignRepository_Start_IllegalSourceStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectExec("UPDATE campaigns").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := NewCampaignRepository(db)
	_, err = repo.Start(context.Background(), 7)
	if !errors.Is(err, models.ErrPrecondition) {
		t.Fatalf("Start() error = %v, want precondition failure", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCampaignRepository_Delete_RefusedWhileSending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("DELETE FROM campaigns").
		WithArgs(int64(7), models.CampaignStatusSending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// The follow-up read finds the campaign, so the zero-row delete means
	// it is mid-send rather than missing.
	rows := sqlmock.NewRows([]string{
		"id", "name", "description", "template", "instance_name", "filter",
		"send_delay_seconds", "total_recipients", "sent", "successes", "failures",
		"status", "scheduled_for", "started_at", "completed_at", "created_at", "updated_at",
	}).AddRow(
		7, "Campanha", "", "Olá {nome}", "instancia-1", []byte(`{}`),
		30, 10, 3, 3, 0,
		models.CampaignStatusSending, nil, nil, nil, time.Now(), time.Now(),
	)
	mock.ExpectQuery("SELECT (.+) FROM campaigns").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	repo := NewCampaignRepository(db)
	err = repo.Delete(context.Background(), 7)
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("Delete() error = %v, want conflict", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
