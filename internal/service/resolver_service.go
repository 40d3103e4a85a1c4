package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gestorzap/campaign-engine/internal/models"
	"github.com/gestorzap/campaign-engine/internal/repository"
)

// ResolverService turns a declarative recipient filter into the concrete
// list of clients a campaign will target. It is called exactly once, at
// campaign creation; a changed directory does not retroactively alter an
// existing campaign's recipients.
type ResolverService interface {
	Resolve(ctx context.Context, filter models.RecipientFilter) ([]*models.Client, error)
}

type resolverService struct {
	clientRepo repository.ClientRepository
	logger     *slog.Logger
}

// NewResolverService creates a new recipient resolver
func NewResolverService(clientRepo repository.ClientRepository, logger *slog.Logger) ResolverService {
	return &resolverService{
		clientRepo: clientRepo,
		logger:     logger,
	}
}

// Resolve returns the ordered, deduplicated clients matching every filter
// clause. A filter referencing a non-existent plan fails validation
// before anything is persisted.
func (s *resolverService) Resolve(ctx context.Context, filter models.RecipientFilter) ([]*models.Client, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	if filter.IsZero() {
		s.logger.Debug("empty recipient filter, targeting the whole directory")
	}

	if filter.Plan != "" {
		exists, err := s.clientRepo.PlanExists(ctx, filter.Plan)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve recipients: %w", err)
		}
		if !exists {
			return nil, models.ErrInvalidInput(fmt.Sprintf("plan %q does not exist", filter.Plan))
		}
	}

	clients, err := s.clientRepo.ListByFilter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipients: %w", err)
	}

	seen := make(map[int64]bool, len(clients))
	resolved := make([]*models.Client, 0, len(clients))
	for _, client := range clients {
		if seen[client.ID] {
			continue
		}
		seen[client.ID] = true

		if client.Phone == "" {
			s.logger.Warn("client has no phone, skipping",
				slog.Int64("client_id", client.ID),
			)
			continue
		}

		resolved = append(resolved, client)
	}

	return resolved, nil
}
