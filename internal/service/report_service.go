package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/access"
	"github.com/helpdesk-io/helpdesk-ce/internal/cache"
	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/query"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
)

// ReportService builds report pivots and dashboard statistics over the
// tickets the caller can access. Results are cached; every ticket mutation
// invalidates them.
type ReportService struct {
	tickets repository.ITicketRepository
	queues  repository.IQueueRepository
	users   repository.IUserRepository
	engine  *query.Engine
	cache   cache.Store
	checker *access.Checker
	now     func() time.Time
}

// NewReportService creates a new report service.
func NewReportService(
	tickets repository.ITicketRepository,
	queues repository.IQueueRepository,
	users repository.IUserRepository,
	customFields repository.ICustomFieldRepository,
	lookups repository.ILookupRepository,
	cacheStore cache.Store,
	cfg *config.Config,
) *ReportService {
	return &ReportService{
		tickets: tickets,
		queues:  queues,
		users:   users,
		engine:  query.NewEngine(customFields, lookups, cfg.Helpdesk.KeywordSearchCaseSensitive),
		cache:   cacheStore,
		checker: access.NewChecker(cfg.Helpdesk.PerQueuePermissions),
		now:     time.Now,
	}
}

// Report builds the named pivot over the tickets matching the encoded
// query. The cache is keyed on (report, query); a hit skips the whole
// aggregation.
func (s *ReportService) Report(ctx context.Context, id *access.Identity, report, encodedQuery string) (*query.Pivot, error) {
	if actingUser(id) == nil {
		return nil, fmt.Errorf("reports are a staff feature: %w", ErrPermission)
	}

	key := cache.ReportKey(report, encodedQuery)
	if s.cache != nil {
		var cached query.Pivot
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("reports: cache get %s: %v", key, err)
		} else if found {
			return &cached, nil
		}
	}

	spec, err := query.Decode(encodedQuery)
	if err != nil {
		log.Printf("reports: %v", err)
	}
	visible, accessible, err := accessibleTicketSet(s.tickets, s.queues, s.checker, id)
	if err != nil {
		return nil, err
	}
	matched, err := s.engine.Apply(spec, visible)
	if err != nil {
		var specErr *query.SpecError
		if errors.As(err, &specErr) {
			return nil, fmt.Errorf("%v: %w", specErr, ErrValidation)
		}
		return nil, fmt.Errorf("failed to apply query: %w", err)
	}

	pivot, err := query.BuildReport(report, matched, accessible, s.assignees(matched))
	if err != nil {
		if errors.Is(err, query.ErrUnknownReport) || errors.Is(err, query.ErrNoTickets) {
			return nil, fmt.Errorf("%v: %w", err, ErrValidation)
		}
		return nil, fmt.Errorf("failed to build report: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, pivot, 0); err != nil {
			log.Printf("reports: cache set %s: %v", key, err)
		}
	}
	return pivot, nil
}

// Stats returns the dashboard statistics: open-ticket age buckets and the
// days-to-close averages, over the caller's accessible queues.
func (s *ReportService) Stats(ctx context.Context, id *access.Identity) (*query.BasicStats, error) {
	if actingUser(id) == nil {
		return nil, fmt.Errorf("statistics are a staff feature: %w", ErrPermission)
	}

	if s.cache != nil {
		var cached query.BasicStats
		found, err := s.cache.Get(ctx, cache.StatsKey(), &cached)
		if err != nil {
			log.Printf("reports: cache get stats: %v", err)
		} else if found {
			return &cached, nil
		}
	}

	visible, _, err := accessibleTicketSet(s.tickets, s.queues, s.checker, id)
	if err != nil {
		return nil, err
	}
	stats := query.BasicTicketStats(visible, s.now())

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.StatsKey(), stats, 0); err != nil {
			log.Printf("reports: cache set stats: %v", err)
		}
	}
	return &stats, nil
}

// assignees loads the distinct assigned users of the ticket set, so report
// rows carry display names instead of raw ids.
func (s *ReportService) assignees(tickets []*models.Ticket) []*models.User {
	seen := make(map[uint]bool)
	var users []*models.User
	for _, t := range tickets {
		if t.AssignedToID == nil || seen[*t.AssignedToID] {
			continue
		}
		seen[*t.AssignedToID] = true
		user, err := s.users.GetByID(*t.AssignedToID)
		if err != nil || user == nil {
			continue
		}
		users = append(users, user)
	}
	return users
}
