// Package escalation implements the scheduled escalation sweep: tickets
// nobody has touched within a queue's configured number of working days move
// one priority step toward critical until someone responds.
package escalation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/history"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/notifications"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/template"
)

// Escalator sweeps the queues that have escalation configured and raises the
// priority of overdue tickets, leaving an audit trail on each.
type Escalator struct {
	tickets    repository.ITicketRepository
	queues     repository.IQueueRepository
	followUps  repository.IFollowUpRepository
	exclusions repository.IExclusionRepository
	fanout     *notifications.Fanout
	cfg        *config.Config
	now        func() time.Time
}

// NewEscalator creates an escalator over the given repositories.
func NewEscalator(
	tickets repository.ITicketRepository,
	queues repository.IQueueRepository,
	followUps repository.IFollowUpRepository,
	exclusions repository.IExclusionRepository,
	fanout *notifications.Fanout,
	cfg *config.Config,
) *Escalator {
	return &Escalator{
		tickets:    tickets,
		queues:     queues,
		followUps:  followUps,
		exclusions: exclusions,
		fanout:     fanout,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Run sweeps every queue whose escalate days are set, restricted to the named
// queue slugs when any are given. Returns the ids of the escalated tickets.
// Per-queue and per-ticket failures are logged and skipped so one bad row
// cannot stall the sweep; only a failure to load the queue or exclusion
// lists aborts it.
func (e *Escalator) Run(ctx context.Context, queueSlugs []string) ([]uint, error) {
	queues, err := e.queues.List()
	if err != nil {
		return nil, fmt.Errorf("failed to load queues: %w", err)
	}
	exclusions, err := e.exclusions.List()
	if err != nil {
		return nil, fmt.Errorf("failed to load escalation exclusions: %w", err)
	}

	var only map[string]bool
	if len(queueSlugs) > 0 {
		only = make(map[string]bool, len(queueSlugs))
		for _, slug := range queueSlugs {
			only[slug] = true
		}
	}

	now := e.now()
	var escalated []uint
	for _, queue := range queues {
		if queue.EscalateDays <= 0 {
			continue
		}
		if only != nil && !only[queue.Slug] {
			continue
		}

		cutoff := workingCutoff(now, queue.EscalateDays, exclusions)
		tickets, err := e.tickets.ListOpenByQueue(queue.ID)
		if err != nil {
			log.Printf("escalation: list tickets for queue %s: %v", queue.Slug, err)
			continue
		}
		for _, ticket := range tickets {
			if !due(ticket, cutoff) {
				continue
			}
			if err := e.escalate(ctx, ticket, queue, now); err != nil {
				log.Printf("escalation: ticket %d: %v", ticket.ID, err)
				continue
			}
			escalated = append(escalated, ticket.ID)
		}
	}
	return escalated, nil
}

// due reports whether a ticket qualifies for escalation: not on hold, not
// already at the top priority, and neither escalated nor created since the
// cutoff.
func due(ticket *models.Ticket, cutoff time.Time) bool {
	if ticket.OnHold {
		return false
	}
	if ticket.Priority <= models.PriorityCritical {
		return false
	}
	reference := ticket.Created
	if ticket.LastEscalation != nil {
		reference = *ticket.LastEscalation
	}
	return !reference.After(cutoff)
}

// escalate raises the ticket one priority step, stamps the escalation, and
// records the follow-up and change row before notifying the ticket's
// audiences.
func (e *Escalator) escalate(ctx context.Context, ticket *models.Ticket, queue *models.Queue, now time.Time) error {
	oldLabel := models.PriorityLabel(ticket.Priority)
	ticket.Priority--
	stamp := now
	ticket.LastEscalation = &stamp
	ticket.Modified = now
	if err := e.tickets.Update(ticket); err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}

	followUp := &models.FollowUp{
		TicketID: ticket.ID,
		Date:     now,
		Title:    models.NullableString(history.TitleEscalated),
		Comment:  models.NullableString(fmt.Sprintf("Ticket escalated after %d working days", queue.EscalateDays)),
		Public:   true,
	}
	if err := e.followUps.Create(followUp); err != nil {
		return fmt.Errorf("failed to create follow-up: %w", err)
	}
	var changes history.ChangeSet
	changes.Add(history.FieldPriority, oldLabel, models.PriorityLabel(ticket.Priority))
	if err := e.followUps.AddChanges(followUp.ID, changes.Changes()); err != nil {
		return fmt.Errorf("failed to record changes: %w", err)
	}

	tctx := template.SafeContext(ticket, queue, e.cfg.Email.DefaultFrom)
	e.fanout.DispatchEscalated(ctx, ticket, queue, tctx)
	return nil
}

// workingCutoff walks back from now until days working days have passed.
// Dates on the exclusion calendar do not count as working days; the walk
// gives up after a calendar year of excluded dates.
func workingCutoff(now time.Time, days int, exclusions []*models.EscalationExclusion) time.Time {
	cutoff := now
	remaining := days
	for guard := days + 366; remaining > 0 && guard > 0; guard-- {
		cutoff = cutoff.AddDate(0, 0, -1)
		if !excludedDay(cutoff, exclusions) {
			remaining--
		}
	}
	return cutoff
}

func excludedDay(day time.Time, exclusions []*models.EscalationExclusion) bool {
	for _, exclusion := range exclusions {
		if exclusion.SameDay(day) {
			return true
		}
	}
	return false
}
