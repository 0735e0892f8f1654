// Package lifecycle governs ticket status transitions, timestamp
// bookkeeping, and merge-override propagation.
package lifecycle

import (
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// Effects reports which timestamps a status transition touched.
type Effects struct {
	ResolvedSet     bool
	ResolvedCleared bool
	ClosedSet       bool
	ClosedCleared   bool
}

// Changed reports whether the transition touched any timestamp.
func (e Effects) Changed() bool {
	return e.ResolvedSet || e.ResolvedCleared || e.ClosedSet || e.ClosedCleared
}

// Transition applies a status change to the ticket and returns the timestamp
// effects. Entering Resolved stamps resolved and clears closed; entering
// Closed or Duplicate stamps closed; returning to Open or Reopened clears
// both. A repeated status is a no-op.
func Transition(ticket *models.Ticket, newStatus int, now time.Time) Effects {
	var effects Effects
	if newStatus == ticket.Status {
		return effects
	}

	ticket.Status = newStatus
	return normalizeTimestamps(ticket, now)
}

// PrepareSave applies the store-level bookkeeping every save performs:
// created on first save, modified always, the priority default, and the
// idempotent status/timestamp normalization.
func PrepareSave(ticket *models.Ticket, now time.Time) {
	if ticket.Created.IsZero() {
		ticket.Created = now
	}
	ticket.Modified = now
	if ticket.Priority == 0 {
		ticket.Priority = models.PriorityNormal
	}
	normalizeTimestamps(ticket, now)
}

func normalizeTimestamps(ticket *models.Ticket, now time.Time) Effects {
	var effects Effects
	switch ticket.Status {
	case models.StatusResolved:
		if ticket.Resolved == nil {
			ticket.Resolved = &now
			effects.ResolvedSet = true
			if ticket.Closed != nil {
				ticket.Closed = nil
				effects.ClosedCleared = true
			}
		}
	case models.StatusClosed, models.StatusDuplicate:
		if ticket.Closed == nil {
			ticket.Closed = &now
			effects.ClosedSet = true
		}
	case models.StatusOpen, models.StatusReopened:
		if ticket.Closed != nil {
			ticket.Closed = nil
			effects.ClosedCleared = true
		}
		if ticket.Resolved != nil {
			ticket.Resolved = nil
			effects.ResolvedCleared = true
		}
	}
	return effects
}

// MergeOverrideFields lists the classification fields a merge target owns.
var MergeOverrideFields = []string{
	"Owner", "Category", "Type", "Billing", "Customer", "Site", "Product",
}

// ApplyMergeOverride copies the merge target's classification fields onto a
// merged ticket. The target is authoritative; the copy is unconditional and
// idempotent.
func ApplyMergeOverride(target, merged *models.Ticket) {
	merged.AssignedToID = target.AssignedToID
	merged.CategoryID = target.CategoryID
	merged.TypeID = target.TypeID
	merged.Billing = target.Billing
	merged.CustomerID = target.CustomerID
	merged.SiteID = target.SiteID
	merged.CustomerProductID = target.CustomerProductID
}

// CanBeResolved reports whether the ticket may enter Resolved: no ticket it
// depends on is still Open or Reopened.
func CanBeResolved(dependsOn []*models.Ticket) bool {
	for _, dep := range dependsOn {
		if dep == nil {
			continue
		}
		if dep.Status == models.StatusOpen || dep.Status == models.StatusReopened {
			return false
		}
	}
	return true
}
