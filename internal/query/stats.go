package query

import (
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// OpenAgeBucket counts still-open tickets of a given age band. Level is a
// display hint: success, warning, or danger.
type OpenAgeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
	Level string `json:"level"`
}

// BasicStats summarizes a ticket set for the dashboard.
type BasicStats struct {
	AverageDaysToClose       float64         `json:"average_days_to_close"`
	AverageDaysToCloseLast60 float64         `json:"average_days_to_close_last_60"`
	OpenBuckets              []OpenAgeBucket `json:"open_buckets"`
}

// AverageDaysToClose returns the mean whole days between creation and last
// modification across the tickets. An empty set yields zero.
func AverageDaysToClose(tickets []*models.Ticket) float64 {
	if len(tickets) == 0 {
		return 0
	}
	total := 0
	for _, t := range tickets {
		total += wholeDays(t.Modified.Sub(t.Created))
	}
	return float64(total) / float64(len(tickets))
}

// BasicTicketStats buckets the still-open tickets by age (under 30 days,
// 30 to 60, over 60) and computes the closed-ticket means, overall and for
// tickets opened in the last 60 days.
func BasicTicketStats(tickets []*models.Ticket, now time.Time) BasicStats {
	var under30, between, over60 int
	var closed, closedLast60 []*models.Ticket
	cutoff60 := now.AddDate(0, 0, -60)

	for _, t := range tickets {
		if t.Status == models.StatusClosed {
			closed = append(closed, t)
			if !t.Created.Before(cutoff60) {
				closedLast60 = append(closedLast60, t)
			}
			continue
		}
		if t.IsClosed() {
			continue
		}
		switch age := wholeDays(now.Sub(t.Created)); {
		case age < 30:
			under30++
		case age <= 60:
			between++
		default:
			over60++
		}
	}

	return BasicStats{
		AverageDaysToClose:       AverageDaysToClose(closed),
		AverageDaysToCloseLast60: AverageDaysToClose(closedLast60),
		OpenBuckets: []OpenAgeBucket{
			{Label: "Tickets < 30 days", Count: under30, Level: "success"},
			{Label: "Tickets 30 - 60 days", Count: between, Level: level(between, "warning")},
			{Label: "Tickets > 60 days", Count: over60, Level: level(over60, "danger")},
		},
	}
}

func level(count int, nonzero string) string {
	if count == 0 {
		return "success"
	}
	return nonzero
}
