package query

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// Report identifiers, one per dimension pairing.
const (
	ReportUserPriority       = "userpriority"
	ReportUserQueue          = "userqueue"
	ReportUserStatus         = "userstatus"
	ReportUserMonth          = "usermonth"
	ReportQueuePriority      = "queuepriority"
	ReportQueueStatus        = "queuestatus"
	ReportQueueMonth         = "queuemonth"
	ReportDaysToCloseByMonth = "daysuntilticketclosedbymonth"
)

var (
	// ErrUnknownReport marks a report name outside the fixed set.
	ErrUnknownReport = errors.New("unknown report")
	// ErrNoTickets marks a report request over an empty ticket set.
	ErrNoTickets = errors.New("no tickets to report on")
)

// Pivot is a dense report table. Columns follow the canonical option
// ordering of the column dimension; rows are the sorted distinct row keys
// observed in the ticket set. Cells are counts, or mean days for the
// days-to-close report.
type Pivot struct {
	Report     string     `json:"report"`
	Title      string     `json:"title"`
	RowHeading string     `json:"row_heading"`
	ChartType  string     `json:"chart_type"`
	Columns    []string   `json:"columns"`
	Rows       []PivotRow `json:"rows"`
}

// PivotRow is one row of a report table.
type PivotRow struct {
	Label string    `json:"label"`
	Cells []float64 `json:"cells"`
}

// BuildReport aggregates the ticket set into the named report's pivot.
// queues supply the queue column ordering and row labels; users resolve
// assignee labels. Both may be partial; unresolvable links degrade to a
// numeric label rather than failing the report.
func BuildReport(report string, tickets []*models.Ticket, queues []*models.Queue, users []*models.User) (*Pivot, error) {
	if len(tickets) == 0 {
		return nil, ErrNoTickets
	}

	queueTitles := make(map[uint]string, len(queues))
	queueOrder := make([]string, 0, len(queues))
	for _, q := range queues {
		queueTitles[q.ID] = q.Title
		queueOrder = append(queueOrder, q.Title)
	}
	userNames := make(map[uint]string, len(users))
	for _, u := range users {
		userNames[u.ID] = u.DisplayName()
	}

	byUser := func(t *models.Ticket) string { return assigneeLabel(t, userNames) }
	byQueue := func(t *models.Ticket) string { return queueLabel(t, queueTitles) }
	byPriority := func(t *models.Ticket) string { return models.PriorityLabel(t.Priority) }
	byStatus := func(t *models.Ticket) string { return models.StatusLabel(t.Status) }
	byMonth := func(t *models.Ticket) string { return monthKey(t.Created.Year(), int(t.Created.Month())) }

	pivot := &Pivot{Report: report}
	var rowFn, colFn func(*models.Ticket) string

	switch report {
	case ReportUserPriority:
		pivot.Title, pivot.RowHeading, pivot.ChartType = "User by Priority", "User", "bar"
		pivot.Columns = priorityOptions()
		rowFn, colFn = byUser, byPriority
	case ReportUserQueue:
		pivot.Title, pivot.RowHeading, pivot.ChartType = "User by Queue", "User", "bar"
		pivot.Columns = queueOrder
		rowFn, colFn = byUser, byQueue
	case ReportUserStatus:
		pivot.Title, pivot.RowHeading, pivot.ChartType = "User by Status", "User", "bar"
		pivot.Columns = statusOptions()
		rowFn, colFn = byUser, byStatus
	case ReportUserMonth:
		pivot.Title, pivot.RowHeading, pivot.ChartType = "User by Month", "User", "date"
		pivot.Columns = monthSpan(tickets)
		rowFn, colFn = byUser, byMonth
	case ReportQueuePriority:
		pivot.Title, pivot.RowHeading, pivot.ChartType = "Queue by Priority", "Queue", "bar"
		pivot.Columns = priorityOptions()
		rowFn, colFn = byQueue, byPriority
	case ReportQueueStatus:
		pivot.Title, pivot.RowHeading, pivot.ChartType = "Queue by Status", "Queue", "bar"
		pivot.Columns = statusOptions()
		rowFn, colFn = byQueue, byStatus
	case ReportQueueMonth:
		pivot.Title, pivot.RowHeading, pivot.ChartType = "Queue by Month", "Queue", "date"
		pivot.Columns = monthSpan(tickets)
		rowFn, colFn = byQueue, byMonth
	case ReportDaysToCloseByMonth:
		pivot.Title, pivot.RowHeading, pivot.ChartType = "Days until ticket closed by Month", "Queue", "date"
		pivot.Columns = monthSpan(tickets)
		rowFn, colFn = byQueue, byMonth
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownReport, report)
	}

	counts := map[string]map[string]int{}
	days := map[string]map[string]int{}
	for _, t := range tickets {
		row, col := rowFn(t), colFn(t)
		if counts[row] == nil {
			counts[row] = map[string]int{}
			days[row] = map[string]int{}
		}
		counts[row][col]++
		days[row][col] += wholeDays(t.Modified.Sub(t.Created))
	}

	rowKeys := make([]string, 0, len(counts))
	for key := range counts {
		rowKeys = append(rowKeys, key)
	}
	sort.Strings(rowKeys)

	average := report == ReportDaysToCloseByMonth
	for _, key := range rowKeys {
		cells := make([]float64, len(pivot.Columns))
		for i, col := range pivot.Columns {
			n := counts[key][col]
			if average {
				if n > 0 {
					cells[i] = float64(days[key][col]) / float64(n)
				}
				continue
			}
			cells[i] = float64(n)
		}
		pivot.Rows = append(pivot.Rows, PivotRow{Label: key, Cells: cells})
	}
	return pivot, nil
}

func priorityOptions() []string {
	options := make([]string, 0, 5)
	for p := models.PriorityCritical; p <= models.PriorityVeryLow; p++ {
		options = append(options, models.PriorityLabel(p))
	}
	return options
}

func statusOptions() []string {
	options := make([]string, 0, 5)
	for s := models.StatusOpen; s <= models.StatusDuplicate; s++ {
		options = append(options, models.StatusLabel(s))
	}
	return options
}

// monthSpan returns every year-month key from the earliest to the latest
// created timestamp in the set, inclusive.
func monthSpan(tickets []*models.Ticket) []string {
	first, last := tickets[0].Created, tickets[0].Created
	for _, t := range tickets[1:] {
		if t.Created.Before(first) {
			first = t.Created
		}
		if t.Created.After(last) {
			last = t.Created
		}
	}

	var periods []string
	year, month := first.Year(), int(first.Month())
	lastYear, lastMonth := last.Year(), int(last.Month())
	for {
		periods = append(periods, monthKey(year, month))
		if year == lastYear && month == lastMonth {
			return periods
		}
		month++
		if month > 12 {
			year++
			month = 1
		}
	}
}

func monthKey(year, month int) string {
	return fmt.Sprintf("%d-%d", year, month)
}

func assigneeLabel(t *models.Ticket, userNames map[uint]string) string {
	if t.AssignedTo != nil {
		return t.AssignedTo.DisplayName()
	}
	if t.AssignedToID == nil {
		return "Unassigned"
	}
	if name, ok := userNames[*t.AssignedToID]; ok {
		return name
	}
	return fmt.Sprintf("user %d", *t.AssignedToID)
}

func queueLabel(t *models.Ticket, queueTitles map[uint]string) string {
	if t.Queue != nil {
		return t.Queue.Title
	}
	if title, ok := queueTitles[t.QueueID]; ok {
		return title
	}
	return fmt.Sprintf("queue %d", t.QueueID)
}

func wholeDays(d time.Duration) int {
	return int(d / (24 * time.Hour))
}
