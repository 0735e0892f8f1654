package query

import (
	"errors"
	"testing"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

func reportQueues() []*models.Queue {
	return []*models.Queue{
		{ID: 1, Title: "Support"},
		{ID: 2, Title: "Billing"},
	}
}

func reportUsers() []*models.User {
	return []*models.User{
		{ID: 7, Username: "alice"},
		{ID: 8, Username: "bob"},
	}
}

func createdAt(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 9, 0, 0, 0, time.UTC)
}

func TestBuildReportQueueStatus(t *testing.T) {
	tickets := []*models.Ticket{
		{ID: 1, QueueID: 1, Status: models.StatusOpen, Created: createdAt(2026, time.January, 5), Modified: createdAt(2026, time.January, 5)},
		{ID: 2, QueueID: 1, Status: models.StatusOpen, Created: createdAt(2026, time.January, 6), Modified: createdAt(2026, time.January, 6)},
		{ID: 3, QueueID: 1, Status: models.StatusClosed, Created: createdAt(2026, time.January, 7), Modified: createdAt(2026, time.January, 9)},
		{ID: 4, QueueID: 2, Status: models.StatusResolved, Created: createdAt(2026, time.February, 1), Modified: createdAt(2026, time.February, 1)},
	}

	pivot, err := BuildReport(ReportQueueStatus, tickets, reportQueues(), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if pivot.Title != "Queue by Status" || pivot.RowHeading != "Queue" || pivot.ChartType != "bar" {
		t.Fatalf("unexpected header: %+v", pivot)
	}
	wantColumns := []string{"Open", "Reopened", "Resolved", "Closed", "Duplicate"}
	for i, col := range wantColumns {
		if pivot.Columns[i] != col {
			t.Fatalf("columns: expected %v, got %v", wantColumns, pivot.Columns)
		}
	}

	// Rows sorted by queue title: Billing before Support.
	if len(pivot.Rows) != 2 || pivot.Rows[0].Label != "Billing" || pivot.Rows[1].Label != "Support" {
		t.Fatalf("unexpected rows: %+v", pivot.Rows)
	}
	billing, support := pivot.Rows[0].Cells, pivot.Rows[1].Cells
	if billing[2] != 1 || billing[0] != 0 {
		t.Fatalf("billing cells wrong: %v", billing)
	}
	if support[0] != 2 || support[3] != 1 || support[1] != 0 {
		t.Fatalf("support cells wrong: %v", support)
	}
}

func TestBuildReportUserMonthSpansGaps(t *testing.T) {
	tickets := []*models.Ticket{
		{ID: 1, QueueID: 1, AssignedToID: models.UintPtr(7), Created: createdAt(2025, time.November, 20), Modified: createdAt(2025, time.November, 20)},
		{ID: 2, QueueID: 1, Created: createdAt(2026, time.February, 2), Modified: createdAt(2026, time.February, 2)},
	}

	pivot, err := BuildReport(ReportUserMonth, tickets, reportQueues(), reportUsers())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	wantColumns := []string{"2025-11", "2025-12", "2026-1", "2026-2"}
	if len(pivot.Columns) != len(wantColumns) {
		t.Fatalf("columns: expected %v, got %v", wantColumns, pivot.Columns)
	}
	for i := range wantColumns {
		if pivot.Columns[i] != wantColumns[i] {
			t.Fatalf("columns: expected %v, got %v", wantColumns, pivot.Columns)
		}
	}

	if len(pivot.Rows) != 2 || pivot.Rows[0].Label != "Unassigned" || pivot.Rows[1].Label != "alice" {
		t.Fatalf("unexpected rows: %+v", pivot.Rows)
	}
	if pivot.Rows[1].Cells[0] != 1 || pivot.Rows[0].Cells[3] != 1 {
		t.Fatalf("unexpected cells: %+v", pivot.Rows)
	}
}

func TestBuildReportDaysToCloseAverages(t *testing.T) {
	tickets := []*models.Ticket{
		// Two January tickets in Support: 2 and 4 days open, mean 3.
		{ID: 1, QueueID: 1, Created: createdAt(2026, time.January, 1), Modified: createdAt(2026, time.January, 3)},
		{ID: 2, QueueID: 1, Created: createdAt(2026, time.January, 2), Modified: createdAt(2026, time.January, 6)},
		// One February ticket closed same day: mean 0 and no division blowup.
		{ID: 3, QueueID: 1, Created: createdAt(2026, time.February, 10), Modified: createdAt(2026, time.February, 10)},
	}

	pivot, err := BuildReport(ReportDaysToCloseByMonth, tickets, reportQueues(), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(pivot.Rows) != 1 || pivot.Rows[0].Label != "Support" {
		t.Fatalf("unexpected rows: %+v", pivot.Rows)
	}
	cells := pivot.Rows[0].Cells
	if cells[0] != 3 {
		t.Fatalf("january mean: expected 3, got %v", cells[0])
	}
	if cells[1] != 0 {
		t.Fatalf("february mean: expected 0, got %v", cells[1])
	}
}

func TestBuildReportErrors(t *testing.T) {
	if _, err := BuildReport(ReportQueueStatus, nil, reportQueues(), nil); !errors.Is(err, ErrNoTickets) {
		t.Fatalf("expected ErrNoTickets, got %v", err)
	}

	tickets := []*models.Ticket{{ID: 1, QueueID: 1, Created: createdAt(2026, time.January, 1)}}
	if _, err := BuildReport("queuebymoon", tickets, reportQueues(), nil); !errors.Is(err, ErrUnknownReport) {
		t.Fatalf("expected ErrUnknownReport, got %v", err)
	}
}
