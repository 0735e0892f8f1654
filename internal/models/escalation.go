package models

import "time"

// EscalationExclusion names a calendar date on which the escalation job does
// not count or touch tickets (holidays, maintenance windows).
type EscalationExclusion struct {
	ID   uint      `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
	Date time.Time `json:"date" db:"date"`
}

// SameDay reports whether the exclusion covers the given day.
func (e *EscalationExclusion) SameDay(t time.Time) bool {
	y1, m1, d1 := e.Date.Date()
	y2, m2, d2 := t.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
