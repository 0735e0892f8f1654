package models

import "time"

// SavedSearch persists a named query specification for a user. Query holds
// the base64-encoded JSON form, never anything executable.
type SavedSearch struct {
	ID      uint      `json:"id" db:"id"`
	UserID  uint      `json:"user_id" db:"user_id"`
	Title   string    `json:"title" db:"title"`
	Shared  bool      `json:"shared" db:"shared"`
	Query   string    `json:"query" db:"query"`
	Created time.Time `json:"created" db:"created"`
}

// VisibleTo reports whether a user may load this search.
func (s *SavedSearch) VisibleTo(userID uint) bool {
	return s.Shared || s.UserID == userID
}
