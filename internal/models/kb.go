package models

import "time"

// KBCategory groups knowledge-base items for browsing.
type KBCategory struct {
	ID          uint   `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Slug        string `json:"slug" db:"slug"`
	Description string `json:"description" db:"description"`
}

// KBItem is a question/answer entry. Answer holds markdown source.
type KBItem struct {
	ID              uint      `json:"id" db:"id"`
	CategoryID      uint      `json:"category_id" db:"category_id"`
	Title           string    `json:"title" db:"title"`
	Question        string    `json:"question" db:"question"`
	Answer          string    `json:"answer" db:"answer"`
	Votes           int       `json:"votes" db:"votes"`
	Recommendations int       `json:"recommendations" db:"recommendations"`
	LastUpdated     time.Time `json:"last_updated" db:"last_updated"`

	// Joined field (populated when needed)
	Category *KBCategory `json:"category,omitempty"`
}

// Score returns the 0-10 usefulness score. ok is false while the item has no
// votes ("unrated").
func (i *KBItem) Score() (int, bool) {
	if i.Votes <= 0 {
		return 0, false
	}
	return i.Recommendations * 10 / i.Votes, true
}
