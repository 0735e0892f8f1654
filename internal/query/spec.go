// Package query implements the saved-search specification, its persisted
// codec, filter and keyword application over ticket sets, and the report
// pivots built from them.
package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// Spec is a structured ticket query: conjunctive field filters, an optional
// creation-date window relative to today, a free-text keyword, and a sort.
type Spec struct {
	Filtering       Filtering
	CreatedRelative *RelativeWindow
	Sorting         string
	SortReverse     bool
	SearchString    string
}

// Filtering maps a field path to its constraint. Paths carry the operator
// as a suffix: "status__in", "created__gte". A bare path means equality.
type Filtering map[string]Constraint

// Constraint is one filter value: a membership list, an integer, or a
// string. Exactly one variant is set. In membership lists the value -1
// additionally matches records where the field is unset.
type Constraint struct {
	List []int
	Num  *int
	Str  string
}

// In builds a membership constraint. Include -1 to also match records where
// the field is unset.
func In(values ...int) Constraint {
	return Constraint{List: values}
}

// Eq builds an integer equality constraint.
func Eq(v int) Constraint {
	return Constraint{Num: &v}
}

// Text builds a string constraint, used for date bounds.
func Text(s string) Constraint {
	return Constraint{Str: s}
}

// MarshalJSON emits the variant that is set.
func (c Constraint) MarshalJSON() ([]byte, error) {
	switch {
	case c.List != nil:
		return json.Marshal(c.List)
	case c.Num != nil:
		return json.Marshal(*c.Num)
	default:
		return json.Marshal(c.Str)
	}
}

// UnmarshalJSON accepts a JSON array of integers, a number, or a string.
func (c *Constraint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty constraint")
	}
	switch data[0] {
	case '[':
		var list []int
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("membership list: %w", err)
		}
		c.List = list
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		c.Str = s
	case 'n':
		// null constraint, treated as an empty string
	default:
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("scalar constraint: %w", err)
		}
		c.Num = &n
	}
	return nil
}

// RelativeWindow filters on creation date relative to today: tickets
// created before (or after) today minus Days.
type RelativeWindow struct {
	Days      int    `json:"days"`
	Direction string `json:"direction"`
}

// Relative window directions.
const (
	DirectionBefore = "before"
	DirectionAfter  = "after"
)

// DefaultSpec is the fallback ticket listing: open, reopened and resolved
// tickets, newest first.
func DefaultSpec() *Spec {
	return &Spec{
		Filtering: Filtering{
			"status__in": In(models.StatusOpen, models.StatusReopened, models.StatusResolved),
		},
		Sorting:     "created",
		SortReverse: true,
	}
}

var sortFields = map[string]bool{
	"status":      true,
	"assigned_to": true,
	"created":     true,
	"title":       true,
	"queue":       true,
	"priority":    true,
}

// NormalizeSort coerces the sort field onto the known set. Anything else
// falls back to newest-first by creation date.
func (s *Spec) NormalizeSort() {
	if !sortFields[s.Sorting] {
		s.Sorting = "created"
		s.SortReverse = true
	}
}

// MarshalJSON writes the persisted form: filtering, sorting, sortreverse,
// plus search_string and created_relative when present.
func (s Spec) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"filtering":   s.Filtering,
		"sorting":     s.Sorting,
		"sortreverse": s.SortReverse,
	}
	if s.Filtering == nil {
		out["filtering"] = Filtering{}
	}
	if s.SearchString != "" {
		out["search_string"] = s.SearchString
	}
	if s.CreatedRelative != nil {
		out["created_relative"] = s.CreatedRelative
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the persisted form. It tolerates artifacts of older
// writers: "keyword" as an alias for "search_string", null sorting, and
// sortreverse as a string flag ("on") instead of a boolean.
func (s *Spec) UnmarshalJSON(data []byte) error {
	var raw struct {
		Filtering       Filtering       `json:"filtering"`
		CreatedRelative *RelativeWindow `json:"created_relative"`
		Sorting         *string         `json:"sorting"`
		SortReverse     json.RawMessage `json:"sortreverse"`
		SearchString    *string         `json:"search_string"`
		Keyword         *string         `json:"keyword"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = Spec{CreatedRelative: raw.CreatedRelative}
	if len(raw.Filtering) > 0 {
		s.Filtering = raw.Filtering
	}
	if raw.Sorting != nil {
		s.Sorting = *raw.Sorting
	}
	s.SortReverse = truthy(raw.SortReverse)
	switch {
	case raw.SearchString != nil:
		s.SearchString = *raw.SearchString
	case raw.Keyword != nil:
		s.SearchString = *raw.Keyword
	}
	return nil
}

func truthy(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "false", "0", `""`, `"false"`, `"0"`, `"off"`:
		return false
	}
	return true
}

// SpecError reports an invalid filter specification.
type SpecError struct {
	Path    string
	Message string
}

func (e *SpecError) Error() string {
	if e.Path == "" {
		return "invalid query: " + e.Message
	}
	return fmt.Sprintf("invalid query: %s: %s", e.Path, e.Message)
}
