package query

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
)

// Engine applies a Spec to a ticket set. Custom-field values and classifier
// names feed the keyword search; both repositories may be nil, which limits
// the search to the ticket's own columns.
type Engine struct {
	customFields  repository.ICustomFieldRepository
	lookups       repository.ILookupRepository
	caseSensitive bool

	// Now is the clock for relative date windows. Tests override it.
	Now func() time.Time
}

// NewEngine creates a query engine. caseSensitive selects keyword matching
// behavior; persistent backends inherit whatever their collation does, so
// the flag lets deployments match that here.
func NewEngine(customFields repository.ICustomFieldRepository, lookups repository.ILookupRepository, caseSensitive bool) *Engine {
	return &Engine{
		customFields:  customFields,
		lookups:       lookups,
		caseSensitive: caseSensitive,
		Now:           time.Now,
	}
}

// Apply filters, searches, and sorts the ticket set per spec. The input
// slice is not modified. An unknown filter path or malformed constraint
// returns a SpecError and no tickets.
func (e *Engine) Apply(spec *Spec, tickets []*models.Ticket) ([]*models.Ticket, error) {
	spec.NormalizeSort()

	preds := make([]predicate, 0, len(spec.Filtering))
	for path, constraint := range spec.Filtering {
		pred, err := buildPredicate(path, constraint)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	if spec.CreatedRelative != nil {
		pred, err := e.relativePredicate(spec.CreatedRelative)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}

	out := make([]*models.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		if !matchesAll(ticket, preds) {
			continue
		}
		if spec.SearchString != "" && !e.matchesKeyword(ticket, spec.SearchString) {
			continue
		}
		out = append(out, ticket)
	}

	e.sortTickets(out, spec.Sorting, spec.SortReverse)
	return out, nil
}

type predicate func(*models.Ticket) bool

func matchesAll(t *models.Ticket, preds []predicate) bool {
	for _, pred := range preds {
		if !pred(t) {
			return false
		}
	}
	return true
}

// buildPredicate resolves one filter path to a match function. The path
// vocabulary mirrors the persisted saved-search format.
func buildPredicate(path string, c Constraint) (predicate, error) {
	switch path {
	case "id", "id__in":
		return intField(path, c, func(t *models.Ticket) (int, bool) { return int(t.ID), true })
	case "status", "status__in":
		return intField(path, c, func(t *models.Ticket) (int, bool) { return t.Status, true })
	case "priority", "priority__in":
		return intField(path, c, func(t *models.Ticket) (int, bool) { return t.Priority, true })
	case "queue__id", "queue__id__in":
		return intField(path, c, func(t *models.Ticket) (int, bool) { return int(t.QueueID), true })
	case "assigned_to__id", "assigned_to__id__in":
		return intField(path, c, func(t *models.Ticket) (int, bool) { return nullableUint(t.AssignedToID) })
	case "category__id", "category__id__in":
		return intField(path, c, func(t *models.Ticket) (int, bool) { return nullableUint(t.CategoryID) })
	case "type__id", "type__id__in":
		return intField(path, c, func(t *models.Ticket) (int, bool) { return nullableUint(t.TypeID) })
	case "billing", "billing__in":
		return intField(path, c, func(t *models.Ticket) (int, bool) {
			if t.Billing == nil {
				return 0, false
			}
			return *t.Billing, true
		})
	case "customer__id", "customer__id__in":
		return intField(path, c, func(t *models.Ticket) (int, bool) { return nullableUint(t.CustomerID) })
	case "site__id", "site__id__in":
		return intField(path, c, func(t *models.Ticket) (int, bool) { return nullableUint(t.SiteID) })
	case "customer_product__id", "customer_product__id__in":
		return intField(path, c, func(t *models.Ticket) (int, bool) { return nullableUint(t.CustomerProductID) })
	case "created__gte":
		return timeBound(path, c, false)
	case "created__lte":
		return timeBound(path, c, true)
	default:
		return nil, &SpecError{Path: path, Message: "unknown filter field"}
	}
}

func nullableUint(p *uint) (int, bool) {
	if p == nil {
		return 0, false
	}
	return int(*p), true
}

// intField matches an integer field against the constraint. Membership
// lists honor the -1 unset marker; the field reader reports presence.
func intField(path string, c Constraint, read func(*models.Ticket) (int, bool)) (predicate, error) {
	if c.List != nil {
		return func(t *models.Ticket) bool {
			value, present := read(t)
			for _, v := range c.List {
				if v == -1 && !present {
					return true
				}
				if present && v == value {
					return true
				}
			}
			return false
		}, nil
	}

	var want int
	switch {
	case c.Num != nil:
		want = *c.Num
	case c.Str != "":
		n, err := strconv.Atoi(c.Str)
		if err != nil {
			return nil, &SpecError{Path: path, Message: "expected an integer value"}
		}
		want = n
	default:
		return nil, &SpecError{Path: path, Message: "missing value"}
	}
	return func(t *models.Ticket) bool {
		value, present := read(t)
		return present && value == want
	}, nil
}

var filterTimeLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func timeBound(path string, c Constraint, upper bool) (predicate, error) {
	if c.Str == "" {
		return nil, &SpecError{Path: path, Message: "expected a date string"}
	}
	var bound time.Time
	var err error
	for _, layout := range filterTimeLayouts {
		bound, err = time.Parse(layout, c.Str)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, &SpecError{Path: path, Message: "unparseable date " + strconv.Quote(c.Str)}
	}
	if upper {
		return func(t *models.Ticket) bool { return !t.Created.After(bound) }, nil
	}
	return func(t *models.Ticket) bool { return !t.Created.Before(bound) }, nil
}

func (e *Engine) relativePredicate(w *RelativeWindow) (predicate, error) {
	if w.Days <= 0 {
		return nil, &SpecError{Path: "created_relative", Message: "days must be positive"}
	}
	now := e.Now()
	cutoff := now.AddDate(0, 0, -w.Days)
	cutoff = time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, cutoff.Location())
	switch w.Direction {
	case DirectionBefore:
		return func(t *models.Ticket) bool { return t.Created.Before(cutoff) }, nil
	case DirectionAfter:
		return func(t *models.Ticket) bool { return t.Created.After(cutoff) }, nil
	default:
		return nil, &SpecError{Path: "created_relative", Message: "direction must be before or after"}
	}
}

// matchesKeyword checks the free-text needle against the ticket's own text
// columns, its classifier names, and its custom-field values. Classifier
// and custom-field lookups are best effort; a failed lookup narrows the
// match, it does not fail the search.
func (e *Engine) matchesKeyword(t *models.Ticket, needle string) bool {
	if strconv.FormatUint(uint64(t.ID), 10) == strings.TrimSpace(needle) {
		return true
	}
	if e.containsAny(needle,
		t.Title,
		models.DerefString(t.Description),
		models.DerefString(t.Resolution),
		models.DerefString(t.SubmitterEmail)) {
		return true
	}
	if e.containsAny(needle, e.classifierNames(t)...) {
		return true
	}
	if e.customFields != nil {
		values, err := e.customFields.ListValues(t.ID)
		if err == nil {
			for _, v := range values {
				if e.contains(models.DerefString(v.Value), needle) {
					return true
				}
			}
		}
	}
	return false
}

func (e *Engine) classifierNames(t *models.Ticket) []string {
	var names []string
	if name := e.customerName(t); name != "" {
		names = append(names, name)
	}
	if t.Site != nil {
		names = append(names, t.Site.Name)
	} else if t.SiteID != nil && e.lookups != nil {
		if site, err := e.lookups.GetSite(*t.SiteID); err == nil && site != nil {
			names = append(names, site.Name)
		}
	}
	if t.CustomerProduct != nil {
		names = append(names, t.CustomerProduct.Name)
	} else if t.CustomerProductID != nil && e.lookups != nil {
		if product, err := e.lookups.GetCustomerProduct(*t.CustomerProductID); err == nil && product != nil {
			names = append(names, product.Name)
		}
	}
	return names
}

func (e *Engine) customerName(t *models.Ticket) string {
	if t.Customer != nil {
		return t.Customer.Name
	}
	if t.CustomerID == nil || e.lookups == nil {
		return ""
	}
	customer, err := e.lookups.GetCustomer(*t.CustomerID)
	if err != nil || customer == nil {
		return ""
	}
	return customer.Name
}

func (e *Engine) containsAny(needle string, haystacks ...string) bool {
	for _, haystack := range haystacks {
		if e.contains(haystack, needle) {
			return true
		}
	}
	return false
}

func (e *Engine) contains(haystack, needle string) bool {
	if haystack == "" || needle == "" {
		return false
	}
	if e.caseSensitive {
		return strings.Contains(haystack, needle)
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (e *Engine) sortTickets(tickets []*models.Ticket, field string, reverse bool) {
	less := lessFunc(field)
	sort.SliceStable(tickets, func(i, j int) bool {
		if reverse {
			return less(tickets[j], tickets[i])
		}
		return less(tickets[i], tickets[j])
	})
}

func lessFunc(field string) func(a, b *models.Ticket) bool {
	switch field {
	case "status":
		return func(a, b *models.Ticket) bool { return a.Status < b.Status }
	case "assigned_to":
		return func(a, b *models.Ticket) bool {
			return models.DerefUint(a.AssignedToID) < models.DerefUint(b.AssignedToID)
		}
	case "title":
		return func(a, b *models.Ticket) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case "queue":
		return func(a, b *models.Ticket) bool { return a.QueueID < b.QueueID }
	case "priority":
		return func(a, b *models.Ticket) bool { return a.Priority < b.Priority }
	default:
		return func(a, b *models.Ticket) bool { return a.Created.Before(b.Created) }
	}
}
