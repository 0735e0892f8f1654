// Package template renders user comments and notification bodies through a
// restricted Django-syntax template context.
package template

import (
	"fmt"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// Renderer compiles and renders template sources with a small cache.
// Sources come from the database (notification templates) and from user
// comments, so compilation is always FromString.
type Renderer struct {
	mu    sync.RWMutex
	cache map[string]*pongo2.Template
}

// NewRenderer creates a renderer with an empty cache.
func NewRenderer() *Renderer {
	return &Renderer{cache: make(map[string]*pongo2.Template)}
}

// Render compiles source (cached) and executes it with ctx.
func (r *Renderer) Render(source string, ctx pongo2.Context) (string, error) {
	r.mu.RLock()
	tmpl, ok := r.cache[source]
	r.mu.RUnlock()

	if !ok {
		var err error
		tmpl, err = pongo2.FromString(source)
		if err != nil {
			return "", fmt.Errorf("compile template: %w", err)
		}
		r.mu.Lock()
		r.cache[source] = tmpl
		r.mu.Unlock()
	}

	out, err := tmpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return out, nil
}

// RenderComment renders a user-supplied comment against the restricted
// context. Control directives embedded in the comment are neutralized first
// so they come out literally; variable references against the safe context
// still substitute.
func (r *Renderer) RenderComment(comment string, ctx pongo2.Context) (string, error) {
	return r.Render(EscapeDirectives(comment), ctx)
}

// Two-stage markers keep the second replacement from corrupting the tags
// inserted by the first.
const (
	openMarker  = "X-HELPDESK-COMMENT-VERBATIM"
	closeMarker = "X-HELPDESK-COMMENT-ENDVERBATIM"
)

// EscapeDirectives neutralizes template-control syntax in user text. Block
// delimiters are swapped for templatetag directives that render the
// delimiters back literally, so embedded logic never executes.
func EscapeDirectives(text string) string {
	text = strings.ReplaceAll(text, "{%", openMarker)
	text = strings.ReplaceAll(text, "%}", closeMarker)
	text = strings.ReplaceAll(text, openMarker, "{% templatetag openblock %}")
	text = strings.ReplaceAll(text, closeMarker, "{% templatetag closeblock %}")
	return text
}

// SafeContext builds the restricted substitution context: a fixed set of
// ticket and queue fields, nothing else. Callers may add entries (resolution,
// comment) on the returned context before rendering.
func SafeContext(ticket *models.Ticket, queue *models.Queue, defaultFrom string) pongo2.Context {
	queueCtx := pongo2.Context{}
	if queue != nil {
		queueCtx = pongo2.Context{
			"title":         queue.Title,
			"slug":          queue.Slug,
			"email_address": models.DerefString(queue.EmailAddress),
			"from_address":  queue.FromAddress(defaultFrom),
			"locale":        models.DerefString(queue.Locale),
		}
	}

	ticketCtx := pongo2.Context{}
	if ticket != nil {
		ticketCtx = pongo2.Context{
			"id":               ticket.ID,
			"title":            ticket.Title,
			"created":          ticket.Created,
			"modified":         ticket.Modified,
			"submitter_email":  models.DerefString(ticket.SubmitterEmail),
			"status":           ticket.StatusDisplay(),
			"on_hold":          ticket.OnHold,
			"description":      models.DerefString(ticket.Description),
			"resolution":       models.DerefString(ticket.Resolution),
			"priority":         ticket.Priority,
			"priority_display": models.PriorityLabel(ticket.Priority),
			"due_date":         ticket.DueDate,
			"assigned_to":      ticket.AssigneeName(),
		}
		if queue != nil {
			ticketCtx["ticket"] = fmt.Sprintf("[%s-%d]", queue.Slug, ticket.ID)
			ticketCtx["queue"] = queueCtx
		}
	}

	return pongo2.Context{
		"queue":  queueCtx,
		"ticket": ticketCtx,
	}
}
