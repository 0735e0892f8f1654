package models

// Notification template keys. One message per audience per event.
const (
	TemplateNewTicketSubmitter = "newticket_submitter"
	TemplateNewTicketCC        = "newticket_cc"
	TemplateAssignedOwner      = "assigned_owner"
	TemplateAssignedCC         = "assigned_cc"
	TemplateUpdatedSubmitter   = "updated_submitter"
	TemplateUpdatedCC          = "updated_cc"
	TemplateUpdatedOwner       = "updated_owner"
	TemplateResolvedSubmitter  = "resolved_submitter"
	TemplateResolvedCC         = "resolved_cc"
	TemplateResolvedOwner      = "resolved_owner"
	TemplateClosedSubmitter    = "closed_submitter"
	TemplateClosedCC           = "closed_cc"
	TemplateClosedOwner        = "closed_owner"
	TemplateEscalatedSubmitter = "escalated_submitter"
	TemplateEscalatedCC        = "escalated_cc"
	TemplateEscalatedOwner     = "escalated_owner"
)

// EmailTemplate is an outbound notification template, keyed by name and
// optional locale. Subject and bodies are template source, rendered with a
// restricted context at send time.
type EmailTemplate struct {
	ID           uint    `json:"id" db:"id"`
	TemplateName string  `json:"template_name" db:"template_name"`
	Subject      string  `json:"subject" db:"subject"`
	Heading      string  `json:"heading" db:"heading"`
	PlainText    string  `json:"plain_text" db:"plain_text"`
	HTML         string  `json:"html" db:"html"`
	Locale       *string `json:"locale,omitempty" db:"locale"`
}

// PresetReply is a canned response body, optionally limited to a set of
// queues. The body passes through the same restricted template context as
// follow-up comments.
type PresetReply struct {
	ID       uint   `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Body     string `json:"body" db:"body"`
	QueueIDs []uint `json:"queue_ids,omitempty"`
}

// AppliesToQueue reports whether the reply may be offered for a queue. An
// empty queue list means all queues.
func (r *PresetReply) AppliesToQueue(queueID uint) bool {
	if len(r.QueueIDs) == 0 {
		return true
	}
	for _, id := range r.QueueIDs {
		if id == queueID {
			return true
		}
	}
	return false
}
