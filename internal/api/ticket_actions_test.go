package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

func TestQuickUpdateEndpoint(t *testing.T) {
	fix := newAPIFixture(t)
	queue := fix.addQueue(t, "Support", "support", true)
	agent := fix.addStaff(t, "agent", "agent@example.com")
	fix.lookups.Cats[7] = &models.Category{ID: 7, Name: "Hardware"}

	t.Run("category patch sticks", func(t *testing.T) {
		ticket := fix.addTicket(t, queue, nil)
		w := fix.do(t, "POST", ticketPath(ticket.ID)+"/quick", asStaff(agent.Email), map[string]interface{}{
			"field": "category",
			"value": 7,
		})
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeEnvelope(t, w)
		assert.Equal(t, true, body["success"])

		stored := fix.reload(t, ticket.ID)
		require.NotNil(t, stored.CategoryID)
		assert.Equal(t, uint(7), *stored.CategoryID)
		// Quick patches never touch the audit trail.
		followUps, err := fix.followUps.ListByTicket(ticket.ID)
		require.NoError(t, err)
		assert.Empty(t, followUps)
	})

	t.Run("value 0 clears the field", func(t *testing.T) {
		ticket := fix.addTicket(t, queue, func(tk *models.Ticket) {
			tk.CategoryID = models.UintPtr(7)
		})
		w := fix.do(t, "POST", ticketPath(ticket.ID)+"/quick", asStaff(agent.Email), map[string]interface{}{
			"field": "category",
			"value": 0,
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, fix.reload(t, ticket.ID).CategoryID)
	})

	t.Run("unpatchable field is a structured failure", func(t *testing.T) {
		ticket := fix.addTicket(t, queue, nil)
		w := fix.do(t, "POST", ticketPath(ticket.ID)+"/quick", asStaff(agent.Email), map[string]interface{}{
			"field": "status",
			"value": models.StatusClosed,
		})
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeEnvelope(t, w)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["error"], "cannot be patched")
		assert.Equal(t, models.StatusOpen, fix.reload(t, ticket.ID).Status)
	})

	t.Run("dangling category is a structured failure", func(t *testing.T) {
		ticket := fix.addTicket(t, queue, nil)
		w := fix.do(t, "POST", ticketPath(ticket.ID)+"/quick", asStaff(agent.Email), map[string]interface{}{
			"field": "category",
			"value": 999,
		})
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeEnvelope(t, w)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["error"], "category 999")
	})
}

func TestHoldEndpoints(t *testing.T) {
	fix := newAPIFixture(t)
	queue := fix.addQueue(t, "Support", "support", true)
	agent := fix.addStaff(t, "agent", "agent@example.com")
	ticket := fix.addTicket(t, queue, nil)

	w := fix.do(t, "POST", ticketPath(ticket.ID)+"/hold", asStaff(agent.Email), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := envelopeData(t, w)
	assert.Equal(t, true, data["on_hold"])

	w = fix.do(t, "POST", ticketPath(ticket.ID)+"/unhold", asStaff(agent.Email), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = envelopeData(t, w)
	assert.Equal(t, false, data["on_hold"])

	followUps, err := fix.followUps.ListByTicket(ticket.ID)
	require.NoError(t, err)
	require.Len(t, followUps, 2)
	assert.Equal(t, "Ticket placed on hold", models.DerefString(followUps[0].Title))
	assert.Equal(t, "Ticket taken off hold", models.DerefString(followUps[1].Title))
}

func TestDeleteTicketEndpoint(t *testing.T) {
	fix := newAPIFixture(t)
	queue := fix.addQueue(t, "Support", "support", true)
	agent := fix.addStaff(t, "agent", "agent@example.com")
	ticket := fix.addTicket(t, queue, nil)

	w := fix.do(t, "DELETE", ticketPath(ticket.ID), asStaff(agent.Email), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, "ticket deleted", body["message"])

	w = fix.do(t, "GET", ticketPath(ticket.ID), asStaff(agent.Email), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMassUpdateEndpoint(t *testing.T) {
	fix := newAPIFixture(t)
	queue := fix.addQueue(t, "Support", "support", true)
	agent := fix.addStaff(t, "agent", "agent@example.com")

	first := fix.addTicket(t, queue, nil)
	second := fix.addTicket(t, queue, nil)

	t.Run("take assigns to the caller", func(t *testing.T) {
		w := fix.do(t, "POST", "/api/v1/tickets/bulk", asStaff(agent.Email), map[string]interface{}{
			"ticket_ids": []uint{first.ID, second.ID, 9999},
			"action":     "take",
		})
		require.Equal(t, http.StatusOK, w.Code)
		data := envelopeData(t, w)
		assert.Len(t, data["updated"], 2)
		assert.Equal(t, []interface{}{float64(9999)}, data["skipped"])

		stored := fix.reload(t, first.ID)
		require.NotNil(t, stored.AssignedToID)
		assert.Equal(t, agent.ID, *stored.AssignedToID)
	})

	t.Run("closing twice skips the second pass", func(t *testing.T) {
		w := fix.do(t, "POST", "/api/v1/tickets/bulk", asStaff(agent.Email), map[string]interface{}{
			"ticket_ids": []uint{first.ID},
			"action":     "close",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, envelopeData(t, w)["updated"], 1)

		w = fix.do(t, "POST", "/api/v1/tickets/bulk", asStaff(agent.Email), map[string]interface{}{
			"ticket_ids": []uint{first.ID},
			"action":     "close",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, envelopeData(t, w)["skipped"], 1)
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		w := fix.do(t, "POST", "/api/v1/tickets/bulk", asStaff(agent.Email), map[string]interface{}{
			"ticket_ids": []uint{second.ID},
			"action":     "explode",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeEnvelope(t, w)
		assert.Contains(t, body["error"], "explode")
	})

	t.Run("empty selection is rejected", func(t *testing.T) {
		w := fix.do(t, "POST", "/api/v1/tickets/bulk", asStaff(agent.Email), map[string]interface{}{
			"ticket_ids": []uint{},
			"action":     "close",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}
