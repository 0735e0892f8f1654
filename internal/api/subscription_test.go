package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

func TestCCEndpoints(t *testing.T) {
	fix := newAPIFixture(t)
	queue := fix.addQueue(t, "Support", "support", true)
	agent := fix.addStaff(t, "agent", "agent@example.com")
	watcher := fix.addStaff(t, "watcher", "watcher@example.com")
	ticket := fix.addTicket(t, queue, nil)
	base := ticketPath(ticket.ID) + "/cc"

	var ccID uint
	t.Run("subscribe a user", func(t *testing.T) {
		w := fix.do(t, "POST", base, asStaff(agent.Email), map[string]interface{}{
			"user_id": watcher.ID,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		data := envelopeData(t, w)
		assert.Equal(t, float64(watcher.ID), data["user_id"])
		assert.Equal(t, true, data["can_update"])
		ccID = uint(data["id"].(float64))
	})

	t.Run("double subscription is rejected", func(t *testing.T) {
		w := fix.do(t, "POST", base, asStaff(agent.Email), map[string]interface{}{
			"user_id": watcher.ID,
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeEnvelope(t, w)
		assert.Contains(t, body["error"], "already follows")
	})

	t.Run("subscribe a bare address", func(t *testing.T) {
		w := fix.do(t, "POST", base, asStaff(agent.Email), map[string]interface{}{
			"email": "auditor@example.com",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		data := envelopeData(t, w)
		assert.Equal(t, "auditor@example.com", data["email"])
	})

	t.Run("the submitter address is already covered", func(t *testing.T) {
		w := fix.do(t, "POST", base, asStaff(agent.Email), map[string]interface{}{
			"email": "submitter@example.com",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("user and address together are ambiguous", func(t *testing.T) {
		w := fix.do(t, "POST", base, asStaff(agent.Email), map[string]interface{}{
			"user_id": watcher.ID,
			"email":   "auditor@example.com",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed address is rejected", func(t *testing.T) {
		w := fix.do(t, "POST", base, asStaff(agent.Email), map[string]interface{}{
			"email": "not-an-address",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeEnvelope(t, w)
		assert.Contains(t, body["error"], "not-an-address")
	})

	t.Run("list carries both kinds", func(t *testing.T) {
		w := fix.do(t, "GET", base, asStaff(agent.Email), nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := envelopeData(t, w)
		assert.Len(t, data["cc"], 2)
	})

	t.Run("remove", func(t *testing.T) {
		w := fix.do(t, "DELETE", fmt.Sprintf("%s/%d", base, ccID), asStaff(agent.Email), nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeEnvelope(t, w)
		assert.Equal(t, "subscription removed", body["message"])

		w = fix.do(t, "DELETE", fmt.Sprintf("%s/%d", base, ccID), asStaff(agent.Email), nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDependencyEndpoints(t *testing.T) {
	fix := newAPIFixture(t)
	queue := fix.addQueue(t, "Support", "support", true)
	agent := fix.addStaff(t, "agent", "agent@example.com")
	ticket := fix.addTicket(t, queue, nil)
	blocker := fix.addTicket(t, queue, func(tk *models.Ticket) {
		tk.Title = "Vendor must ship the part first"
	})
	base := ticketPath(ticket.ID) + "/dependencies"

	var depID uint
	t.Run("add a blocker", func(t *testing.T) {
		w := fix.do(t, "POST", base, asStaff(agent.Email), map[string]interface{}{
			"depends_on_id": blocker.ID,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		data := envelopeData(t, w)
		assert.Equal(t, float64(blocker.ID), data["depends_on_id"])
		depID = uint(data["id"].(float64))
	})

	t.Run("self reference is rejected", func(t *testing.T) {
		w := fix.do(t, "POST", base, asStaff(agent.Email), map[string]interface{}{
			"depends_on_id": ticket.ID,
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("reversed edge would deadlock", func(t *testing.T) {
		w := fix.do(t, "POST", ticketPath(blocker.ID)+"/dependencies", asStaff(agent.Email), map[string]interface{}{
			"depends_on_id": ticket.ID,
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeEnvelope(t, w)
		assert.Contains(t, body["error"], "already depends")
	})

	t.Run("open blocker pins resolvable to false", func(t *testing.T) {
		w := fix.do(t, "GET", base, asStaff(agent.Email), nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := envelopeData(t, w)
		assert.Len(t, data["dependencies"], 1)
		assert.Equal(t, false, data["resolvable"])
	})

	t.Run("closing the blocker frees the ticket", func(t *testing.T) {
		w := fix.do(t, "POST", "/api/v1/tickets/bulk", asStaff(agent.Email), map[string]interface{}{
			"ticket_ids": []uint{blocker.ID},
			"action":     "close",
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = fix.do(t, "GET", base, asStaff(agent.Email), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, envelopeData(t, w)["resolvable"])
	})

	t.Run("remove the edge", func(t *testing.T) {
		w := fix.do(t, "DELETE", fmt.Sprintf("%s/%d", base, depID), asStaff(agent.Email), nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = fix.do(t, "GET", base, asStaff(agent.Email), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, envelopeData(t, w)["dependencies"])
	})
}
