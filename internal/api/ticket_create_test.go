package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

func TestCreateTicketEndpoint(t *testing.T) {
	fix := newAPIFixture(t)
	queue := fix.addQueue(t, "Support", "support", true)
	agent := fix.addStaff(t, "agent", "agent@example.com")

	t.Run("staff opens a ticket", func(t *testing.T) {
		w := fix.do(t, "POST", "/api/v1/tickets", asStaff(agent.Email), map[string]interface{}{
			"queue_id":        queue.ID,
			"title":           "Paper jam",
			"body":            "Tray two again",
			"submitter_email": "user@example.com",
			"assigned_to_id":  agent.ID,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		data := envelopeData(t, w)
		assert.Equal(t, "Paper jam", data["title"])
		assert.Equal(t, float64(models.StatusOpen), data["status"])
		assert.Equal(t, float64(agent.ID), data["assigned_to_id"])

		followUps, err := fix.followUps.ListByTicket(uint(data["id"].(float64)))
		require.NoError(t, err)
		require.Len(t, followUps, 1)
		assert.True(t, followUps[0].Public)
	})

	t.Run("missing title is refused by binding", func(t *testing.T) {
		w := fix.do(t, "POST", "/api/v1/tickets", asStaff(agent.Email), map[string]interface{}{
			"queue_id": queue.ID,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad due date is refused", func(t *testing.T) {
		w := fix.do(t, "POST", "/api/v1/tickets", asStaff(agent.Email), map[string]interface{}{
			"queue_id": queue.ID,
			"title":    "Deadline test",
			"due_date": "tomorrow",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "RFC 3339")
	})

	t.Run("anonymous caller is turned away", func(t *testing.T) {
		w := fix.do(t, "POST", "/api/v1/tickets", nil, map[string]interface{}{
			"queue_id": queue.ID,
			"title":    "Sneaky",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("public identity is turned away", func(t *testing.T) {
		w := fix.do(t, "POST", "/api/v1/tickets", asSubmitter("visitor@example.com"), map[string]interface{}{
			"queue_id": queue.ID,
			"title":    "Also sneaky",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCreateTicketMultipart(t *testing.T) {
	fix := newAPIFixture(t)
	queue := fix.addQueue(t, "Support", "support", true)
	agent := fix.addStaff(t, "agent", "agent@example.com")
	require.NoError(t, fix.fields.CreateField(&models.CustomField{
		Name:     "serial",
		Label:    "Serial number",
		DataType: models.FieldTypeVarchar,
	}))

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	require.NoError(t, mw.WriteField("queue_id", strconv.Itoa(int(queue.ID))))
	require.NoError(t, mw.WriteField("title", "Paper jam"))
	require.NoError(t, mw.WriteField("body", "It is stuck"))
	require.NoError(t, mw.WriteField("submitter_email", "user@example.com"))
	require.NoError(t, mw.WriteField("custom_serial", "AB-1234"))
	part, err := mw.CreateFormFile("files", "jam.log")
	require.NoError(t, err)
	_, err = part.Write([]byte("PC LOAD LETTER"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/v1/tickets", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.HeaderUser, agent.Email)
	w := httptest.NewRecorder()
	fix.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	data := envelopeData(t, w)
	ticketID := uint(data["id"].(float64))

	followUps, err := fix.followUps.ListByTicket(ticketID)
	require.NoError(t, err)
	require.Len(t, followUps, 1)
	attachments, err := fix.followUps.ListAttachments(followUps[0].ID)
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Equal(t, "jam.log", attachments[0].Filename)
	assert.Equal(t, int64(len("PC LOAD LETTER")), attachments[0].Size)

	values, err := fix.fields.ListValues(ticketID)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "AB-1234", models.DerefString(values[0].Value))
}

func TestCreatePublicTicketEndpoint(t *testing.T) {
	fix := newAPIFixture(t)
	support := fix.addQueue(t, "Support", "support", true)
	internal := fix.addQueue(t, "Internal", "internal", false)

	t.Run("fallback queue takes unrouted tickets", func(t *testing.T) {
		w := fix.do(t, "POST", "/api/v1/public/tickets", nil, map[string]interface{}{
			"title":           "Cannot log in",
			"body":            "Password resets bounce",
			"submitter_email": "visitor@example.com",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		data := envelopeData(t, w)
		assert.Equal(t, float64(support.ID), data["queue_id"])
		assert.Equal(t, "visitor@example.com", data["submitter_email"])
	})

	t.Run("queue named by slug", func(t *testing.T) {
		w := fix.do(t, "POST", "/api/v1/public/tickets", nil, map[string]interface{}{
			"queue":           "support",
			"title":           "Broken link",
			"submitter_email": "visitor@example.com",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		data := envelopeData(t, w)
		assert.Equal(t, float64(support.ID), data["queue_id"])
	})

	t.Run("unknown slug is refused", func(t *testing.T) {
		w := fix.do(t, "POST", "/api/v1/public/tickets", nil, map[string]interface{}{
			"queue":           "nope",
			"title":           "Lost",
			"submitter_email": "visitor@example.com",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unknown queue")
	})

	t.Run("closed queue refuses public submission", func(t *testing.T) {
		w := fix.do(t, "POST", "/api/v1/public/tickets", nil, map[string]interface{}{
			"queue_id":        internal.ID,
			"title":           "Probing",
			"submitter_email": "visitor@example.com",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "does not accept public tickets")
	})

	t.Run("submitter address is required", func(t *testing.T) {
		w := fix.do(t, "POST", "/api/v1/public/tickets", nil, map[string]interface{}{
			"title": "Anonymous probe",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListPublicQueuesEndpoint(t *testing.T) {
	fix := newAPIFixture(t)
	fix.addQueue(t, "Support", "support", true)
	fix.addQueue(t, "Internal", "internal", false)

	w := fix.do(t, "GET", "/api/v1/public/queues", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := envelopeData(t, w)
	queues, ok := data["queues"].([]interface{})
	require.True(t, ok)
	require.Len(t, queues, 1)
	entry := queues[0].(map[string]interface{})
	assert.Equal(t, "Support", entry["title"])
	assert.Equal(t, "support", entry["slug"])
	// The projection never carries mailbox settings.
	_, leaked := entry["email_box_pass"]
	assert.False(t, leaked)
}
