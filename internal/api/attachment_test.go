package api

import (
	"bytes"
	"fmt"
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

// uploadTicketWithFile opens a ticket through the multipart form with one
// attached file and returns the stored attachment row.
func uploadTicketWithFile(t *testing.T, fix *apiFixture, queue *models.Queue, agent *models.User) (uint, *models.Attachment) {
	t.Helper()

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	require.NoError(t, mw.WriteField("queue_id", strconv.Itoa(int(queue.ID))))
	require.NoError(t, mw.WriteField("title", "Router reboot loop"))
	require.NoError(t, mw.WriteField("submitter_email", "reporter@example.com"))
	part, err := mw.CreateFormFile("files", "boot.log")
	require.NoError(t, err)
	_, err = part.Write([]byte("watchdog: reset at boot"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/v1/tickets", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.HeaderUser, agent.Email)
	w := httptest.NewRecorder()
	fix.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	ticketID := uint(envelopeData(t, w)["id"].(float64))
	followUps, err := fix.followUps.ListByTicket(ticketID)
	require.NoError(t, err)
	require.Len(t, followUps, 1)
	attachments, err := fix.followUps.ListAttachments(followUps[0].ID)
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	return ticketID, &attachments[0]
}

func TestDownloadAttachmentEndpoint(t *testing.T) {
	fix := newAPIFixture(t)
	queue := fix.addQueue(t, "Support", "support", true)
	agent := fix.addStaff(t, "agent", "agent@example.com")
	_, attachment := uploadTicketWithFile(t, fix, queue, agent)
	path := fmt.Sprintf("/api/v1/attachments/%d", attachment.ID)

	t.Run("staff download", func(t *testing.T) {
		w := fix.do(t, "GET", path, asStaff(agent.Email), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `attachment; filename="boot.log"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "watchdog: reset at boot", w.Body.String())
	})

	t.Run("the submitter may download too", func(t *testing.T) {
		w := fix.do(t, "GET", path, asSubmitter("reporter@example.com"), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "watchdog: reset at boot", w.Body.String())
	})

	t.Run("strangers are denied", func(t *testing.T) {
		w := fix.do(t, "GET", path, asSubmitter("nosy@example.com"), nil)
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing attachment is a 404", func(t *testing.T) {
		w := fix.do(t, "GET", "/api/v1/attachments/4242", asStaff(agent.Email), nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteAttachmentEndpoint(t *testing.T) {
	fix := newAPIFixture(t)
	queue := fix.addQueue(t, "Support", "support", true)
	agent := fix.addStaff(t, "agent", "agent@example.com")
	_, attachment := uploadTicketWithFile(t, fix, queue, agent)
	path := fmt.Sprintf("/api/v1/attachments/%d", attachment.ID)

	t.Run("submitters cannot delete", func(t *testing.T) {
		w := fix.do(t, "DELETE", path, asSubmitter("reporter@example.com"), nil)
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("staff delete removes row and body", func(t *testing.T) {
		w := fix.do(t, "DELETE", path, asStaff(agent.Email), nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeEnvelope(t, w)
		assert.Equal(t, "attachment deleted", body["message"])

		w = fix.do(t, "GET", path, asStaff(agent.Email), nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}
