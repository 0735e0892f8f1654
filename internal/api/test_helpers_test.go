package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-ce/internal/cache"
	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/notifications"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/service"
	"github.com/helpdesk-io/helpdesk-ce/internal/storage"
	"github.com/helpdesk-io/helpdesk-ce/internal/template"
)

// nullProvider drops outbound mail; these tests assert on HTTP behavior.
type nullProvider struct{}

func (nullProvider) Send(context.Context, notifications.EmailMessage) error { return nil }

// apiFixture assembles the whole surface over in-memory stores.
type apiFixture struct {
	engine    *gin.Engine
	tickets   *repository.MemoryTicketRepository
	queues    *repository.MemoryQueueRepository
	followUps *repository.MemoryFollowUpRepository
	ccs       *repository.MemoryCCRepository
	users     *repository.MemoryUserRepository
	deps      *repository.MemoryDependencyRepository
	kb        *repository.MemoryKBRepository
	searches  *repository.MemorySavedSearchRepository
	replies   *repository.MemoryPresetReplyRepository
	lookups   *repository.MemoryLookupRepository
	fields    *repository.MemoryCustomFieldRepository
	files     *storage.MemoryStore
	cfg       *config.Config
}

func newAPIFixture(t *testing.T, mutateCfg ...func(*config.Config)) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fix := &apiFixture{
		tickets:   repository.NewMemoryTicketRepository(),
		queues:    repository.NewMemoryQueueRepository(),
		followUps: repository.NewMemoryFollowUpRepository(),
		ccs:       repository.NewMemoryCCRepository(),
		users:     repository.NewMemoryUserRepository(),
		kb:        repository.NewMemoryKBRepository(),
		searches:  repository.NewMemorySavedSearchRepository(),
		replies:   repository.NewMemoryPresetReplyRepository(),
		lookups:   repository.NewMemoryLookupRepository(),
		fields:    repository.NewMemoryCustomFieldRepository(),
		files:     storage.NewMemoryStore(),
		cfg:       &config.Config{},
	}
	fix.deps = repository.NewMemoryDependencyRepository(fix.tickets)
	fix.cfg.Email.DefaultFrom = "helpdesk@example.com"
	fix.cfg.Helpdesk.PublicTicketQueueFallback = "support"
	for _, mutate := range mutateCfg {
		mutate(fix.cfg)
	}

	renderer := template.NewRenderer()
	sender := notifications.NewTemplatedSender(
		repository.NewMemoryEmailTemplateRepository(), renderer, nullProvider{}, 512000)
	fanout := notifications.NewFanout(sender, fix.ccs, fix.users,
		repository.NewMemoryIgnoreRepository(), "helpdesk@example.com", "en", false)
	store := cache.NewMemoryStore("test", time.Minute)

	ticketSvc := service.NewTicketService(fix.tickets, fix.queues, fix.followUps, fix.ccs,
		fix.users, fix.lookups, fix.fields, renderer, fanout, fix.files, store, fix.cfg)
	searchSvc := service.NewSearchService(fix.tickets, fix.queues, fix.fields, fix.lookups, fix.cfg)
	savedSvc := service.NewSavedSearchService(fix.searches)
	ccSvc := service.NewCCService(fix.tickets, fix.queues, fix.ccs, fix.users, fix.cfg)
	depSvc := service.NewDependencyService(fix.tickets, fix.queues, fix.deps, fix.cfg)
	kbSvc := service.NewKBService(fix.kb)
	settingsSvc := service.NewSettingsService(fix.users)
	reportSvc := service.NewReportService(fix.tickets, fix.queues, fix.users, fix.fields,
		fix.lookups, store, fix.cfg)
	replySvc := service.NewPresetReplyService(fix.tickets, fix.queues, fix.replies, renderer, fix.cfg)

	fix.engine = gin.New()
	NewAPIRouter(fix.engine, ticketSvc, searchSvc, savedSvc, ccSvc, depSvc, kbSvc,
		settingsSvc, reportSvc, replySvc, fix.users, fix.queues, fix.cfg).SetupRoutes()
	return fix
}

// do issues one request against the assembled engine with an optional
// JSON payload.
func (f *apiFixture) do(t *testing.T, method, path string, headers map[string]string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func asStaff(email string) map[string]string {
	return map[string]string{middleware.HeaderUser: email}
}

func asSubmitter(email string) map[string]string {
	return map[string]string{middleware.HeaderEmail: email}
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

// envelopeData unwraps a successful envelope's data object.
func envelopeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	body := decodeEnvelope(t, w)
	require.Equal(t, true, body["success"], "body: %s", w.Body.String())
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "no data object in: %s", w.Body.String())
	return data
}

func (f *apiFixture) addQueue(t *testing.T, title, slug string, public bool) *models.Queue {
	t.Helper()
	queue := &models.Queue{
		Title:                 title,
		Slug:                  slug,
		EmailAddress:          models.StringPtr(slug + "@example.com"),
		AllowPublicSubmission: public,
	}
	require.NoError(t, f.queues.Create(queue))
	return queue
}

func (f *apiFixture) addStaff(t *testing.T, username, email string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: email, IsActive: true, IsStaff: true}
	f.users.AddUser(user)
	return user
}

// addTicket persists a ticket directly, bypassing the creation workflow.
// Created is backdated an hour so update stamps visibly move.
func (f *apiFixture) addTicket(t *testing.T, queue *models.Queue, mutate func(*models.Ticket)) *models.Ticket {
	t.Helper()
	created := time.Now().Add(-time.Hour)
	ticket := &models.Ticket{
		Title:          "Printer on fire",
		QueueID:        queue.ID,
		Status:         models.StatusOpen,
		Priority:       models.PriorityNormal,
		SubmitterEmail: models.StringPtr("submitter@example.com"),
		Created:        created,
		Modified:       created,
	}
	if mutate != nil {
		mutate(ticket)
	}
	require.NoError(t, f.tickets.Create(ticket))
	return ticket
}

func (f *apiFixture) reload(t *testing.T, ticketID uint) *models.Ticket {
	t.Helper()
	ticket, err := f.tickets.GetByID(ticketID)
	require.NoError(t, err)
	require.NotNil(t, ticket)
	return ticket
}
