package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/helpdesk-io/helpdesk-ce/internal/api"
	"github.com/helpdesk-io/helpdesk-ce/internal/cache"
	"github.com/helpdesk-io/helpdesk-ce/internal/escalation"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/service"
	"github.com/helpdesk-io/helpdesk-ce/internal/storage"
	"github.com/helpdesk-io/helpdesk-ce/internal/template"
	"github.com/helpdesk-io/helpdesk-ce/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the helpdesk API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	files, err := storage.NewFilesystemStore(cfg.Helpdesk.AttachmentDir)
	if err != nil {
		return err
	}
	store, err := cache.New(cfg.Redis)
	if err != nil {
		return err
	}
	defer store.Close()

	tickets := repository.NewTicketRepository(db)
	queues := repository.NewQueueRepository(db)
	followUps := repository.NewFollowUpRepository(db)
	ccs := repository.NewCCRepository(db)
	users := repository.NewUserRepository(db)
	lookups := repository.NewLookupRepository(db)
	fields := repository.NewCustomFieldRepository(db)

	renderer := template.NewRenderer()
	fanout := newFanout(db, cfg, renderer)

	ticketSvc := service.NewTicketService(tickets, queues, followUps, ccs, users,
		lookups, fields, renderer, fanout, files, store, cfg)
	searchSvc := service.NewSearchService(tickets, queues, fields, lookups, cfg)
	savedSvc := service.NewSavedSearchService(repository.NewSavedSearchRepository(db))
	ccSvc := service.NewCCService(tickets, queues, ccs, users, cfg)
	depSvc := service.NewDependencyService(tickets, queues,
		repository.NewDependencyRepository(db), cfg)
	kbSvc := service.NewKBService(repository.NewKBRepository(db))
	settingsSvc := service.NewSettingsService(users)
	reportSvc := service.NewReportService(tickets, queues, users, fields, lookups, store, cfg)
	replySvc := service.NewPresetReplyService(tickets, queues,
		repository.NewPresetReplyRepository(db), renderer, cfg)

	engine := gin.New()
	engine.Use(gin.Recovery())
	api.NewAPIRouter(engine, ticketSvc, searchSvc, savedSvc, ccSvc, depSvc,
		kbSvc, settingsSvc, reportSvc, replySvc, users, queues, cfg).SetupRoutes()

	// The sweep runs inside the server process unless the operator turns
	// it off in favour of the escalate subcommand under external cron.
	if cfg.Escalation.Enabled {
		escalator := escalation.NewEscalator(tickets, queues, followUps,
			repository.NewExclusionRepository(db), fanout, cfg)
		schedule := cfg.Escalation.Schedule
		if schedule == "" {
			schedule = "@daily"
		}
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(schedule, func() {
			ids, err := escalator.Run(context.Background(), nil)
			if err != nil {
				log.Printf("escalation sweep failed: %v", err)
				return
			}
			if len(ids) > 0 {
				log.Printf("escalated %d tickets: %v", len(ids), ids)
			}
		}); err != nil {
			return fmt.Errorf("invalid escalation schedule %q: %w", schedule, err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Printf("escalation sweep scheduled: %s", schedule)
	}

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("helpdesk %s listening on %s", version.String(), srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("shutting down")
	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
