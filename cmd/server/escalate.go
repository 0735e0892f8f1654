package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helpdesk-io/helpdesk-ce/internal/escalation"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/template"
)

var escalateQueues []string

var escalateCmd = &cobra.Command{
	Use:   "escalate",
	Short: "Run one escalation sweep and exit",
	Long: `Escalate walks every queue with escalate days configured, bumps the
priority of tickets that have gone unanswered past the working-day cutoff,
records the change on each ticket, and sends the escalation notifications.

Intended for external cron when the built-in scheduler is disabled.`,
	RunE: runEscalate,
}

func init() {
	escalateCmd.Flags().StringSliceVar(&escalateQueues, "queue", nil,
		"limit the sweep to these queue slugs (repeatable)")
}

func runEscalate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	escalator := escalation.NewEscalator(
		repository.NewTicketRepository(db),
		repository.NewQueueRepository(db),
		repository.NewFollowUpRepository(db),
		repository.NewExclusionRepository(db),
		newFanout(db, cfg, template.NewRenderer()),
		cfg,
	)

	ids, err := escalator.Run(ctx, escalateQueues)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No tickets to escalate")
		return nil
	}
	fmt.Printf("Escalated %d tickets: %v\n", len(ids), ids)
	return nil
}
