// Command server is the helpdesk binary: the JSON API server plus the
// operational subcommands that share its configuration and database.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/notifications"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/template"
	"github.com/helpdesk-io/helpdesk-ce/internal/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "helpdesk",
	Short: "Helpdesk ticket tracker",
	Long: `Helpdesk ticket tracker.

serve runs the JSON API server, escalate performs a single escalation
sweep for cron-driven setups, and seed-templates loads the notification
e-mail templates into the database.`,
	Version:       version.Full(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"directory holding default.yaml and config.yaml (defaults to CONFIG_PATH, then ./config)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(escalateCmd)
	rootCmd.AddCommand(seedTemplatesCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the configuration directory and loads it. The flag
// wins over CONFIG_PATH; both fall back to the config/ directory shipped
// with the repository.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config"
	}
	if err := config.Load(path); err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
	}
	return config.Get(), nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.GetDSN())
	if err != nil {
		return nil, err
	}
	log.Printf("connected to %s database", cfg.Database.Driver)
	return db, nil
}

// newFanout wires the notification pipeline over the live database. The
// server and the escalation sweep both dispatch through it.
func newFanout(db *sql.DB, cfg *config.Config, renderer *template.Renderer) *notifications.Fanout {
	sender := notifications.NewTemplatedSender(
		repository.NewEmailTemplateRepository(db),
		renderer,
		notifications.NewSMTPProvider(&cfg.Email),
		cfg.Email.MaxAttachmentBytes(),
	)
	return notifications.NewFanout(
		sender,
		repository.NewCCRepository(db),
		repository.NewUserRepository(db),
		repository.NewIgnoreRepository(db),
		cfg.Email.DefaultFrom,
		cfg.Helpdesk.DefaultLocale,
		cfg.Helpdesk.NotifyIgnoredAddresses,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
