package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
)

var seedFileFlag string

var seedTemplatesCmd = &cobra.Command{
	Use:   "seed-templates",
	Short: "Load notification e-mail templates into the database",
	Long: `Seed-templates reads the YAML template seed file and upserts every
template it contains, keyed by name and locale. Existing rows are updated
in place, so re-running after editing the file is safe.`,
	RunE: runSeedTemplates,
}

func init() {
	seedTemplatesCmd.Flags().StringVar(&seedFileFlag, "file", "",
		"template seed file (defaults to helpdesk.template_seed_file)")
}

// templateSeed mirrors the YAML layout of db/templates.yaml.
type templateSeed struct {
	Templates []templateSeedEntry `yaml:"templates"`
}

type templateSeedEntry struct {
	Name      string  `yaml:"name"`
	Locale    *string `yaml:"locale"`
	Subject   string  `yaml:"subject"`
	Heading   string  `yaml:"heading"`
	PlainText string  `yaml:"plain_text"`
	HTML      string  `yaml:"html"`
}

var knownTemplateNames = map[string]bool{
	models.TemplateNewTicketSubmitter: true,
	models.TemplateNewTicketCC:        true,
	models.TemplateAssignedOwner:      true,
	models.TemplateAssignedCC:         true,
	models.TemplateUpdatedSubmitter:   true,
	models.TemplateUpdatedCC:          true,
	models.TemplateUpdatedOwner:       true,
	models.TemplateResolvedSubmitter:  true,
	models.TemplateResolvedCC:         true,
	models.TemplateResolvedOwner:      true,
	models.TemplateClosedSubmitter:    true,
	models.TemplateClosedCC:           true,
	models.TemplateClosedOwner:        true,
	models.TemplateEscalatedSubmitter: true,
	models.TemplateEscalatedCC:        true,
	models.TemplateEscalatedOwner:     true,
}

// loadTemplateSeed parses and validates the seed file. Names outside the
// known template set are rejected since the fan-out would never use them.
func loadTemplateSeed(path string) ([]*models.EmailTemplate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed templateSeed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if len(seed.Templates) == 0 {
		return nil, fmt.Errorf("seed file %s contains no templates", path)
	}

	templates := make([]*models.EmailTemplate, 0, len(seed.Templates))
	for _, entry := range seed.Templates {
		if !knownTemplateNames[entry.Name] {
			return nil, fmt.Errorf("unknown template name %q", entry.Name)
		}
		if entry.Subject == "" || entry.PlainText == "" {
			return nil, fmt.Errorf("template %q needs a subject and a plain_text body", entry.Name)
		}
		templates = append(templates, &models.EmailTemplate{
			TemplateName: entry.Name,
			Subject:      entry.Subject,
			Heading:      entry.Heading,
			PlainText:    entry.PlainText,
			HTML:         entry.HTML,
			Locale:       entry.Locale,
		})
	}
	return templates, nil
}

func runSeedTemplates(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := seedFileFlag
	if path == "" {
		path = cfg.Helpdesk.TemplateSeedFile
	}
	if path == "" {
		path = "db/templates.yaml"
	}

	templates, err := loadTemplateSeed(path)
	if err != nil {
		return err
	}

	db, err := openDatabase(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewEmailTemplateRepository(db)
	for _, tmpl := range templates {
		if err := repo.Upsert(tmpl); err != nil {
			return fmt.Errorf("seed template %q: %w", tmpl.TemplateName, err)
		}
	}
	fmt.Printf("Seeded %d notification templates from %s\n", len(templates), path)
	return nil
}
