package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseConfig(t *testing.T) {
	t.Run("GetDSN returns postgres connection string", func(t *testing.T) {
		dbConfig := &DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			Name:     "testdb",
			SSLMode:  "disable",
		}

		expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
		assert.Equal(t, expected, dbConfig.GetDSN())
	})

	t.Run("GetDSN returns mysql connection string", func(t *testing.T) {
		dbConfig := &DatabaseConfig{
			Driver:   "mysql",
			Host:     "db",
			Port:     3306,
			User:     "helpdesk",
			Password: "secret",
			Name:     "helpdesk",
		}

		assert.Equal(t, "helpdesk:secret@tcp(db:3306)/helpdesk?parseTime=true", dbConfig.GetDSN())
	})

	t.Run("GetDSN returns sqlite path", func(t *testing.T) {
		dbConfig := &DatabaseConfig{Driver: "sqlite3", Path: "/tmp/helpdesk.db"}
		assert.Equal(t, "/tmp/helpdesk.db", dbConfig.GetDSN())
	})
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  name: helpdesk
  env: test
server:
  host: 127.0.0.1
  port: 8085
email:
  default_from: helpdesk@example.com
helpdesk:
  default_locale: en
  auto_subscribe_on_response: true
`)
	require.NoError(t, os.WriteFile(file, content, 0o644))

	require.NoError(t, LoadFromFile(file))
	cfg := Get()
	require.NotNil(t, cfg)

	assert.Equal(t, "helpdesk", cfg.App.Name)
	assert.Equal(t, "127.0.0.1:8085", cfg.Server.GetServerAddr())
	assert.Equal(t, "helpdesk@example.com", cfg.Email.DefaultFrom)
	assert.True(t, cfg.Helpdesk.AutoSubscribeOnResponse)
	assert.False(t, cfg.App.IsProduction())
}

func TestEmailConfigDefaults(t *testing.T) {
	c := &EmailConfig{}
	assert.Equal(t, int64(512000), c.MaxAttachmentBytes())

	c.MaxAttachmentRaw = 1024
	assert.Equal(t, int64(1024), c.MaxAttachmentBytes())
}
