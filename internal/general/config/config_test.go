package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("http:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 5672, cfg.RabbitMQ.Port)
	assert.Equal(t, SourceSeed, cfg.Catalog.Source)
	assert.Equal(t, "Cargos", cfg.Catalog.Sheet)
	assert.Equal(t, ActionsMock, cfg.Actions.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Session.StaleAfter)
	assert.Equal(t, 15*time.Second, cfg.Session.LocateWait)
	assert.Equal(t, 500.0, cfg.Session.NearbyRadiusKM)
	assert.NotEmpty(t, cfg.Ticket.SecretKey)
	assert.Equal(t, 15*time.Minute, cfg.Ticket.TTL)
}

func TestParseExpandsEnvironment(t *testing.T) {
	t.Setenv("DALNOBOI_DB_PASSWORD", "s3cret")
	raw := `
database:
  user: cargo
  password: ${DALNOBOI_DB_PASSWORD}
  database: dalnoboi
catalog:
  source: Postgres
session:
  stale_after: 2m
`
	cfg, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, SourcePostgres, cfg.Catalog.Source)
	assert.Equal(t, 2*time.Minute, cfg.Session.StaleAfter)
	assert.NoError(t, cfg.RequireDatabase())
}

func TestValidateCollectsProblems(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"bad port", "http:\n  port: 70000\n", []string{"http.port"}},
		{"postgres without credentials", "catalog:\n  source: postgres\n", []string{"database.user", "database.password", "database.database"}},
		{"xlsx without file", "catalog:\n  source: xlsx\n", []string{"catalog.file"}},
		{"unknown source", "catalog:\n  source: mongo\n", []string{"catalog.source"}},
		{"rabbit without credentials", "actions:\n  backend: rabbitmq\n", []string{"rabbitmq.user", "rabbitmq.password"}},
		{"unknown backend", "actions:\n  backend: kafka\n", []string{"actions.backend"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestRequireDatabase(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Error(t, cfg.RequireDatabase())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  port: 8181\n"), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.HTTP.Port)

	_, err = LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
