package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
database:
  host: localhost
  port: 5432
  user: restaurant
  password: secret
  database: plaet
  max_conns: 8
rabbitmq:
  host: localhost
  port: 5672
  user: guest
  password: guest
  heartbeat: 15s
order_service:
  base_url: http://localhost:3000
  timeout: 5s
board:
  poll_interval: 20s
  swipe_threshold: 60
kitchen:
  protein_category_ids: ["cat-meat", "cat-fish"]
  extra_category_ids:
    - cat-sides
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, int32(8), cfg.Database.MaxConns)
	assert.Equal(t, 15*time.Second, cfg.RabbitMQ.Heartbeat)
	assert.Equal(t, 5*time.Second, cfg.OrderService.Timeout)
	assert.Equal(t, 20*time.Second, cfg.Board.PollInterval)
	assert.Equal(t, float64(60), cfg.Board.SwipeThreshold)
	assert.Equal(t, []string{"cat-meat", "cat-fish"}, cfg.Kitchen.ProteinCategoryIDs)
	assert.Equal(t, []string{"cat-sides"}, cfg.Kitchen.ExtraCategoryIDs)

	// defaults
	assert.Equal(t, float64(150), cfg.Board.MaxSwipe)
	assert.Equal(t, 15*time.Minute, cfg.Board.WarningAfter)
	assert.Equal(t, 25*time.Minute, cfg.Board.UrgentAfter)
	assert.Equal(t, 768, cfg.Board.MobileBreakpoint)
	assert.Equal(t, time.Minute, cfg.Board.RenderInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestParseEmptyKitchenSection(t *testing.T) {
	cfg, err := Parse([]byte("board:\n  poll_interval: 30s\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Kitchen.ProteinCategoryIDs)
	assert.Empty(t, cfg.Kitchen.ExtraCategoryIDs)
	assert.Equal(t, 30*time.Second, cfg.Board.PollInterval)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("board: [unterminated"))
	assert.Error(t, err)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	t.Setenv("PLAET_DB_HOST", "db.internal")
	t.Setenv("PLAET_DB_PORT", "6543")
	t.Setenv("PLAET_ORDER_SERVICE_URL", "http://orders:3000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "http://orders:3000", cfg.OrderService.BaseURL)
}

func TestLoadRejectsBadPort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	t.Setenv("PLAET_RABBITMQ_PORT", "not-a-port")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
