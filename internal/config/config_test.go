package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hidden-quest/internal/game"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, game.DefaultRules(), cfg.Game.Rules())
	assert.Equal(t, game.DefaultWeights(), cfg.Bot)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Store.Retention)
	assert.Equal(t, Default(), cfg)
}

func TestFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  http_addr: ":9000"
game:
  hand_limit: 5
store:
  retention: 2h
bot:
  kill: 5
logging:
  format: json
`), 0o600))
	t.Setenv("HQ_STORE_DRIVER", "sqlite")
	t.Setenv("HQ_STORE_DSN", "/tmp/hq.db")
	t.Setenv("HQ_GAME_START_HP", "30")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.HTTPAddr)
	assert.Equal(t, 5, cfg.Game.HandLimit)
	assert.Equal(t, 30, cfg.Game.StartHP)
	assert.Equal(t, 2*time.Hour, cfg.Store.Retention)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/tmp/hq.db", cfg.Store.DSN)
	assert.Equal(t, 5, cfg.Bot.Kill)
	assert.Equal(t, game.DefaultWeights().Damage, cfg.Bot.Damage)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestValidate(t *testing.T) {
	t.Setenv("HQ_STORE_DRIVER", "postgres")
	_, err := Load("")
	assert.ErrorContains(t, err, "needs a dsn")

	cfg := Default()
	cfg.Game.MaxPlayers = 3
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Store.Driver = "redis"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Store.SweepInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.WebSocket.PongWait = cfg.WebSocket.PingInterval
	assert.Error(t, cfg.Validate())

	for name, mutate := range map[string]func(*Config){
		"quest_choices": func(c *Config) { c.Game.QuestChoices = 0 },
		"starting_hand": func(c *Config) { c.Game.StartingHand = -1 },
		"buff_duration": func(c *Config) { c.Game.BuffDuration = 0 },
	} {
		cfg = Default()
		mutate(&cfg)
		assert.ErrorContains(t, cfg.Validate(), name)
	}

	cfg = Default()
	cfg.Game.StartingHand = 0
	assert.NoError(t, cfg.Validate(), "an empty opening hand is allowed")
}
