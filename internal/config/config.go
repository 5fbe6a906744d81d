package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"hidden-quest/internal/game"
)

type ServerConfig struct {
	HTTPAddr          string        `mapstructure:"http_addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type WebSocketConfig struct {
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	PongWait        time.Duration `mapstructure:"pong_wait"`
	WriteWait       time.Duration `mapstructure:"write_wait"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes"`
}

type GameConfig struct {
	HandLimit    int `mapstructure:"hand_limit"`
	MinPlayers   int `mapstructure:"min_players"`
	MaxPlayers   int `mapstructure:"max_players"`
	StartingHand int `mapstructure:"starting_hand"`
	QuestChoices int `mapstructure:"quest_choices"`
	StartHP      int `mapstructure:"start_hp"`
	StartATK     int `mapstructure:"start_atk"`
	BuffDuration int `mapstructure:"buff_duration"`
}

// Rules converts the section into engine rules.
func (g GameConfig) Rules() game.Rules {
	return game.Rules{
		HandLimit:    g.HandLimit,
		MinPlayers:   g.MinPlayers,
		MaxPlayers:   g.MaxPlayers,
		StartingHand: g.StartingHand,
		QuestChoices: g.QuestChoices,
		StartHP:      g.StartHP,
		StartATK:     g.StartATK,
		BuffDuration: g.BuffDuration,
	}
}

type StoreConfig struct {
	Driver        string        `mapstructure:"driver"`
	DSN           string        `mapstructure:"dsn"`
	Retention     time.Duration `mapstructure:"retention"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Game      GameConfig      `mapstructure:"game"`
	Bot       game.Weights    `mapstructure:"bot"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

func setDefaults(v *viper.Viper) {
	r := game.DefaultRules()
	w := game.DefaultWeights()

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("websocket.ping_interval", 30*time.Second)
	v.SetDefault("websocket.pong_wait", 60*time.Second)
	v.SetDefault("websocket.write_wait", 10*time.Second)
	v.SetDefault("websocket.max_message_bytes", 8192)

	v.SetDefault("game.hand_limit", r.HandLimit)
	v.SetDefault("game.min_players", r.MinPlayers)
	v.SetDefault("game.max_players", r.MaxPlayers)
	v.SetDefault("game.starting_hand", r.StartingHand)
	v.SetDefault("game.quest_choices", r.QuestChoices)
	v.SetDefault("game.start_hp", r.StartHP)
	v.SetDefault("game.start_atk", r.StartATK)
	v.SetDefault("game.buff_duration", r.BuffDuration)

	v.SetDefault("bot.kill", w.Kill)
	v.SetDefault("bot.damage", w.Damage)
	v.SetDefault("bot.heal", w.Heal)
	v.SetDefault("bot.armor", w.Armor)
	v.SetDefault("bot.buff", w.Buff)
	v.SetDefault("bot.trap", w.Trap)
	v.SetDefault("bot.draw", w.Draw)
	v.SetDefault("bot.quest_match", w.QuestMatch)
	v.SetDefault("bot.self_harm", w.SelfHarm)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.retention", 24*time.Hour)
	v.SetDefault("store.sweep_interval", 10*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads defaults, then the YAML file at path if it exists, then HQ_
// environment variables (HQ_STORE_DRIVER, HQ_SERVER_HTTP_ADDR, ...). A
// missing file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default is the configuration with no file and no environment.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

func (c Config) Validate() error {
	g := c.Game
	switch {
	case g.MinPlayers < 2 || g.MaxPlayers < g.MinPlayers:
		return fmt.Errorf("game: invalid player bounds %d..%d", g.MinPlayers, g.MaxPlayers)
	case g.HandLimit < 1:
		return fmt.Errorf("game: hand_limit must be positive")
	case g.StartHP < 1:
		return fmt.Errorf("game: start_hp must be positive")
	case g.QuestChoices < 1:
		return fmt.Errorf("game: quest_choices must be at least 1")
	case g.StartingHand < 0:
		return fmt.Errorf("game: starting_hand must not be negative")
	case g.BuffDuration < 1:
		return fmt.Errorf("game: buff_duration must be positive")
	}
	if c.Store.Retention <= 0 || c.Store.SweepInterval <= 0 {
		return fmt.Errorf("store: retention and sweep_interval must be positive")
	}
	if c.WebSocket.PingInterval <= 0 || c.WebSocket.PongWait <= c.WebSocket.PingInterval {
		return fmt.Errorf("websocket: pong_wait must exceed a positive ping_interval")
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store: %s driver needs a dsn", c.Store.Driver)
		}
	default:
		return fmt.Errorf("store: unknown driver %q", c.Store.Driver)
	}
	return nil
}
