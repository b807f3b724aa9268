package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kingoftheravens/fliwr.io/internal/log"
)

// Config is the server configuration.
type Config struct {
	Server    ServerConfig
	Room      RoomConfig
	WebSocket WebSocketConfig
	Log       log.Config
}

type ServerConfig struct {
	Host string
	Port int
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RoomConfig struct {
	HistoryCap int    `mapstructure:"history_cap"`
	Default    string `mapstructure:"default"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
}

// Load reads .env (if present), then config/config.yaml (if present), then
// environment overrides, on top of built-in defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper applies defaults and env bindings to v and decodes it.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("room.history_cap", "HISTORY_CAP")
	v.BindEnv("room.default", "DEFAULT_ROOM")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.pretty", "LOG_PRETTY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 54*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("room.history_cap", 2000)
	v.SetDefault("room.default", "default")
	v.SetDefault("websocket.ping_interval", "54s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 64*1024)
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Validate reports the first setting that is out of range.
func (c *Config) Validate() error {
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	case c.Room.HistoryCap <= 0:
		return fmt.Errorf("room.history_cap must be positive: %d", c.Room.HistoryCap)
	case strings.TrimSpace(c.Room.Default) == "":
		return errors.New("room.default must not be blank")
	case c.WebSocket.PingInterval >= c.WebSocket.PongWait:
		return fmt.Errorf("websocket.ping_interval (%s) must be shorter than pong_wait (%s)", c.WebSocket.PingInterval, c.WebSocket.PongWait)
	case c.WebSocket.MaxMessageSize <= 0:
		return fmt.Errorf("websocket.max_message_size must be positive: %d", c.WebSocket.MaxMessageSize)
	case c.WebSocket.SendBuffer <= 0:
		return fmt.Errorf("websocket.send_buffer must be positive: %d", c.WebSocket.SendBuffer)
	}
	return nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return defaultVal
	}
	return d
}
