package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
	assert.Equal(t, 2000, cfg.Room.HistoryCap)
	assert.Equal(t, "default", cfg.Room.Default)
	assert.Equal(t, 54*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, 60*time.Second, cfg.WebSocket.PongWait)
	assert.Equal(t, 10*time.Second, cfg.WebSocket.WriteWait)
	assert.Equal(t, int64(64*1024), cfg.WebSocket.MaxMessageSize)
	assert.Equal(t, 256, cfg.WebSocket.SendBuffer)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestFromViper_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("HISTORY_CAP", "50")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Room.HistoryCap)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{name: "zero cap", key: "room.history_cap", val: 0},
		{name: "port out of range", key: "server.port", val: 70000},
		{name: "blank default room", key: "room.default", val: "  "},
		{name: "ping not shorter than pong", key: "websocket.ping_interval", val: "2m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)
			_, err := FromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestValidate_AfterOverride(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	cfg.Room.HistoryCap = -1
	assert.ErrorContains(t, cfg.Validate(), "history_cap")

	cfg.Room.HistoryCap = 10
	cfg.WebSocket.MaxMessageSize = 0
	assert.ErrorContains(t, cfg.Validate(), "max_message_size")

	cfg.WebSocket.MaxMessageSize = 1024
	assert.NoError(t, cfg.Validate())
}
