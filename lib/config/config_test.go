package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	assert.Equal(t, "0.0.0.0:7076", cfg.Addr())
	assert.Greater(t, cfg.HandshakeRate, 0.0)
	assert.Greater(t, cfg.HandshakeBurst, 0)
}

func TestNewServerConfigFromViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults()

	viper.Set("listen.host", "127.0.0.1")
	viper.Set("listen.port", 9000)

	cfg := NewServerConfigFromViper()
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
	assert.Equal(t, DefaultServerConfig().HandshakeRate, cfg.HandshakeRate)
}
