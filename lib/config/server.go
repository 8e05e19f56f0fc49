package config

import (
	"net"
	"strconv"

	"github.com/spf13/viper"
)

// ServerConfig holds the responder-side listener settings.
type ServerConfig struct {
	// Host and Port the listener binds to.
	Host string
	Port int

	// HandshakeRate and HandshakeBurst bound how many handshakes per
	// second the listener will start.
	HandshakeRate  float64
	HandshakeBurst int
}

var defaultServerConfig = &ServerConfig{
	Host:           "0.0.0.0",
	Port:           7076,
	HandshakeRate:  32,
	HandshakeBurst: 64,
}

// DefaultServerConfig returns the built-in defaults.
func DefaultServerConfig() *ServerConfig {
	return defaultServerConfig
}

// NewServerConfigFromViper builds a ServerConfig from current viper
// settings.
func NewServerConfigFromViper() *ServerConfig {
	return &ServerConfig{
		Host:           viper.GetString("listen.host"),
		Port:           viper.GetInt("listen.port"),
		HandshakeRate:  viper.GetFloat64("limits.handshake_rate"),
		HandshakeBurst: viper.GetInt("limits.handshake_burst"),
	}
}

// Addr returns the host:port the listener binds to.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
